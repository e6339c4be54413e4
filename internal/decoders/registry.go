package decoders

import (
	"path/filepath"
	"strings"
	"sync"

	"tonearm/internal/media"
	"tonearm/internal/playback"
)

// Registry is a Decoder port implementation that routes each location to
// the adapter registered for its file extension and remembers which adapter
// owns each issued handle.
type Registry struct {
	mu     sync.Mutex
	byExt  map[string]playback.Decoder
	owners map[playback.Handle]playback.Decoder
}

// NewRegistry returns a registry with the built-in WAV and MP3 adapters.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:  make(map[string]playback.Decoder),
		owners: make(map[playback.Handle]playback.Decoder),
	}
	r.Register(".wav", NewWAV())
	r.Register(".mp3", NewMP3())
	return r
}

// Register maps a file extension (with leading dot) to a decoder.
func (r *Registry) Register(ext string, dec playback.Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[strings.ToLower(ext)] = dec
}

// CanDecode reports whether a registered adapter claims the location.
func (r *Registry) CanDecode(location string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byExt[strings.ToLower(filepath.Ext(location))]
	return ok
}

func (r *Registry) Open(location string) (playback.Handle, error) {
	ext := strings.ToLower(filepath.Ext(location))
	r.mu.Lock()
	dec, ok := r.byExt[ext]
	r.mu.Unlock()
	if !ok {
		return playback.Handle{}, playback.Errorf(playback.KindUnsupported, "no decoder registered for %q", ext)
	}
	handle, err := dec.Open(location)
	if err != nil {
		return playback.Handle{}, err
	}
	r.mu.Lock()
	r.owners[handle] = dec
	r.mu.Unlock()
	return handle, nil
}

func (r *Registry) Info(h playback.Handle) (media.StreamInfo, error) {
	dec, err := r.owner(h)
	if err != nil {
		return media.StreamInfo{}, err
	}
	return dec.Info(h)
}

func (r *Registry) Tags(h playback.Handle) (media.TagBundle, error) {
	dec, err := r.owner(h)
	if err != nil {
		return media.TagBundle{}, err
	}
	return dec.Tags(h)
}

func (r *Registry) Read(h playback.Handle, dst []float32, maxFrames int) (int, error) {
	dec, err := r.owner(h)
	if err != nil {
		return 0, err
	}
	return dec.Read(h, dst, maxFrames)
}

func (r *Registry) Seek(h playback.Handle, seconds float64) error {
	dec, err := r.owner(h)
	if err != nil {
		return err
	}
	return dec.Seek(h, seconds)
}

func (r *Registry) Close(h playback.Handle) error {
	r.mu.Lock()
	dec, ok := r.owners[h]
	delete(r.owners, h)
	r.mu.Unlock()
	if !ok {
		return playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	return dec.Close(h)
}

func (r *Registry) owner(h playback.Handle) (playback.Decoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dec, ok := r.owners[h]
	if !ok {
		return nil, playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	return dec, nil
}
