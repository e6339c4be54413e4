package decoders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"tonearm/internal/media"
	"tonearm/internal/playback"
)

const (
	waveFormatPCM   = 1
	waveFormatFloat = 3
)

// WAV decodes RIFF/WAVE files: integer PCM at 8/16/24/32 bits and IEEE
// float at 32 bits, with LIST/INFO metadata. Each open file is tracked
// behind an opaque handle; nothing about the *os.File leaks to callers.
type WAV struct {
	mu       sync.Mutex
	sessions map[playback.Handle]*wavSession
}

type wavSession struct {
	file          *os.File
	info          media.StreamInfo
	tags          media.TagBundle
	format        uint16
	dataStart     int64
	totalFrames   int64
	bytesPerFrame int
	cursor        int64 // frames from the start of the data chunk
}

// NewWAV returns an empty WAV adapter.
func NewWAV() *WAV {
	return &WAV{sessions: make(map[playback.Handle]*wavSession)}
}

func (w *WAV) Open(location string) (playback.Handle, error) {
	file, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return playback.Handle{}, playback.WrapErr(playback.KindNotFound, fmt.Sprintf("no file at %s", location), err)
		}
		return playback.Handle{}, playback.WrapErr(playback.KindIOError, fmt.Sprintf("open %s", location), err)
	}

	session, err := parseWAV(file)
	if err != nil {
		_ = file.Close()
		return playback.Handle{}, err
	}
	session.file = file

	handle := playback.NewHandle()
	w.mu.Lock()
	w.sessions[handle] = session
	w.mu.Unlock()
	return handle, nil
}

func (w *WAV) Info(h playback.Handle) (media.StreamInfo, error) {
	s, err := w.session(h)
	if err != nil {
		return media.StreamInfo{}, err
	}
	return s.info, nil
}

func (w *WAV) Tags(h playback.Handle) (media.TagBundle, error) {
	s, err := w.session(h)
	if err != nil {
		return media.TagBundle{}, err
	}
	return s.tags.Clone(), nil
}

func (w *WAV) Read(h playback.Handle, dst []float32, maxFrames int) (int, error) {
	s, err := w.session(h)
	if err != nil {
		return 0, err
	}

	remaining := s.totalFrames - s.cursor
	if remaining <= 0 {
		return 0, nil
	}
	frames := int64(maxFrames)
	if frames > remaining {
		frames = remaining
	}
	channels := s.info.Channels
	if int64(len(dst)) < frames*int64(channels) {
		return 0, playback.Errorf(playback.KindInvalidArgument, "destination holds %d samples, need %d", len(dst), frames*int64(channels))
	}

	raw := make([]byte, frames*int64(s.bytesPerFrame))
	offset := s.dataStart + s.cursor*int64(s.bytesPerFrame)
	n, err := s.file.ReadAt(raw, offset)
	if err != nil && err != io.EOF {
		return 0, playback.WrapErr(playback.KindIOError, "read pcm data", err)
	}
	gotFrames := n / s.bytesPerFrame
	if gotFrames == 0 {
		return 0, nil
	}

	if err := decodeFrames(raw[:gotFrames*s.bytesPerFrame], dst, s.format, s.info.BitDepth); err != nil {
		return 0, err
	}
	s.cursor += int64(gotFrames)
	return gotFrames, nil
}

func (w *WAV) Seek(h playback.Handle, seconds float64) error {
	s, err := w.session(h)
	if err != nil {
		return err
	}
	if seconds < 0 {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is negative", seconds)
	}
	frame := int64(math.Round(seconds * float64(s.info.SampleRate)))
	if frame > s.totalFrames {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is past end of stream", seconds)
	}
	s.cursor = frame
	return nil
}

func (w *WAV) Close(h playback.Handle) error {
	w.mu.Lock()
	s, ok := w.sessions[h]
	delete(w.sessions, h)
	w.mu.Unlock()
	if !ok {
		return playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	if err := s.file.Close(); err != nil {
		return playback.WrapErr(playback.KindIOError, "close wav file", err)
	}
	return nil
}

func (w *WAV) session(h playback.Handle) (*wavSession, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[h]
	if !ok {
		return nil, playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	return s, nil
}

// parseWAV walks the RIFF chunk list, extracting the fmt and data chunks
// plus LIST/INFO metadata when present.
func parseWAV(file *os.File) (*wavSession, error) {
	var riff [12]byte
	if _, err := io.ReadFull(file, riff[:]); err != nil {
		return nil, playback.WrapErr(playback.KindDecodeError, "file too short for a RIFF header", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, playback.Errorf(playback.KindDecodeError, "not a RIFF/WAVE file")
	}

	session := &wavSession{}
	var haveFmt, haveData bool
	offset := int64(12)
	for {
		var header [8]byte
		if _, err := file.ReadAt(header[:], offset); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, playback.WrapErr(playback.KindIOError, "read chunk header", err)
		}
		chunkID := string(header[0:4])
		chunkLen := int64(binary.LittleEndian.Uint32(header[4:8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if err := parseFmtChunk(file, body, chunkLen, session); err != nil {
				return nil, err
			}
			haveFmt = true
		case "data":
			session.dataStart = body
			if haveFmt && session.bytesPerFrame > 0 {
				session.totalFrames = chunkLen / int64(session.bytesPerFrame)
			} else {
				// fmt chunk after data; fixed up below.
				session.totalFrames = -chunkLen
			}
			haveData = true
		case "LIST":
			parseListInfo(file, body, chunkLen, &session.tags)
		}

		offset = body + chunkLen
		if chunkLen%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if !haveFmt {
		return nil, playback.Errorf(playback.KindDecodeError, "missing fmt chunk")
	}
	if !haveData {
		return nil, playback.Errorf(playback.KindDecodeError, "missing data chunk")
	}
	if session.totalFrames < 0 {
		session.totalFrames = -session.totalFrames / int64(session.bytesPerFrame)
	}
	session.info.DurationSeconds = float64(session.totalFrames) / float64(session.info.SampleRate)
	if err := session.info.Validate(); err != nil {
		return nil, playback.WrapErr(playback.KindDecodeError, "invalid stream parameters", err)
	}
	return session, nil
}

func parseFmtChunk(file *os.File, offset, length int64, session *wavSession) error {
	if length < 16 {
		return playback.Errorf(playback.KindDecodeError, "fmt chunk too short (%d bytes)", length)
	}
	var raw [16]byte
	if _, err := file.ReadAt(raw[:], offset); err != nil {
		return playback.WrapErr(playback.KindIOError, "read fmt chunk", err)
	}
	format := binary.LittleEndian.Uint16(raw[0:2])
	channels := int(binary.LittleEndian.Uint16(raw[2:4]))
	sampleRate := int(binary.LittleEndian.Uint32(raw[4:8]))
	bits := int(binary.LittleEndian.Uint16(raw[14:16]))

	switch format {
	case waveFormatPCM:
		if bits != 8 && bits != 16 && bits != 24 && bits != 32 {
			return playback.Errorf(playback.KindUnsupported, "pcm bit depth %d not supported", bits)
		}
	case waveFormatFloat:
		if bits != 32 {
			return playback.Errorf(playback.KindUnsupported, "float bit depth %d not supported", bits)
		}
	default:
		return playback.Errorf(playback.KindUnsupported, "wave format code %d not supported", format)
	}
	if channels < 1 || sampleRate <= 0 {
		return playback.Errorf(playback.KindDecodeError, "invalid fmt chunk: %d channels at %d Hz", channels, sampleRate)
	}

	session.format = format
	session.info.SampleRate = sampleRate
	session.info.Channels = channels
	session.info.BitDepth = bits
	session.bytesPerFrame = channels * bits / 8
	return nil
}

// parseListInfo extracts LIST/INFO metadata. Failures here never fail the
// open: metadata is best-effort.
func parseListInfo(file *os.File, offset, length int64, tags *media.TagBundle) {
	if length < 4 {
		return
	}
	var kind [4]byte
	if _, err := file.ReadAt(kind[:], offset); err != nil || string(kind[:]) != "INFO" {
		return
	}
	pos := offset + 4
	end := offset + length
	for pos+8 <= end {
		var header [8]byte
		if _, err := file.ReadAt(header[:], pos); err != nil {
			return
		}
		subID := string(header[0:4])
		subLen := int64(binary.LittleEndian.Uint32(header[4:8]))
		if pos+8+subLen > end {
			return
		}
		raw := make([]byte, subLen)
		if _, err := file.ReadAt(raw, pos+8); err != nil {
			return
		}
		value := strings.TrimRight(string(raw), "\x00")

		// An INFO entry that exists with an empty payload is an explicit
		// empty value, still distinct from a missing entry.
		switch subID {
		case "INAM":
			tags.Title = media.StringTag(value)
		case "IART":
			tags.Artist = media.StringTag(value)
		case "IPRD":
			tags.Album = media.StringTag(value)
		case "IGNR":
			tags.Genre = media.StringTag(value)
		case "ICRD":
			if year, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				tags.Year = media.IntTag(year)
			}
		case "ITRK", "IPRT":
			if track, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				tags.TrackNumber = media.IntTag(track)
			}
		}

		pos += 8 + subLen
		if subLen%2 == 1 {
			pos++
		}
	}
}

// decodeFrames converts raw little-endian samples to interleaved float32.
func decodeFrames(raw []byte, dst []float32, format uint16, bits int) error {
	switch {
	case format == waveFormatFloat && bits == 32:
		for i := 0; i+4 <= len(raw); i += 4 {
			dst[i/4] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i : i+4]))
		}
	case bits == 8:
		for i, b := range raw {
			dst[i] = (float32(b) - 128) / 128
		}
	case bits == 16:
		for i := 0; i+2 <= len(raw); i += 2 {
			dst[i/2] = float32(int16(binary.LittleEndian.Uint16(raw[i:i+2]))) / 32768
		}
	case bits == 24:
		for i := 0; i+3 <= len(raw); i += 3 {
			v := int32(raw[i]) | int32(raw[i+1])<<8 | int32(raw[i+2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF)
			}
			dst[i/3] = float32(v) / 8388608
		}
	case bits == 32:
		for i := 0; i+4 <= len(raw); i += 4 {
			dst[i/4] = float32(int32(binary.LittleEndian.Uint32(raw[i:i+4]))) / 2147483648
		}
	default:
		return playback.Errorf(playback.KindUnsupported, "bit depth %d not supported", bits)
	}
	return nil
}
