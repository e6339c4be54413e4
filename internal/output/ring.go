package output

import "sync"

// sampleRing is a bounded FIFO of float32 samples between the pipeline's
// Render pushes and the device callback's pulls. Push accepts only what
// fits; Pop zero-fills on underrun so the device always gets silence
// rather than stale data.
type sampleRing struct {
	mu   sync.Mutex
	data []float32
	head int
	size int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{data: make([]float32, capacity)}
}

// Push appends up to len(src) samples and returns how many were accepted.
func (r *sampleRing) Push(src []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	free := len(r.data) - r.size
	n := len(src)
	if n > free {
		n = free
	}
	for i := 0; i < n; i++ {
		r.data[(r.head+r.size+i)%len(r.data)] = src[i]
	}
	r.size += n
	return n
}

// Pop fills dst, substituting zero for samples not yet buffered, and
// returns how many real samples were delivered.
func (r *sampleRing) Pop(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(dst)
	if n > r.size {
		n = r.size
	}
	for i := 0; i < n; i++ {
		dst[i] = r.data[(r.head+i)%len(r.data)]
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	r.head = (r.head + n) % len(r.data)
	r.size -= n
	return n
}

// Reset discards buffered samples.
func (r *sampleRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.size = 0
}
