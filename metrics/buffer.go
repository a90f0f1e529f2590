package metrics

// sampleBuffer is a FIFO ring of latency samples in milliseconds.
// Pushing into a full buffer overwrites the oldest sample.
type sampleBuffer struct {
	data  []float64
	start int
	n     int
}

func newSampleBuffer(capacity int) *sampleBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &sampleBuffer{data: make([]float64, capacity)}
}

func (b *sampleBuffer) push(v float64) {
	capacity := len(b.data)
	if b.n < capacity {
		b.data[(b.start+b.n)%capacity] = v
		b.n++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % capacity
}

func (b *sampleBuffer) len() int {
	return b.n
}

// values returns a copy of the samples, oldest first.
func (b *sampleBuffer) values() []float64 {
	out := make([]float64, b.n)
	for i := 0; i < b.n; i++ {
		out[i] = b.data[(b.start+i)%len(b.data)]
	}
	return out
}

// prepend replays older samples in front of the current ones, keeping the
// most recent samples when the combined length exceeds capacity.
func (b *sampleBuffer) prepend(older *sampleBuffer) {
	if older == nil || older.n == 0 {
		return
	}
	current := b.values()
	b.start, b.n = 0, 0
	for _, v := range older.values() {
		b.push(v)
	}
	for _, v := range current {
		b.push(v)
	}
}
