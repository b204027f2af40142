package protocol

// FifoBuffer is a fixed-capacity byte ring used to stage serial input.
// It is not safe for concurrent use.
type FifoBuffer struct {
	buf  []byte
	head int // next byte to read
	n    int // bytes queued
}

// NewFifoBuffer creates a FIFO holding up to capacity bytes.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write queues as much of data as fits and returns the count.
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		if f.n == len(f.buf) {
			break
		}
		f.buf[(f.head+f.n)%len(f.buf)] = b
		f.n++
		written++
	}
	return written
}

// Read dequeues up to len(data) bytes.
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for read < len(data) && f.n > 0 {
		data[read] = f.buf[f.head]
		f.head = (f.head + 1) % len(f.buf)
		f.n--
		read++
	}
	return read
}

// Available returns the number of queued bytes.
func (f *FifoBuffer) Available() int {
	return f.n
}

// Free returns the remaining room.
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.n
}

// Reset drops everything queued.
func (f *FifoBuffer) Reset() {
	f.head = 0
	f.n = 0
}
