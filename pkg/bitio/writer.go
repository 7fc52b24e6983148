package bitio

import (
	"fmt"
	"io"
)

// Writer packs groups of 0..64 bits into an io.Writer.
//
// Bits that do not fill a whole byte are held until the
// next write; FlushBits (or Close) must be called before the
// underlying stream is closed or the trailing bits are lost.
type Writer struct {
	dst io.Writer

	held    uint8 // pending bits, left aligned
	numHeld uint8 // always < 8
	written uint64

	err error
	buf [8]byte
}

// NewWriter returns a Writer emitting bytes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{dst: w}
}

// WriteBits appends the low n bits (n <= 64) of value,
// most significant first.
func (w *Writer) WriteBits(value uint64, n uint8) {
	if n > 64 {
		w.setErr(fmt.Errorf("bitio: cannot write %d bits", n))
		return
	}
	if n == 0 {
		return
	}
	value &= mask(n)

	total := n + w.numHeld
	nextHeld := total % 8
	if total < 8 {
		w.held |= uint8(value << (8 - total))
		w.numHeld = total
		return
	}

	// held bits, then every bit of value except the
	// nextHeld trailing ones, form whole bytes.
	body := n - nextHeld
	word := uint64(w.held>>(8-w.numHeld)) << body
	word |= value >> nextHeld
	w.emit(word, int(total/8))

	w.held = uint8(value << (8 - nextHeld))
	w.numHeld = nextHeld
}

// emit writes the low numBytes bytes of word, big-endian.
func (w *Writer) emit(word uint64, numBytes int) {
	buf := w.buf[:numBytes]
	for i := numBytes - 1; i >= 0; i-- {
		buf[i] = byte(word)
		word >>= 8
	}
	w.write(buf)
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.dst.Write(p)
	w.written += uint64(n) * 8
	if err != nil {
		w.setErr(err)
	}
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// WriteBool writes a single bit.
func (w *Writer) WriteBool(b bool) {
	var v uint64
	if b {
		v = 1
	}
	w.WriteBits(v, 1)
}

// FlushBits pads the held bits with zeros and emits
// the resulting byte. It is a no-op when already aligned.
func (w *Writer) FlushBits() {
	if w.numHeld == 0 {
		return
	}
	w.WriteBits(0, 8-w.numHeld)
}

// Close flushes held bits and returns the first error
// seen by the writer. It does not close the destination.
func (w *Writer) Close() error {
	w.FlushBits()
	return w.err
}

// TotalBitsWritten returns emitted bits plus bits still held.
func (w *Writer) TotalBitsWritten() uint64 {
	return w.written + uint64(w.numHeld)
}

// IsByteAligned reports whether no bits are held.
func (w *Writer) IsByteAligned() bool {
	return w.numHeld == 0
}

func (w *Writer) checkAligned() bool {
	if w.numHeld != 0 {
		w.setErr(ErrNotAligned)
		return false
	}
	return true
}

// WriteAlignedByte writes b; the writer must be aligned.
func (w *Writer) WriteAlignedByte(b uint8) {
	if !w.checkAligned() {
		return
	}
	w.buf[0] = b
	w.write(w.buf[:1])
}

// WriteAlignedBytes writes p verbatim; the writer must be aligned.
func (w *Writer) WriteAlignedBytes(p []byte) {
	if !w.checkAligned() {
		return
	}
	w.write(p)
}

// WriteAlignedStream copies all of r into the output;
// the writer must be aligned.
func (w *Writer) WriteAlignedStream(r io.Reader) {
	if !w.checkAligned() || w.err != nil {
		return
	}
	n, err := io.Copy(w.dst, r)
	w.written += uint64(n) * 8
	if err != nil {
		w.setErr(err)
	}
}

// Position returns the byte offset of the underlying stream.
func (w *Writer) Position() (int64, error) {
	s, ok := w.dst.(io.Seeker)
	if !ok {
		return 0, ErrNotSeekable
	}
	return s.Seek(0, io.SeekCurrent)
}

// SetPosition seeks the underlying stream to an absolute offset.
// The writer must be aligned. TotalBitsWritten is left untouched.
func (w *Writer) SetPosition(pos int64) error {
	s, ok := w.dst.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if !w.checkAligned() {
		return ErrNotAligned
	}
	_, err := s.Seek(pos, io.SeekStart)
	return err
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error {
	return w.err
}
