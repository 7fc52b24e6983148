// Package bitio provides MSB-first bit-level readers and writers
// over byte streams, plus byte-aligned big-endian integer codecs.
//
// Bits are packed from the most significant bit of each byte:
//
//	byte  0               1
//	     +---------------+---------------+-
//	     |7 6 5 4 3 2 1 0|7 6 5 4 3 2 1 0|...
//	     +---------------+---------------+-
//	bit   0 1 2 3 4 5 6 7 8 9 ...
//
// Neither Reader nor Writer is safe for concurrent use.
package bitio

import (
	"errors"
	"fmt"
	"io"
)

// ErrNotAligned is recorded when a byte-aligned operation
// is attempted while sub-byte bits are still held.
var ErrNotAligned = errors.New("bitio: stream not byte aligned")

// ErrNotSeekable is returned by position operations on
// streams that do not implement io.Seeker.
var ErrNotSeekable = errors.New("bitio: stream not seekable")

// Reader reads groups of 0..64 bits from an io.Reader.
//
// Reads never fail loudly: the first I/O error is kept
// and further reads return zero bits. Callers poll
// IsStreamGood or Err at block boundaries.
type Reader struct {
	src io.Reader

	held    uint8 // low numHeld bits are pending
	numHeld uint8 // always < 8
	total   uint64

	err   error
	one   [1]byte
	bytes [8]byte
}

// NewReader returns a Reader consuming bytes from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r}
}

// mask returns a mask of the low n bits.
func mask(n uint8) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// ReadBits returns the next n bits (n <= 64) as an
// unsigned integer, first bit in the most significant position.
func (r *Reader) ReadBits(n uint8) uint64 {
	if n > 64 {
		r.setErr(fmt.Errorf("bitio: cannot read %d bits", n))
		return 0
	}
	r.total += uint64(n)
	if n <= r.numHeld {
		v := (uint64(r.held) >> (r.numHeld - n)) & mask(n)
		r.numHeld -= n
		r.held &= uint8(mask(r.numHeld))
		return v
	}

	need := n - r.numHeld
	v := uint64(r.held) & mask(r.numHeld)
	v <<= need

	word := r.loadAlignedWord(need)
	next := (8 - need%8) % 8
	v |= word >> next

	r.numHeld = next
	r.held = uint8(word & mask(next))
	return v
}

// loadAlignedWord loads ceil(numBits/8) bytes as a big-endian word.
func (r *Reader) loadAlignedWord(numBits uint8) uint64 {
	numBytes := int(numBits+7) / 8
	buf := r.bytes[:numBytes]
	if !r.fill(buf) {
		return 0
	}
	var word uint64
	for _, b := range buf {
		word = word<<8 | uint64(b)
	}
	return word
}

func (r *Reader) fill(buf []byte) bool {
	if r.err != nil {
		clear(buf)
		return false
	}
	n, err := io.ReadFull(r.src, buf)
	if err != nil {
		clear(buf[n:])
		r.setErr(err)
	}
	return true
}

func (r *Reader) setErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

// ReadBool reads a single bit.
func (r *Reader) ReadBool() bool {
	return r.ReadBits(1) != 0
}

// ReadUint8 reads n (<= 8) bits.
func (r *Reader) ReadUint8(n uint8) uint8 {
	return uint8(r.ReadBits(n))
}

// ReadUint16 reads n (<= 16) bits.
func (r *Reader) ReadUint16(n uint8) uint16 {
	return uint16(r.ReadBits(n))
}

// ReadUint32 reads n (<= 32) bits.
func (r *Reader) ReadUint32(n uint8) uint32 {
	return uint32(r.ReadBits(n))
}

// TotalBitsRead returns the number of bits consumed so far,
// including bits discarded by FlushHeldBits.
func (r *Reader) TotalBitsRead() uint64 {
	return r.total
}

// FlushHeldBits discards the bits left over from the
// last partially consumed byte and returns them.
func (r *Reader) FlushHeldBits() uint8 {
	r.total += uint64(r.numHeld)
	ret := r.held
	r.held = 0
	r.numHeld = 0
	return ret
}

// IsByteAligned reports whether no bits are held.
func (r *Reader) IsByteAligned() bool {
	return r.numHeld == 0
}

func (r *Reader) checkAligned() bool {
	if r.numHeld != 0 {
		r.setErr(ErrNotAligned)
		return false
	}
	return true
}

// ReadAlignedByte reads one whole byte, bypassing the bit register.
func (r *Reader) ReadAlignedByte() uint8 {
	if !r.checkAligned() {
		return 0
	}
	r.fill(r.one[:])
	r.total += 8
	return r.one[0]
}

// ReadAlignedBytes fills buf from the stream.
func (r *Reader) ReadAlignedBytes(buf []byte) {
	if !r.checkAligned() {
		clear(buf)
		return
	}
	r.fill(buf)
	r.total += uint64(len(buf)) * 8
}

// SkipAlignedBytes skips n bytes of input.
func (r *Reader) SkipAlignedBytes(n int64) {
	if !r.checkAligned() || r.err != nil {
		return
	}
	if s, ok := r.src.(io.Seeker); ok {
		if _, err := s.Seek(n, io.SeekCurrent); err != nil {
			r.setErr(err)
			return
		}
		r.total += uint64(n) * 8
		return
	}
	copied, err := io.CopyN(io.Discard, r.src, n)
	r.total += uint64(copied) * 8
	if err != nil {
		r.setErr(err)
	}
}

// ReadAlignedStringTerminated reads bytes up to a NUL
// terminator. The terminator is consumed but not returned.
func (r *Reader) ReadAlignedStringTerminated() string {
	var out []byte
	for {
		c := r.ReadAlignedByte()
		if c == 0 || r.err != nil {
			break
		}
		out = append(out, c)
	}
	return string(out)
}

// Position returns the byte offset of the underlying stream.
func (r *Reader) Position() (int64, error) {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return 0, ErrNotSeekable
	}
	return s.Seek(0, io.SeekCurrent)
}

// SetPosition seeks the underlying stream to an absolute
// byte offset and drops any held bits. TotalBitsRead is left
// untouched: it counts consumed bits, not the stream offset.
func (r *Reader) SetPosition(pos int64) error {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	r.held = 0
	r.numHeld = 0
	_, err := s.Seek(pos, io.SeekStart)
	return err
}

// ClearStreamState forgets a previously recorded error.
func (r *Reader) ClearStreamState() {
	r.err = nil
}

// IsStreamGood reports whether every read so far succeeded.
func (r *Reader) IsStreamGood() bool {
	return r.err == nil
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}
