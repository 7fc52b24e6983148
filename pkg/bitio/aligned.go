package bitio

import (
	"fmt"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ReadAlignedInt reads a big-endian T occupying
// exactly sizeof(T) bytes.
func ReadAlignedInt[T constraints.Integer](r *Reader) T {
	var zero T
	return ReadAlignedIntN[T](r, int(unsafe.Sizeof(zero)))
}

// ReadAlignedIntN reads numBytes big-endian bytes into a T.
// numBytes may be smaller than sizeof(T); the value is
// zero-extended, never sign-extended.
func ReadAlignedIntN[T constraints.Integer](r *Reader, numBytes int) T {
	if numBytes < 1 || numBytes > 8 {
		r.setErr(fmt.Errorf("bitio: cannot read %d-byte integer", numBytes))
		return 0
	}
	if !r.checkAligned() {
		return 0
	}
	buf := r.bytes[:numBytes]
	r.fill(buf)
	r.total += uint64(numBytes) * 8
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return T(v)
}

// WriteAlignedInt writes v as sizeof(T) big-endian bytes.
func WriteAlignedInt[T constraints.Integer](w *Writer, v T) {
	WriteAlignedIntN(w, v, int(unsafe.Sizeof(v)))
}

// WriteAlignedIntN writes the low numBytes bytes of v, big-endian.
func WriteAlignedIntN[T constraints.Integer](w *Writer, v T, numBytes int) {
	if numBytes < 1 || numBytes > 8 {
		w.setErr(fmt.Errorf("bitio: cannot write %d-byte integer", numBytes))
		return
	}
	if !w.checkAligned() {
		return
	}
	w.emit(uint64(v), numBytes)
}
