package bitio

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type field struct {
	value uint64
	bits  uint8
}

func writeFields(t *testing.T, fields []field) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, f := range fields {
		w.WriteBits(f.value, f.bits)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRoundTripEveryWidth(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := uint8(0); n <= 64; n++ {
		values := []uint64{0, mask(n), rng.Uint64() & mask(n)}
		if n > 0 {
			values = append(values, uint64(1)<<(n-1))
		}
		for _, v := range values {
			// prefix with a 3-bit field so every width is
			// also exercised across a byte boundary
			data := writeFields(t, []field{{5, 3}, {v, n}})
			r := NewReader(bytes.NewReader(data))
			if got := r.ReadBits(3); got != 5 {
				t.Fatalf("width %d: prefix = %d", n, got)
			}
			if got := r.ReadBits(n); got != v {
				t.Fatalf("width %d: got %#x, want %#x", n, got, v)
			}
			if !r.IsStreamGood() {
				t.Fatalf("width %d: %v", n, r.Err())
			}
		}
	}
}

func TestMixedWidths(t *testing.T) {
	fields := []field{
		{0x5, 3},
		{0x1abc, 13},
		{0xdeadbeefcafe, 48},
		{1, 1},
		{0, 0},
		{0xffffffffffffffff, 64},
		{0x7f, 7},
		{0x123, 10},
	}
	data := writeFields(t, fields)
	r := NewReader(bytes.NewReader(data))
	var got []field
	for _, f := range fields {
		got = append(got, field{r.ReadBits(f.bits), f.bits})
	}
	if diff := cmp.Diff(fields, got, cmp.AllowUnexported(field{})); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	var total uint64
	for _, f := range fields {
		total += uint64(f.bits)
	}
	if r.TotalBitsRead() != total {
		t.Errorf("TotalBitsRead = %d, want %d", r.TotalBitsRead(), total)
	}
}

func TestRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		fields := make([]field, 1+rng.Intn(40))
		for i := range fields {
			n := uint8(rng.Intn(65))
			fields[i] = field{rng.Uint64() & mask(n), n}
		}
		data := writeFields(t, fields)
		r := NewReader(bytes.NewReader(data))
		for i, f := range fields {
			if got := r.ReadBits(f.bits); got != f.value {
				t.Fatalf("iter %d field %d (%d bits): got %#x, want %#x", iter, i, f.bits, got, f.value)
			}
		}
	}
}

func TestWriterLayout(t *testing.T) {
	data := writeFields(t, []field{{1, 1}, {0, 2}, {0x9, 4}, {0x3, 2}})
	// 1 00 1001 1|1 -> 1001 0011 1000 0000
	if want := []byte{0x93, 0x80}; !bytes.Equal(data, want) {
		t.Errorf("got % x, want % x", data, want)
	}
}

func TestFlushIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBits(0x3, 2)
	if w.IsByteAligned() {
		t.Fatal("writer should hold bits")
	}
	w.FlushBits()
	if !w.IsByteAligned() {
		t.Fatal("writer not aligned after flush")
	}
	n := buf.Len()
	w.FlushBits()
	if buf.Len() != n {
		t.Errorf("second flush wrote %d extra bytes", buf.Len()-n)
	}
	if w.TotalBitsWritten() != 8 {
		t.Errorf("TotalBitsWritten = %d", w.TotalBitsWritten())
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xc0}) {
		t.Errorf("got % x", buf.Bytes())
	}
}

func TestFlushHeldBits(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xb5, 0x42}))
	if got := r.ReadBits(3); got != 0x5 {
		t.Fatalf("got %#x", got)
	}
	if r.IsByteAligned() {
		t.Fatal("reader should hold bits")
	}
	if got := r.FlushHeldBits(); got != 0x15 {
		t.Errorf("FlushHeldBits = %#x, want 0x15", got)
	}
	if !r.IsByteAligned() {
		t.Fatal("reader not aligned after flush")
	}
	if r.TotalBitsRead() != 8 {
		t.Errorf("TotalBitsRead = %d", r.TotalBitsRead())
	}
	if got := r.ReadAlignedByte(); got != 0x42 {
		t.Errorf("ReadAlignedByte = %#x", got)
	}
}

func TestAlignedInts(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	WriteAlignedInt(w, uint16(0x1234))
	WriteAlignedInt(w, int32(-2))
	WriteAlignedIntN(w, uint32(0xabcdef), 3)
	WriteAlignedInt(w, uint64(0x0102030405060708))
	w.WriteAlignedBytes([]byte("ok\x00"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x12, 0x34,
		0xff, 0xff, 0xff, 0xfe,
		0xab, 0xcd, 0xef,
		1, 2, 3, 4, 5, 6, 7, 8,
		'o', 'k', 0,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x\nwant % x", buf.Bytes(), want)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	if v := ReadAlignedInt[uint16](r); v != 0x1234 {
		t.Errorf("uint16 = %#x", v)
	}
	if v := ReadAlignedInt[int32](r); v != -2 {
		t.Errorf("int32 = %d", v)
	}
	if v := ReadAlignedIntN[uint32](r, 3); v != 0xabcdef {
		t.Errorf("uint24 = %#x", v)
	}
	if v := ReadAlignedInt[uint64](r); v != 0x0102030405060708 {
		t.Errorf("uint64 = %#x", v)
	}
	if s := r.ReadAlignedStringTerminated(); s != "ok" {
		t.Errorf("string = %q", s)
	}
	if !r.IsStreamGood() {
		t.Error(r.Err())
	}
}

func TestAlignedOpsRequireAlignment(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBits(1, 1)
	w.WriteAlignedBytes([]byte{1, 2})
	if !errors.Is(w.Err(), ErrNotAligned) {
		t.Errorf("writer err = %v", w.Err())
	}

	r := NewReader(bytes.NewReader([]byte{0xff, 0xff}))
	r.ReadBits(1)
	if v := r.ReadAlignedByte(); v != 0 {
		t.Errorf("misaligned read returned %#x", v)
	}
	if !errors.Is(r.Err(), ErrNotAligned) {
		t.Errorf("reader err = %v", r.Err())
	}
}

func TestReadPastEOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xff}))
	if got := r.ReadBits(4); got != 0xf {
		t.Fatalf("got %#x", got)
	}
	if !r.IsStreamGood() {
		t.Fatal("stream should still be good")
	}
	if got := r.ReadBits(16); got != 0xf000 {
		t.Errorf("got %#x, want zero fill", got)
	}
	if r.IsStreamGood() {
		t.Fatal("stream should report exhaustion")
	}
	if !errors.Is(r.Err(), io.EOF) {
		t.Errorf("err = %v", r.Err())
	}
	r.ClearStreamState()
	if !r.IsStreamGood() {
		t.Error("ClearStreamState did not reset")
	}
}

func TestStreamPosition(t *testing.T) {
	src := bytes.NewReader([]byte{9, 8, 7, 6, 5})
	r := NewReader(src)
	r.SkipAlignedBytes(2)
	pos, err := r.Position()
	if err != nil || pos != 2 {
		t.Fatalf("Position = %d, %v", pos, err)
	}
	if v := r.ReadAlignedByte(); v != 7 {
		t.Errorf("got %d", v)
	}
	if err := r.SetPosition(0); err != nil {
		t.Fatal(err)
	}
	if v := r.ReadAlignedByte(); v != 9 {
		t.Errorf("got %d after rewind", v)
	}

	nr := NewReader(io.MultiReader(strings.NewReader("abc")))
	if _, err := nr.Position(); !errors.Is(err, ErrNotSeekable) {
		t.Errorf("err = %v", err)
	}
	nr.SkipAlignedBytes(2)
	if v := nr.ReadAlignedByte(); v != 'c' {
		t.Errorf("got %q", v)
	}
}

func TestSkipCountsBits(t *testing.T) {
	for name, src := range map[string]io.Reader{
		"seeker": bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}),
		"stream": io.MultiReader(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6})),
	} {
		t.Run(name, func(t *testing.T) {
			r := NewReader(src)
			r.ReadAlignedByte()
			r.SkipAlignedBytes(4)
			if !r.IsStreamGood() {
				t.Fatal(r.Err())
			}
			if got := r.TotalBitsRead(); got != 40 {
				t.Errorf("TotalBitsRead = %d, want 40", got)
			}
			if v := r.ReadAlignedByte(); v != 6 {
				t.Errorf("got %d after skip", v)
			}
		})
	}
}

func TestWriterSetPosition(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.bin"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := NewWriter(f)
	w.WriteAlignedBytes([]byte{1, 2, 3})
	w.WriteBits(0x5, 3)
	if err := w.SetPosition(0); !errors.Is(err, ErrNotAligned) {
		t.Fatalf("unaligned seek: %v", err)
	}
	if !errors.Is(w.Err(), ErrNotAligned) {
		t.Errorf("Err = %v", w.Err())
	}

	w = NewWriter(f)
	if err := w.SetPosition(1); err != nil {
		t.Fatal(err)
	}
	w.WriteAlignedByte(9)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{1, 9, 3}; !bytes.Equal(data, want) {
		t.Errorf("got %v, want %v", data, want)
	}
}

func TestWriteAlignedStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBits(0xa, 4)
	w.FlushBits()
	w.WriteAlignedStream(strings.NewReader(strings.Repeat("x", 250)))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 251 {
		t.Errorf("len = %d", buf.Len())
	}
	if w.TotalBitsWritten() != 251*8 {
		t.Errorf("TotalBitsWritten = %d", w.TotalBitsWritten())
	}
}
