package registry

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

type widget struct {
	mode  uint8
	desc  core.GenDesc
	value uint64
}

func reader(b ...byte) *bitio.Reader {
	return bitio.NewReader(bytes.NewReader(b))
}

func TestConstructMiss(t *testing.T) {
	f := NewFactory[*widget]("widget")
	w, err := f.Construct(5, core.DescPOS, reader(0))
	if !errors.Is(err, core.ErrUnknownImplementation) {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, core.ErrMalformed) {
		t.Error("registry miss must not look like malformed input")
	}
	if w != nil {
		t.Errorf("got %v on miss", w)
	}
}

func TestRegisterAndConstruct(t *testing.T) {
	f := NewFactory[*widget]("widget")
	f.Register(5, func(desc core.GenDesc, r *bitio.Reader) (*widget, error) {
		return &widget{mode: 5, desc: desc, value: r.ReadBits(8)}, nil
	})
	w, err := f.Construct(5, core.DescQV, reader(0x2a))
	if err != nil {
		t.Fatal(err)
	}
	want := &widget{mode: 5, desc: core.DescQV, value: 0x2a}
	if diff := cmp.Diff(want, w, cmp.AllowUnexported(widget{})); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	f := NewFactory[int]("int")
	f.Register(1, func(core.GenDesc, *bitio.Reader) (int, error) { return 1, nil })
	f.Register(1, func(core.GenDesc, *bitio.Reader) (int, error) { return 2, nil })
	f.Register(0, func(core.GenDesc, *bitio.Reader) (int, error) { return 0, nil })

	v, err := f.Construct(1, core.DescPOS, reader())
	if err != nil || v != 2 {
		t.Errorf("Construct = %d, %v", v, err)
	}
	if diff := cmp.Diff([]uint8{0, 1}, f.Modes()); diff != "" {
		t.Errorf("Modes (-want +got):\n%s", diff)
	}
	if !f.Has(0) || f.Has(7) {
		t.Error("Has mismatch")
	}
}

func TestConcurrentUse(t *testing.T) {
	f := NewFactory[int]("int")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(m uint8) {
			defer wg.Done()
			f.Register(m, func(core.GenDesc, *bitio.Reader) (int, error) { return int(m), nil })
		}(uint8(i))
		go func(m uint8) {
			defer wg.Done()
			f.Construct(m, core.DescPOS, reader())
		}(uint8(i))
	}
	wg.Wait()
	if len(f.Modes()) != 8 {
		t.Errorf("Modes = %v", f.Modes())
	}
}
