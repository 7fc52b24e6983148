package parameter_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/paramcabac"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
	"github.com/scttfrdmn/mpegg-go/pkg/paramqv1"
)

func newPark() *parameter.Park {
	park := parameter.NewPark()
	paramcabac.Register(park)
	paramqv1.Register(park)
	return park
}

func cabacDecoder(desc core.GenDesc) parameter.Decoder {
	if core.Descriptor(desc).TokenType {
		return paramcabac.NewDecoderTokenType(desc)
	}
	return paramcabac.NewDecoderRegular(desc)
}

func fullSet(t *testing.T) *parameter.EncodingSet {
	t.Helper()
	e := parameter.NewEncodingSet()
	e.ReadLength = 150
	e.NumTemplateSegmentsMinus1 = 1
	e.MaxAUDataUnitSize = 1 << 20
	e.QVDepth = 1
	e.Signature = &parameter.SignatureCfg{ConstLength: true, Length: 12}
	for _, c := range []core.ClassType{core.ClassP, core.ClassI} {
		if err := e.AddClass(c, paramqv1.DefaultSet(c)); err != nil {
			t.Fatal(err)
		}
	}
	for _, props := range core.Descriptors() {
		if err := e.SetDescriptor(props.ID, parameter.NewDescriptorSubseqCfg(cabacDecoder(props.ID))); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.Descriptor(core.DescPOS).EnableClassSpecificConfigs(2); err != nil {
		t.Fatal(err)
	}
	for _, g := range []string{"rg1", "sample-B"} {
		if err := e.AddGroup(g); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

func TestParameterSetRoundTrip(t *testing.T) {
	ps := parameter.NewParameterSet(3, 1, fullSet(t))

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := ps.Write(w); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	n, err := ps.Length()
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() {
		t.Errorf("Length = %d, wrote %d bytes", n, buf.Len())
	}
	if buf.Bytes()[0] != parameter.DataUnitParameterSet {
		t.Errorf("data_unit_type = %d", buf.Bytes()[0])
	}

	got, err := parameter.ReadParameterSet(newPark(), bitio.NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(ps) {
		t.Error("round trip mismatch")
	}
	if got.Set.NumTemplateSegments() != 2 || got.Set.PosSize() != 32 {
		t.Errorf("segments %d, pos size %d", got.Set.NumTemplateSegments(), got.Set.PosSize())
	}
	if !got.Set.Descriptor(core.DescPOS).IsClassSpecific() {
		t.Error("pos lost its class specific configs")
	}
	qv, err := got.Set.QVConfig(core.ClassI)
	if err != nil {
		t.Fatal(err)
	}
	if qv.NumSubsequences() != 4 {
		t.Errorf("class I qv subsequences = %d", qv.NumSubsequences())
	}
}

func TestParameterSetRejects(t *testing.T) {
	ps := parameter.NewParameterSet(0, 0, fullSet(t))
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := ps.Write(w); err != nil {
		t.Fatal(err)
	}
	w.Close()

	t.Run("type", func(t *testing.T) {
		data := append([]byte(nil), buf.Bytes()...)
		data[0] = 2
		_, err := parameter.ReadParameterSet(newPark(), bitio.NewReader(bytes.NewReader(data)))
		if !errors.Is(err, core.ErrMalformed) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("size", func(t *testing.T) {
		data := append([]byte(nil), buf.Bytes()...)
		data[4]++ // low byte of data_unit_size
		_, err := parameter.ReadParameterSet(newPark(), bitio.NewReader(bytes.NewReader(data)))
		if !errors.Is(err, core.ErrMalformed) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("truncated", func(t *testing.T) {
		data := buf.Bytes()[:buf.Len()/2]
		if _, err := parameter.ReadParameterSet(newPark(), bitio.NewReader(bytes.NewReader(data))); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("unknown qv mode", func(t *testing.T) {
		park := parameter.NewPark()
		paramcabac.Register(park)
		_, err := parameter.ReadParameterSet(park, bitio.NewReader(bytes.NewReader(buf.Bytes())))
		if !errors.Is(err, core.ErrUnknownImplementation) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("unknown decoder mode", func(t *testing.T) {
		park := parameter.NewPark()
		paramqv1.Register(park)
		_, err := parameter.ReadParameterSet(park, bitio.NewReader(bytes.NewReader(buf.Bytes())))
		if !errors.Is(err, core.ErrUnknownImplementation) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	e := fullSet(t)
	if err := e.Validate(); err != nil {
		t.Fatal(err)
	}

	missing := e.Clone()
	missing.SetDescriptor(core.DescRFTT, nil)
	if err := missing.Validate(); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("missing descriptor: %v", err)
	}
	if err := missing.Write(bitio.NewWriter(&bytes.Buffer{})); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("write of invalid set: %v", err)
	}

	long := e.Clone()
	long.ReadLength = 1 << 24
	if err := long.Validate(); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("read length: %v", err)
	}

	buf := e.Clone()
	buf.ComputedRef = &parameter.ComputedRef{Algorithm: parameter.CRPushIn, BufMaxSize: 1 << 24}
	if err := buf.Validate(); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("buf max size: %v", err)
	}
	if err := buf.Write(bitio.NewWriter(&bytes.Buffer{})); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("write with buf max size: %v", err)
	}
	buf.ComputedRef.BufMaxSize = 1<<24 - 1
	if err := buf.Validate(); err != nil {
		t.Errorf("largest buf max size: %v", err)
	}
}

func TestAddClass(t *testing.T) {
	e := parameter.NewEncodingSet()
	if err := e.AddClass(core.ClassU, paramqv1.DefaultSet(core.ClassU)); err != nil {
		t.Fatal(err)
	}
	if err := e.AddClass(core.ClassU, paramqv1.DefaultSet(core.ClassU)); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("duplicate class: %v", err)
	}

	cfg := parameter.NewDescriptorSubseqCfg(cabacDecoder(core.DescFLAGS))
	e.SetDescriptor(core.DescFLAGS, cfg)
	if err := cfg.EnableClassSpecificConfigs(1); err != nil {
		t.Fatal(err)
	}
	if err := e.AddClass(core.ClassP, paramqv1.DefaultSet(core.ClassP)); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("class after class specific descriptor: %v", err)
	}
	if diff := len(e.ClassIDs()); diff != 1 {
		t.Errorf("%d classes", diff)
	}
	if _, err := e.QVConfig(core.ClassP); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("QVConfig of missing class: %v", err)
	}
}

func TestDescriptorSubseqCfg(t *testing.T) {
	cfg := parameter.NewDescriptorSubseqCfg(cabacDecoder(core.DescRLEN))
	shared, err := cfg.Get()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.GetClassSpecific(0); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("GetClassSpecific on shared config: %v", err)
	}
	if err := cfg.EnableClassSpecificConfigs(3); err != nil {
		t.Fatal(err)
	}
	if err := cfg.EnableClassSpecificConfigs(3); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("second enable: %v", err)
	}
	if cfg.NumConfigs() != 3 {
		t.Errorf("NumConfigs = %d", cfg.NumConfigs())
	}
	if _, err := cfg.Get(); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("Get on class specific config: %v", err)
	}
	for i := 0; i < 3; i++ {
		p, err := cfg.GetClassSpecific(i)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Equal(shared) || p == shared {
			t.Errorf("class %d config is not a copy of the shared one", i)
		}
	}
	if _, err := cfg.GetClassSpecific(3); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("out of range: %v", err)
	}
}

func TestDecCfgPreset(t *testing.T) {
	r := bitio.NewReader(bytes.NewReader([]byte{1, 0}))
	_, err := parameter.ReadDescriptorPresent(newPark(), core.DescPOS, r)
	if !errors.Is(err, core.ErrMalformed) {
		t.Errorf("err = %v", err)
	}
}

func TestComputedRef(t *testing.T) {
	tests := []struct {
		name string
		cr   parameter.ComputedRef
		bits uint64
	}{
		{"ref transform", parameter.ComputedRef{Algorithm: parameter.CRRefTransform}, 8},
		{"push in", parameter.ComputedRef{Algorithm: parameter.CRPushIn, PadSize: 'N', BufMaxSize: 1 << 20}, 40},
		{"local assembly", parameter.ComputedRef{Algorithm: parameter.CRLocalAssembly, PadSize: 4, BufMaxSize: 77}, 40},
		{"global assembly", parameter.ComputedRef{Algorithm: parameter.CRGlobalAssembly}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bitio.NewWriter(&buf)
			tt.cr.Write(w)
			if w.TotalBitsWritten() != tt.bits {
				t.Errorf("wrote %d bits, want %d", w.TotalBitsWritten(), tt.bits)
			}
			w.Close()
			got, err := parameter.ReadComputedRef(bitio.NewReader(bytes.NewReader(buf.Bytes())))
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(&tt.cr) {
				t.Errorf("got %+v", got)
			}
		})
	}
	for _, alg := range []byte{0, 5} {
		if _, err := parameter.ReadComputedRef(bitio.NewReader(bytes.NewReader([]byte{alg}))); !errors.Is(err, core.ErrMalformed) {
			t.Errorf("algorithm %d: %v", alg, err)
		}
	}
}

func TestEncodingSetWithComputedRef(t *testing.T) {
	e := fullSet(t)
	e.DatasetType = core.DatasetReference
	e.Pos40Bits = true
	e.ComputedRef = &parameter.ComputedRef{Algorithm: parameter.CRPushIn, PadSize: 1, BufMaxSize: 2}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := e.Write(w); err != nil {
		t.Fatal(err)
	}
	got, err := parameter.ReadEncodingSet(newPark(), bitio.NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(e) {
		t.Error("round trip mismatch")
	}
	if got.PosSize() != 40 {
		t.Errorf("PosSize = %d", got.PosSize())
	}
}

func TestCloneIsDeep(t *testing.T) {
	e := fullSet(t)
	c := e.Clone()
	c.AddGroup("extra")
	c.Signature.Length = 3
	dec := c.Descriptor(core.DescRLEN)
	p, _ := dec.Get()
	p.SetDecoder(paramcabac.NewDecoderRegular(core.DescPAIR))
	if c.Equal(e) {
		t.Error("clone shares state")
	}
	if len(e.ReadGroups()) != 2 || e.Signature.Length != 12 {
		t.Error("original modified")
	}
	if !e.Descriptor(core.DescRLEN).Equal(fullSet(t).Descriptor(core.DescRLEN)) {
		t.Error("original decoder modified")
	}
	if err := e.AddGroup("a\x00b"); !errors.Is(err, core.ErrInvariant) {
		t.Errorf("NUL in read group: %v", err)
	}
}
