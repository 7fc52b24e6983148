package parameter

import (
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// DecCfgPresetNone is the only supported dec_cfg_preset: the decoder
// configuration follows inline.
const DecCfgPresetNone uint8 = 0

// DescriptorPresent wraps the decoder configuration of a descriptor
// that is coded with an explicit configuration.
type DescriptorPresent struct {
	decoder Decoder
}

// NewDescriptorPresent wraps dec
func NewDescriptorPresent(dec Decoder) *DescriptorPresent {
	return &DescriptorPresent{decoder: dec}
}

// ReadDescriptorPresent parses dec_cfg_preset and the decoder it
// announces, dispatching encoding_mode_ID through park.
func ReadDescriptorPresent(park *Park, desc core.GenDesc, r *bitio.Reader) (*DescriptorPresent, error) {
	preset := r.ReadUint8(8)
	if preset != DecCfgPresetNone {
		return nil, fmt.Errorf("%v: dec_cfg_preset %d: %w", desc, preset, core.ErrMalformed)
	}
	mode := r.ReadUint8(8)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", desc, err)
	}
	dec, err := park.ConstructDecoder(mode, desc, r)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", desc, err)
	}
	return &DescriptorPresent{decoder: dec}, nil
}

// Write emits the preset and the decoder, which writes its own mode.
func (d *DescriptorPresent) Write(w *bitio.Writer) {
	w.WriteBits(uint64(DecCfgPresetNone), 8)
	d.decoder.Write(w)
}

func (d *DescriptorPresent) Decoder() Decoder {
	return d.decoder
}

func (d *DescriptorPresent) SetDecoder(dec Decoder) {
	d.decoder = dec
}

func (d *DescriptorPresent) Clone() *DescriptorPresent {
	return &DescriptorPresent{decoder: d.decoder.Clone()}
}

func (d *DescriptorPresent) Equal(other *DescriptorPresent) bool {
	return d.decoder.Equal(other.decoder)
}

// DescriptorSubseqCfg configures one descriptor, either once for
// every class or once per class.
type DescriptorSubseqCfg struct {
	classSpecific bool
	cfgs          []*DescriptorPresent
}

// NewDescriptorSubseqCfg creates a configuration shared by all classes.
func NewDescriptorSubseqCfg(dec Decoder) *DescriptorSubseqCfg {
	return &DescriptorSubseqCfg{cfgs: []*DescriptorPresent{NewDescriptorPresent(dec)}}
}

// ReadDescriptorSubseqCfg parses class_specific_dec_cfg_flag and one
// or numClasses descriptor configurations.
func ReadDescriptorSubseqCfg(park *Park, numClasses int, desc core.GenDesc, r *bitio.Reader) (*DescriptorSubseqCfg, error) {
	d := &DescriptorSubseqCfg{classSpecific: r.ReadBool()}
	n := 1
	if d.classSpecific {
		n = numClasses
	}
	d.cfgs = make([]*DescriptorPresent, n)
	for i := range d.cfgs {
		p, err := ReadDescriptorPresent(park, desc, r)
		if err != nil {
			return nil, err
		}
		d.cfgs[i] = p
	}
	return d, nil
}

// Write serializes d
func (d *DescriptorSubseqCfg) Write(w *bitio.Writer) {
	w.WriteBool(d.classSpecific)
	for _, c := range d.cfgs {
		c.Write(w)
	}
}

func (d *DescriptorSubseqCfg) IsClassSpecific() bool {
	return d.classSpecific
}

// EnableClassSpecificConfigs switches to one configuration per class,
// each a copy of the shared one.
func (d *DescriptorSubseqCfg) EnableClassSpecificConfigs(numClasses int) error {
	if d.classSpecific {
		return fmt.Errorf("class specific configs already enabled: %w", core.ErrInvariant)
	}
	if numClasses < 1 {
		return fmt.Errorf("%d classes: %w", numClasses, core.ErrInvariant)
	}
	shared := d.cfgs[0]
	d.cfgs = make([]*DescriptorPresent, numClasses)
	for i := range d.cfgs {
		d.cfgs[i] = shared.Clone()
	}
	d.classSpecific = true
	return nil
}

// Get returns the shared configuration
func (d *DescriptorSubseqCfg) Get() (*DescriptorPresent, error) {
	if d.classSpecific {
		return nil, fmt.Errorf("shared config requested from class specific descriptor: %w", core.ErrInvariant)
	}
	return d.cfgs[0], nil
}

// Set replaces the shared configuration
func (d *DescriptorSubseqCfg) Set(p *DescriptorPresent) error {
	if d.classSpecific {
		return fmt.Errorf("shared config set on class specific descriptor: %w", core.ErrInvariant)
	}
	d.cfgs[0] = p
	return nil
}

// GetClassSpecific returns the configuration of the i-th class
func (d *DescriptorSubseqCfg) GetClassSpecific(i int) (*DescriptorPresent, error) {
	if !d.classSpecific || i < 0 || i >= len(d.cfgs) {
		return nil, fmt.Errorf("class config %d of %d: %w", i, len(d.cfgs), core.ErrInvariant)
	}
	return d.cfgs[i], nil
}

// SetClassSpecific replaces the configuration of the i-th class
func (d *DescriptorSubseqCfg) SetClassSpecific(i int, p *DescriptorPresent) error {
	if !d.classSpecific || i < 0 || i >= len(d.cfgs) {
		return fmt.Errorf("class config %d of %d: %w", i, len(d.cfgs), core.ErrInvariant)
	}
	d.cfgs[i] = p
	return nil
}

// NumConfigs returns 1, or the class count when class specific
func (d *DescriptorSubseqCfg) NumConfigs() int {
	return len(d.cfgs)
}

func (d *DescriptorSubseqCfg) Clone() *DescriptorSubseqCfg {
	out := &DescriptorSubseqCfg{classSpecific: d.classSpecific, cfgs: make([]*DescriptorPresent, len(d.cfgs))}
	for i, c := range d.cfgs {
		out.cfgs[i] = c.Clone()
	}
	return out
}

func (d *DescriptorSubseqCfg) Equal(other *DescriptorSubseqCfg) bool {
	if d.classSpecific != other.classSpecific || len(d.cfgs) != len(other.cfgs) {
		return false
	}
	for i := range d.cfgs {
		if !d.cfgs[i].Equal(other.cfgs[i]) {
			return false
		}
	}
	return true
}
