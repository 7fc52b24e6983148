// Package paramqv1 implements quality value coding mode 1:
// quantization codebooks carried either inline or by preset id.
package paramqv1

import (
	"fmt"

	logging "github.com/op/go-logging"
	"golang.org/x/exp/slices"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

var log = logging.MustGetLogger("paramqv1")

// Mode is the qv_coding_mode of this package
const Mode uint8 = 1

const (
	maxEntries   = 255 // num_entries is 8 bits
	maxCodebooks = 15  // num_codebooks is 4 bits
)

// Codebook maps quantized indices to quality value representatives
type Codebook struct {
	entries []uint8
}

// NewCodebook creates a codebook starting with the given entries
func NewCodebook(entries ...uint8) (*Codebook, error) {
	cb := &Codebook{}
	for _, e := range entries {
		if err := cb.AddEntry(e); err != nil {
			return nil, err
		}
	}
	return cb, nil
}

// AddEntry appends one representative
func (cb *Codebook) AddEntry(v uint8) error {
	if len(cb.entries) == maxEntries {
		return fmt.Errorf("codebook holds at most %d entries: %w", maxEntries, core.ErrInvariant)
	}
	cb.entries = append(cb.entries, v)
	return nil
}

// Entries returns a copy of the representatives
func (cb *Codebook) Entries() []uint8 {
	return slices.Clone(cb.entries)
}

func readCodebook(r *bitio.Reader) *Codebook {
	n := r.ReadUint8(8)
	cb := &Codebook{entries: make([]uint8, n)}
	for i := range cb.entries {
		cb.entries[i] = r.ReadUint8(8)
	}
	return cb
}

func (cb *Codebook) write(w *bitio.Writer) {
	w.WriteBits(uint64(len(cb.entries)), 8)
	for _, e := range cb.entries {
		w.WriteBits(uint64(e), 8)
	}
}

func (cb *Codebook) Equal(other *Codebook) bool {
	return slices.Equal(cb.entries, other.entries)
}

// ParameterSetQVPS is an inline list of codebooks
type ParameterSetQVPS struct {
	codebooks []*Codebook
}

// AddCodebook appends a copy of cb
func (p *ParameterSetQVPS) AddCodebook(cb *Codebook) error {
	if len(p.codebooks) == maxCodebooks {
		return fmt.Errorf("at most %d codebooks: %w", maxCodebooks, core.ErrInvariant)
	}
	p.codebooks = append(p.codebooks, &Codebook{entries: cb.Entries()})
	return nil
}

// Codebooks returns the codebooks in order
func (p *ParameterSetQVPS) Codebooks() []*Codebook {
	return p.codebooks
}

func readQVPS(r *bitio.Reader) *ParameterSetQVPS {
	n := r.ReadUint8(4)
	p := &ParameterSetQVPS{codebooks: make([]*Codebook, n)}
	for i := range p.codebooks {
		p.codebooks[i] = readCodebook(r)
	}
	return p
}

func (p *ParameterSetQVPS) write(w *bitio.Writer) {
	w.WriteBits(uint64(len(p.codebooks)), 4)
	for _, cb := range p.codebooks {
		cb.write(w)
	}
}

func (p *ParameterSetQVPS) clone() *ParameterSetQVPS {
	out := &ParameterSetQVPS{codebooks: make([]*Codebook, len(p.codebooks))}
	for i, cb := range p.codebooks {
		out.codebooks[i] = &Codebook{entries: cb.Entries()}
	}
	return out
}

func (p *ParameterSetQVPS) equal(other *ParameterSetQVPS) bool {
	if len(p.codebooks) != len(other.codebooks) {
		return false
	}
	for i := range p.codebooks {
		if !p.codebooks[i].Equal(other.codebooks[i]) {
			return false
		}
	}
	return true
}

// QualityValues1 is the mode 1 configuration of one class. Exactly
// one of an inline codebook list or a preset id is present.
type QualityValues1 struct {
	qvps        *ParameterSetQVPS
	presetID    PresetID
	reverseFlag bool
}

// NewPreset creates a configuration that refers to a preset codebook.
func NewPreset(id PresetID, reverse bool) (*QualityValues1, error) {
	if id >= numPresets {
		return nil, fmt.Errorf("qvps_preset_ID %d: %w", id, core.ErrInvariant)
	}
	return &QualityValues1{presetID: id, reverseFlag: reverse}, nil
}

// NewInline creates a configuration carrying qvps inline.
func NewInline(qvps *ParameterSetQVPS, reverse bool) *QualityValues1 {
	return &QualityValues1{qvps: qvps.clone(), reverseFlag: reverse}
}

// DefaultSet returns the ASCII codebook inline. Classes I and HM
// get it twice, one per read of a pair.
func DefaultSet(c core.ClassType) *QualityValues1 {
	var qvps ParameterSetQVPS
	qvps.AddCodebook(PresetCodebook(PresetASCII))
	if c == core.ClassI || c == core.ClassHM {
		qvps.AddCodebook(PresetCodebook(PresetASCII))
	}
	return &QualityValues1{qvps: &qvps}
}

// Read parses the payload that follows qv_coding_mode.
func Read(desc core.GenDesc, r *bitio.Reader) (*QualityValues1, error) {
	if desc != core.DescQV {
		return nil, fmt.Errorf("quality values for %v: %w", desc, core.ErrInvariant)
	}
	qv := &QualityValues1{}
	if r.ReadBool() {
		qv.qvps = readQVPS(r)
	} else {
		qv.presetID = PresetID(r.ReadUint8(4))
		if qv.presetID >= numPresets {
			return nil, fmt.Errorf("qvps_preset_ID %d: %w", qv.presetID, core.ErrMalformed)
		}
	}
	qv.reverseFlag = r.ReadBool()
	return qv, r.Err()
}

// Write emits qv_coding_mode followed by the mode 1 payload
func (qv *QualityValues1) Write(w *bitio.Writer) {
	w.WriteBits(uint64(Mode), 4)
	w.WriteBool(qv.qvps != nil)
	if qv.qvps != nil {
		qv.qvps.write(w)
	} else {
		w.WriteBits(uint64(qv.presetID), 4)
	}
	w.WriteBool(qv.reverseFlag)
}

func (qv *QualityValues1) Mode() uint8 {
	return Mode
}

// Preset returns the preset id and whether one is in use
func (qv *QualityValues1) Preset() (PresetID, bool) {
	return qv.presetID, qv.qvps == nil
}

func (qv *QualityValues1) ReverseFlag() bool {
	return qv.reverseFlag
}

// NumCodebooks returns 1 for presets
func (qv *QualityValues1) NumCodebooks() int {
	if qv.qvps == nil {
		return 1
	}
	return len(qv.qvps.codebooks)
}

// Codebook returns codebook i
func (qv *QualityValues1) Codebook(i int) (*Codebook, error) {
	if i < 0 || i >= qv.NumCodebooks() {
		return nil, fmt.Errorf("codebook %d of %d: %w", i, qv.NumCodebooks(), core.ErrInvariant)
	}
	if qv.qvps == nil {
		return PresetCodebook(qv.presetID), nil
	}
	return qv.qvps.codebooks[i], nil
}

// NumSubsequences is one steps subsequence per codebook plus
// the present and codebook subsequences.
func (qv *QualityValues1) NumSubsequences() int {
	return qv.NumCodebooks() + 2
}

func (qv *QualityValues1) Clone() parameter.QualityValues {
	out := *qv
	if qv.qvps != nil {
		out.qvps = qv.qvps.clone()
	}
	return &out
}

// Equal reports false for other quality value modes
func (qv *QualityValues1) Equal(other parameter.QualityValues) bool {
	o, ok := other.(*QualityValues1)
	if !ok || qv.reverseFlag != o.reverseFlag || (qv.qvps == nil) != (o.qvps == nil) {
		return false
	}
	if qv.qvps == nil {
		return qv.presetID == o.presetID
	}
	return qv.qvps.equal(o.qvps)
}

// Register installs mode 1 in the quality value family of park
func Register(park *parameter.Park) {
	park.QualityValues.Register(Mode, func(desc core.GenDesc, r *bitio.Reader) (parameter.QualityValues, error) {
		qv, err := Read(desc, r)
		if err != nil {
			return nil, err
		}
		return qv, nil
	})
	log.Debugf("registered quality values mode %d", Mode)
}
