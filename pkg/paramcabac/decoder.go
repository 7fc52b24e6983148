package paramcabac

import (
	"encoding/json"
	"fmt"

	logging "github.com/op/go-logging"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

var log = logging.MustGetLogger("paramcabac")

// ModeCABAC is the encoding_mode_ID of CABAC decoder configurations.
const ModeCABAC uint8 = 0

// MaxSubsequences is the most subsequences a regular decoder can
// describe; the count is stored minus one in 8 bits.
const MaxSubsequences = 256

// DecoderRegular is the CABAC configuration of a regular descriptor:
// one Subsequence per descriptor subsequence.
type DecoderRegular struct {
	desc    core.GenDesc
	subseqs []Subsequence
}

// NewDecoderRegular creates a default configuration sized to the
// subsequences of desc.
func NewDecoderRegular(desc core.GenDesc) *DecoderRegular {
	n := len(core.Descriptor(desc).SubSeqs)
	d := &DecoderRegular{desc: desc, subseqs: make([]Subsequence, n)}
	for i := range d.subseqs {
		d.subseqs[i] = DefaultSubsequence(uint16(i), false)
	}
	return d
}

// ReadDecoderRegular parses the payload following the mode byte.
// A count byte m yields m+1 subsequences.
func ReadDecoderRegular(desc core.GenDesc, r *bitio.Reader) (*DecoderRegular, error) {
	n := int(r.ReadUint8(8)) + 1
	d := &DecoderRegular{desc: desc, subseqs: make([]Subsequence, n)}
	for i := range d.subseqs {
		s, err := ReadSubsequence(false, r)
		if err != nil {
			return nil, fmt.Errorf("%v subsequence %d: %w", desc, i, err)
		}
		d.subseqs[i] = s
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%v decoder: %w", desc, err)
	}
	return d, nil
}

// Write emits encoding_mode_ID, the biased subsequence count and
// each subsequence.
func (d *DecoderRegular) Write(w *bitio.Writer) {
	w.WriteBits(uint64(ModeCABAC), 8)
	w.WriteBits(uint64(len(d.subseqs)-1), 8)
	for _, s := range d.subseqs {
		s.Write(w)
	}
}

func (d *DecoderRegular) Mode() uint8 {
	return ModeCABAC
}

func (d *DecoderRegular) Descriptor() core.GenDesc {
	return d.desc
}

func (d *DecoderRegular) NumSubsequences() int {
	return len(d.subseqs)
}

// Subsequence returns a copy of subsequence i
func (d *DecoderRegular) Subsequence(i int) Subsequence {
	return d.subseqs[i].Clone()
}

// SetSubsequence replaces subsequence i
func (d *DecoderRegular) SetSubsequence(i int, s Subsequence) error {
	if i < 0 || i >= len(d.subseqs) {
		return fmt.Errorf("%v has %d subsequences, not %d: %w", d.desc, len(d.subseqs), i+1, core.ErrInvariant)
	}
	if s.TokenType() {
		return fmt.Errorf("token type subsequence in %v: %w", d.desc, core.ErrInvariant)
	}
	d.subseqs[i] = s.Clone()
	return nil
}

func (d *DecoderRegular) Clone() parameter.Decoder {
	out := &DecoderRegular{desc: d.desc, subseqs: make([]Subsequence, len(d.subseqs))}
	for i, s := range d.subseqs {
		out.subseqs[i] = s.Clone()
	}
	return out
}

// Equal reports false for any other decoder variant
func (d *DecoderRegular) Equal(other parameter.Decoder) bool {
	o, ok := other.(*DecoderRegular)
	if !ok || len(d.subseqs) != len(o.subseqs) {
		return false
	}
	for i := range d.subseqs {
		if !d.subseqs[i].Equal(o.subseqs[i]) {
			return false
		}
	}
	return true
}

type decoderRegularJSON struct {
	Subsequences []Subsequence `json:"descriptor_subsequence_cfgs"`
}

func (d *DecoderRegular) MarshalJSON() ([]byte, error) {
	return json.Marshal(decoderRegularJSON{Subsequences: d.subseqs})
}

// DecodeDecoderRegularJSON decodes the JSON form of a regular decoder for desc.
func DecodeDecoderRegularJSON(desc core.GenDesc, data []byte) (*DecoderRegular, error) {
	var j decoderRegularJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	if len(j.Subsequences) == 0 || len(j.Subsequences) > MaxSubsequences {
		return nil, fmt.Errorf("%v: %d subsequences: %w", desc, len(j.Subsequences), core.ErrMalformed)
	}
	for i, s := range j.Subsequences {
		if s.TokenType() {
			return nil, fmt.Errorf("%v subsequence %d lacks descriptor_subsequence_ID: %w", desc, i, core.ErrMalformed)
		}
	}
	return &DecoderRegular{desc: desc, subseqs: j.Subsequences}, nil
}

// DecoderTokenType is the CABAC configuration of a token type
// descriptor: an RLE guard and exactly two subsequences.
type DecoderTokenType struct {
	desc              core.GenDesc
	rleGuardTokenType uint8
	subseqs           [2]Subsequence
}

// NewDecoderTokenType creates a default token type configuration.
func NewDecoderTokenType(desc core.GenDesc) *DecoderTokenType {
	d := &DecoderTokenType{desc: desc}
	for i := range d.subseqs {
		d.subseqs[i] = DefaultSubsequence(uint16(i), true)
	}
	return d
}

// ReadDecoderTokenType parses the payload following the mode byte.
func ReadDecoderTokenType(desc core.GenDesc, r *bitio.Reader) (*DecoderTokenType, error) {
	d := &DecoderTokenType{desc: desc}
	d.rleGuardTokenType = r.ReadUint8(8)
	for i := range d.subseqs {
		s, err := ReadSubsequence(true, r)
		if err != nil {
			return nil, fmt.Errorf("%v subsequence %d: %w", desc, i, err)
		}
		d.subseqs[i] = s
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%v decoder: %w", desc, err)
	}
	return d, nil
}

// Write emits encoding_mode_ID, rle_guard_tokentype and both subsequences.
func (d *DecoderTokenType) Write(w *bitio.Writer) {
	w.WriteBits(uint64(ModeCABAC), 8)
	w.WriteBits(uint64(d.rleGuardTokenType), 8)
	for _, s := range d.subseqs {
		s.Write(w)
	}
}

func (d *DecoderTokenType) Mode() uint8 {
	return ModeCABAC
}

func (d *DecoderTokenType) Descriptor() core.GenDesc {
	return d.desc
}

func (d *DecoderTokenType) RLEGuardTokenType() uint8 {
	return d.rleGuardTokenType
}

func (d *DecoderTokenType) SetRLEGuardTokenType(v uint8) {
	d.rleGuardTokenType = v
}

func (d *DecoderTokenType) NumSubsequences() int {
	return len(d.subseqs)
}

func (d *DecoderTokenType) Subsequence(i int) Subsequence {
	return d.subseqs[i].Clone()
}

func (d *DecoderTokenType) SetSubsequence(i int, s Subsequence) error {
	if i < 0 || i >= len(d.subseqs) {
		return fmt.Errorf("token type decoder has 2 subsequences, not %d: %w", i+1, core.ErrInvariant)
	}
	if !s.TokenType() {
		return fmt.Errorf("regular subsequence in %v: %w", d.desc, core.ErrInvariant)
	}
	d.subseqs[i] = s.Clone()
	return nil
}

func (d *DecoderTokenType) Clone() parameter.Decoder {
	out := &DecoderTokenType{desc: d.desc, rleGuardTokenType: d.rleGuardTokenType}
	for i, s := range d.subseqs {
		out.subseqs[i] = s.Clone()
	}
	return out
}

// Equal reports false for any other decoder variant
func (d *DecoderTokenType) Equal(other parameter.Decoder) bool {
	o, ok := other.(*DecoderTokenType)
	if !ok || d.rleGuardTokenType != o.rleGuardTokenType {
		return false
	}
	return d.subseqs[0].Equal(o.subseqs[0]) && d.subseqs[1].Equal(o.subseqs[1])
}

type decoderTokenTypeJSON struct {
	RLEGuardTokenType uint8         `json:"rle_guard_tokentype"`
	Subsequences      []Subsequence `json:"descriptor_subsequence_cfgs"`
}

func (d *DecoderTokenType) MarshalJSON() ([]byte, error) {
	return json.Marshal(decoderTokenTypeJSON{
		RLEGuardTokenType: d.rleGuardTokenType,
		Subsequences:      d.subseqs[:],
	})
}

// DecodeDecoderTokenTypeJSON decodes the JSON form of a token type decoder.
func DecodeDecoderTokenTypeJSON(desc core.GenDesc, data []byte) (*DecoderTokenType, error) {
	var j decoderTokenTypeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	if len(j.Subsequences) != 2 {
		return nil, fmt.Errorf("%v: %d subsequences, want 2: %w", desc, len(j.Subsequences), core.ErrMalformed)
	}
	d := &DecoderTokenType{desc: desc, rleGuardTokenType: j.RLEGuardTokenType}
	for i, s := range j.Subsequences {
		if !s.TokenType() {
			return nil, fmt.Errorf("%v subsequence %d has descriptor_subsequence_ID: %w", desc, i, core.ErrMalformed)
		}
		d.subseqs[i] = s
	}
	return d, nil
}

// Register installs the CABAC constructors for mode 0 in both decoder families.
func Register(park *parameter.Park) {
	park.Decoders.Register(ModeCABAC, func(desc core.GenDesc, r *bitio.Reader) (parameter.Decoder, error) {
		d, err := ReadDecoderRegular(desc, r)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	park.TokenTypeDecoders.Register(ModeCABAC, func(desc core.GenDesc, r *bitio.Reader) (parameter.Decoder, error) {
		d, err := ReadDecoderTokenType(desc, r)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	log.Debugf("registered CABAC decoders as mode %d", ModeCABAC)
}
