package paramcabac

import (
	"encoding/json"
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// BinarizationID selects how symbols are mapped to bins
type BinarizationID uint8

const (
	BinarizationBI    BinarizationID = iota // binary
	BinarizationTU                          // truncated unary
	BinarizationEG                          // exponential golomb
	BinarizationSEG                         // signed EG
	BinarizationTEG                         // truncated EG
	BinarizationSTEG                        // signed TEG
	BinarizationSUTU                        // split unit-wise TU
	BinarizationSSUTU                       // signed SUTU
	BinarizationDTU                         // double TU
	BinarizationSDTU                        // signed DTU

	numBinarizations
)

var binarizationNames = [...]string{"BI", "TU", "EG", "SEG", "TEG", "STEG", "SUTU", "SSUTU", "DTU", "SDTU"}

func (b BinarizationID) String() string {
	if b < numBinarizations {
		return binarizationNames[b]
	}
	return fmt.Sprintf("BinarizationID(%d)", uint8(b))
}

// ParseBinarizationID parses a name as printed by String
func ParseBinarizationID(s string) (BinarizationID, error) {
	for i, n := range binarizationNames {
		if n == s {
			return BinarizationID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown binarization %q", s)
}

// NumParams returns how many binarization parameters id carries
func (b BinarizationID) NumParams() int {
	switch b {
	case BinarizationTU, BinarizationTEG, BinarizationSTEG, BinarizationSUTU, BinarizationSSUTU:
		return 1
	case BinarizationDTU, BinarizationSDTU:
		return 2
	}
	return 0
}

// BinarizationParameters holds the per-binarization parameters.
// Which fields are meaningful depends on the binarization id.
type BinarizationParameters struct {
	CMax          uint8 `json:"cmax"`            // TU
	CMaxTEG       uint8 `json:"cmax_teg"`        // TEG, STEG
	CMaxDTU       uint8 `json:"cmax_dtu"`        // DTU, SDTU
	SplitUnitSize uint8 `json:"split_unit_size"` // SUTU, SSUTU, DTU, SDTU; 4 bits
}

// NewBinarizationParameters assigns params in wire order for id.
func NewBinarizationParameters(id BinarizationID, params ...uint8) (BinarizationParameters, error) {
	var bp BinarizationParameters
	if id >= numBinarizations {
		return bp, fmt.Errorf("binarization_ID %d: %w", id, core.ErrMalformed)
	}
	if len(params) != id.NumParams() {
		return bp, fmt.Errorf("%v takes %d parameters, got %d: %w", id, id.NumParams(), len(params), core.ErrInvariant)
	}
	switch id {
	case BinarizationTU:
		bp.CMax = params[0]
	case BinarizationTEG, BinarizationSTEG:
		bp.CMaxTEG = params[0]
	case BinarizationSUTU, BinarizationSSUTU:
		bp.SplitUnitSize = params[0]
	case BinarizationDTU, BinarizationSDTU:
		bp.CMaxDTU = params[0]
		bp.SplitUnitSize = params[1]
	}
	if bp.SplitUnitSize > 0xf {
		return bp, fmt.Errorf("split unit size %d: %w", bp.SplitUnitSize, core.ErrInvariant)
	}
	return bp, nil
}

// ReadBinarizationParameters parses the parameters of id.
func ReadBinarizationParameters(id BinarizationID, r *bitio.Reader) BinarizationParameters {
	var bp BinarizationParameters
	switch id {
	case BinarizationTU:
		bp.CMax = r.ReadUint8(8)
	case BinarizationTEG, BinarizationSTEG:
		bp.CMaxTEG = r.ReadUint8(8)
	case BinarizationDTU, BinarizationSDTU:
		bp.CMaxDTU = r.ReadUint8(8)
		bp.SplitUnitSize = r.ReadUint8(4)
	case BinarizationSUTU, BinarizationSSUTU:
		bp.SplitUnitSize = r.ReadUint8(4)
	}
	return bp
}

// Write emits the parameters id carries
func (bp BinarizationParameters) Write(id BinarizationID, w *bitio.Writer) {
	switch id {
	case BinarizationTU:
		w.WriteBits(uint64(bp.CMax), 8)
	case BinarizationTEG, BinarizationSTEG:
		w.WriteBits(uint64(bp.CMaxTEG), 8)
	case BinarizationDTU, BinarizationSDTU:
		w.WriteBits(uint64(bp.CMaxDTU), 8)
		w.WriteBits(uint64(bp.SplitUnitSize), 4)
	case BinarizationSUTU, BinarizationSSUTU:
		w.WriteBits(uint64(bp.SplitUnitSize), 4)
	}
}

// Binarization selects the binarization of a transformed subsequence
// and, unless it is bypass coded, its context model.
type Binarization struct {
	id         BinarizationID
	bypassFlag bool
	params     BinarizationParameters
	context    Context
}

// NewBinarization builds a binarization. ctx is ignored when bypass is set.
func NewBinarization(id BinarizationID, bypass bool, params BinarizationParameters, ctx Context) Binarization {
	b := Binarization{id: id, bypassFlag: bypass, params: params}
	if !bypass {
		b.context = ctx.Clone()
	}
	return b
}

// ReadBinarization parses a binarization. The symbol sizes come from
// the support values of the enclosing transformed subsequence.
func ReadBinarization(outputSymbolSize, codingSubsymSize uint8, r *bitio.Reader) (Binarization, error) {
	var b Binarization
	b.id = BinarizationID(r.ReadUint8(5))
	if b.id >= numBinarizations {
		return b, fmt.Errorf("binarization_ID %d: %w", b.id, core.ErrMalformed)
	}
	b.bypassFlag = r.ReadBool()
	b.params = ReadBinarizationParameters(b.id, r)
	if !b.bypassFlag {
		b.context = ReadContext(outputSymbolSize, codingSubsymSize, r)
	}
	return b, r.Err()
}

// Write serializes b.
func (b Binarization) Write(outputSymbolSize, codingSubsymSize uint8, w *bitio.Writer) {
	w.WriteBits(uint64(b.id), 5)
	w.WriteBool(b.bypassFlag)
	b.params.Write(b.id, w)
	if !b.bypassFlag {
		b.context.Write(outputSymbolSize, codingSubsymSize, w)
	}
}

func (b Binarization) ID() BinarizationID {
	return b.id
}

func (b Binarization) BypassFlag() bool {
	return b.bypassFlag
}

func (b Binarization) Parameters() BinarizationParameters {
	return b.params
}

// Context returns the context model; it is empty when bypass coded
func (b Binarization) Context() Context {
	return b.context.Clone()
}

func (b Binarization) Clone() Binarization {
	b.context = b.context.Clone()
	return b
}

func (b Binarization) Equal(other Binarization) bool {
	return b.id == other.id &&
		b.bypassFlag == other.bypassFlag &&
		b.params == other.params &&
		b.context.Equal(other.context)
}

type binarizationJSON struct {
	ID         string                 `json:"binarization_ID"`
	BypassFlag bool                   `json:"bypass_flag"`
	Params     BinarizationParameters `json:"cabac_binarization_parameters"`
	Context    *Context               `json:"cabac_context_parameters,omitempty"`
}

func (b Binarization) MarshalJSON() ([]byte, error) {
	j := binarizationJSON{ID: b.id.String(), BypassFlag: b.bypassFlag, Params: b.params}
	if !b.bypassFlag {
		ctx := b.context
		j.Context = &ctx
	}
	return json.Marshal(j)
}

func (b *Binarization) UnmarshalJSON(data []byte) error {
	var j binarizationJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	id, err := ParseBinarizationID(j.ID)
	if err != nil {
		return err
	}
	if j.Params.SplitUnitSize > 0xf {
		return fmt.Errorf("split unit size %d: %w", j.Params.SplitUnitSize, core.ErrMalformed)
	}
	var ctx Context
	if j.Context != nil {
		ctx = *j.Context
	}
	*b = NewBinarization(id, j.BypassFlag, j.Params, ctx)
	return nil
}
