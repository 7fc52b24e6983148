// Package paramcabac models the CABAC entropy coder configuration
// carried in a parameter set: per-subsequence transforms, symbol
// sizes, binarizations and context models, and the decoder
// configurations that group them per descriptor.
//
// Only the configuration is modelled; no arithmetic coding is done here.
package paramcabac

import (
	"encoding/json"
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// TransformIDSubsym selects the symbol level transform
type TransformIDSubsym uint8

const (
	SubsymNoTransform TransformIDSubsym = iota
	SubsymLUT
	SubsymDiff

	numSubsymTransforms
)

var subsymNames = [...]string{"no_transform", "lut_transform", "diff_coding"}

func (t TransformIDSubsym) String() string {
	if t < numSubsymTransforms {
		return subsymNames[t]
	}
	return fmt.Sprintf("TransformIDSubsym(%d)", uint8(t))
}

// SupportValues carries the symbol geometry of a transformed subsequence.
//
// The two share flags exist on the wire only when
// coding_subsym_size < output_symbol_size and coding_order > 0;
// the LUT flag additionally requires the LUT subsymbol transform.
type SupportValues struct {
	outputSymbolSize   uint8 // 6 bits
	codingSubsymSize   uint8 // 6 bits
	codingOrder        uint8 // 2 bits
	shareSubsymLUTFlag bool
	shareSubsymPRVFlag bool
}

const (
	maxSymbolSize  = 63
	maxCodingOrder = 3
)

// defaultSupportValues describes untransformed 8-bit symbols
var defaultSupportValues = SupportValues{outputSymbolSize: 8, codingSubsymSize: 8}

// NewSupportValues stores the given values. Flags are kept even when
// absent on the wire; sizes must fit 6 bits and the order 2 bits.
func NewSupportValues(outputSymbolSize, codingSubsymSize, codingOrder uint8, shareSubsymLUT, shareSubsymPRV bool) (SupportValues, error) {
	if outputSymbolSize > maxSymbolSize || codingSubsymSize > maxSymbolSize {
		return SupportValues{}, fmt.Errorf("symbol sizes %d/%d exceed %d bits: %w",
			outputSymbolSize, codingSubsymSize, maxSymbolSize, core.ErrInvariant)
	}
	if codingOrder > maxCodingOrder {
		return SupportValues{}, fmt.Errorf("coding order %d: %w", codingOrder, core.ErrInvariant)
	}
	return SupportValues{
		outputSymbolSize:   outputSymbolSize,
		codingSubsymSize:   codingSubsymSize,
		codingOrder:        codingOrder,
		shareSubsymLUTFlag: shareSubsymLUT,
		shareSubsymPRVFlag: shareSubsymPRV,
	}, nil
}

// ReadSupportValues parses support values for a subsequence
// whose symbol transform is transformID. Absent flags read as false.
func ReadSupportValues(transformID TransformIDSubsym, r *bitio.Reader) SupportValues {
	var sv SupportValues
	sv.outputSymbolSize = r.ReadUint8(6)
	sv.codingSubsymSize = r.ReadUint8(6)
	sv.codingOrder = r.ReadUint8(2)
	if sv.hasShareFlags() {
		if transformID == SubsymLUT {
			sv.shareSubsymLUTFlag = r.ReadBool()
		}
		sv.shareSubsymPRVFlag = r.ReadBool()
	}
	return sv
}

func (sv SupportValues) hasShareFlags() bool {
	return sv.codingSubsymSize < sv.outputSymbolSize && sv.codingOrder > 0
}

// Write serializes sv. transformID decides whether the LUT flag is present.
func (sv SupportValues) Write(transformID TransformIDSubsym, w *bitio.Writer) {
	w.WriteBits(uint64(sv.outputSymbolSize), 6)
	w.WriteBits(uint64(sv.codingSubsymSize), 6)
	w.WriteBits(uint64(sv.codingOrder), 2)
	if sv.hasShareFlags() {
		if transformID == SubsymLUT {
			w.WriteBool(sv.shareSubsymLUTFlag)
		}
		w.WriteBool(sv.shareSubsymPRVFlag)
	}
}

// OutputSymbolSize returns the symbol size in bits
func (sv SupportValues) OutputSymbolSize() uint8 {
	return sv.outputSymbolSize
}

// CodingSubsymSize returns the subsymbol size in bits
func (sv SupportValues) CodingSubsymSize() uint8 {
	return sv.codingSubsymSize
}

func (sv SupportValues) CodingOrder() uint8 {
	return sv.codingOrder
}

func (sv SupportValues) ShareSubsymLUTFlag() bool {
	return sv.shareSubsymLUTFlag
}

func (sv SupportValues) ShareSubsymPRVFlag() bool {
	return sv.shareSubsymPRVFlag
}

// Equal compares all five fields, including flags that would not
// be serialized.
func (sv SupportValues) Equal(other SupportValues) bool {
	return sv == other
}

type supportValuesJSON struct {
	OutputSymbolSize   uint8 `json:"output_symbol_size"`
	CodingSubsymSize   uint8 `json:"coding_subsym_size"`
	CodingOrder        uint8 `json:"coding_order"`
	ShareSubsymLUTFlag bool  `json:"share_subsym_lut_flag"`
	ShareSubsymPRVFlag bool  `json:"share_subsym_prv_flag"`
}

func (sv SupportValues) MarshalJSON() ([]byte, error) {
	return json.Marshal(supportValuesJSON{
		OutputSymbolSize:   sv.outputSymbolSize,
		CodingSubsymSize:   sv.codingSubsymSize,
		CodingOrder:        sv.codingOrder,
		ShareSubsymLUTFlag: sv.shareSubsymLUTFlag,
		ShareSubsymPRVFlag: sv.shareSubsymPRVFlag,
	})
}

func (sv *SupportValues) UnmarshalJSON(data []byte) error {
	var j supportValuesJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	out, err := NewSupportValues(j.OutputSymbolSize, j.CodingSubsymSize, j.CodingOrder,
		j.ShareSubsymLUTFlag, j.ShareSubsymPRVFlag)
	if err != nil {
		return fmt.Errorf("support values out of range: %w", core.ErrMalformed)
	}
	*sv = out
	return nil
}
