package paramcabac

import (
	"encoding/json"
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// TransformedSubSeq configures the coding of one transformed stream
// of a subsequence.
type TransformedSubSeq struct {
	transformIDSubsym TransformIDSubsym
	supportValues     SupportValues
	binarization      Binarization
}

// DefaultTransformedSubSeq is an untransformed 8-bit symbol stream
// with bypass coded binary binarization.
func DefaultTransformedSubSeq() TransformedSubSeq {
	return TransformedSubSeq{
		transformIDSubsym: SubsymNoTransform,
		supportValues:     defaultSupportValues,
		binarization:      NewBinarization(BinarizationBI, true, BinarizationParameters{}, Context{}),
	}
}

// NewTransformedSubSeq assembles a transformed subsequence config.
// A context share flag is dropped when the support values leave it
// off the wire, as NewContext does.
func NewTransformedSubSeq(transformID TransformIDSubsym, sv SupportValues, bin Binarization) (TransformedSubSeq, error) {
	if transformID >= numSubsymTransforms {
		return TransformedSubSeq{}, fmt.Errorf("transform_ID_subsym %d: %w", transformID, core.ErrMalformed)
	}
	bin = bin.Clone()
	if sv.codingSubsymSize >= sv.outputSymbolSize {
		bin.context.shareSubsymCtxFlag = false
	}
	return TransformedSubSeq{
		transformIDSubsym: transformID,
		supportValues:     sv,
		binarization:      bin,
	}, nil
}

// ReadTransformedSubSeq parses transform_ID_subsym, the support
// values and the binarization, in that order.
func ReadTransformedSubSeq(r *bitio.Reader) (TransformedSubSeq, error) {
	var ts TransformedSubSeq
	ts.transformIDSubsym = TransformIDSubsym(r.ReadUint8(3))
	if ts.transformIDSubsym >= numSubsymTransforms {
		return ts, fmt.Errorf("transform_ID_subsym %d: %w", ts.transformIDSubsym, core.ErrMalformed)
	}
	ts.supportValues = ReadSupportValues(ts.transformIDSubsym, r)
	bin, err := ReadBinarization(ts.supportValues.OutputSymbolSize(), ts.supportValues.CodingSubsymSize(), r)
	if err != nil {
		return ts, err
	}
	ts.binarization = bin
	return ts, nil
}

// Write serializes ts
func (ts TransformedSubSeq) Write(w *bitio.Writer) {
	w.WriteBits(uint64(ts.transformIDSubsym), 3)
	ts.supportValues.Write(ts.transformIDSubsym, w)
	ts.binarization.Write(ts.supportValues.OutputSymbolSize(), ts.supportValues.CodingSubsymSize(), w)
}

func (ts TransformedSubSeq) TransformIDSubsym() TransformIDSubsym {
	return ts.transformIDSubsym
}

func (ts TransformedSubSeq) SupportValues() SupportValues {
	return ts.supportValues
}

func (ts TransformedSubSeq) Binarization() Binarization {
	return ts.binarization.Clone()
}

func (ts TransformedSubSeq) Clone() TransformedSubSeq {
	ts.binarization = ts.binarization.Clone()
	return ts
}

func (ts TransformedSubSeq) Equal(other TransformedSubSeq) bool {
	return ts.transformIDSubsym == other.transformIDSubsym &&
		ts.supportValues.Equal(other.supportValues) &&
		ts.binarization.Equal(other.binarization)
}

type transformedSubSeqJSON struct {
	TransformIDSubsym string        `json:"transform_ID_subsym"`
	SupportValues     SupportValues `json:"support_values"`
	Binarization      Binarization  `json:"cabac_binarization"`
}

func (ts TransformedSubSeq) MarshalJSON() ([]byte, error) {
	return json.Marshal(transformedSubSeqJSON{
		TransformIDSubsym: ts.transformIDSubsym.String(),
		SupportValues:     ts.supportValues,
		Binarization:      ts.binarization,
	})
}

func (ts *TransformedSubSeq) UnmarshalJSON(data []byte) error {
	j := transformedSubSeqJSON{
		TransformIDSubsym: SubsymNoTransform.String(),
		SupportValues:     defaultSupportValues,
		Binarization:      NewBinarization(BinarizationBI, true, BinarizationParameters{}, Context{}),
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if !j.Binarization.bypassFlag && j.Binarization.context.shareSubsymCtxFlag &&
		j.SupportValues.codingSubsymSize >= j.SupportValues.outputSymbolSize {
		return fmt.Errorf("share_subsym_ctx_flag without subsymbols: %w", core.ErrMalformed)
	}
	id := numSubsymTransforms
	for i, n := range subsymNames {
		if n == j.TransformIDSubsym {
			id = TransformIDSubsym(i)
		}
	}
	out, err := NewTransformedSubSeq(id, j.SupportValues, j.Binarization)
	if err != nil {
		return fmt.Errorf("%q: %w", j.TransformIDSubsym, err)
	}
	*ts = out
	return nil
}
