package paramcabac

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// TransformID selects the subsequence level transform
type TransformID uint8

const (
	NoTransform TransformID = iota
	EqualityCoding
	MatchCoding
	RLECoding
	MergeCoding

	numTransforms
)

var transformNames = [...]string{"no_transform", "equality_coding", "match_coding", "rle_coding", "merge_coding"}

func (t TransformID) String() string {
	if t < numTransforms {
		return transformNames[t]
	}
	return fmt.Sprintf("TransformID(%d)", uint8(t))
}

// ParseTransformID parses a name as printed by String
func ParseTransformID(s string) (TransformID, error) {
	for i, n := range transformNames {
		if n == s {
			return TransformID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown transform %q", s)
}

// streams per transform; merge coding is sized by its subsequence count
var numStreamsLUT = [...]int{1, 2, 3, 2, 1}

// MaxMergeSubseqs is the largest merge_coding_subseq_count (4 bits).
const MaxMergeSubseqs = 15

// TransformedParameters selects the transform of a subsequence and
// carries the single payload that transform needs.
type TransformedParameters struct {
	id TransformID

	matchCodingBufferSize uint16  // MatchCoding
	rleCodingGuard        uint8   // RLECoding
	mergeCodingShiftSize  []uint8 // MergeCoding, one per merged stream
}

// NewTransformedParameters builds parameters for id. param is the
// match buffer size, the RLE guard, or the merge subsequence count;
// it is ignored for the other transforms. Merge shift sizes start at zero.
func NewTransformedParameters(id TransformID, param uint16) (TransformedParameters, error) {
	tp := TransformedParameters{id: id}
	switch id {
	case NoTransform, EqualityCoding:
	case MatchCoding:
		tp.matchCodingBufferSize = param
	case RLECoding:
		if param > 0xff {
			return tp, fmt.Errorf("rle guard %d: %w", param, core.ErrInvariant)
		}
		tp.rleCodingGuard = uint8(param)
	case MergeCoding:
		if param > MaxMergeSubseqs {
			return tp, fmt.Errorf("merge count %d: %w", param, core.ErrInvariant)
		}
		tp.mergeCodingShiftSize = make([]uint8, param)
	default:
		return tp, fmt.Errorf("transform_ID_subseq %d: %w", id, core.ErrMalformed)
	}
	return tp, nil
}

// ReadTransformedParameters parses the 8-bit tag and its payload.
func ReadTransformedParameters(r *bitio.Reader) (TransformedParameters, error) {
	tp := TransformedParameters{id: TransformID(r.ReadUint8(8))}
	switch tp.id {
	case NoTransform, EqualityCoding:
	case MatchCoding:
		tp.matchCodingBufferSize = r.ReadUint16(16)
	case RLECoding:
		tp.rleCodingGuard = r.ReadUint8(8)
	case MergeCoding:
		n := r.ReadUint8(4)
		tp.mergeCodingShiftSize = make([]uint8, n)
		for i := range tp.mergeCodingShiftSize {
			tp.mergeCodingShiftSize[i] = r.ReadUint8(5)
		}
	default:
		return tp, fmt.Errorf("transform_ID_subseq %d: %w", tp.id, core.ErrMalformed)
	}
	return tp, r.Err()
}

// Write emits the tag and the payload of the active transform.
func (tp TransformedParameters) Write(w *bitio.Writer) {
	w.WriteBits(uint64(tp.id), 8)
	switch tp.id {
	case MatchCoding:
		w.WriteBits(uint64(tp.matchCodingBufferSize), 16)
	case RLECoding:
		w.WriteBits(uint64(tp.rleCodingGuard), 8)
	case MergeCoding:
		w.WriteBits(uint64(len(tp.mergeCodingShiftSize)), 4)
		for _, s := range tp.mergeCodingShiftSize {
			w.WriteBits(uint64(s), 5)
		}
	}
}

// ID returns transform_ID_subseq
func (tp TransformedParameters) ID() TransformID {
	return tp.id
}

// NumStreams returns how many transformed streams the subsequence splits into.
func (tp TransformedParameters) NumStreams() int {
	if tp.id == MergeCoding {
		return len(tp.mergeCodingShiftSize)
	}
	if tp.id < numTransforms {
		return numStreamsLUT[tp.id]
	}
	return 0
}

// Param returns the payload passed to NewTransformedParameters
func (tp TransformedParameters) Param() uint16 {
	switch tp.id {
	case MatchCoding:
		return tp.matchCodingBufferSize
	case RLECoding:
		return uint16(tp.rleCodingGuard)
	case MergeCoding:
		return uint16(len(tp.mergeCodingShiftSize))
	}
	return 0
}

// MergeCodingShiftSizes returns a copy of the merge shift sizes
func (tp TransformedParameters) MergeCodingShiftSizes() []uint8 {
	return slices.Clone(tp.mergeCodingShiftSize)
}

// SetMergeCodingShiftSizes replaces the shift sizes of a merge
// transform. The subsequence count follows len(shifts).
func (tp *TransformedParameters) SetMergeCodingShiftSizes(shifts []uint8) error {
	if tp.id != MergeCoding {
		return fmt.Errorf("shift sizes on %v: %w", tp.id, core.ErrInvariant)
	}
	if len(shifts) > MaxMergeSubseqs {
		return fmt.Errorf("%d merged subsequences: %w", len(shifts), core.ErrInvariant)
	}
	for _, s := range shifts {
		if s > 31 {
			return fmt.Errorf("shift size %d: %w", s, core.ErrInvariant)
		}
	}
	tp.mergeCodingShiftSize = slices.Clone(shifts)
	return nil
}

func (tp TransformedParameters) Equal(other TransformedParameters) bool {
	return tp.id == other.id &&
		tp.matchCodingBufferSize == other.matchCodingBufferSize &&
		tp.rleCodingGuard == other.rleCodingGuard &&
		slices.Equal(tp.mergeCodingShiftSize, other.mergeCodingShiftSize)
}

type transformedParametersJSON struct {
	TransformID           TransformID `json:"transform_ID_subseq"`
	MatchCodingBufferSize *uint16     `json:"match_coding_buffer_size,omitempty"`
	RLECodingGuard        *uint8      `json:"rle_coding_guard,omitempty"`
	MergeCodingShiftSize  *[]int      `json:"merge_coding_shift_size,omitempty"`
}

func (tp TransformedParameters) MarshalJSON() ([]byte, error) {
	j := transformedParametersJSON{TransformID: tp.id}
	switch tp.id {
	case MatchCoding:
		j.MatchCodingBufferSize = &tp.matchCodingBufferSize
	case RLECoding:
		j.RLECodingGuard = &tp.rleCodingGuard
	case MergeCoding:
		shifts := make([]int, len(tp.mergeCodingShiftSize))
		for i, s := range tp.mergeCodingShiftSize {
			shifts[i] = int(s)
		}
		j.MergeCodingShiftSize = &shifts
	}
	return json.Marshal(j)
}

func (tp *TransformedParameters) UnmarshalJSON(data []byte) error {
	var j transformedParametersJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var param uint16
	switch {
	case j.MatchCodingBufferSize != nil:
		param = *j.MatchCodingBufferSize
	case j.RLECodingGuard != nil:
		param = uint16(*j.RLECodingGuard)
	}
	out, err := NewTransformedParameters(j.TransformID, param)
	if err != nil {
		return err
	}
	if out.id == MergeCoding && j.MergeCodingShiftSize != nil {
		shifts := make([]uint8, len(*j.MergeCodingShiftSize))
		for i, s := range *j.MergeCodingShiftSize {
			if s < 0 || s > 31 {
				return fmt.Errorf("shift size %d: %w", s, core.ErrMalformed)
			}
			shifts[i] = uint8(s)
		}
		if err := out.SetMergeCodingShiftSizes(shifts); err != nil {
			return err
		}
	}
	*tp = out
	return nil
}
