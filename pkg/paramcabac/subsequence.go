package paramcabac

import (
	"encoding/json"
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// MaxSubsequenceID is the largest descriptor_subsequence_ID (10 bits).
const MaxSubsequenceID = 1<<10 - 1

// Subsequence configures the transform and the per-stream coding
// of one descriptor subsequence. Subsequences of token type
// descriptors carry no descriptor_subsequence_ID.
type Subsequence struct {
	descriptorSubsequenceID uint16
	tokenType               bool

	transformSubseqParameters TransformedParameters
	transformSubseqCfgs       []TransformedSubSeq // len == NumStreams()
}

// DefaultSubsequence is an untransformed subsequence with one
// default stream configuration.
func DefaultSubsequence(id uint16, tokenType bool) Subsequence {
	s := Subsequence{
		tokenType:                 tokenType,
		transformSubseqParameters: TransformedParameters{id: NoTransform},
		transformSubseqCfgs:       []TransformedSubSeq{DefaultTransformedSubSeq()},
	}
	if !tokenType {
		s.descriptorSubsequenceID = id
	}
	return s
}

// NewSubsequence assembles a regular subsequence. cfgs must hold
// exactly params.NumStreams() entries.
func NewSubsequence(id uint16, params TransformedParameters, cfgs []TransformedSubSeq) (Subsequence, error) {
	if id > MaxSubsequenceID {
		return Subsequence{}, fmt.Errorf("descriptor_subsequence_ID %d: %w", id, core.ErrInvariant)
	}
	s := Subsequence{descriptorSubsequenceID: id}
	return s, s.set(params, cfgs)
}

// NewTokenTypeSubsequence assembles a subsequence of a token type
// descriptor. cfgs must hold exactly params.NumStreams() entries.
func NewTokenTypeSubsequence(params TransformedParameters, cfgs []TransformedSubSeq) (Subsequence, error) {
	s := Subsequence{tokenType: true}
	return s, s.set(params, cfgs)
}

func (s *Subsequence) set(params TransformedParameters, cfgs []TransformedSubSeq) error {
	if len(cfgs) != params.NumStreams() {
		return fmt.Errorf("%v needs %d stream configs, got %d: %w",
			params.ID(), params.NumStreams(), len(cfgs), core.ErrInvariant)
	}
	s.transformSubseqParameters = params
	s.transformSubseqCfgs = make([]TransformedSubSeq, len(cfgs))
	for i, c := range cfgs {
		s.transformSubseqCfgs[i] = c.Clone()
	}
	return nil
}

// ReadSubsequence parses a subsequence. tokenType says whether
// the enclosing descriptor omits descriptor_subsequence_ID.
func ReadSubsequence(tokenType bool, r *bitio.Reader) (Subsequence, error) {
	s := Subsequence{tokenType: tokenType}
	if !tokenType {
		s.descriptorSubsequenceID = r.ReadUint16(10)
	}
	params, err := ReadTransformedParameters(r)
	if err != nil {
		return s, err
	}
	s.transformSubseqParameters = params
	s.transformSubseqCfgs = make([]TransformedSubSeq, params.NumStreams())
	for i := range s.transformSubseqCfgs {
		ts, err := ReadTransformedSubSeq(r)
		if err != nil {
			return s, fmt.Errorf("stream %d: %w", i, err)
		}
		s.transformSubseqCfgs[i] = ts
	}
	return s, r.Err()
}

// Write serializes s
func (s Subsequence) Write(w *bitio.Writer) {
	if !s.tokenType {
		w.WriteBits(uint64(s.descriptorSubsequenceID), 10)
	}
	s.transformSubseqParameters.Write(w)
	for _, c := range s.transformSubseqCfgs {
		c.Write(w)
	}
}

// DescriptorSubsequenceID returns the id; it is zero for token type subsequences
func (s Subsequence) DescriptorSubsequenceID() uint16 {
	return s.descriptorSubsequenceID
}

func (s Subsequence) TokenType() bool {
	return s.tokenType
}

func (s Subsequence) TransformParameters() TransformedParameters {
	return s.transformSubseqParameters
}

// TransformSubseqCfgs returns copies of the per-stream configs
func (s Subsequence) TransformSubseqCfgs() []TransformedSubSeq {
	out := make([]TransformedSubSeq, len(s.transformSubseqCfgs))
	for i, c := range s.transformSubseqCfgs {
		out[i] = c.Clone()
	}
	return out
}

// SetTransform replaces the transform and its stream configs together.
func (s *Subsequence) SetTransform(params TransformedParameters, cfgs []TransformedSubSeq) error {
	return s.set(params, cfgs)
}

// SetTransformSubseqCfg replaces the config of stream i
func (s *Subsequence) SetTransformSubseqCfg(i int, cfg TransformedSubSeq) error {
	if i < 0 || i >= len(s.transformSubseqCfgs) {
		return fmt.Errorf("stream %d of %d: %w", i, len(s.transformSubseqCfgs), core.ErrInvariant)
	}
	s.transformSubseqCfgs[i] = cfg.Clone()
	return nil
}

func (s Subsequence) Clone() Subsequence {
	s.transformSubseqParameters.mergeCodingShiftSize = s.transformSubseqParameters.MergeCodingShiftSizes()
	s.transformSubseqCfgs = s.TransformSubseqCfgs()
	return s
}

func (s Subsequence) Equal(other Subsequence) bool {
	if s.descriptorSubsequenceID != other.descriptorSubsequenceID ||
		s.tokenType != other.tokenType ||
		!s.transformSubseqParameters.Equal(other.transformSubseqParameters) ||
		len(s.transformSubseqCfgs) != len(other.transformSubseqCfgs) {
		return false
	}
	for i := range s.transformSubseqCfgs {
		if !s.transformSubseqCfgs[i].Equal(other.transformSubseqCfgs[i]) {
			return false
		}
	}
	return true
}

type subsequenceJSON struct {
	DescriptorSubsequenceID *uint16               `json:"descriptor_subsequence_ID,omitempty"`
	Parameters              TransformedParameters `json:"transform_subseq_parameters"`
	Cfgs                    []TransformedSubSeq   `json:"transform_subseq_cfgs"`
}

func (s Subsequence) MarshalJSON() ([]byte, error) {
	j := subsequenceJSON{
		Parameters: s.transformSubseqParameters,
		Cfgs:       s.transformSubseqCfgs,
	}
	if !s.tokenType {
		id := s.descriptorSubsequenceID
		j.DescriptorSubsequenceID = &id
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a subsequence. A missing
// descriptor_subsequence_ID marks it as token type.
func (s *Subsequence) UnmarshalJSON(data []byte) error {
	var j subsequenceJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var (
		out Subsequence
		err error
	)
	if j.DescriptorSubsequenceID == nil {
		out, err = NewTokenTypeSubsequence(j.Parameters, j.Cfgs)
	} else {
		out, err = NewSubsequence(*j.DescriptorSubsequenceID, j.Parameters, j.Cfgs)
	}
	if err != nil {
		return err
	}
	*s = out
	return nil
}
