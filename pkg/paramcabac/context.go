package paramcabac

import (
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// Context is the context model configuration of a binarization.
//
// num_contexts is never stored separately: it is the length of the
// initialization value list, so the two cannot diverge.
type Context struct {
	adaptiveModeFlag           bool
	contextInitializationValue []uint8 // 7 bits each
	shareSubsymCtxFlag         bool    // only when coding_subsym_size < output_symbol_size
}

// NewContext creates a context with no initialization values. The
// share flag is dropped unless the subsymbol is smaller than the symbol.
func NewContext(adaptiveModeFlag bool, outputSymbolSize, codingSubsymSize uint8, shareSubsymCtxFlag bool) Context {
	c := Context{adaptiveModeFlag: adaptiveModeFlag}
	if codingSubsymSize < outputSymbolSize {
		c.shareSubsymCtxFlag = shareSubsymCtxFlag
	}
	return c
}

// ReadContext parses a context. The symbol sizes come from the
// enclosing subsequence's support values.
func ReadContext(outputSymbolSize, codingSubsymSize uint8, r *bitio.Reader) Context {
	var c Context
	c.adaptiveModeFlag = r.ReadBool()
	n := r.ReadUint16(16)
	if n > 0 {
		c.contextInitializationValue = make([]uint8, n)
		for i := range c.contextInitializationValue {
			c.contextInitializationValue[i] = r.ReadUint8(7)
		}
	}
	if codingSubsymSize < outputSymbolSize {
		c.shareSubsymCtxFlag = r.ReadBool()
	}
	return c
}

// Write serializes c using the same presence rule as ReadContext.
func (c Context) Write(outputSymbolSize, codingSubsymSize uint8, w *bitio.Writer) {
	w.WriteBool(c.adaptiveModeFlag)
	w.WriteBits(uint64(len(c.contextInitializationValue)), 16)
	for _, v := range c.contextInitializationValue {
		w.WriteBits(uint64(v), 7)
	}
	if codingSubsymSize < outputSymbolSize {
		w.WriteBool(c.shareSubsymCtxFlag)
	}
}

// AddContextInitializationValue appends one 7-bit value.
func (c *Context) AddContextInitializationValue(v uint8) error {
	if v > 0x7f {
		return fmt.Errorf("context initialization value %d: %w", v, core.ErrInvariant)
	}
	if len(c.contextInitializationValue) == math.MaxUint16 {
		return fmt.Errorf("more than %d contexts: %w", math.MaxUint16, core.ErrInvariant)
	}
	c.contextInitializationValue = append(c.contextInitializationValue, v)
	return nil
}

// NumContexts returns num_contexts
func (c Context) NumContexts() uint16 {
	return uint16(len(c.contextInitializationValue))
}

// ContextInitializationValues returns a copy of the initialization values
func (c Context) ContextInitializationValues() []uint8 {
	return slices.Clone(c.contextInitializationValue)
}

func (c Context) AdaptiveModeFlag() bool {
	return c.adaptiveModeFlag
}

func (c Context) ShareSubsymCtxFlag() bool {
	return c.shareSubsymCtxFlag
}

func (c Context) Clone() Context {
	c.contextInitializationValue = slices.Clone(c.contextInitializationValue)
	return c
}

// Equal treats a nil and an empty value list as the same
func (c Context) Equal(other Context) bool {
	return c.adaptiveModeFlag == other.adaptiveModeFlag &&
		c.shareSubsymCtxFlag == other.shareSubsymCtxFlag &&
		slices.Equal(c.contextInitializationValue, other.contextInitializationValue)
}

type contextJSON struct {
	AdaptiveModeFlag           bool  `json:"adaptive_mode_flag"`
	ContextInitializationValue []int `json:"context_initialization_value"`
	ShareSubsymCtxFlag         bool  `json:"share_subsym_ctx_flag"`
}

func (c Context) MarshalJSON() ([]byte, error) {
	j := contextJSON{
		AdaptiveModeFlag:           c.adaptiveModeFlag,
		ContextInitializationValue: make([]int, len(c.contextInitializationValue)),
		ShareSubsymCtxFlag:         c.shareSubsymCtxFlag,
	}
	for i, v := range c.contextInitializationValue {
		j.ContextInitializationValue[i] = int(v)
	}
	return json.Marshal(j)
}

func (c *Context) UnmarshalJSON(data []byte) error {
	var j contextJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	out := Context{
		adaptiveModeFlag:   j.AdaptiveModeFlag,
		shareSubsymCtxFlag: j.ShareSubsymCtxFlag,
	}
	for _, v := range j.ContextInitializationValue {
		if v < 0 || v > 0x7f {
			return fmt.Errorf("context initialization value %d: %w", v, core.ErrMalformed)
		}
		if err := out.AddContextInitializationValue(uint8(v)); err != nil {
			return err
		}
	}
	*c = out
	return nil
}
