package parameter

import (
	"bytes"
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// DataUnitParameterSet is the data_unit_type of parameter sets
const DataUnitParameterSet uint8 = 1

// header bits: data_unit_type(8) reserved(10) data_unit_size(22)
const dataUnitHeaderBits = 8 + 10 + 22

// ParameterSet is a parameter set data unit
type ParameterSet struct {
	ID       uint8
	ParentID uint8
	Set      *EncodingSet
}

// NewParameterSet wraps set as parameter set id
func NewParameterSet(id, parentID uint8, set *EncodingSet) *ParameterSet {
	return &ParameterSet{ID: id, ParentID: parentID, Set: set}
}

func (ps *ParameterSet) body() (*bytes.Buffer, error) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.WriteBits(uint64(ps.ID), 8)
	w.WriteBits(uint64(ps.ParentID), 8)
	if err := ps.Set.Write(w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Write emits the data unit. The body is staged in memory so that
// data_unit_size, which counts the header, can precede it.
func (ps *ParameterSet) Write(w *bitio.Writer) error {
	body, err := ps.body()
	if err != nil {
		return fmt.Errorf("parameter set %d: %w", ps.ID, err)
	}
	size := uint64(body.Len()) + dataUnitHeaderBits/8
	if size >= 1<<22 {
		return fmt.Errorf("parameter set %d: %d bytes: %w", ps.ID, size, core.ErrInvariant)
	}
	w.WriteBits(uint64(DataUnitParameterSet), 8)
	w.WriteBits(0, 10)
	w.WriteBits(size, 22)
	w.WriteAlignedStream(body)
	return w.Err()
}

// Length returns data_unit_size: the encoded size in bytes,
// header included.
func (ps *ParameterSet) Length() (int, error) {
	body, err := ps.body()
	if err != nil {
		return 0, err
	}
	return body.Len() + dataUnitHeaderBits/8, nil
}

// ReadParameterSet parses a complete parameter set data unit,
// including its data_unit_type byte. The declared size must match
// the bytes consumed.
func ReadParameterSet(park *Park, r *bitio.Reader) (*ParameterSet, error) {
	start := r.TotalBitsRead()
	if typ := r.ReadUint8(8); typ != DataUnitParameterSet {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("data_unit_type %d is not a parameter set: %w", typ, core.ErrMalformed)
	}
	r.ReadBits(10)
	size := r.ReadBits(22)
	ps := &ParameterSet{
		ID:       r.ReadUint8(8),
		ParentID: r.ReadUint8(8),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parameter set header: %w", err)
	}
	set, err := ReadEncodingSet(park, r)
	if err != nil {
		return nil, fmt.Errorf("parameter set %d: %w", ps.ID, err)
	}
	ps.Set = set
	if got := (r.TotalBitsRead() - start) / 8; got != size {
		return nil, fmt.Errorf("parameter set %d: data_unit_size %d, consumed %d: %w", ps.ID, size, got, core.ErrMalformed)
	}
	return ps, nil
}

func (ps *ParameterSet) Clone() *ParameterSet {
	return &ParameterSet{ID: ps.ID, ParentID: ps.ParentID, Set: ps.Set.Clone()}
}

func (ps *ParameterSet) Equal(other *ParameterSet) bool {
	return ps.ID == other.ID && ps.ParentID == other.ParentID && ps.Set.Equal(other.Set)
}
