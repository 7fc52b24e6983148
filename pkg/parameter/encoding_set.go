package parameter

import (
	"fmt"
	"strings"

	logging "github.com/op/go-logging"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

var log = logging.MustGetLogger("parameter")

// MaxClasses is the largest num_classes (4 bits)
const MaxClasses = 15

// SignatureCfg configures read signatures. Length is only
// meaningful when ConstLength is set.
type SignatureCfg struct {
	ConstLength bool
	Length      uint8
}

// EncodingSet is the body of a parameter set: dataset properties,
// the configuration of every descriptor, read groups and the
// quality value configuration of every class.
type EncodingSet struct {
	DatasetType               core.DatasetType // 4 bits
	Alphabet                  core.AlphabetID
	ReadLength                uint32 // 24 bits
	NumTemplateSegmentsMinus1 uint8  // 2 bits
	MaxAUDataUnitSize         uint32 // 29 bits
	Pos40Bits                 bool
	QVDepth                   uint8 // 3 bits
	ASDepth                   uint8 // 3 bits
	MultipleAlignments        bool
	SplicedReads              bool
	Signature                 *SignatureCfg
	ComputedRef               *ComputedRef

	classIDs    []core.ClassType
	qvConfigs   []QualityValues // parallel to classIDs
	descriptors [core.NumDescriptors]*DescriptorSubseqCfg
	readGroups  []string
}

// NewEncodingSet creates an aligned ACGTN encoding set with no
// classes. Every descriptor must be configured before Write.
func NewEncodingSet() *EncodingSet {
	return &EncodingSet{
		DatasetType: core.DatasetAligned,
		Alphabet:    core.AlphabetACGTN,
	}
}

// ReadEncodingSet parses an encoding set, dispatching decoder and
// quality value modes through park. The reader is left byte aligned.
func ReadEncodingSet(park *Park, r *bitio.Reader) (*EncodingSet, error) {
	e := &EncodingSet{}
	e.DatasetType = core.DatasetType(r.ReadUint8(4))
	e.Alphabet = core.AlphabetID(r.ReadUint8(8))
	e.ReadLength = r.ReadUint32(24)
	e.NumTemplateSegmentsMinus1 = r.ReadUint8(2)
	r.ReadBits(6) // reserved
	e.MaxAUDataUnitSize = r.ReadUint32(29)
	e.Pos40Bits = r.ReadBool()
	e.QVDepth = r.ReadUint8(3)
	e.ASDepth = r.ReadUint8(3)

	numClasses := int(r.ReadUint8(4))
	e.classIDs = make([]core.ClassType, numClasses)
	for i := range e.classIDs {
		e.classIDs[i] = core.ClassType(r.ReadUint8(4))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("encoding set header: %w", err)
	}

	for i := range e.descriptors {
		d, err := ReadDescriptorSubseqCfg(park, numClasses, core.GenDesc(i), r)
		if err != nil {
			return nil, fmt.Errorf("descriptor config: %w", err)
		}
		e.descriptors[i] = d
	}

	numGroups := int(r.ReadUint16(16))
	e.readGroups = make([]string, numGroups)
	for i := range e.readGroups {
		var sb strings.Builder
		for {
			c := r.ReadUint8(8)
			if c == 0 || !r.IsStreamGood() {
				break
			}
			sb.WriteByte(c)
		}
		e.readGroups[i] = sb.String()
	}

	e.MultipleAlignments = r.ReadBool()
	e.SplicedReads = r.ReadBool()
	r.ReadBits(30) // reserved
	if r.ReadBool() {
		e.Signature = &SignatureCfg{ConstLength: r.ReadBool()}
		if e.Signature.ConstLength {
			e.Signature.Length = r.ReadUint8(8)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("encoding set: %w", err)
	}

	e.qvConfigs = make([]QualityValues, numClasses)
	for i := range e.qvConfigs {
		mode := r.ReadUint8(4)
		qv, err := park.QualityValues.Construct(mode, core.DescQV, r)
		if err != nil {
			return nil, fmt.Errorf("class %v quality values: %w", e.classIDs[i], err)
		}
		e.qvConfigs[i] = qv
	}

	if r.ReadBool() {
		cr, err := ReadComputedRef(r)
		if err != nil {
			return nil, err
		}
		e.ComputedRef = cr
	}
	r.FlushHeldBits()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("encoding set: %w", err)
	}
	log.Debugf("read encoding set: %d classes, %d read groups", numClasses, numGroups)
	return e, nil
}

// Validate checks the cross-field invariants Write depends on.
func (e *EncodingSet) Validate() error {
	for i, d := range e.descriptors {
		if d == nil {
			return fmt.Errorf("%v not configured: %w", core.GenDesc(i), core.ErrInvariant)
		}
		if d.IsClassSpecific() && d.NumConfigs() != len(e.classIDs) {
			return fmt.Errorf("%v has %d class configs for %d classes: %w",
				core.GenDesc(i), d.NumConfigs(), len(e.classIDs), core.ErrInvariant)
		}
	}
	switch {
	case e.ReadLength >= 1<<24:
		return fmt.Errorf("read length %d: %w", e.ReadLength, core.ErrInvariant)
	case e.NumTemplateSegmentsMinus1 > 3:
		return fmt.Errorf("%d template segments: %w", e.NumTemplateSegmentsMinus1+1, core.ErrInvariant)
	case e.MaxAUDataUnitSize >= 1<<29:
		return fmt.Errorf("max AU data unit size %d: %w", e.MaxAUDataUnitSize, core.ErrInvariant)
	case e.QVDepth > 7 || e.ASDepth > 7:
		return fmt.Errorf("depths %d/%d: %w", e.QVDepth, e.ASDepth, core.ErrInvariant)
	case len(e.readGroups) > 0xffff:
		return fmt.Errorf("%d read groups: %w", len(e.readGroups), core.ErrInvariant)
	case e.ComputedRef != nil && e.ComputedRef.BufMaxSize >= 1<<24:
		return fmt.Errorf("computed reference buffer size %d: %w", e.ComputedRef.BufMaxSize, core.ErrInvariant)
	}
	return nil
}

// Write serializes e and pads to a byte boundary.
func (e *EncodingSet) Write(w *bitio.Writer) error {
	if err := e.Validate(); err != nil {
		return err
	}
	w.WriteBits(uint64(e.DatasetType), 4)
	w.WriteBits(uint64(e.Alphabet), 8)
	w.WriteBits(uint64(e.ReadLength), 24)
	w.WriteBits(uint64(e.NumTemplateSegmentsMinus1), 2)
	w.WriteBits(0, 6)
	w.WriteBits(uint64(e.MaxAUDataUnitSize), 29)
	w.WriteBool(e.Pos40Bits)
	w.WriteBits(uint64(e.QVDepth), 3)
	w.WriteBits(uint64(e.ASDepth), 3)
	w.WriteBits(uint64(len(e.classIDs)), 4)
	for _, c := range e.classIDs {
		w.WriteBits(uint64(c), 4)
	}
	for _, d := range e.descriptors {
		d.Write(w)
	}
	w.WriteBits(uint64(len(e.readGroups)), 16)
	for _, g := range e.readGroups {
		for i := 0; i < len(g); i++ {
			w.WriteBits(uint64(g[i]), 8)
		}
		w.WriteBits(0, 8)
	}
	w.WriteBool(e.MultipleAlignments)
	w.WriteBool(e.SplicedReads)
	w.WriteBits(0, 30)
	w.WriteBool(e.Signature != nil)
	if e.Signature != nil {
		w.WriteBool(e.Signature.ConstLength)
		if e.Signature.ConstLength {
			w.WriteBits(uint64(e.Signature.Length), 8)
		}
	}
	for _, qv := range e.qvConfigs {
		qv.Write(w)
	}
	w.WriteBool(e.ComputedRef != nil)
	if e.ComputedRef != nil {
		e.ComputedRef.Write(w)
	}
	w.FlushBits()
	return w.Err()
}

// AddClass appends a class and its quality value configuration.
// Duplicates are rejected, as is any addition once a descriptor
// has class specific configurations.
func (e *EncodingSet) AddClass(c core.ClassType, qv QualityValues) error {
	for i, d := range e.descriptors {
		if d != nil && d.IsClassSpecific() {
			return fmt.Errorf("adding class %v after %v became class specific: %w", c, core.GenDesc(i), core.ErrInvariant)
		}
	}
	for _, have := range e.classIDs {
		if have == c {
			return fmt.Errorf("class %v already added: %w", c, core.ErrInvariant)
		}
	}
	if len(e.classIDs) == MaxClasses {
		return fmt.Errorf("more than %d classes: %w", MaxClasses, core.ErrInvariant)
	}
	if c > 0xf {
		return fmt.Errorf("class id %d: %w", c, core.ErrInvariant)
	}
	e.classIDs = append(e.classIDs, c)
	e.qvConfigs = append(e.qvConfigs, qv)
	return nil
}

// ClassIDs returns the classes in parameter set order
func (e *EncodingSet) ClassIDs() []core.ClassType {
	return append([]core.ClassType(nil), e.classIDs...)
}

// QVConfig returns the quality value configuration of class c
func (e *EncodingSet) QVConfig(c core.ClassType) (QualityValues, error) {
	for i, have := range e.classIDs {
		if have == c {
			return e.qvConfigs[i], nil
		}
	}
	return nil, fmt.Errorf("no quality value config for class %v: %w", c, core.ErrInvariant)
}

// SetDescriptor replaces the configuration of desc
func (e *EncodingSet) SetDescriptor(desc core.GenDesc, cfg *DescriptorSubseqCfg) error {
	if !desc.Valid() {
		return fmt.Errorf("descriptor %d: %w", desc, core.ErrInvariant)
	}
	e.descriptors[desc] = cfg
	return nil
}

// Descriptor returns the configuration of desc, or nil
func (e *EncodingSet) Descriptor(desc core.GenDesc) *DescriptorSubseqCfg {
	if !desc.Valid() {
		return nil
	}
	return e.descriptors[desc]
}

// AddGroup appends a read group name
func (e *EncodingSet) AddGroup(name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("read group %q contains NUL: %w", name, core.ErrInvariant)
	}
	e.readGroups = append(e.readGroups, name)
	return nil
}

// ReadGroups returns the read group names
func (e *EncodingSet) ReadGroups() []string {
	return append([]string(nil), e.readGroups...)
}

// NumTemplateSegments returns 1 for single end and 2 for paired data
func (e *EncodingSet) NumTemplateSegments() int {
	return int(e.NumTemplateSegmentsMinus1) + 1
}

// PosSize returns the width of positions in bits
func (e *EncodingSet) PosSize() uint8 {
	if e.Pos40Bits {
		return 40
	}
	return 32
}

// Clone deep copies e, including every decoder and quality value config.
func (e *EncodingSet) Clone() *EncodingSet {
	out := *e
	if e.Signature != nil {
		sig := *e.Signature
		out.Signature = &sig
	}
	if e.ComputedRef != nil {
		cr := *e.ComputedRef
		out.ComputedRef = &cr
	}
	out.classIDs = e.ClassIDs()
	out.readGroups = e.ReadGroups()
	out.qvConfigs = make([]QualityValues, len(e.qvConfigs))
	for i, qv := range e.qvConfigs {
		out.qvConfigs[i] = qv.Clone()
	}
	for i, d := range e.descriptors {
		if d != nil {
			out.descriptors[i] = d.Clone()
		}
	}
	return &out
}

func (e *EncodingSet) Equal(other *EncodingSet) bool {
	if e.DatasetType != other.DatasetType ||
		e.Alphabet != other.Alphabet ||
		e.ReadLength != other.ReadLength ||
		e.NumTemplateSegmentsMinus1 != other.NumTemplateSegmentsMinus1 ||
		e.MaxAUDataUnitSize != other.MaxAUDataUnitSize ||
		e.Pos40Bits != other.Pos40Bits ||
		e.QVDepth != other.QVDepth ||
		e.ASDepth != other.ASDepth ||
		e.MultipleAlignments != other.MultipleAlignments ||
		e.SplicedReads != other.SplicedReads {
		return false
	}
	if (e.Signature == nil) != (other.Signature == nil) ||
		e.Signature != nil && *e.Signature != *other.Signature {
		return false
	}
	if (e.ComputedRef == nil) != (other.ComputedRef == nil) ||
		e.ComputedRef != nil && !e.ComputedRef.Equal(other.ComputedRef) {
		return false
	}
	if len(e.classIDs) != len(other.classIDs) || len(e.readGroups) != len(other.readGroups) {
		return false
	}
	for i := range e.classIDs {
		if e.classIDs[i] != other.classIDs[i] || !e.qvConfigs[i].Equal(other.qvConfigs[i]) {
			return false
		}
	}
	for i := range e.readGroups {
		if e.readGroups[i] != other.readGroups[i] {
			return false
		}
	}
	for i := range e.descriptors {
		a, b := e.descriptors[i], other.descriptors[i]
		if (a == nil) != (b == nil) || a != nil && !a.Equal(b) {
			return false
		}
	}
	return true
}
