// Package config reads and writes encoding set configuration
// documents. Documents are YAML (or JSON, which is valid YAML) and
// name descriptors, classes and codecs by their short names.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	logging "github.com/op/go-logging"
	"sigs.k8s.io/yaml"

	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy"
	"github.com/scttfrdmn/mpegg-go/pkg/genie"
	"github.com/scttfrdmn/mpegg-go/pkg/paramcabac"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
	"github.com/scttfrdmn/mpegg-go/pkg/paramqv1"
)

var log = logging.MustGetLogger("config")

// Document is the on-disk form of an encoding set
type Document struct {
	DatasetType        string       `json:"dataset_type"`
	Alphabet           string       `json:"alphabet"`
	ReadLength         uint32       `json:"read_length"`
	Paired             bool         `json:"paired,omitempty"`
	MaxAUDataUnitSize  uint32       `json:"max_au_data_unit_size,omitempty"`
	Pos40Bits          bool         `json:"pos_40_bits,omitempty"`
	QVDepth            uint8        `json:"qv_depth,omitempty"`
	ASDepth            uint8        `json:"as_depth,omitempty"`
	MultipleAlignments bool         `json:"multiple_alignments,omitempty"`
	SplicedReads       bool         `json:"spliced_reads,omitempty"`
	Signature          *Signature   `json:"signature,omitempty"`
	ComputedRef        *ComputedRef `json:"computed_reference,omitempty"`
	ReadGroups         []string     `json:"read_groups,omitempty"`
	Classes            []Class      `json:"classes"`

	// DefaultCodec configures every descriptor not listed in Descriptors
	DefaultCodec string                `json:"default_codec"`
	Descriptors  map[string]Descriptor `json:"descriptors,omitempty"`
}

type Signature struct {
	Length *uint8 `json:"length,omitempty"` // nil for variable length
}

type ComputedRef struct {
	Algorithm  string `json:"algorithm"`
	PadSize    uint8  `json:"pad_size,omitempty"`
	BufMaxSize uint32 `json:"buf_max_size,omitempty"`
}

// Class pairs a record class with its quality value coding
type Class struct {
	ID            string        `json:"id"`
	QualityValues QualityValues `json:"quality_values"`
}

// QualityValues is either a preset name or a list of inline
// codebooks. Neither means the default codebooks of the class.
type QualityValues struct {
	Preset    string  `json:"preset,omitempty"`
	Codebooks [][]int `json:"codebooks,omitempty"`
	Reverse   bool    `json:"reverse,omitempty"`
}

// Coder names a codec and, for CABAC, optionally carries the full
// decoder configuration in its JSON form.
type Coder struct {
	Codec string          `json:"codec,omitempty"`
	CABAC json.RawMessage `json:"cabac,omitempty"`
}

// Descriptor configures one descriptor. With ClassSpecific set it
// holds one Coder per class, in class order.
type Descriptor struct {
	Coder
	ClassSpecific []Coder `json:"class_specific,omitempty"`
}

var alphabetNames = map[string]core.AlphabetID{
	"acgtn":           core.AlphabetACGTN,
	"acgtryswkmbdhvn": core.AlphabetACGTRYSWKMBDHVN,
}

var crNames = map[string]parameter.ComputedRefAlgorithm{
	"ref_transform":   parameter.CRRefTransform,
	"push_in":         parameter.CRPushIn,
	"local_assembly":  parameter.CRLocalAssembly,
	"global_assembly": parameter.CRGlobalAssembly,
}

// Load reads a document from path
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &doc, nil
}

// Marshal encodes doc as YAML
func (doc *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(doc)
}

// Build converts doc into an encoding set
func (doc *Document) Build() (*parameter.EncodingSet, error) {
	e := parameter.NewEncodingSet()
	var err error
	if doc.DatasetType != "" {
		if e.DatasetType, err = core.ParseDatasetType(doc.DatasetType); err != nil {
			return nil, err
		}
	}
	if doc.Alphabet != "" {
		a, ok := alphabetNames[doc.Alphabet]
		if !ok {
			return nil, fmt.Errorf("unknown alphabet %q", doc.Alphabet)
		}
		e.Alphabet = a
	}
	e.ReadLength = doc.ReadLength
	if doc.Paired {
		e.NumTemplateSegmentsMinus1 = 1
	}
	e.MaxAUDataUnitSize = doc.MaxAUDataUnitSize
	e.Pos40Bits = doc.Pos40Bits
	e.QVDepth = doc.QVDepth
	e.ASDepth = doc.ASDepth
	e.MultipleAlignments = doc.MultipleAlignments
	e.SplicedReads = doc.SplicedReads
	if doc.Signature != nil {
		e.Signature = &parameter.SignatureCfg{}
		if doc.Signature.Length != nil {
			e.Signature.ConstLength = true
			e.Signature.Length = *doc.Signature.Length
		}
	}
	if doc.ComputedRef != nil {
		alg, ok := crNames[doc.ComputedRef.Algorithm]
		if !ok {
			return nil, fmt.Errorf("unknown computed reference algorithm %q", doc.ComputedRef.Algorithm)
		}
		e.ComputedRef = &parameter.ComputedRef{
			Algorithm:  alg,
			PadSize:    doc.ComputedRef.PadSize,
			BufMaxSize: doc.ComputedRef.BufMaxSize,
		}
	}
	for _, g := range doc.ReadGroups {
		if err := e.AddGroup(g); err != nil {
			return nil, err
		}
	}

	for _, c := range doc.Classes {
		id, err := core.ParseClassType(c.ID)
		if err != nil {
			return nil, err
		}
		qv, err := c.QualityValues.build(id)
		if err != nil {
			return nil, fmt.Errorf("class %v: %w", id, err)
		}
		if err := e.AddClass(id, qv); err != nil {
			return nil, err
		}
	}

	defaultCodec := doc.DefaultCodec
	if defaultCodec == "" {
		defaultCodec = "cabac"
	}
	for name := range doc.Descriptors {
		if _, err := core.DescriptorByName(name); err != nil {
			return nil, err
		}
	}
	numClasses := len(doc.Classes)
	for _, props := range core.Descriptors() {
		d, ok := doc.Descriptors[props.Name]
		if !ok {
			d = Descriptor{Coder: Coder{Codec: defaultCodec}}
		}
		cfg, err := d.build(props.ID, numClasses)
		if err != nil {
			return nil, fmt.Errorf("descriptor %v: %w", props.ID, err)
		}
		if err := e.SetDescriptor(props.ID, cfg); err != nil {
			return nil, err
		}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("built encoding set: %d classes, default codec %s", numClasses, defaultCodec)
	return e, nil
}

func (q QualityValues) build(class core.ClassType) (parameter.QualityValues, error) {
	switch {
	case q.Preset != "" && len(q.Codebooks) > 0:
		return nil, fmt.Errorf("both preset and codebooks given: %w", core.ErrInvariant)
	case q.Preset != "":
		id, err := paramqv1.ParsePresetID(q.Preset)
		if err != nil {
			return nil, err
		}
		return paramqv1.NewPreset(id, q.Reverse)
	case len(q.Codebooks) > 0:
		var qvps paramqv1.ParameterSetQVPS
		for _, entries := range q.Codebooks {
			cb := &paramqv1.Codebook{}
			for _, v := range entries {
				if v < 0 || v > 0xff {
					return nil, fmt.Errorf("codebook entry %d: %w", v, core.ErrInvariant)
				}
				if err := cb.AddEntry(uint8(v)); err != nil {
					return nil, err
				}
			}
			if err := qvps.AddCodebook(cb); err != nil {
				return nil, err
			}
		}
		return paramqv1.NewInline(&qvps, q.Reverse), nil
	}
	qv := paramqv1.DefaultSet(class)
	if q.Reverse {
		qvps := &paramqv1.ParameterSetQVPS{}
		for i := 0; i < qv.NumCodebooks(); i++ {
			cb, _ := qv.Codebook(i)
			qvps.AddCodebook(cb)
		}
		return paramqv1.NewInline(qvps, true), nil
	}
	return qv, nil
}

func (d Descriptor) build(desc core.GenDesc, numClasses int) (*parameter.DescriptorSubseqCfg, error) {
	if len(d.ClassSpecific) == 0 {
		dec, err := d.Coder.build(desc)
		if err != nil {
			return nil, err
		}
		return parameter.NewDescriptorSubseqCfg(dec), nil
	}
	if len(d.ClassSpecific) != numClasses {
		return nil, fmt.Errorf("%d class specific configs for %d classes: %w", len(d.ClassSpecific), numClasses, core.ErrInvariant)
	}
	first, err := d.ClassSpecific[0].build(desc)
	if err != nil {
		return nil, err
	}
	cfg := parameter.NewDescriptorSubseqCfg(first)
	if err := cfg.EnableClassSpecificConfigs(numClasses); err != nil {
		return nil, err
	}
	for i, c := range d.ClassSpecific {
		dec, err := c.build(desc)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		if err := cfg.SetClassSpecific(i, parameter.NewDescriptorPresent(dec)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c Coder) build(desc core.GenDesc) (parameter.Decoder, error) {
	mode, err := genie.ParseMode(c.Codec)
	if err != nil {
		return nil, err
	}
	if len(c.CABAC) == 0 {
		return genie.NewDecoder(mode, desc)
	}
	if mode != paramcabac.ModeCABAC {
		return nil, fmt.Errorf("cabac parameters given for codec %s: %w", c.Codec, core.ErrInvariant)
	}
	if core.Descriptor(desc).TokenType {
		return paramcabac.DecodeDecoderTokenTypeJSON(desc, c.CABAC)
	}
	return paramcabac.DecodeDecoderRegularJSON(desc, c.CABAC)
}

// Describe converts an encoding set into a document. CABAC decoders
// that differ from the default configuration keep their parameters;
// everything else is reduced to a codec name.
func Describe(e *parameter.EncodingSet) (*Document, error) {
	doc := &Document{
		DatasetType:        e.DatasetType.String(),
		ReadLength:         e.ReadLength,
		Paired:             e.NumTemplateSegmentsMinus1 > 0,
		MaxAUDataUnitSize:  e.MaxAUDataUnitSize,
		Pos40Bits:          e.Pos40Bits,
		QVDepth:            e.QVDepth,
		ASDepth:            e.ASDepth,
		MultipleAlignments: e.MultipleAlignments,
		SplicedReads:       e.SplicedReads,
		ReadGroups:         e.ReadGroups(),
		DefaultCodec:       "cabac",
		Descriptors:        map[string]Descriptor{},
	}
	for name, a := range alphabetNames {
		if a == e.Alphabet {
			doc.Alphabet = name
		}
	}
	if doc.Alphabet == "" {
		return nil, fmt.Errorf("alphabet %d: %w", e.Alphabet, core.ErrMalformed)
	}
	if e.Signature != nil {
		doc.Signature = &Signature{}
		if e.Signature.ConstLength {
			l := e.Signature.Length
			doc.Signature.Length = &l
		}
	}
	if e.ComputedRef != nil {
		doc.ComputedRef = &ComputedRef{PadSize: e.ComputedRef.PadSize, BufMaxSize: e.ComputedRef.BufMaxSize}
		for name, alg := range crNames {
			if alg == e.ComputedRef.Algorithm {
				doc.ComputedRef.Algorithm = name
			}
		}
	}

	for _, id := range e.ClassIDs() {
		qv, err := e.QVConfig(id)
		if err != nil {
			return nil, err
		}
		c, err := describeQV(id, qv)
		if err != nil {
			return nil, fmt.Errorf("class %v: %w", id, err)
		}
		doc.Classes = append(doc.Classes, Class{ID: id.String(), QualityValues: c})
	}

	for _, props := range core.Descriptors() {
		cfg := e.Descriptor(props.ID)
		if cfg == nil {
			return nil, fmt.Errorf("%v not configured: %w", props.ID, core.ErrInvariant)
		}
		var d Descriptor
		if cfg.IsClassSpecific() {
			for i := 0; i < cfg.NumConfigs(); i++ {
				p, err := cfg.GetClassSpecific(i)
				if err != nil {
					return nil, err
				}
				c, err := describeDecoder(props.ID, p.Decoder())
				if err != nil {
					return nil, err
				}
				d.ClassSpecific = append(d.ClassSpecific, c)
			}
		} else {
			p, err := cfg.Get()
			if err != nil {
				return nil, err
			}
			if d.Coder, err = describeDecoder(props.ID, p.Decoder()); err != nil {
				return nil, err
			}
			if d.Coder.Codec == doc.DefaultCodec && d.Coder.CABAC == nil {
				continue
			}
		}
		doc.Descriptors[props.Name] = d
	}
	if len(doc.Descriptors) == 0 {
		doc.Descriptors = nil
	}
	return doc, nil
}

func describeQV(class core.ClassType, qv parameter.QualityValues) (QualityValues, error) {
	q, ok := qv.(*paramqv1.QualityValues1)
	if !ok {
		return QualityValues{}, fmt.Errorf("qv mode %d: %w", qv.Mode(), core.ErrUnknownImplementation)
	}
	if q.Equal(paramqv1.DefaultSet(class)) {
		return QualityValues{}, nil
	}
	out := QualityValues{Reverse: q.ReverseFlag()}
	if id, ok := q.Preset(); ok {
		out.Preset = id.String()
		return out, nil
	}
	for i := 0; i < q.NumCodebooks(); i++ {
		cb, err := q.Codebook(i)
		if err != nil {
			return QualityValues{}, err
		}
		entries := cb.Entries()
		ints := make([]int, len(entries))
		for j, v := range entries {
			ints[j] = int(v)
		}
		out.Codebooks = append(out.Codebooks, ints)
	}
	return out, nil
}

func describeDecoder(desc core.GenDesc, dec parameter.Decoder) (Coder, error) {
	c := Coder{Codec: genie.ModeName(dec.Mode())}
	switch d := dec.(type) {
	case *entropy.BlockDecoder:
		return c, nil
	case *paramcabac.DecoderRegular, *paramcabac.DecoderTokenType:
		def, err := genie.NewDecoder(paramcabac.ModeCABAC, desc)
		if err != nil {
			return Coder{}, err
		}
		if d.Equal(def) {
			return c, nil
		}
		if c.CABAC, err = json.Marshal(d); err != nil {
			return Coder{}, err
		}
		return c, nil
	}
	return Coder{}, fmt.Errorf("%v decoder mode %d: %w", desc, dec.Mode(), core.ErrUnknownImplementation)
}
