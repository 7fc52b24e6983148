// Package genie wires every decoder and quality value mode of the
// module into one Park and builds default encoding sets on top of it.
package genie

import (
	"fmt"

	logging "github.com/op/go-logging"

	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy/lzma"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy/zstd"
	"github.com/scttfrdmn/mpegg-go/pkg/paramcabac"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
	"github.com/scttfrdmn/mpegg-go/pkg/paramqv1"
)

var log = logging.MustGetLogger("genie")

// Mode names accepted on the command line and in configuration documents
var modeNames = map[string]uint8{
	"cabac": paramcabac.ModeCABAC,
	"lzma":  lzma.Mode,
	"zstd":  zstd.Mode,
}

// NewPark registers CABAC, LZMA and zstd decoders and quality value
// mode 1. Registration happens here once; the returned park is only
// read afterwards.
func NewPark() *parameter.Park {
	park := parameter.NewPark()
	paramcabac.Register(park)
	lzma.Register(park)
	zstd.Register(park)
	paramqv1.Register(park)
	log.Debugf("park ready: decoder modes %v, qv modes %v", park.Decoders.Modes(), park.QualityValues.Modes())
	return park
}

// ParseMode maps a codec name to its encoding_mode_ID
func ParseMode(name string) (uint8, error) {
	mode, ok := modeNames[name]
	if !ok {
		return 0, fmt.Errorf("codec %q: %w", name, core.ErrUnknownImplementation)
	}
	return mode, nil
}

// ModeName is the inverse of ParseMode
func ModeName(mode uint8) string {
	for name, m := range modeNames {
		if m == mode {
			return name
		}
	}
	return fmt.Sprintf("mode%d", mode)
}

// NewDecoder returns the default decoder configuration of desc for mode.
func NewDecoder(mode uint8, desc core.GenDesc) (parameter.Decoder, error) {
	if !desc.Valid() {
		return nil, fmt.Errorf("descriptor %d: %w", desc, core.ErrInvariant)
	}
	switch mode {
	case paramcabac.ModeCABAC:
		if core.Descriptor(desc).TokenType {
			return paramcabac.NewDecoderTokenType(desc), nil
		}
		return paramcabac.NewDecoderRegular(desc), nil
	case lzma.Mode, zstd.Mode:
		return entropy.NewBlockDecoder(mode, desc), nil
	}
	return nil, fmt.Errorf("decoder mode %d: %w", mode, core.ErrUnknownImplementation)
}

// NewEncodingSet builds an aligned encoding set with every descriptor
// configured for mode and the default quality values of each class.
func NewEncodingSet(mode uint8, classes ...core.ClassType) (*parameter.EncodingSet, error) {
	e := parameter.NewEncodingSet()
	for _, c := range classes {
		if err := e.AddClass(c, paramqv1.DefaultSet(c)); err != nil {
			return nil, err
		}
	}
	for _, props := range core.Descriptors() {
		dec, err := NewDecoder(mode, props.ID)
		if err != nil {
			return nil, err
		}
		if err := e.SetDescriptor(props.ID, parameter.NewDescriptorSubseqCfg(dec)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// CodecFor returns the block engine of mode. CABAC has none: its
// configuration is carried but the arithmetic coder is not part of
// this module.
func CodecFor(mode uint8) (entropy.Codec, error) {
	switch mode {
	case lzma.Mode:
		return &lzma.Codec{}, nil
	case zstd.Mode:
		c, err := zstd.NewCodec(0)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("no block codec for mode %d: %w", mode, core.ErrUnknownImplementation)
}
