// Package parameter holds the encoding parameter set and the
// descriptor configuration it carries, plus the capability
// interfaces implemented by the decoder and quality value modes.
package parameter

import (
	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/registry"
)

// Decoder is the entropy decoder configuration of one descriptor.
// Write emits the encoding_mode_ID byte followed by the mode payload.
type Decoder interface {
	Mode() uint8
	Write(w *bitio.Writer)
	Clone() Decoder
	Equal(other Decoder) bool
}

// QualityValues is the quality value coding configuration of one class.
// Write emits the 4-bit qv_coding_mode followed by the mode payload.
type QualityValues interface {
	Mode() uint8
	Write(w *bitio.Writer)
	Clone() QualityValues
	Equal(other QualityValues) bool
	NumSubsequences() int
}

// Park groups the constructor families consulted while parsing
// a parameter set. It is built once and passed to every parser
// that dispatches on a mode id.
type Park struct {
	Decoders          *registry.Factory[Decoder]
	TokenTypeDecoders *registry.Factory[Decoder]
	QualityValues     *registry.Factory[QualityValues]
}

// NewPark creates a park with empty families
func NewPark() *Park {
	return &Park{
		Decoders:          registry.NewFactory[Decoder]("decoder"),
		TokenTypeDecoders: registry.NewFactory[Decoder]("tokentype decoder"),
		QualityValues:     registry.NewFactory[QualityValues]("quality values"),
	}
}

// ConstructDecoder picks the decoder family matching desc and
// constructs the decoder for mode.
func (p *Park) ConstructDecoder(mode uint8, desc core.GenDesc, r *bitio.Reader) (Decoder, error) {
	if core.Descriptor(desc).TokenType {
		return p.TokenTypeDecoders.Construct(mode, desc, r)
	}
	return p.Decoders.Construct(mode, desc, r)
}
