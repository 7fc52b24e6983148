// Package entropy defines the block codec interface and the decoder
// configuration shared by the general purpose block codecs.
package entropy

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

// Codec compresses whole subsequence payloads
type Codec interface {
	// Name is the codec name used on the command line
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// BlockDecoder is the decoder configuration of a block codec. It only
// lists which subsequences are present; the codec needs no parameters.
type BlockDecoder struct {
	mode      uint8
	desc      core.GenDesc
	tokenType bool
	subseqIDs []uint16 // 10 bits each; unused for token type descriptors
}

// NewBlockDecoder configures every subsequence of desc for mode.
func NewBlockDecoder(mode uint8, desc core.GenDesc) *BlockDecoder {
	props := core.Descriptor(desc)
	d := &BlockDecoder{mode: mode, desc: desc, tokenType: props.TokenType}
	if !d.tokenType {
		d.subseqIDs = make([]uint16, len(props.SubSeqs))
		for i := range d.subseqIDs {
			d.subseqIDs[i] = uint16(i)
		}
	}
	return d
}

// ReadBlockDecoder parses the payload following encoding_mode_ID.
// Regular descriptors carry a biased count and one 10-bit id per
// subsequence; token type descriptors carry nothing.
func ReadBlockDecoder(mode uint8, desc core.GenDesc, r *bitio.Reader) (*BlockDecoder, error) {
	d := &BlockDecoder{mode: mode, desc: desc, tokenType: core.Descriptor(desc).TokenType}
	if !d.tokenType {
		n := int(r.ReadUint8(8)) + 1
		d.subseqIDs = make([]uint16, n)
		for i := range d.subseqIDs {
			d.subseqIDs[i] = r.ReadUint16(10)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%v block decoder: %w", desc, err)
	}
	return d, nil
}

func (d *BlockDecoder) Write(w *bitio.Writer) {
	w.WriteBits(uint64(d.mode), 8)
	if d.tokenType {
		return
	}
	w.WriteBits(uint64(len(d.subseqIDs)-1), 8)
	for _, id := range d.subseqIDs {
		w.WriteBits(uint64(id), 10)
	}
}

func (d *BlockDecoder) Mode() uint8 {
	return d.mode
}

func (d *BlockDecoder) Descriptor() core.GenDesc {
	return d.desc
}

// SubsequenceIDs returns the configured subsequence ids
func (d *BlockDecoder) SubsequenceIDs() []uint16 {
	return slices.Clone(d.subseqIDs)
}

// NumSubsequences returns 2 for token type descriptors
func (d *BlockDecoder) NumSubsequences() int {
	if d.tokenType {
		return 2
	}
	return len(d.subseqIDs)
}

func (d *BlockDecoder) Clone() parameter.Decoder {
	out := *d
	out.subseqIDs = slices.Clone(d.subseqIDs)
	return &out
}

// Equal reports false for other decoder variants and for block
// decoders of another mode.
func (d *BlockDecoder) Equal(other parameter.Decoder) bool {
	o, ok := other.(*BlockDecoder)
	return ok && d.mode == o.mode && d.tokenType == o.tokenType && slices.Equal(d.subseqIDs, o.subseqIDs)
}

// RegisterBlockDecoder installs BlockDecoder constructors for mode
// in both decoder families of park.
func RegisterBlockDecoder(park *parameter.Park, mode uint8) {
	ctor := func(desc core.GenDesc, r *bitio.Reader) (parameter.Decoder, error) {
		d, err := ReadBlockDecoder(mode, desc, r)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	park.Decoders.Register(mode, ctor)
	park.TokenTypeDecoders.Register(mode, ctor)
}
