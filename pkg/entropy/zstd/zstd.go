// Package zstd adapts klauspost/compress zstd as the mode 2 block codec.
package zstd

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	logging "github.com/op/go-logging"

	"github.com/scttfrdmn/mpegg-go/pkg/entropy"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

var log = logging.MustGetLogger("zstd")

// Mode is the encoding_mode_ID of zstd coded descriptors
const Mode uint8 = 2

// Codec handles zstd compression of subsequence payloads
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a codec. Levels 1-3 map to fastest, default and
// better compression; anything else uses the default.
func NewCodec(level int) (*Codec, error) {
	var encoderLevel zstd.EncoderLevel
	switch level {
	case 1:
		encoderLevel = zstd.SpeedFastest
	case 3:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedDefault
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Codec{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

func (c *Codec) Name() string {
	return "zstd"
}

// Compress compresses data using zstd
func (c *Codec) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress decompresses zstd-compressed data
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// Close releases the encoder and decoder
func (c *Codec) Close() error {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}

var _ entropy.Codec = (*Codec)(nil)

// Register installs the zstd decoder configuration as mode 2
func Register(park *parameter.Park) {
	entropy.RegisterBlockDecoder(park, Mode)
	log.Debugf("registered zstd block decoder as mode %d", Mode)
}
