// Package lzma adapts ulikunitz/xz LZMA as the mode 1 block codec.
package lzma

import (
	"bytes"
	"fmt"
	"io"

	logging "github.com/op/go-logging"
	"github.com/ulikunitz/xz/lzma"

	"github.com/scttfrdmn/mpegg-go/pkg/entropy"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

var log = logging.MustGetLogger("lzma")

// Mode is the encoding_mode_ID of LZMA coded descriptors
const Mode uint8 = 1

// Codec handles LZMA compression of subsequence payloads. The zero
// value is ready to use.
type Codec struct {
	// DictCap overrides the dictionary capacity when non-zero
	DictCap int
}

func (c *Codec) Name() string {
	return "lzma"
}

// Compress returns src as a classic .lzma stream
func (c *Codec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{DictCap: c.DictCap}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create lzma writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress
func (c *Codec) Decompress(src []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	return out, nil
}

var _ entropy.Codec = (*Codec)(nil)

// Register installs the LZMA decoder configuration as mode 1
func Register(park *parameter.Park) {
	entropy.RegisterBlockDecoder(park, Mode)
	log.Debugf("registered lzma block decoder as mode %d", Mode)
}
