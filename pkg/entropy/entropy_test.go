package entropy_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy/lzma"
	"github.com/scttfrdmn/mpegg-go/pkg/entropy/zstd"
	"github.com/scttfrdmn/mpegg-go/pkg/paramcabac"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

func encode(t *testing.T, d parameter.Decoder) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	d.Write(w)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBlockDecoderRoundTrip(t *testing.T) {
	park := parameter.NewPark()
	lzma.Register(park)
	zstd.Register(park)

	tests := []struct {
		name string
		mode uint8
		desc core.GenDesc
		subs int
	}{
		{"lzma pos", lzma.Mode, core.DescPOS, 2},
		{"zstd mmtype", zstd.Mode, core.DescMMTYPE, 3},
		{"zstd msar", zstd.Mode, core.DescMSAR, 2},
		{"lzma rname", lzma.Mode, core.DescRNAME, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := entropy.NewBlockDecoder(tt.mode, tt.desc)
			if d.NumSubsequences() != tt.subs {
				t.Errorf("NumSubsequences = %d, want %d", d.NumSubsequences(), tt.subs)
			}
			data := encode(t, d)
			if data[0] != tt.mode {
				t.Errorf("mode byte = %d", data[0])
			}
			r := bitio.NewReader(bytes.NewReader(data))
			got, err := park.ConstructDecoder(r.ReadUint8(8), tt.desc, r)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(d) {
				t.Errorf("round trip mismatch: %+v", got)
			}
			if got.Mode() != tt.mode {
				t.Errorf("Mode = %d", got.Mode())
			}
		})
	}
}

func TestBlockDecoderLayout(t *testing.T) {
	// mode 2, count-1 = 1, ids 0 and 1 in 10 bits each
	want := []byte{0x02, 0x01, 0x00, 0x00, 0x10}
	if diff := cmp.Diff(want, encode(t, entropy.NewBlockDecoder(2, core.DescPOS))); diff != "" {
		t.Errorf("layout (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x01}, encode(t, entropy.NewBlockDecoder(1, core.DescRNAME))); diff != "" {
		t.Errorf("token type layout (-want +got):\n%s", diff)
	}
}

func TestBlockDecoderEqual(t *testing.T) {
	a := entropy.NewBlockDecoder(lzma.Mode, core.DescPOS)
	if a.Equal(entropy.NewBlockDecoder(zstd.Mode, core.DescPOS)) {
		t.Error("different modes compared equal")
	}
	if a.Equal(paramcabac.NewDecoderRegular(core.DescPOS)) {
		t.Error("block decoder equal to cabac decoder")
	}
	c := a.Clone().(*entropy.BlockDecoder)
	if !c.Equal(a) {
		t.Error("clone differs")
	}
	ids := c.SubsequenceIDs()
	ids[0] = 7
	if !c.Equal(a) {
		t.Error("SubsequenceIDs exposes internal state")
	}
}

func TestTruncated(t *testing.T) {
	r := bitio.NewReader(bytes.NewReader([]byte{0x03}))
	if _, err := entropy.ReadBlockDecoder(1, core.DescPOS, r); err == nil {
		t.Error("expected error on truncated input")
	}
}

func TestCodecs(t *testing.T) {
	zc, err := zstd.NewCodec(3)
	if err != nil {
		t.Fatal(err)
	}
	defer zc.Close()

	payload := bytes.Repeat([]byte("ACGTNACGTTTGCA"), 500)
	for _, c := range []entropy.Codec{zc, &lzma.Codec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			for _, src := range [][]byte{payload, {}, {0x42}} {
				packed, err := c.Compress(src)
				if err != nil {
					t.Fatal(err)
				}
				got, err := c.Decompress(packed)
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(got, src) {
					t.Errorf("round trip of %d bytes returned %d bytes", len(src), len(got))
				}
			}
			packed, _ := c.Compress(payload)
			if len(packed) >= len(payload) {
				t.Errorf("no compression: %d >= %d", len(packed), len(payload))
			}
		})
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	zc, err := zstd.NewCodec(0)
	if err != nil {
		t.Fatal(err)
	}
	defer zc.Close()
	for _, c := range []entropy.Codec{zc, &lzma.Codec{}} {
		if _, err := c.Decompress(bytes.Repeat([]byte{0xff}, 32)); err == nil {
			t.Errorf("%s accepted garbage", c.Name())
		}
	}
}

func TestUnregisteredMode(t *testing.T) {
	park := parameter.NewPark()
	lzma.Register(park)
	r := bitio.NewReader(bytes.NewReader(encode(t, entropy.NewBlockDecoder(zstd.Mode, core.DescPOS))))
	_, err := park.ConstructDecoder(r.ReadUint8(8), core.DescPOS, r)
	if !errors.Is(err, core.ErrUnknownImplementation) {
		t.Errorf("err = %v", err)
	}
}
