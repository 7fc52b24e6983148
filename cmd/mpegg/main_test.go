package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/genie"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
)

func run(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("mpegg %v: %v", args, err)
	}
}

func TestEncode(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "set.yaml")
	out := filepath.Join(dir, "ps", "7.bin")
	doc := "read_length: 100\nclasses: [{id: U, quality_values: {}}]\ndefault_codec: lzma\n"
	if err := os.WriteFile(cfg, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	run(t, "encode", cfg, out, "--id", "7", "--log-level", "ERROR")

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := parameter.ReadParameterSet(genie.NewPark(), bitio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if ps.ID != 7 || ps.Set.ReadLength != 100 {
		t.Errorf("id %d, read length %d", ps.ID, ps.Set.ReadLength)
	}
	p, _ := ps.Set.Descriptor(core.DescPOS).Get()
	if p.Decoder().Mode() != 1 {
		t.Errorf("pos mode %d", p.Decoder().Mode())
	}
}

func TestSubseq(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "pos.0")
	payload := bytes.Repeat([]byte("0123456789"), 300)
	if err := os.WriteFile(in, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(dir, "pos.0.zstd")
	back := filepath.Join(dir, "pos.0.out")

	run(t, "subseq", "compress", "--codec", "zstd", in, packed)
	run(t, "subseq", "decompress", "--codec", "zstd", packed, back)

	got, err := os.ReadFile(back)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip returned %d bytes", len(got))
	}
}

func TestBadLogLevel(t *testing.T) {
	if err := setupLogging("LOUD"); err == nil {
		t.Error("expected error")
	}
}
