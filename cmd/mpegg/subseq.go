package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/mpegg-go/pkg/entropy"
	"github.com/scttfrdmn/mpegg-go/pkg/genie"
	"github.com/scttfrdmn/mpegg-go/pkg/storage"
)

var (
	subseqCodec   string
	subseqWorkers int
)

var subseqCmd = &cobra.Command{
	Use:   "subseq",
	Short: "Compress or decompress subsequence payloads with a block codec",
}

var subseqCompressCmd = &cobra.Command{
	Use:   "compress <input>... <output>",
	Short: "Compress subsequence payloads",
	Long: `Compress one or more subsequence payloads. With a single input the
output is a file; with several it is a directory or S3 prefix and each
payload keeps its base name plus the codec extension.

Example:
  mpegg subseq compress --codec zstd pos.0 pos.1 s3://bucket/run1/pos/`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubseq(args, true)
	},
}

var subseqDecompressCmd = &cobra.Command{
	Use:   "decompress <input>... <output>",
	Short: "Decompress subsequence payloads",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubseq(args, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{subseqCompressCmd, subseqDecompressCmd} {
		c.Flags().StringVar(&subseqCodec, "codec", "zstd", "block codec: lzma, zstd")
		c.Flags().IntVar(&subseqWorkers, "workers", 0, "parallel workers (default: CPU count)")
		subseqCmd.AddCommand(c)
	}
}

func runSubseq(args []string, compress bool) error {
	ctx := context.Background()
	mode, err := genie.ParseMode(subseqCodec)
	if err != nil {
		return err
	}
	ext := "." + subseqCodec

	inputs, output := args[:len(args)-1], args[len(args)-1]
	jobs := make([]entropy.Job, len(inputs))
	for i, in := range inputs {
		data, err := storage.ReadLocation(ctx, in)
		if err != nil {
			return err
		}
		jobs[i] = entropy.Job{Name: in, Data: data}
	}

	pool := entropy.NewPool(func() (entropy.Codec, error) { return genie.CodecFor(mode) }, subseqWorkers)
	log.Infof("%d payloads, %d workers, codec %s", len(jobs), pool.Workers(), subseqCodec)
	var results []entropy.Result
	if compress {
		results, err = pool.Compress(jobs)
	} else {
		results, err = pool.Decompress(jobs)
	}
	if err != nil {
		return err
	}

	if len(results) == 1 {
		return storage.WriteLocation(ctx, output, results[0].Data)
	}
	out, err := storage.New(ctx, output)
	if err != nil {
		return err
	}
	for i, r := range results {
		_, name := storage.Split(r.Name)
		if compress {
			name += ext
		} else {
			name = strings.TrimSuffix(name, ext)
		}
		if err := out.WriteFile(ctx, path.Clean(name), r.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Debugf("%s: %d -> %d bytes", r.Name, len(jobs[i].Data), len(r.Data))
	}
	return nil
}
