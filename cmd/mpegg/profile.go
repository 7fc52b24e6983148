package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/mpegg-go/pkg/genie"
	"github.com/scttfrdmn/mpegg-go/pkg/samprofile"
	"github.com/scttfrdmn/mpegg-go/pkg/storage"
)

var (
	profileRecords int
	profileCodec   string
	profileOutput  string
)

var profileCmd = &cobra.Command{
	Use:   "profile <input.sam|input.bam>",
	Short: "Derive a configuration document from a SAM/BAM sample",
	Long: `Scan the first records of a SAM or BAM file and write a configuration
document matching the data: read length, pairing, quality binning,
read groups and record classes.

Example:
  mpegg profile sample.bam --records 50000 --codec zstd -o set.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := genie.ParseMode(profileCodec); err != nil {
			return err
		}
		p, err := samprofile.ScanFile(args[0], profileRecords)
		if err != nil {
			return err
		}
		log.Infof("scanned %d records (%d mapped, %d unmapped)", p.Records, p.Mapped, p.Unmapped)

		out, err := p.Document(profileCodec).Marshal()
		if err != nil {
			return err
		}
		if profileOutput == "" {
			fmt.Print(string(out))
			return nil
		}
		return storage.WriteLocation(context.Background(), profileOutput, out)
	},
}

func init() {
	profileCmd.Flags().IntVar(&profileRecords, "records", samprofile.DefaultMaxRecords, "maximum records to scan")
	profileCmd.Flags().StringVar(&profileCodec, "codec", "cabac", "default codec: cabac, lzma, zstd")
	profileCmd.Flags().StringVarP(&profileOutput, "output", "o", "", "output location (default stdout)")
}
