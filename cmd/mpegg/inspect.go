package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/config"
	"github.com/scttfrdmn/mpegg-go/pkg/genie"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
	"github.com/scttfrdmn/mpegg-go/pkg/storage"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <parameter_set.bin>",
	Short: "Print a parameter set as a configuration document",
	Long: `Decode a parameter set data unit and print it as YAML. The output can
be fed back to "mpegg encode".

Example:
  mpegg inspect s3://bucket/run1/ps0.bin > set.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := storage.ReadLocation(context.Background(), args[0])
		if err != nil {
			return err
		}
		ps, err := parameter.ReadParameterSet(genie.NewPark(), bitio.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", args[0], err)
		}
		doc, err := config.Describe(ps.Set)
		if err != nil {
			return err
		}
		out, err := doc.Marshal()
		if err != nil {
			return err
		}
		fmt.Printf("# parameter_set_ID %d, parent %d\n", ps.ID, ps.ParentID)
		fmt.Print(string(out))
		return nil
	},
}
