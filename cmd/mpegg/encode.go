package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/config"
	"github.com/scttfrdmn/mpegg-go/pkg/parameter"
	"github.com/scttfrdmn/mpegg-go/pkg/storage"
)

var (
	parameterSetID uint8
	parentID       uint8
)

var encodeCmd = &cobra.Command{
	Use:   "encode <config.yaml> <output.bin>",
	Short: "Encode a configuration document as a parameter set",
	Long: `Encode a YAML or JSON encoding set configuration as a parameter set
data unit.

Example:
  mpegg encode set.yaml s3://bucket/run1/ps0.bin --id 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		raw, err := storage.ReadLocation(ctx, args[0])
		if err != nil {
			return err
		}
		doc, err := config.Parse(raw)
		if err != nil {
			return err
		}
		set, err := doc.Build()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var buf bytes.Buffer
		w := bitio.NewWriter(&buf)
		if err := parameter.NewParameterSet(parameterSetID, parentID, set).Write(w); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		if err := storage.WriteLocation(ctx, args[1], buf.Bytes()); err != nil {
			return err
		}
		log.Infof("wrote parameter set %d (%d bytes) to %s", parameterSetID, buf.Len(), args[1])
		return nil
	},
}

func init() {
	encodeCmd.Flags().Uint8Var(&parameterSetID, "id", 0, "parameter_set_ID")
	encodeCmd.Flags().Uint8Var(&parentID, "parent", 0, "parent_parameter_set_ID")
}
