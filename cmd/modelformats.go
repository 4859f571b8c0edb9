/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/srcprune/internal/ops"
	"github.com/fulmenhq/srcprune/pkg/resolver"
)

var modelformatsCmd = &cobra.Command{
	Use:   "modelformats <content-root>",
	Short: "Remove mesh variants current engine branches never load",
	Long: `Modelformats removes the legacy vertex files (.dx80.vtx, .sw.vtx, .xbox.vtx,
.360.vtx) next to models. The list is configurable with models.legacy_vtx_exts.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelformats,
}

func init() {
	addCommitFlag(modelformatsCmd, "Delete legacy model files")
	addReportFlags(modelformatsCmd)
	if err := ops.RegisterCommand("modelformats", ops.GroupPrune, modelformatsCmd, "Remove legacy .vtx model variants"); err != nil {
		panic(fmt.Sprintf("Failed to register modelformats command: %v", err))
	}
}

func runModelformats(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	bar := newProgress(cmd)
	defer bar.done()

	s, err := resolver.New(root, resolverOptions(cmd, cfg, bar)).UnusedModelFormats()
	bar.done()
	if err != nil {
		return err
	}
	sink := newReportSink(cmd)
	emitErr := emit(cmd, cfg, sink, s)
	if err := sink.flush(); err != nil {
		return err
	}
	return emitErr
}
