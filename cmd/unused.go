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

var unusedCmd = &cobra.Command{
	Use:   "unused <content-root>",
	Short: "Find models no script mentions, with the materials and textures only they use",
	Long: `Unused builds the model → material → texture graph of a content root and
classifies every model whose name appears in no script (lua, nut) as unused.
Materials and textures only cited by unused models are unused too.

Files matched by .srcpruneignore are never removed, and protected models keep
their materials alive.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnused,
}

func init() {
	addCommitFlag(unusedCmd, "Delete unused files")
	addReportFlags(unusedCmd)
	if err := ops.RegisterCommand("unused", ops.GroupPrune, unusedCmd, "Remove unreferenced models, materials and textures"); err != nil {
		panic(fmt.Sprintf("Failed to register unused command: %v", err))
	}
}

func runUnused(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	bar := newProgress(cmd)
	defer bar.done()

	s, err := resolver.New(root, resolverOptions(cmd, cfg, bar)).UnusedContent()
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
