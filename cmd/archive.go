/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/srcprune/internal/ops"
	"github.com/fulmenhq/srcprune/pkg/archiveindex"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/report"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the game archives used for exclusion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the archives under a game root and the paths they provide",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	archiveListCmd.Flags().String("game", "", "Game root holding the archives (required)")
	archiveListCmd.Flags().String("format", "", "Output format: text|json|yaml (default from config)")
	archiveListCmd.Flags().Bool("paths", false, "Print every indexed path instead of the archive table")
	_ = archiveListCmd.MarkFlagRequired("game")
	if err := ops.RegisterCommand("archive", ops.GroupSupport, archiveCmd, "List game archives and the paths they ship"); err != nil {
		panic(fmt.Sprintf("Failed to register archive command: %v", err))
	}
}

func runArchiveList(cmd *cobra.Command, _ []string) error {
	game, _ := cmd.Flags().GetString("game")
	paths, _ := cmd.Flags().GetBool("paths")

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd, cfg)
	if err != nil {
		return err
	}

	idx, err := archiveindex.Build(game, archiveindex.Options{
		Patterns: cfg.Archives.Patterns,
		SkipDirs: cfg.Archives.SkipDirs,
	})
	if err != nil {
		var missing *archiveindex.MissingRootError
		if errors.As(err, &missing) {
			return diag.New(diag.MissingRoot, game, missing.Err)
		}
		return err
	}

	if paths {
		out := cmd.OutOrStdout()
		for _, p := range idx.Paths() {
			if _, err := fmt.Fprintln(out, p); err != nil {
				return err
			}
		}
		return nil
	}
	return report.WriteArchives(cmd.OutOrStdout(), idx, format)
}
