/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/srcprune/internal/ops"
	"github.com/fulmenhq/srcprune/pkg/resolver"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

var mapCmd = &cobra.Command{
	Use:   "map <content-root> <map.vmf>...",
	Short: "Export the content a map needs",
	Long: `Map reads a Hammer map source file, follows its func_instance entities, and
collects every material, texture, model, sound, script and particle file the map
references. With --commit the files found in the content root are copied to
--dest, keeping their relative paths. Files the game already ships (see --game)
are skipped; referenced files missing from the content root are warnings.

Several maps may be given; the game archives are indexed once and one report is
written per map.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMap,
}

func init() {
	addCommitFlag(mapCmd, "Copy the collected files")
	addReportFlags(mapCmd)
	mapCmd.Flags().String("dest", "", "Destination directory (required)")
	mapCmd.Flags().String("game", "", "Game root; files in its archives are not exported")
	mapCmd.Flags().String("nodraw", "", "Tool material never exported (default from config)")
	_ = mapCmd.MarkFlagRequired("dest")
	if err := ops.RegisterCommand("map", ops.GroupExport, mapCmd, "Copy the content a map references"); err != nil {
		panic(fmt.Sprintf("Failed to register map command: %v", err))
	}
}

func runMap(cmd *cobra.Command, args []string) error {
	root := args[0]
	dest, _ := cmd.Flags().GetString("dest")
	game, _ := cmd.Flags().GetString("game")
	nodraw, _ := cmd.Flags().GetString("nodraw")

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	bar := newProgress(cmd)
	defer bar.done()

	opts := resolverOptions(cmd, cfg, bar)
	if nodraw != "" {
		clean, err := safeio.CleanUserPath(nodraw)
		if err != nil {
			return fmt.Errorf("--nodraw %q: %w", nodraw, err)
		}
		opts.NodrawMaterial = clean
	}
	r := resolver.New(root, opts)
	sink := newReportSink(cmd)

	summaries, runErr := r.MapContents(args[1:], dest, game)
	var strictErr error
	for _, s := range summaries {
		if err := emit(cmd, cfg, sink, s); err != nil {
			var we *warningsError
			if !errors.As(err, &we) {
				return err
			}
			strictErr = err
		}
	}
	if err := sink.flush(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	return strictErr
}
