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

var gamefilesCmd = &cobra.Command{
	Use:   "gamefiles <content-root>",
	Short: "Remove content the game already ships in its archives",
	Long: `Gamefiles indexes every directory archive (*_dir.vpk) under --game and removes
the files of the content root whose path the game already provides. Directories
left empty are pruned.`,
	Args: cobra.ExactArgs(1),
	RunE: runGamefiles,
}

func init() {
	addCommitFlag(gamefilesCmd, "Delete shipped files")
	addReportFlags(gamefilesCmd)
	gamefilesCmd.Flags().String("game", "", "Game root holding the archives (required)")
	_ = gamefilesCmd.MarkFlagRequired("game")
	if err := ops.RegisterCommand("gamefiles", ops.GroupPrune, gamefilesCmd, "Remove files the game ships in its archives"); err != nil {
		panic(fmt.Sprintf("Failed to register gamefiles command: %v", err))
	}
}

func runGamefiles(cmd *cobra.Command, args []string) error {
	root := args[0]
	game, _ := cmd.Flags().GetString("game")
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	bar := newProgress(cmd)
	defer bar.done()

	s, err := resolver.New(root, resolverOptions(cmd, cfg, bar)).RemoveGameFiles(game)
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
