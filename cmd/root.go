/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/srcprune/internal/ops"
	"github.com/fulmenhq/srcprune/pkg/buildinfo"
	"github.com/fulmenhq/srcprune/pkg/config"
	"github.com/fulmenhq/srcprune/pkg/exitcode"
	"github.com/fulmenhq/srcprune/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "srcprune",
		Short: "Source engine content pruning and map export",
		Long: `Srcprune finds the content a Source engine addon or map actually needs.
It removes models, materials and textures nothing references, strips files the
game already ships, and exports the minimal content set of a map.

Every pruning command is a dry run unless --commit is given.

Examples:
   srcprune unused ./addon                  # List unused models and their materials
   srcprune unused ./addon --commit         # Delete them
   srcprune map ./content maps/a.vmf --dest ./out --game "C:/Steam/.../Half-Life 2"
   srcprune gamefiles ./content --game ./hl2
   srcprune archive list --game ./hl2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Never change files, even with --commit")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("srcprune {{.Version}}\n")

	// Grouped help by command group (Prune → Export → Support)
	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		if cmd.HasParent() {
			cmd.Println(cmd.UsageString())
			return
		}
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		cmd.Println()
		counts := reg.ListGroups()
		for _, g := range ops.Groups {
			if counts[g] == 0 {
				continue
			}
			cmd.Println(g.Title() + ":")
			for _, c := range reg.GetCommandsByGroup(g) {
				cmd.Printf("  %-14s %s\n", c.Name, c.Description)
			}
			cmd.Println()
		}
		cmd.Println("Flags:")
		cmd.Print(cmd.UsageString())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(unusedCmd)
	cmd.AddCommand(mapCmd)
	cmd.AddCommand(gamefilesCmd)
	cmd.AddCommand(modelformatsCmd)
	cmd.AddCommand(archiveCmd)
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with the code matching the
// outcome. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var we *warningsError
	switch {
	case errors.As(err, &we):
		return exitcode.WarningsReported
	case config.IsConfigError(err):
		return exitcode.ConfigError
	default:
		return exitcode.FromError(err)
	}
}

func init() {
	// Register all subcommands with the production rootCmd
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	logLevel, err := logger.ParseLevel(logLevelStr)
	if err != nil {
		logLevel = logger.InfoLevel
	}

	logConfig := logger.Config{
		Level:     logLevel,
		UseColor:  !noColor && os.Getenv("NO_COLOR") == "",
		JSON:      jsonLogs,
		Component: "srcprune",
		NoOp:      noOp,
	}

	if err := logger.Initialize(logConfig); err != nil {
		// Fallback to stderr
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
