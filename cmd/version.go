/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/srcprune/internal/ops"
	"github.com/fulmenhq/srcprune/pkg/buildinfo"
	"github.com/fulmenhq/srcprune/pkg/config"
	"github.com/fulmenhq/srcprune/pkg/report"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show srcprune version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show detailed build information")
	versionCmd.Flags().String("format", "text", "Output format: text|json|yaml")
	if err := ops.RegisterCommand("version", ops.GroupSupport, versionCmd, "Show version and build information"); err != nil {
		panic(fmt.Sprintf("Failed to register version command: %v", err))
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	info := buildinfo.Get()

	switch format {
	case report.FormatJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case report.FormatYAML:
		return yaml.NewEncoder(out).Encode(info)
	}

	if _, err := fmt.Fprintf(out, "srcprune %s\n", info.Version); err != nil {
		return err
	}
	if !extended {
		return nil
	}
	lines := []string{
		"Module version: " + info.Module,
		"Revision: " + info.Revision,
		"Go version: " + info.GoVersion,
		"Platform: " + info.Platform + "/" + info.Arch,
		"Config schema: " + config.SchemaVersion,
		"User config dir: " + config.UserConfigDir(),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	return nil
}
