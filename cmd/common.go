/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fulmenhq/srcprune/internal/ops"
	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/config"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/report"
	"github.com/fulmenhq/srcprune/pkg/resolver"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

// kindsValue is a pflag.Value restricting reports to some content kinds
type kindsValue struct {
	kinds []assetpath.Kind
}

var _ pflag.SliceValue = (*kindsValue)(nil)

func (v *kindsValue) String() string {
	return "[" + strings.Join(v.GetSlice(), ",") + "]"
}

func (v *kindsValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, ok := assetpath.ParseKind(part)
		if !ok {
			return fmt.Errorf("unknown kind %q (want one of %s)", part, kindNames())
		}
		v.kinds = append(v.kinds, k)
	}
	return nil
}

func (v *kindsValue) Type() string { return "kinds" }

func (v *kindsValue) Append(s string) error { return v.Set(s) }

func (v *kindsValue) Replace(ss []string) error {
	v.kinds = nil
	for _, s := range ss {
		if err := v.Set(s); err != nil {
			return err
		}
	}
	return nil
}

func (v *kindsValue) GetSlice() []string {
	out := make([]string, 0, len(v.kinds))
	for _, k := range v.kinds {
		out = append(out, k.String())
	}
	return out
}

func kindNames() string {
	names := make([]string, 0, len(assetpath.Kinds))
	for _, k := range assetpath.Kinds {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// addReportFlags registers the output flags shared by every operation
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Report format: text|json|yaml (default from config)")
	cmd.Flags().Bool("items", true, "List every file in text reports")
	cmd.Flags().Var(&kindsValue{}, "kinds", "Only report these kinds ("+kindNames()+")")
	cmd.Flags().Bool("strict", false, "Exit non-zero when warnings were reported")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
}

// addCommitFlag registers --commit on commands that change files
func addCommitFlag(cmd *cobra.Command, what string) {
	cmd.Flags().Bool("commit", false, what+" (default is a dry run)")
}

// loadConfig loads configuration layered over the project dir
func loadConfig(projectDir string) (*config.Loaded, error) {
	cfg, err := config.Load(config.Options{ProjectDir: projectDir})
	if err != nil {
		return nil, err
	}
	if cfg.UserFile != "" {
		logger.Debug("Loaded user config", logger.String("path", cfg.UserFile))
	}
	if cfg.ProjectFile != "" {
		logger.Debug("Loaded project config", logger.String("path", cfg.ProjectFile))
	}
	return cfg, nil
}

// commitRequested honours --no-op over --commit. Commands outside a
// mutating group never commit.
func commitRequested(cmd *cobra.Command) bool {
	if reg, ok := ops.GetRegistry().GetCommand(cmd.Name()); !ok || !reg.Group.Mutating() {
		return false
	}
	commit, _ := cmd.Flags().GetBool("commit")
	noOp, _ := cmd.Flags().GetBool("no-op")
	if commit && noOp {
		logger.Info("[NO-OP] --commit ignored; reporting only")
		return false
	}
	return commit
}

// resolverOptions maps configuration onto resolver options
func resolverOptions(cmd *cobra.Command, cfg *config.Loaded, bar *progressBar) resolver.Options {
	return resolver.Options{
		Commit:          commitRequested(cmd),
		Progress:        bar.callback(),
		ScriptPatterns:  cfg.Scripts.Patterns,
		CompanionExts:   cfg.Models.CompanionExts,
		LegacyVTXExts:   cfg.Models.LegacyVTXExts,
		ArchivePatterns: cfg.Archives.Patterns,
		ContentSkipDirs: cfg.Content.SkipDirs,
		ArchiveSkipDirs: cfg.Archives.SkipDirs,
		NodrawMaterial:  cfg.Maps.NodrawMaterial,
	}
}

// outputFormat resolves --format, falling back to report.format
func outputFormat(cmd *cobra.Command, cfg *config.Loaded) (report.Format, error) {
	f, _ := cmd.Flags().GetString("format")
	if f == "" {
		f = cfg.Report.Format
	}
	return report.ParseFormat(f)
}

// warningsError reports that a --strict run produced warnings
type warningsError struct {
	count int
}

func (e *warningsError) Error() string {
	return fmt.Sprintf("%d warnings reported", e.count)
}

// reportSink collects reports for --output, or passes them to stdout
type reportSink struct {
	path string
	out  io.Writer
	buf  bytes.Buffer
}

func newReportSink(cmd *cobra.Command) *reportSink {
	path, _ := cmd.Flags().GetString("output")
	return &reportSink{path: path, out: cmd.OutOrStdout()}
}

func (r *reportSink) writer() io.Writer {
	if r.path == "" {
		return r.out
	}
	return &r.buf
}

// flush writes the collected reports to the --output file
func (r *reportSink) flush() error {
	if r.path == "" {
		return nil
	}
	if err := safeio.WriteFilePreservePerms(r.path, r.buf.Bytes()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("Report written", logger.String("path", r.path))
	return nil
}

// emit writes the summary, filtered by --kinds
func emit(cmd *cobra.Command, cfg *config.Loaded, sink *reportSink, s *resolver.Summary) error {
	format, err := outputFormat(cmd, cfg)
	if err != nil {
		return err
	}
	items, _ := cmd.Flags().GetBool("items")
	if kv, ok := cmd.Flags().Lookup("kinds").Value.(*kindsValue); ok {
		s = s.Filter(kv.kinds...)
	}
	if err := report.Write(sink.writer(), s, format, report.Options{Items: items}); err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	if strict && len(s.Warnings) > 0 {
		return &warningsError{count: len(s.Warnings)}
	}
	return nil
}
