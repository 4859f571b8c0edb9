// Package report renders resolver summaries and archive indexes as text,
// JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/srcprune/pkg/archiveindex"
	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/resolver"
)

// Format is an output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "text", "json", "yaml" and "yml"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Options tunes text output
type Options struct {
	// Items lists every classified file, not only the totals
	Items bool
}

// Size formats a byte count with decimal units ("1.2 MB")
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Write renders s to w
func Write(w io.Writer, s *resolver.Summary, f Format, opts Options) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatYAML:
		return writeYAML(w, s)
	case FormatText, "":
		return render(w, summaryTemplate, summaryView(s, opts))
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}

// WriteArchives renders the archives that make up idx
func WriteArchives(w io.Writer, idx *archiveindex.Index, f Format) error {
	doc := archivesDoc{Root: idx.Root, Paths: idx.Len(), Archives: idx.Archives}
	for _, sk := range idx.Skipped {
		doc.Skipped = append(doc.Skipped, skippedDoc{Path: sk.Path, Error: sk.Err.Error()})
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	case FormatText, "":
		return render(w, archivesTemplate, archivesView(doc))
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}

type archivesDoc struct {
	Root     string                     `json:"root" yaml:"root"`
	Paths    int                        `json:"paths" yaml:"paths"`
	Archives []archiveindex.ArchiveStat `json:"archives" yaml:"archives"`
	Skipped  []skippedDoc               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type skippedDoc struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// table aligns cells into columns by display width
func table(rows [][]string) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}

type textView struct {
	Title       string
	Root        string
	Destination string
	Kinds       []string
	Items       []string
	Pruned      []string
	Warnings    []string
}

func summaryView(s *resolver.Summary, opts Options) textView {
	mode := "dry run"
	if s.Commit {
		mode = "committed"
	}
	v := textView{
		Title:       fmt.Sprintf("srcprune %s (%s)", s.Operation, mode),
		Root:        s.Root,
		Destination: s.Destination,
	}

	rows := [][]string{{"KIND", "FILES", "SIZE", "MISSING", "EXCLUDED"}}
	for _, k := range assetpath.Kinds {
		kc, ok := s.Kinds[k.String()]
		if !ok {
			continue
		}
		rows = append(rows, []string{k.String(), humanize.Comma(int64(kc.Files)), Size(kc.Bytes), count(kc.Missing), count(kc.Excluded)})
	}
	rows = append(rows, []string{"total", humanize.Comma(int64(s.Files)), Size(s.Bytes), "", ""})
	v.Kinds = table(rows)

	if opts.Items && len(s.Items) > 0 {
		var items [][]string
		for _, f := range s.Items {
			items = append(items, []string{string(f.Status), f.KindID, Size(f.Size), f.Path})
		}
		v.Items = table(items)
	}
	v.Pruned = s.PrunedDirs
	for _, w := range s.Warnings {
		v.Warnings = append(v.Warnings, w.String())
	}
	return v
}

func count(n int) string {
	if n == 0 {
		return ""
	}
	return humanize.Comma(int64(n))
}

func archivesView(doc archivesDoc) map[string]interface{} {
	rows := [][]string{{"ARCHIVE", "VERSION", "ENTRIES"}}
	for _, a := range doc.Archives {
		rows = append(rows, []string{a.Path, fmt.Sprintf("v%d", a.Version), humanize.Comma(int64(a.Entries))})
	}
	var skipped []string
	for _, sk := range doc.Skipped {
		skipped = append(skipped, sk.Path+": "+sk.Error)
	}
	return map[string]interface{}{
		"Root":     doc.Root,
		"Paths":    humanize.Comma(int64(doc.Paths)),
		"Rows":     table(rows),
		"Skipped":  skipped,
		"Archives": len(doc.Archives),
	}
}
