/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/resolver"
)

// progressBar adapts resolver progress, whose total may grow between
// phases, to a pterm bar. The bar holds one step back so it cannot finish
// at a phase boundary; done releases it.
type progressBar struct {
	title string
	bar   *pterm.ProgressbarPrinter
}

// newProgress returns a bar drawing on stderr, or nil when stderr is not a
// terminal, logs are JSON, or --no-progress is set.
func newProgress(cmd *cobra.Command) *progressBar {
	off, _ := cmd.Flags().GetBool("no-progress")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	if off || jsonLogs || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return &progressBar{title: cmd.Name()}
}

// callback returns the resolver hook, nil for a nil bar
func (p *progressBar) callback() resolver.ProgressFunc {
	if p == nil {
		return nil
	}
	return p.update
}

func (p *progressBar) update(completed, total int) {
	if p.bar == nil {
		bar, err := pterm.DefaultProgressbar.
			WithTitle(p.title).
			WithTotal(total + 1).
			WithWriter(os.Stderr).
			WithRemoveWhenDone(true).
			Start()
		if err != nil {
			logger.Debug("Progress bar unavailable", logger.Err(err))
			p.bar = &pterm.ProgressbarPrinter{}
			return
		}
		p.bar = bar
	}
	if !p.bar.IsActive {
		return
	}
	if total+1 > p.bar.Total {
		p.bar.Total = total + 1
	}
	if delta := completed - p.bar.Current; delta > 0 {
		p.bar.Add(delta)
	}
}

// done completes and removes the bar
func (p *progressBar) done() {
	if p == nil || p.bar == nil || !p.bar.IsActive {
		return
	}
	_, _ = p.bar.Stop()
}
