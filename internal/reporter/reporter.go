// Package reporter renders run results for humans and machines. Console
// output is the operator-facing summary printed at the end of every run; JSON
// output feeds downstream tooling.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"ledger-reconciliation-service/internal/chain"
	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/writer"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// RunReport bundles everything a run produced.
type RunReport struct {
	Summary     matcher.Summary   `json:"summary"`
	WriteReport *writer.Report    `json:"write_report,omitempty"`
	Coverage    []*chain.Coverage `json:"coverage,omitempty"`
	Patches     []*models.Patch   `json:"patches,omitempty"`
}

// Reporter writes run reports to an output stream.
type Reporter struct {
	out     io.Writer
	verbose bool
}

// New creates a Reporter writing to out. Verbose mode itemizes every match.
func New(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, verbose: verbose}
}

// Render writes the report in the requested format.
func (r *Reporter) Render(report *RunReport, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return r.renderJSON(report)
	case FormatConsole:
		return r.renderConsole(report)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (r *Reporter) renderJSON(report *RunReport) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (r *Reporter) renderConsole(report *RunReport) error {
	s := report.Summary

	fmt.Fprintf(r.out, "Reconciliation run %s\n", s.RunID)
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
	fmt.Fprintf(r.out, "Sources:              %d (%d already matched)\n", s.SourceCount, s.PreviouslyMatched)
	fmt.Fprintf(r.out, "Targets:              %d\n", s.TargetCount)
	fmt.Fprintf(r.out, "Matched:              %d (total %s)\n", s.Matched, s.MatchedAmount.StringFixed(2))
	fmt.Fprintf(r.out, "Unmatched remainder:  %d (total %s)\n", s.Unmatched, s.UnmatchedAmount.StringFixed(2))

	if len(s.ByStrategy) > 0 {
		fmt.Fprintln(r.out, "\nMatches by strategy:")
		names := make([]string, 0, len(s.ByStrategy))
		for name := range s.ByStrategy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.out, "  %-24s %d\n", name, s.ByStrategy[name])
		}
	}

	if r.verbose && len(report.Patches) > 0 {
		fmt.Fprintln(r.out, "\nMatch detail:")
		for _, p := range report.Patches {
			target := p.TargetID
			if target == "" {
				target = "(classification only)"
			}
			fmt.Fprintf(r.out, "  %s -> %s  strategy=%s confidence=%.2f amount=%s\n",
				p.RecordID, target, p.Strategy, p.Confidence, p.Amount.StringFixed(2))
		}
	}

	if wr := report.WriteReport; wr != nil {
		fmt.Fprintln(r.out, "\nWrite phase:")
		if wr.DryRun {
			fmt.Fprintf(r.out, "  dry run: %d patches computed, none persisted\n", wr.Total)
		} else {
			fmt.Fprintf(r.out, "  applied: %d, failed: %d\n", wr.Applied, wr.Failed)
			for _, f := range wr.Failures {
				fmt.Fprintf(r.out, "    %s: %s\n", f.RecordID, f.Reason)
			}
		}
	}

	for _, cov := range report.Coverage {
		name := cov.Partition
		if name == "" {
			name = "(default)"
		}
		fmt.Fprintf(r.out, "\nChain coverage for %s (%d records):\n", name, cov.Total())
		fmt.Fprintf(r.out, "  direct:   %4d  %s\n", cov.DirectCount, cov.DirectAmount.StringFixed(2))
		fmt.Fprintf(r.out, "  full:     %4d  %s\n", cov.FullCount, cov.FullAmount.StringFixed(2))
		fmt.Fprintf(r.out, "  partial:  %4d  %s\n", cov.PartialCount, cov.PartialAmount.StringFixed(2))
		fmt.Fprintf(r.out, "  none:     %4d  %s\n", cov.NoneCount, cov.NoneAmount.StringFixed(2))
	}

	fmt.Fprintf(r.out, "\nRun completed in %s\n", s.Duration)
	return nil
}
