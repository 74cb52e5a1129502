package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/victorlunam/spcheck/internal/config"
	"github.com/victorlunam/spcheck/internal/models"
)

var (
	headerColor  = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgHiRed)
	changedColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	summaryColor = color.New(color.FgCyan)
)

// ConsoleReporter prints the per-file status lines of a run.
type ConsoleReporter struct {
	Out   io.Writer
	ASCII bool
}

func NewConsoleReporter(out io.Writer, ascii bool) *ConsoleReporter {
	return &ConsoleReporter{Out: out, ASCII: ascii}
}

func (r *ConsoleReporter) ServerStarted(server config.ServerConfig) {
	fmt.Fprintln(r.Out)
	headerColor.Fprintf(r.Out, "Checking %s\n", server.Label())
}

func (r *ConsoleReporter) ServerFailed(server config.ServerConfig, err error) {
	errorColor.Fprintf(r.Out, "Error checking %s: %v\n", server.ID, err)
}

func (r *ConsoleReporter) FileChecked(result models.FileResult) {
	fmt.Fprintf(r.Out, "%s...", result.FileName)

	switch result.Outcome {
	case models.OutcomeOK:
		okColor.Fprintln(r.Out, " OK")
	case models.OutcomeCreated:
		changedColor.Fprintln(r.Out, " CREATED")
	case models.OutcomeUpdated:
		changedColor.Fprintln(r.Out, " UPDATED")
	case models.OutcomeMissing:
		failColor.Fprintln(r.Out, " FAILED (Missing)")
	case models.OutcomeFailed:
		failColor.Fprintln(r.Out, " FAILED")
		r.printMismatches(result.Mismatches)
	case models.OutcomeError:
		errorColor.Fprintf(r.Out, " ERROR: %v\n", result.Err)
	}
}

func (r *ConsoleReporter) printMismatches(mismatches []models.Mismatch) {
	for _, m := range mismatches {
		fmt.Fprintf(r.Out, "%04d : %s <> %s\n", m.Line, m.Left, m.Right)
		if r.ASCII {
			fmt.Fprintln(r.Out, DumpASCII(m.Left))
			fmt.Fprintln(r.Out, DumpASCII(m.Right))
		}
	}
}

func (r *ConsoleReporter) ServerAborted(result models.ServerResult) {
	failColor.Fprintf(r.Out, "Stopped %s after %d failed files\n", result.ServerID, result.Failures)
}

func (r *ConsoleReporter) Summary(summary models.RunSummary) {
	fmt.Fprintln(r.Out)
	summaryColor.Fprintf(r.Out, "%d ok, %d created, %d updated, %d failed, %d missing, %d errors\n",
		summary.Count(models.OutcomeOK),
		summary.Count(models.OutcomeCreated),
		summary.Count(models.OutcomeUpdated),
		summary.Count(models.OutcomeFailed),
		summary.Count(models.OutcomeMissing),
		summary.Count(models.OutcomeError),
	)
	if summary.Interrupted {
		changedColor.Fprintln(r.Out, "Interrupted before every server was checked")
	}
}

// DumpASCII lists the code points of s, e.g. "a\t" becomes "97, 9".
func DumpASCII(s string) string {
	codes := make([]string, 0, len(s))
	for _, c := range s {
		codes = append(codes, strconv.Itoa(int(c)))
	}
	return strings.Join(codes, ", ")
}
