// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/complaint-assistant/internal/reminder"
	"github.com/jonathan/complaint-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxDraftLines caps how much of a letter is echoed
	maxDraftLines = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// excerpt returns the first maxDraftLines non-empty lines of text.
func excerpt(text string) string {
	var lines []string
	total := 0
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if len(lines) < maxDraftLines {
			lines = append(lines, line)
		}
	}
	if total > maxDraftLines {
		lines = append(lines, fmt.Sprintf("... (%d more lines)", total-maxDraftLines))
	}
	return strings.Join(lines, "\n")
}

// PrintComplaintPackage outputs the classification and an excerpt of the draft.
func (p *Printer) PrintComplaintPackage(pkg *types.ComplaintPackage) {
	if pkg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category:  %s\n", pkg.Category))
	if !pkg.Category.Valid() {
		sb.WriteString("           (not a recognized category)\n")
	}
	sb.WriteString(fmt.Sprintf("Portal:    %s\n", pkg.Portal))
	sb.WriteString(fmt.Sprintf("Portal ID: %s\n", pkg.PortalID))
	p.printBox("COMPLAINT CLASSIFICATION", strings.TrimSuffix(sb.String(), "\n"))

	p.printBox("COMPLAINT DRAFT", excerpt(pkg.ComplaintDraft))

	if docs := excerpt(pkg.Documents); docs != "" {
		p.printBox("REQUIRED DOCUMENTS", docs)
	}

	p.PrintGuide(pkg.Guide)
}

// PrintGuide outputs the numbered filing steps.
func (p *Printer) PrintGuide(guide []types.GuideStep) {
	if len(guide) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(guide), maxItemsToShow)
	for i := 0; i < count; i++ {
		step := guide[i]
		sb.WriteString(fmt.Sprintf("%d. %s\n", step.StepNumber, step.Instruction))
	}
	if len(guide) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more steps\n", len(guide)-maxItemsToShow))
	}

	p.printBox("FILING GUIDE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFollowUp outputs an excerpt of a follow-up letter.
func (p *Printer) PrintFollowUp(followUp *types.FollowUp) {
	if followUp == nil {
		return
	}
	p.printBox("FOLLOW-UP DRAFT", excerpt(followUp.FollowUpDraft))
}

// PrintTickResult outputs the outcome of one reminder run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTickResult(result *reminder.TickResult) {
	if result == nil || result.Candidates == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO COMPLAINTS NEED A REMINDER")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Stale complaints: %d\n", result.Candidates))
	sb.WriteString(fmt.Sprintf("Sent:             %d\n", result.Sent))
	if result.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("Skipped:          %d (no email)\n", result.Skipped))
	}
	if result.Failed > 0 {
		sb.WriteString(fmt.Sprintf("⚠ Failed:         %d\n", result.Failed))
	}

	p.printBox("FOLLOW-UP REMINDERS", strings.TrimSuffix(sb.String(), "\n"))
}
