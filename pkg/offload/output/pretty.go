package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	// Build header
	header := f.formatHeader(r)
	w.WriteString(header)
	w.WriteString("\n")

	// Build file table
	table := f.formatTable(r)
	w.WriteString(table)

	// Build footer
	footer := f.formatFooter(r)
	w.WriteString(footer)

	// Add warnings if any
	if len(r.Warnings) > 0 {
		warnings := f.formatWarnings(r.Warnings)
		w.WriteString("\n")
		w.WriteString(warnings)
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Report) string {
	var lines []string

	// Source line
	sourceLabel := LabelStyle.Render("Source:")
	sourceValue := ValueStyle.Render(r.Source)
	sourceLine := fmt.Sprintf("%s %s", sourceLabel, sourceValue)
	if r.VolumeID != "" {
		sourceLine += " " + MutedStyle.Render("("+r.VolumeID+")")
	}
	lines = append(lines, sourceLine)

	// Library and window line
	var infoParts []string

	libraryLabel := LabelStyle.Render("Library:")
	libraryValue := ValueStyle.Render(r.Library)
	infoParts = append(infoParts, fmt.Sprintf("%s %s", libraryLabel, libraryValue))

	windowLabel := LabelStyle.Render("Window:")
	windowValue := MutedStyle.Render(r.Window)
	infoParts = append(infoParts, fmt.Sprintf("%s %s", windowLabel, windowValue))

	lines = append(lines, strings.Join(infoParts, "  "))

	// Dry-run notice
	if r.DryRun {
		dryRunStyle := WarningStyle.Bold(true)
		lines = append(lines, dryRunStyle.Render("Dry run: nothing was copied"))
	}

	// Interrupted notice
	if r.Interrupted {
		interruptedStyle := WarningStyle.Bold(true)
		lines = append(lines, interruptedStyle.Render("Run interrupted by user"))
	}

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatTable builds the copied-file table with SIZE, KIND, and TARGET columns.
func (f *PrettyFormatter) formatTable(r *Report) string {
	if len(r.Files) == 0 {
		return MutedStyle.Render("  No new files to copy\n")
	}

	var sb strings.Builder

	// Column headers
	sizeHeader := TableHeaderStyle.Render("SIZE")
	kindHeader := TableHeaderStyle.Render("KIND")
	targetHeader := TableHeaderStyle.Render("TARGET")
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", sizeHeader, kindHeader, targetHeader))

	// Calculate max size width for alignment
	maxSizeWidth := 0
	for _, file := range r.Files {
		if len(file.SizeHuman) > maxSizeWidth {
			maxSizeWidth = len(file.SizeHuman)
		}
	}
	if maxSizeWidth < 8 {
		maxSizeWidth = 8 // Minimum width
	}

	// File rows
	for _, file := range r.Files {
		sizeStr := SizeStyle.Render(padLeft(file.SizeHuman, maxSizeWidth))
		kindStr := MutedStyle.Render(padRight(string(file.Kind), 4))
		targetStr := PathStyle.Render(file.Target)
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", sizeStr, kindStr, targetStr))
	}

	return sb.String()
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Report) string {
	var parts []string

	// Copied count
	copiedLabel := LabelStyle.Render("Copied:")
	copiedValue := ValueStyle.Render(fmt.Sprintf("%d of %d", r.Stats.Copied, r.Stats.Candidates))
	parts = append(parts, fmt.Sprintf("%s %s", copiedLabel, copiedValue))

	// Total size
	totalSizeLabel := LabelStyle.Render("Total:")
	totalSizeValue := SizeStyle.Render(humanize.IBytes(uint64(r.Stats.CopiedBytes)))
	parts = append(parts, fmt.Sprintf("%s %s", totalSizeLabel, totalSizeValue))

	// Skip breakdown
	skipped := r.Stats.CacheHits + r.Stats.WindowSkips + r.Stats.NoCaptureTime
	if skipped > 0 {
		skippedLabel := LabelStyle.Render("Skipped:")
		detail := fmt.Sprintf("%d (%d cached, %d outside window, %d no capture time)",
			skipped, r.Stats.CacheHits, r.Stats.WindowSkips, r.Stats.NoCaptureTime)
		parts = append(parts, fmt.Sprintf("%s %s", skippedLabel, MutedStyle.Render(detail)))
	}

	// Errors
	if r.Stats.Errors > 0 {
		errorsLabel := LabelStyle.Render("Errors:")
		errorsValue := WarningStyle.Render(fmt.Sprintf("%d", r.Stats.Errors))
		parts = append(parts, fmt.Sprintf("%s %s", errorsLabel, errorsValue))
	}

	// Duration
	durationLabel := LabelStyle.Render("Took:")
	durationValue := ValueStyle.Render(formatDuration(r.Stats.Duration))
	parts = append(parts, fmt.Sprintf("%s %s", durationLabel, durationValue))

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
