package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"solea/internal/audit"
	"solea/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func outcomeKind(status pipeline.Status) statusKind {
	switch status {
	case pipeline.StatusSucceeded:
		return statusOK
	case pipeline.StatusSkipped:
		return statusInfo
	case pipeline.StatusCancelled:
		return statusWarn
	default:
		return statusError
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// renderSummary prints a per-song table followed by status totals and the
// reason of every failed group.
func renderSummary(summary pipeline.Summary, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("Run summary", colorize) {
		b.WriteString(line + "\n")
	}

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		rows = append(rows, []string{
			o.SongID,
			o.RemoteID,
			string(o.Status),
			strconv.Itoa(o.ChunksWritten),
			strconv.Itoa(o.ChunksSkipped),
			o.Elapsed.Round(time.Millisecond).String(),
		})
	}
	written, skipped := summary.Chunks()
	footer := []string{"", "", "total", strconv.Itoa(written), strconv.Itoa(skipped), summary.Elapsed.Round(time.Millisecond).String()}
	b.WriteString(renderTable(
		[]string{"Song", "Remote", "Status", "Written", "Skipped", "Elapsed"},
		rows, footer,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	b.WriteString("\n")

	for _, status := range []pipeline.Status{
		pipeline.StatusSucceeded,
		pipeline.StatusSkipped,
		pipeline.StatusDownloadFailed,
		pipeline.StatusProcessingFailed,
		pipeline.StatusCancelled,
	} {
		n := summary.Count(status)
		kind := outcomeKind(status)
		if n == 0 {
			kind = statusInfo
		}
		b.WriteString(renderStatusLine(string(status), kind, strconv.Itoa(n), colorize) + "\n")
	}

	for _, o := range summary.Failures() {
		detail := "unknown error"
		if o.Err != nil {
			detail = o.Err.Error()
		}
		if o.FailedChunk != "" {
			detail = fmt.Sprintf("chunk %s: %s", o.FailedChunk, detail)
		}
		b.WriteString(renderStatusLine(o.SongID, statusError, detail, colorize) + "\n")
	}
	if summary.RunID != "" {
		b.WriteString(renderStatusLine("run", statusInfo, summary.RunID, colorize) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderReport(report audit.Report, audioLog, notesLog string, colorize bool) string {
	var lines []string
	lines = append(lines, renderSectionHeader("Dataset check", colorize)...)
	lines = append(lines, renderStatusLine("Chunks", statusInfo, strconv.Itoa(report.Chunks), colorize))
	lines = append(lines, renderStatusLine("Missing audio", countKind(report.MissingAudio), countDetail(report.MissingAudio, audioLog), colorize))
	lines = append(lines, renderStatusLine("Missing notes", countKind(report.MissingNotes), countDetail(report.MissingNotes, notesLog), colorize))
	if report.Verified > 0 {
		lines = append(lines, renderStatusLine("Verified", statusInfo, strconv.Itoa(report.Verified), colorize))
		lines = append(lines, renderStatusLine("Rate mismatches", countKind(len(report.Mismatches)), strconv.Itoa(len(report.Mismatches)), colorize))
		for _, m := range report.Mismatches {
			detail := fmt.Sprintf("chunk %s at %d Hz", m.ChunkID, m.Rate)
			if m.Err != nil {
				detail = fmt.Sprintf("chunk %s: %v", m.ChunkID, m.Err)
			}
			lines = append(lines, renderStatusLine(m.SongID, statusWarn, detail, colorize))
		}
	}
	return strings.Join(lines, "\n")
}

func countKind(n int) statusKind {
	if n == 0 {
		return statusOK
	}
	return statusWarn
}

func countDetail(n int, logPath string) string {
	if n == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (see %s)", n, logPath)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
