// Package output provides terminal output utilities for depsnap:
// table rendering for snapshot history, dependency lists and security
// findings, plus a spinner for interactive captures. Tables use ASCII
// characters and ANSI color codes; color is gated on TTY detection and
// the NO_COLOR convention.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/depsnap/internal/security"
	"github.com/blackwell-systems/depsnap/internal/store"
)

// ANSI color codes for status and score display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	return color + text + colorReset
}

// RenderSnapshotTable renders the capture history, newest first.
func RenderSnapshotTable(snapshots []*store.ExecutionSnapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-9s %-6s %-6s %-6s %-9s %-14s %s\n",
		"ID", "Status", "Type", "Deps", "Score", "Size", "Captured", "Project"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("%-10s %-9s %-6s %-6d %-6s %-9s %-14s %s\n",
			shortID(snap.ID),
			formatStatus(snap.Status),
			orDash(snap.LockfileType),
			snap.TotalDependencies,
			formatScore(snap.SecurityScore),
			humanize.Bytes(uint64(snap.CompressedSize)),
			formatCaptureTime(snap.CreatedAt),
			truncate(snap.ProjectPath, 40)))
	}

	return sb.String()
}

// RenderSnapshotDetail renders one snapshot's full record.
func RenderSnapshotDetail(snap *store.ExecutionSnapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Snapshot:      %s\n", snap.ID))
	sb.WriteString(fmt.Sprintf("Project:       %s\n", snap.ProjectPath))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", formatStatus(snap.Status)))
	sb.WriteString(fmt.Sprintf("Trigger:       %s\n", snap.TriggerSource))
	sb.WriteString(fmt.Sprintf("Captured:      %s\n", snap.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Lockfile:      %s\n", orDash(snap.LockfileType)))
	sb.WriteString(fmt.Sprintf("Dependencies:  %d total, %d direct, %d dev\n",
		snap.TotalDependencies, snap.DirectDependencies, snap.DevDependencies))
	sb.WriteString(fmt.Sprintf("Postinstalls:  %d\n", snap.PostinstallCount))
	sb.WriteString(fmt.Sprintf("Score:         %s\n", formatScore(snap.SecurityScore)))
	sb.WriteString(fmt.Sprintf("Lockfile hash: %s\n", orDash(snap.LockfileHash)))
	sb.WriteString(fmt.Sprintf("Tree hash:     %s\n", orDash(snap.DependencyTreeHash)))
	sb.WriteString(fmt.Sprintf("Storage:       %s (%s)\n",
		orDash(snap.StoragePath), humanize.Bytes(uint64(snap.CompressedSize))))

	if snap.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Error:         %s\n", colorize(colorRed, snap.ErrorMessage)))
	}

	return sb.String()
}

// RenderDependencyTable renders a snapshot's dependency list.
func RenderDependencyTable(deps []*store.SnapshotDependency) string {
	if len(deps) == 0 {
		return "No dependencies recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-34s %-14s %-7s %-5s %-11s %s\n",
		"Package", "Version", "Direct", "Dev", "Postinstall", "Integrity"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, dep := range deps {
		sb.WriteString(fmt.Sprintf("%-34s %-14s %-7s %-5s %-11s %s\n",
			truncate(dep.Name, 34),
			truncate(dep.Version, 14),
			yesNo(dep.IsDirect),
			yesNo(dep.IsDev),
			yesNo(dep.HasPostinstall),
			integrityMark(dep.IntegrityHash)))
	}

	return sb.String()
}

// RenderSecurityReport renders analyzer findings for a capture.
func RenderSecurityReport(secCtx *security.Context) string {
	var sb strings.Builder

	if len(secCtx.PostinstallScripts) == 0 {
		sb.WriteString("No install-time lifecycle scripts found in node_modules.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Install-time lifecycle scripts (%d):\n", len(secCtx.PostinstallScripts)))
		for _, entry := range secCtx.PostinstallScripts {
			sb.WriteString(fmt.Sprintf("  %s %s [%s] %s\n",
				colorize(colorYellow, "•"),
				entry.Package,
				entry.Hook,
				truncate(entry.Script, 50)))
		}
	}

	sb.WriteString("\n")

	if len(secCtx.TyposquattingSuspects) == 0 {
		sb.WriteString("No typosquatting suspects.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Typosquatting suspects (%d):\n", len(secCtx.TyposquattingSuspects)))
		for _, alert := range secCtx.TyposquattingSuspects {
			sb.WriteString(fmt.Sprintf("  %s %s resembles %s (distance %d, confidence %.0f%%)\n",
				colorize(colorRed, "!"),
				alert.Package,
				alert.Similar,
				alert.Distance,
				alert.Confidence*100))
		}
	}

	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStatus(status store.SnapshotStatus) string {
	switch status {
	case store.StatusCompleted:
		return colorize(colorGreen, string(status))
	case store.StatusFailed:
		return colorize(colorRed, string(status))
	default:
		return colorize(colorGray, string(status))
	}
}

func formatScore(score *int) string {
	if score == nil {
		return "-"
	}

	text := fmt.Sprintf("%d", *score)
	switch {
	case *score >= 90:
		return colorize(colorGreen, text)
	case *score >= 70:
		return colorize(colorYellow, text)
	default:
		return colorize(colorRed, text)
	}
}

func formatCaptureTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func integrityMark(hash string) string {
	if hash == "" {
		return colorize(colorYellow, "missing")
	}
	return "present"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
