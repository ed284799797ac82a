package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"storesync/internal/api"
	"storesync/internal/syncstatus"
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
	statusLabelWidth = 16
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	badge := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", badge)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + line + ansiReset
		}
	}
	return line
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

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func syncStatusKind(status api.SyncStatus) statusKind {
	switch syncstatus.Status(status.Status) {
	case syncstatus.StatusSynced:
		return statusOK
	case syncstatus.StatusError:
		if status.FailedCount > 0 {
			return statusError
		}
		return statusWarn
	default:
		return statusInfo
	}
}

func renderSyncStatus(resp api.StatusResponse, colorize bool) []string {
	lines := renderSectionHeader("Sync", colorize)
	if resp.Online {
		lines = append(lines, renderStatusLine("Backend", statusOK, "online", colorize))
	} else {
		lines = append(lines, renderStatusLine("Backend", statusWarn, "offline; changes are queued", colorize))
	}
	message := titleCase(resp.Sync.Status)
	if resp.Sync.LastError != nil && *resp.Sync.LastError != "" {
		message += ": " + *resp.Sync.LastError
	}
	lines = append(lines, renderStatusLine("Status", syncStatusKind(resp.Sync), message, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Queue", colorize)...)
	lines = append(lines, renderStatusLine("Pending", statusInfo, formatCount(resp.Queue.Pending), colorize))
	retryKind := statusInfo
	if resp.Queue.Retrying > 0 {
		retryKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Retrying", retryKind, formatCount(resp.Queue.Retrying), colorize))
	if resp.Queue.Failed > 0 {
		lines = append(lines, renderStatusLine("Failed", statusError,
			formatCount(resp.Queue.Failed)+" (remove with `storesync queue remove <id>` or `storesync queue clear-failed`)", colorize))
	} else {
		lines = append(lines, renderStatusLine("Failed", statusOK, "0", colorize))
	}
	if resp.Queue.Oldest != "" {
		lines = append(lines, renderStatusLine("Oldest", statusInfo, resp.Queue.Oldest, colorize))
	}
	return lines
}
