package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 40 // base width for the path
	statusWidth = 18 // width for status text
)

// FileFormatter defines how file outcomes and progress are rendered
type FileFormatter interface {
	FormatFileOperation(info FileInfo) string
	FormatProgress(current, total int) string
	FormatError(err error) string
}

// DefaultFileFormatter renders colored, column-aligned lines
type DefaultFileFormatter struct{}

func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

func prefixFor(s FileStatus) string {
	switch s {
	case StatusTransferred, StatusRegistered:
		return color.GreenString("✓")
	case StatusOverwritten, StatusStale:
		return color.YellowString("⟳")
	case StatusNeedsTransfer, StatusUnregistered:
		return color.CyanString("+")
	case StatusFailed:
		return color.RedString("✗")
	default:
		return color.HiBlackString("-")
	}
}

// 🎯 FormatFileOperation formats one outcome for display
func (f *DefaultFileFormatter) FormatFileOperation(info FileInfo) string {
	target := info.Destination
	if info.LFN != "" {
		target = info.LFN
	}

	line := fmt.Sprintf("%s%s %-*s %-*s",
		strings.Repeat(" ", fileIndent),
		prefixFor(info.Status),
		nameWidth, info.Path,
		statusWidth, info.Status.String(),
	)
	if target != "" {
		line += " → " + target
	}
	if info.Error != nil {
		line += " " + f.FormatError(info.Error)
	}
	return strings.TrimRight(line, " ")
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return color.RedString("❌ Error: %v", err)
}
