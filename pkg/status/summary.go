package status

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"gitlab.com/tozd/go/errors"
)

var summaryOrder = []FileStatus{
	StatusTransferred,
	StatusOverwritten,
	StatusInSync,
	StatusRegistered,
	StatusAlreadyRegistered,
	StatusSkippedDirectory,
	StatusExcluded,
	StatusFailed,
	StatusNeedsTransfer,
	StatusStale,
	StatusUnregistered,
}

// RenderSummary writes one row per status seen, with file counts and total bytes.
func (m *Manager) RenderSummary(w io.Writer) error {
	files := m.Files()

	counts := make(map[FileStatus]int)
	bytes := make(map[FileStatus]uint64)
	for _, f := range files {
		counts[f.Status]++
		bytes[f.Status] += f.Size
	}

	table := tablewriter.NewWriter(w)
	table.Header("Status", "Files", "Size")
	for _, s := range summaryOrder {
		if counts[s] == 0 {
			continue
		}
		if err := table.Append([]string{s.String(), strconv.Itoa(counts[s]), humanize.IBytes(bytes[s])}); err != nil {
			return errors.Errorf("appending %s row: %w", s, err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}
	return nil
}

// 📋 RenderFiles writes a row per tracked file, including checksum and target.
func (m *Manager) RenderFiles(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Path", "Size", "Checksum", "Destination", "LFN", "Status")
	for _, f := range m.Files() {
		checksum := f.Checksum
		if checksum != "" {
			checksum = "adler32:" + checksum
		}
		err := table.Append([]string{
			f.Path,
			humanize.IBytes(f.Size),
			checksum,
			f.Destination,
			f.LFN,
			f.Status.String(),
		})
		if err != nil {
			return errors.Errorf("appending row for %s: %w", f.Path, err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Errorf("rendering file table: %w", err)
	}
	return nil
}
