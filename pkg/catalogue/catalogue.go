// Package catalogue is the logical file catalogue boundary. A Registry maps logical file
// names (LFNs) to physical replicas.
package catalogue

import (
	"context"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ChecksumTypeAdler32 tags checksums stored in the catalogue.
const ChecksumTypeAdler32 = "ADLER32"

var (
	// ErrCatalogueFailure marks an unsuccessful overall response from a Registry.
	ErrCatalogueFailure = errors.Base("catalogue request failed")
	// ErrEntryRejected marks a submitted entry listed as failed by the Registry.
	ErrEntryRejected = errors.Base("catalogue rejected entry")
	// ErrAmbiguousPresence marks an existence answer that is neither present nor absent.
	ErrAmbiguousPresence = errors.Base("ambiguous existence response")
)

// Presence is the outcome of an existence check for a single LFN.
type Presence int

const (
	PresenceAmbiguous Presence = iota
	PresencePresent
	PresenceAbsent
)

func (p Presence) String() string {
	switch p {
	case PresencePresent:
		return "present"
	case PresenceAbsent:
		return "absent"
	default:
		return "ambiguous"
	}
}

// 📚 Entry is one file submitted to the catalogue
type Entry struct {
	LFN            string
	PhysicalPath   string
	Size           uint64
	StorageElement string
	GUID           string
	Checksum       string
	ChecksumType   string
}

// ExistsResult is the successful answer to an existence query.
type ExistsResult struct {
	Present map[string]struct{}
	Absent  map[string]struct{}
}

// NewExistsResult builds an empty result.
func NewExistsResult() ExistsResult {
	return ExistsResult{Present: map[string]struct{}{}, Absent: map[string]struct{}{}}
}

// Lookup classifies lfn. An LFN reported in both sets, or in neither, is ambiguous.
func (r ExistsResult) Lookup(lfn string) Presence {
	_, present := r.Present[lfn]
	_, absent := r.Absent[lfn]
	switch {
	case present && !absent:
		return PresencePresent
	case absent && !present:
		return PresenceAbsent
	default:
		return PresenceAmbiguous
	}
}

// AddResult is the answer to an AddEntry call: per-LFN success or failure reason.
type AddResult struct {
	Successful map[string]struct{}
	Failed     map[string]string
}

// NewAddResult builds an empty result.
func NewAddResult() AddResult {
	return AddResult{Successful: map[string]struct{}{}, Failed: map[string]string{}}
}

// FailureSummary renders the failed entries in a stable order.
func (r AddResult) FailureSummary() string {
	lfns := make([]string, 0, len(r.Failed))
	for lfn := range r.Failed {
		lfns = append(lfns, lfn)
	}
	sort.Strings(lfns)
	parts := make([]string, 0, len(lfns))
	for _, lfn := range lfns {
		parts = append(parts, lfn+": "+r.Failed[lfn])
	}
	return strings.Join(parts, "; ")
}

// Registry is the primary interface for talking to a file catalogue. A returned error
// always means the request as a whole failed.
type Registry interface {
	// DirectoryExists reports whether path is a catalogue directory
	DirectoryExists(ctx context.Context, path string) (bool, error)
	// CreateDirectory creates path and any missing parents
	CreateDirectory(ctx context.Context, path string) error
	// FileExists checks each LFN
	FileExists(ctx context.Context, lfns ...string) (ExistsResult, error)
	// AddEntry registers entries, reporting per-LFN outcomes
	AddEntry(ctx context.Context, entries ...Entry) (AddResult, error)
	// Close releases the registry's resources
	Close() error
}
