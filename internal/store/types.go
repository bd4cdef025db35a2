package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies a captured clipboard payload. It is fixed at creation.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindFileList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindFileList:
		return "file_list"
	default:
		return "unknown"
	}
}

// Item is one captured clipboard snapshot. Persisted rows are immutable
// except for group assignment, text edits, and the timestamp bump applied
// when a duplicate capture or paste refreshes an existing row.
type Item struct {
	ID               int64    `json:"id"`
	Kind             Kind     `json:"kind"`
	Content          string   `json:"content"`
	ImageRef         string   `json:"image_ref,omitempty"`
	ImageFingerprint string   `json:"image_fingerprint,omitempty"`
	FilePaths        []string `json:"file_paths,omitempty"`
	CreatedAt        int64    `json:"created_at"` // unix milliseconds
	PreviewText      string   `json:"preview_text"`
	GroupID          *int64   `json:"group_id,omitempty"`
	GroupName        string   `json:"group_name,omitempty"`
}

// Group is a named, user-curated bucket. Grouped items are exempt from
// retention and eviction.
type Group struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"` // unix milliseconds
}

// QueryOptions filter and page a history query. Zero values mean
// "no constraint"; Limit <= 0 falls back to a default page size.
type QueryOptions struct {
	Limit   int
	Offset  int
	Search  string
	Kind    *Kind
	GroupID *int64
}

// previewLimit caps PreviewText length in runes.
const previewLimit = 120

// Preview returns the capped single-item summary stored alongside content.
func Preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit])
}

// FileListContent builds the canonical textual representation of a file
// list: paths sorted case-insensitively (original case kept) and joined
// with newlines. This is what the content column holds for KindFileList.
func FileListContent(paths []string) string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return strings.Join(sorted, "\n")
}

// FileListPreview summarizes a file list: base name for a single entry,
// otherwise the first two base names plus a trailing count line.
func FileListPreview(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	if len(paths) == 1 {
		return filepath.Base(paths[0])
	}
	names := []string{filepath.Base(paths[0]), filepath.Base(paths[1])}
	if len(paths) > 2 {
		names = append(names, fmt.Sprintf("… (%d files)", len(paths)))
	}
	return strings.Join(names, "\n")
}
