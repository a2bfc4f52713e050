// Package mediatype maps file extensions to the MIME types the server
// announces in Content-Type headers.
package mediatype

import (
	"sort"
	"strings"
)

// Table is an immutable extension to media type lookup.
// Keys include the leading dot, e.g. ".html".
type Table struct {
	types map[string]string
}

// NewTable copies entries into a new Table so later changes to the source
// map are not observed.
func NewTable(entries map[string]string) *Table {
	types := make(map[string]string, len(entries))
	for ext, mediaType := range entries {
		types[ext] = mediaType
	}
	return &Table{types: types}
}

// Lookup returns the media type registered for ext.
// An empty ext is never found.
func (t *Table) Lookup(ext string) (string, bool) {
	if t == nil || ext == "" {
		return "", false
	}
	mediaType, ok := t.types[ext]
	return mediaType, ok
}

// Len returns the number of registered extensions
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.types)
}

// Extensions returns the registered extensions joined for display
func (t *Table) Extensions() string {
	if t == nil {
		return ""
	}
	exts := make([]string, 0, len(t.types))
	for ext := range t.types {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ",")
}

