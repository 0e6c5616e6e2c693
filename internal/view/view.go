// Package view projects the waypoint list into the filtered, sorted rows the
// selection dialog renders. Projection is a pure function of the records and
// the criteria; it never touches the store.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/five82/wayfinder/internal/waypoint"
)

// SortOrder selects the ordering of projected entries.
type SortOrder int

const (
	IndexAscending SortOrder = iota
	IndexDescending
	TitleAscending
	TitleDescending
	PinnedFirst

	sortOrderCount
)

var sortOrderNames = [...]string{
	IndexAscending:  "index",
	IndexDescending: "index-desc",
	TitleAscending:  "title",
	TitleDescending: "title-desc",
	PinnedFirst:     "pinned",
}

func (o SortOrder) String() string {
	if o < 0 || o >= sortOrderCount {
		return fmt.Sprintf("SortOrder(%d)", int(o))
	}
	return sortOrderNames[o]
}

// Next returns the order that follows o when cycling.
func (o SortOrder) Next() SortOrder {
	if o < 0 || o >= sortOrderCount-1 {
		return IndexAscending
	}
	return o + 1
}

// ParseSortOrder converts a name produced by String back to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return IndexAscending, nil
	}
	for i, n := range sortOrderNames {
		if n == name {
			return SortOrder(i), nil
		}
	}
	return IndexAscending, fmt.Errorf("unknown sort order %q", s)
}

// Criteria controls filtering and ordering.
type Criteria struct {
	Filter string
	Sort   SortOrder
}

// DefaultCriteria returns an empty filter with insertion ordering.
func DefaultCriteria() Criteria {
	return Criteria{Sort: IndexAscending}
}

// Entry is one projected row.
type Entry struct {
	waypoint.Record
	Index int // insertion order in the store
}

// DisplayText renders the row label.
func (e Entry) DisplayText() string {
	return fmt.Sprintf("%s  (%s)", e.Title, e.Position)
}

// Project filters records by title and orders them by c.Sort. Ties are
// broken by insertion order. A filter made only of whitespace matches
// everything; any other filter is matched as typed, surrounding spaces
// included.
func Project(records []waypoint.Record, c Criteria) []Entry {
	var needle string
	if strings.TrimSpace(c.Filter) != "" {
		needle = strings.ToLower(c.Filter)
	}

	entries := make([]Entry, 0, len(records))
	for i, rec := range records {
		if needle != "" && !strings.Contains(strings.ToLower(rec.Title), needle) {
			continue
		}
		entries = append(entries, Entry{Record: rec, Index: i})
	}

	less := lessFunc(c.Sort)
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
	return entries
}

func lessFunc(order SortOrder) func(a, b Entry) bool {
	switch order {
	case IndexDescending:
		return func(a, b Entry) bool { return a.Index > b.Index }
	case TitleAscending:
		return func(a, b Entry) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case TitleDescending:
		return func(a, b Entry) bool {
			return strings.ToLower(a.Title) > strings.ToLower(b.Title)
		}
	case PinnedFirst:
		return func(a, b Entry) bool {
			if a.Pinned != b.Pinned {
				return a.Pinned
			}
			return a.Index < b.Index
		}
	default:
		return func(a, b Entry) bool { return a.Index < b.Index }
	}
}
