// Package search parses search-load query strings and matches listed items
// against them.
package search

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/justyntemme/docview/internal/mimefilter"
	"github.com/justyntemme/docview/internal/model"
)

// Directive types
type DirectiveType int

const (
	DirName DirectiveType = iota
	DirExt
	DirType
	DirSize
	DirModified
	DirDepth
)

// Comparison operators for size/date
type Operator int

const (
	OpNone Operator = iota
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
	OpEquals
)

// Directive represents a single search directive
type Directive struct {
	Type     DirectiveType
	Value    string
	Operator Operator
	NumValue int64     // size in bytes, or depth
	TimeVal  time.Time // parsed date
}

// Query holds parsed search directives
type Query struct {
	Directives []Directive
	Raw        string
}

// Parse parses a search string into directives. Bare words match names.
// Examples:
//   - "report" -> name contains "report"
//   - "ext:pdf" -> names ending in .pdf
//   - "type:image" -> mime type image/*
//   - "size:>1MB" -> larger than one megabyte
//   - "modified:>2024-01-01" -> modified after Jan 1, 2024
//   - "depth:3" -> descend three levels below the container
func Parse(input string) *Query {
	q := &Query{Raw: input}
	input = strings.TrimSpace(input)
	if input == "" {
		return q
	}

	for _, part := range splitRespectingQuotes(input) {
		q.Directives = append(q.Directives, parseDirective(part))
	}
	return q
}

func splitRespectingQuotes(s string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, r := range s {
		switch {
		case (r == '"' || r == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = r
		case r == quoteChar && inQuotes:
			inQuotes = false
			quoteChar = 0
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func parseDirective(s string) Directive {
	if idx := strings.Index(s, ":"); idx > 0 {
		directive := strings.ToLower(s[:idx])
		value := strings.Trim(s[idx+1:], "\"'")

		switch directive {
		case "name", "filename", "file":
			return Directive{Type: DirName, Value: value}

		case "ext", "extension":
			if !strings.HasPrefix(value, ".") {
				value = "." + value
			}
			return Directive{Type: DirExt, Value: strings.ToLower(value)}

		case "type", "mime":
			value = strings.ToLower(value)
			if !strings.Contains(value, "/") {
				value += "/*"
			}
			return Directive{Type: DirType, Value: value}

		case "size":
			op, numStr := parseOperator(value)
			return Directive{Type: DirSize, Value: value, Operator: op, NumValue: parseSize(numStr)}

		case "modified", "date", "mtime":
			op, dateStr := parseOperator(value)
			return Directive{Type: DirModified, Value: value, Operator: op, TimeVal: parseDate(dateStr)}

		case "depth", "recursive":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				n = 0
			}
			return Directive{Type: DirDepth, Value: value, NumValue: int64(n)}
		}
	}

	return Directive{Type: DirName, Value: s}
}

func parseOperator(s string) (Operator, string) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, ">="):
		return OpGreaterEq, strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "<="):
		return OpLessEq, strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, ">"):
		return OpGreater, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "<"):
		return OpLess, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "="):
		return OpEquals, strings.TrimSpace(s[1:])
	default:
		return OpEquals, s
	}
}

// parseSize accepts humanized sizes ("10MB", "4 KiB", "512").
// Unparseable input yields 0.
func parseSize(s string) int64 {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return int64(n)
}

// parseDate parses date strings like "2024-01-01", "2024-01", "today", "yesterday"
func parseDate(s string) time.Time {
	s = strings.ToLower(strings.TrimSpace(s))
	now := time.Now()

	switch s {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "yesterday":
		y, m, d := now.AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	}

	layouts := []string{
		"2006-01-02",
		"2006-01",
		"2006/01/02",
		"01/02/2006",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return time.Time{}
}

// valueDirectives need a value after the colon; depth: alone is allowed.
var valueDirectives = []string{"name:", "filename:", "file:", "ext:", "extension:", "type:", "mime:", "size:", "modified:", "date:", "mtime:"}

// Incomplete reports whether input holds a directive prefix with no value,
// as in "ext:" or "size: foo".
func Incomplete(input string) bool {
	for _, part := range splitRespectingQuotes(strings.ToLower(strings.TrimSpace(input))) {
		for _, prefix := range valueDirectives {
			if part == prefix {
				return true
			}
		}
	}
	return false
}

// IsEmpty returns true if the query has no matching directives. A query
// holding only a depth is empty.
func (q *Query) IsEmpty() bool {
	for _, d := range q.Directives {
		if d.Type != DirDepth {
			return false
		}
	}
	return true
}

// Depth returns the requested walk depth, or def when none was given.
func (q *Query) Depth(def int) int {
	for _, d := range q.Directives {
		if d.Type == DirDepth && d.NumValue > 0 {
			return int(d.NumValue)
		}
	}
	return def
}

// Matcher evaluates items against a query
type Matcher struct {
	query *Query
}

func NewMatcher(q *Query) *Matcher {
	return &Matcher{query: q}
}

// Match checks if an item matches every directive (implicit AND).
func (m *Matcher) Match(item model.Item) bool {
	for _, d := range m.query.Directives {
		if !matchDirective(d, item) {
			return false
		}
	}
	return true
}

func matchDirective(d Directive, item model.Item) bool {
	switch d.Type {
	case DirName:
		return matchGlob(strings.ToLower(item.DisplayName), strings.ToLower(d.Value))

	case DirExt:
		if item.IsContainer() {
			return false
		}
		return strings.ToLower(filepath.Ext(item.DisplayName)) == d.Value

	case DirType:
		if item.IsContainer() {
			return false
		}
		return mimefilter.Matches([]string{d.Value}, item.MimeType)

	case DirSize:
		if item.Size < 0 || item.IsContainer() {
			return false
		}
		return compareInt(item.Size, d.NumValue, d.Operator)

	case DirModified:
		if d.TimeVal.IsZero() {
			return true
		}
		if item.LastModified < 0 {
			return false
		}
		return compareTime(time.UnixMilli(item.LastModified), d.TimeVal, d.Operator)
	}
	return true
}

// matchGlob does simple glob matching with * wildcards
func matchGlob(name, pattern string) bool {
	// Without wildcards it is a substring match
	if !strings.Contains(pattern, "*") {
		return strings.Contains(name, pattern)
	}

	parts := strings.Split(pattern, "*")

	if parts[0] != "" && !strings.HasPrefix(name, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if last != "" && !strings.HasSuffix(name, last) {
		return false
	}

	// Middle parts must appear in order
	pos := len(parts[0])
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(name[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return len(name)-len(last) >= pos
}

func compareInt(val, target int64, op Operator) bool {
	switch op {
	case OpGreater:
		return val > target
	case OpLess:
		return val < target
	case OpGreaterEq:
		return val >= target
	case OpLessEq:
		return val <= target
	default:
		return val == target
	}
}

func compareTime(val, target time.Time, op Operator) bool {
	switch op {
	case OpGreater:
		return val.After(target)
	case OpLess:
		return val.Before(target)
	case OpGreaterEq:
		return !val.Before(target)
	case OpLessEq:
		return !val.After(target)
	default:
		// Equals compares the calendar date only
		vy, vm, vd := val.Date()
		ty, tm, td := target.In(val.Location()).Date()
		return vy == ty && vm == tm && vd == td
	}
}
