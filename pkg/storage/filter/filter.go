// Package filter implements the small predicate language used by
// FindMany filter expressions: conjunctions of field comparisons, e.g.
//
//	AccountId = 1 AND IsPrimary != 0
//
// Supported operators are =, !=, <, <=, >, >=. Comparisons are numeric
// when both sides parse as numbers, string comparisons otherwise.
package filter

import (
	"strconv"
	"strings"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/record"
)

// Filter is a parsed predicate over record field values
type Filter struct {
	clauses []clause
}

type clause struct {
	field string
	op    string
	value string
}

var operators = []string{"!=", "<=", ">=", "=", "<", ">"}

// Parse parses a filter expression. The empty expression matches every
// record.
func Parse(expr string) (*Filter, error) {
	f := &Filter{}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return f, nil
	}

	for _, part := range splitAnd(expr) {
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		f.clauses = append(f.clauses, c)
	}
	return f, nil
}

// Match reports whether the record satisfies every clause
func (f *Filter) Match(rec *record.Record) bool {
	for _, c := range f.clauses {
		if !c.match(rec) {
			return false
		}
	}
	return true
}

// splitAnd splits on the standalone AND keyword, case-insensitively.
// AND inside a quoted value does not split, and spacing inside quotes
// is preserved.
func splitAnd(expr string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case i+3 <= len(expr) && strings.EqualFold(expr[i:i+3], "AND") &&
			(i == 0 || isSpace(expr[i-1])) &&
			(i+3 == len(expr) || isSpace(expr[i+3])):
			parts = append(parts, strings.TrimSpace(expr[start:i]))
			start = i + 3
			i += 2
		}
	}
	parts = append(parts, strings.TrimSpace(expr[start:]))
	return parts
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func parseClause(part string) (clause, error) {
	for _, op := range operators {
		idx := strings.Index(part, op)
		if idx < 0 {
			continue
		}
		field := strings.TrimSpace(part[:idx])
		value := strings.TrimSpace(part[idx+len(op):])
		if field == "" || value == "" {
			return clause{}, errors.Newf(errors.ErrInvalidInput, "malformed filter clause %q", part)
		}
		return clause{field: field, op: op, value: unquote(value)}, nil
	}
	return clause{}, errors.Newf(errors.ErrInvalidInput, "no operator in filter clause %q", part)
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') ||
			(value[0] == '"' && value[len(value)-1] == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func (c clause) match(rec *record.Record) bool {
	got := rec.String(c.field)

	cmp, numeric := compareNumeric(got, c.value)
	if !numeric {
		cmp = strings.Compare(got, c.value)
	}

	switch c.op {
	case "=":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func compareNumeric(a, b string) (int, bool) {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	}
	return 0, true
}
