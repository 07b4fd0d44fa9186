package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rlibre/x4grid/record"
)

// operators in match order: longer tokens first.
var symbolOps = []Op{OpLessEqual, OpGreaterEqual, OpNotEqual, OpLess, OpGreater, OpEqual, OpMatch}

// ParseFilter parses the textual filter form:
//
//	age >= 18
//	name ~ ^a and active = true
//	status in [open, "in progress"]
//	tags contains go
//
// Conditions are joined with "and". A condition prefixed with "!" is case
// sensitive. An empty string parses to a nil Filter.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := splitAnd(s)
	out := make(And, 0, len(parts))
	for _, p := range parts {
		c, err := parseCondition(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func splitAnd(s string) []string {
	var parts []string
	lower := strings.ToLower(s)
	start := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && strings.HasPrefix(lower[i:], " and ") {
			parts = append(parts, s[start:i])
			start = i + len(" and ")
			i = start - 1
		}
	}
	return append(parts, s[start:])
}

func parseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	caseSensitive := false
	if strings.HasPrefix(s, "!") {
		caseSensitive = true
		s = strings.TrimSpace(s[1:])
	}

	if field, rest, ok := cutWord(s, "in"); ok {
		v, err := parseList(rest)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: OpIn, Value: v, CaseSensitive: caseSensitive}, nil
	}
	if field, rest, ok := cutWord(s, "contains"); ok {
		return Condition{Field: field, Op: OpContains, Value: parseScalar(rest), CaseSensitive: caseSensitive}, nil
	}

	if op, i := findOp(s); i > 0 {
		field := strings.TrimSpace(s[:i])
		raw := strings.TrimSpace(s[i+len(op):])
		if field != "" && raw != "" {
			v := parseScalar(raw)
			if op == OpMatch {
				v = record.String(unquote(raw))
			}
			return Condition{Field: field, Op: op, Value: v, CaseSensitive: caseSensitive}, nil
		}
	}
	return Condition{}, fmt.Errorf("%w: cannot parse condition %q", ErrSyntax, s)
}

// findOp returns the leftmost operator in s, preferring the longer token
// at the same offset.
func findOp(s string) (Op, int) {
	best, at := Op(""), -1
	for _, op := range symbolOps {
		i := strings.Index(s, string(op))
		if i < 0 {
			continue
		}
		if at < 0 || i < at || (i == at && len(op) > len(best)) {
			best, at = op, i
		}
	}
	return best, at
}

func cutWord(s, word string) (string, string, bool) {
	fields := strings.Fields(s)
	if len(fields) < 3 || !strings.EqualFold(fields[1], word) {
		return "", "", false
	}
	i := strings.Index(strings.ToLower(s), " "+word+" ")
	if i < 0 {
		return "", "", false
	}
	return fields[0], strings.TrimSpace(s[i+len(word)+2:]), true
}

func parseList(s string) (record.Value, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return record.Value{}, fmt.Errorf("%w: expected [..] list, got %q", ErrSyntax, s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return record.Array(nil), nil
	}
	var items []record.Value
	for _, p := range splitList(body) {
		items = append(items, parseScalar(strings.TrimSpace(p)))
	}
	return record.Array(items), nil
}

func splitList(s string) []string {
	var out []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func parseScalar(s string) record.Value {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return record.String(unquote(s))
	}
	switch strings.ToLower(s) {
	case "true":
		return record.Bool(true)
	case "false":
		return record.Bool(false)
	case "null":
		return record.Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return record.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return record.Float(f)
	}
	return record.String(s)
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

// ParseSort parses a comma separated field list. A leading "-" sorts that
// field descending; "+" or no prefix sorts ascending.
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out Sort
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		key := SortKey{Ascending: true}
		switch {
		case strings.HasPrefix(p, "-"):
			key.Ascending = false
			p = p[1:]
		case strings.HasPrefix(p, "+"):
			p = p[1:]
		}
		if p == "" {
			return nil, fmt.Errorf("%w: empty sort field in %q", ErrSyntax, s)
		}
		key.Field = p
		out = append(out, key)
	}
	return out, nil
}
