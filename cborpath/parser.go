// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cborpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/cborquery/query"
)

// Parse parses a path expression into a query builder
func Parse(expr string) (*query.Builder, error) {
	b := query.Path()
	expr = strings.TrimSpace(expr)
	i := 0
	if strings.HasPrefix(expr, "$") {
		i++
	}
	for i < len(expr) {
		var err error
		if i, err = parseSegment(b, expr, i); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// MustParse is Parse that panics on error
func MustParse(expr string) *query.Builder {
	b, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return b
}

// Compile parses and compiles a path expression
func Compile(expr string, opts ...query.CompileOption) (*query.Query, error) {
	b, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return query.Compile(b, opts...)
}

// Entry is a named path used to build a dictionary projection
type Entry struct {
	Key  string
	Expr string
}

// ParseEntry parses an entry of the form key=expr
func ParseEntry(s string) (Entry, error) {
	key, expr, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return Entry{}, fmt.Errorf("%w: entry %q must be like key=expr", ErrSyntax, s)
	}
	return Entry{Key: strings.TrimSpace(key), Expr: expr}, nil
}

// ParseSequence builds a sequence projection of the given expressions
func ParseSequence(exprs ...string) (*query.Builder, error) {
	elements := make([]*query.Builder, 0, len(exprs))
	for _, expr := range exprs {
		b, err := Parse(expr)
		if err != nil {
			return nil, err
		}
		elements = append(elements, b)
	}
	return query.Path().AsSequence(elements...), nil
}

// ParseDictionary builds a dictionary projection of the given entries. Entries
// keep their order.
func ParseDictionary(entries ...Entry) (*query.Builder, error) {
	ret := make([]query.EntryBuilder, 0, len(entries))
	for _, entry := range entries {
		b, err := Parse(entry.Expr)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Key, err)
		}
		ret = append(ret, query.Entry(entry.Key, b))
	}
	return query.Path().AsDictionary(ret...), nil
}

func parseSegment(b *query.Builder, expr string, i int) (int, error) {
	switch expr[i] {
	case '.':
		return parseDotSegment(b, expr, i)
	case '[':
		return parseBracketSegment(b, expr, i)
	}
	return i, fmt.Errorf("%w: unexpected token '%c' at position %d, expected '.' or '['", ErrSyntax, expr[i], i)
}

func parseDotSegment(b *query.Builder, expr string, i int) (int, error) {
	i++ // consume '.'
	if i >= len(expr) {
		return i, fmt.Errorf("%w: path cannot end with '.'", ErrSyntax)
	}
	if expr[i] == '*' {
		b.Each()
		return i + 1, nil
	}
	start := i
	for i < len(expr) && idRune(expr[i]) {
		i++
	}
	if start == i {
		return i, fmt.Errorf("%w: name cannot be empty after '.' at position %d", ErrSyntax, start)
	}
	b.Key(expr[start:i])
	return i, nil
}

func parseBracketSegment(b *query.Builder, expr string, i int) (int, error) {
	end := findClosingBracket(expr, i)
	if end == -1 {
		return i, fmt.Errorf("%w: unterminated bracket selector at position %d", ErrSyntax, i)
	}
	content := strings.TrimSpace(expr[i+1 : end])
	if content == "" {
		return i, fmt.Errorf("%w: empty bracket selector at position %d", ErrSyntax, i)
	}
	if err := applySelector(b, content); err != nil {
		return i, err
	}
	return end + 1, nil
}

func applySelector(b *query.Builder, content string) error {
	switch {
	case content == "*":
		b.Each()
	case isQuoted(content):
		key, err := unquote(content)
		if err != nil {
			return err
		}
		b.Key(key)
	case content[0] == '#':
		key, err := strconv.ParseInt(strings.TrimSpace(content[1:]), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid integer key '%s'", ErrSyntax, content)
		}
		b.IntKey(key)
	case content[0] == '=':
		pred, err := parseLiteral(strings.TrimSpace(content[1:]))
		if err != nil {
			return err
		}
		b.Find(pred)
	case content[0] == '?':
		return applyTypeAssertion(b, strings.TrimSpace(content[1:]))
	default:
		idx, err := strconv.Atoi(content)
		if err != nil {
			return fmt.Errorf("%w: invalid content '%s' in bracket selector", ErrSyntax, content)
		}
		if idx < 0 {
			return fmt.Errorf("%w: negative index %d", ErrSyntax, idx)
		}
		b.Index(idx)
	}
	return nil
}

func applyTypeAssertion(b *query.Builder, content string) error {
	name, nullable := strings.CutSuffix(content, "|null")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: missing type name in '[?%s]'", ErrSyntax, content)
	}
	spec, ok := query.LookupSpec(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	if nullable {
		b.NullOrType(spec)
	} else {
		b.RequireType(spec)
	}
	return nil
}

func parseLiteral(s string) (query.Predicate, error) {
	if isQuoted(s) {
		text, err := unquote(s)
		if err != nil {
			return nil, err
		}
		return query.TextEqual(text), nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: literal '%s' must be a quoted string or an integer", ErrSyntax, s)
	}
	return query.IntEqual(i), nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 &&
		((s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"'))
}

func unquote(s string) (string, error) {
	if s[0] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], `\'`, `'`), nil
	}
	ret, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("%w: invalid quoted name %s", ErrSyntax, s)
	}
	return ret, nil
}

// findClosingBracket finds the bracket closing the one at start, skipping quoted
// text
func findClosingBracket(expr string, start int) int {
	var quote byte
	for i := start + 1; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0 && c == '\\':
			// Skip the escaped character
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ']':
			return i
		}
	}
	return -1
}

// idRune checks if a byte is valid for unquoted names after '.'
func idRune(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' || b == '-'
}
