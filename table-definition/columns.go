package tabledefinition

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/rdbms/shared"
)

var (
	ErrWildcardProjection = errors.New("projection uses a wildcard")
	reAsAlias             = regexp.MustCompile(`(?is)^(.*\S)\s+as\s+([\["]?\w+[\]"]?)$`)
	reImplicitAlias       = regexp.MustCompile(`(?is)^(.*[\w)\]"])\s+([\["]?\w+[\]"]?)$`)
	reQualifiedIdentifier = regexp.MustCompile(`^(?:[\["]?\w+[\]"]?\.)*[\["]?(\w+)[\]"]?$`)
)

// ParseSelectColumns returns the output column names of a simple SELECT statement.
// Qualifiers and quoting are removed, aliases win over expressions.
// Expressions without an alias and wildcards are errors since their output name can't be known statically.
func ParseSelectColumns(query string) ([]string, error) {
	q := strings.TrimSpace(query)
	if len(q) < 6 || !strings.EqualFold(q[:6], "select") {
		return nil, fmt.Errorf("query does not start with SELECT: %q", query)
	}
	body := q[6:]
	if end := indexTopLevelKeyword(body, "from"); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimSpace(body)
	if len(body) > 9 && strings.EqualFold(body[:9], "distinct ") {
		body = body[9:]
	}
	items := splitTopLevel(body, ',')
	retval := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("empty column in projection of %q", query)
		}
		if item == "*" || strings.HasSuffix(item, ".*") {
			return nil, ErrWildcardProjection
		}
		var name string
		if m := reAsAlias.FindStringSubmatch(item); m != nil {
			name = m[2]
		} else if m := reQualifiedIdentifier.FindStringSubmatch(item); m != nil {
			name = m[1]
		} else if m := reImplicitAlias.FindStringSubmatch(item); m != nil {
			name = m[2]
		} else {
			return nil, fmt.Errorf("expression %q has no alias", item)
		}
		retval = append(retval, strings.Trim(name, `[]"`))
	}
	return retval, nil
}

// ValidateProjection checks that the SELECT list of t.SourceQuery matches t.Schema by count, order and name.
func ValidateProjection(t TableSpec) error {
	cols, err := ParseSelectColumns(t.SourceQuery)
	if err != nil {
		return errors.Wrapf(err, "table %v", t.Name)
	}
	if len(cols) != len(t.Schema) {
		return fmt.Errorf("table %v: source query selects %v columns but the schema has %v", t.Name, len(cols), len(t.Schema))
	}
	for idx, c := range cols {
		if !strings.EqualFold(c, t.Schema[idx].Name) {
			return fmt.Errorf("table %v: column %v of the source query is %q but the schema expects %q", t.Name, idx+1, c, t.Schema[idx].Name)
		}
	}
	return nil
}

// ValidateRegistry runs ValidateProjection over every table and returns the first error.
func ValidateRegistry(r *Registry) error {
	for _, t := range r.Tables() {
		if err := ValidateProjection(t); err != nil {
			return err
		}
	}
	return nil
}

// QueryColumn is a column returned by the source database for a query.
type QueryColumn struct {
	Name             string
	DatabaseTypeName string
}

// GetQueryColumns describes the result set of query without fetching rows.
// The query is wrapped so that the source returns no data.
func GetQueryColumns(ctx context.Context, db shared.Connector, query string) ([]QueryColumn, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("select * from (%v) q where 1 = 0", query))
	if err != nil {
		return nil, errors.Wrap(err, "error describing query")
	}
	defer func() {
		_ = rows.Close()
	}()
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, "error fetching column types")
	}
	retval := make([]QueryColumn, len(colTypes))
	for idx, c := range colTypes {
		retval[idx] = QueryColumn{Name: c.Name(), DatabaseTypeName: c.DatabaseTypeName()}
	}
	return retval, nil
}

// ValidateAgainstSource compares the columns the source returns for t.SourceQuery with t.Schema.
// Names and order must match. Types are compared when the source type is known to the mapper.
func ValidateAgainstSource(ctx context.Context, db shared.Connector, mapper Mapper, t TableSpec) error {
	cols, err := GetQueryColumns(ctx, db, t.SourceQuery)
	if err != nil {
		return errors.Wrapf(err, "table %v", t.Name)
	}
	if len(cols) != len(t.Schema) {
		return fmt.Errorf("table %v: source returns %v columns but the schema has %v", t.Name, len(cols), len(t.Schema))
	}
	for idx, c := range cols {
		want := t.Schema[idx]
		if !strings.EqualFold(c.Name, want.Name) {
			return fmt.Errorf("table %v: source column %v is %q but the schema expects %q", t.Name, idx+1, c.Name, want.Name)
		}
		if got, ok := mapper.Map(c.DatabaseTypeName); ok && got != want.Type {
			return fmt.Errorf("table %v: column %v has source type %v (%v) but the schema expects %v", t.Name, c.Name, c.DatabaseTypeName, got, want.Type)
		}
	}
	return nil
}

// indexTopLevelKeyword finds keyword outside of parentheses and quotes, on word boundaries.
func indexTopLevelKeyword(s string, keyword string) int {
	depth := 0
	var quote byte
	n := len(keyword)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i+n <= len(s) && strings.EqualFold(s[i:i+n], keyword) &&
			(i == 0 || isSpace(s[i-1])) && (i+n == len(s) || isSpace(s[i+n])) {
			return i
		}
	}
	return -1
}

// splitTopLevel splits s on sep outside of parentheses and quotes.
func splitTopLevel(s string, sep byte) []string {
	retval := make([]string, 0)
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				retval = append(retval, s[start:i])
				start = i + 1
			}
		}
	}
	return append(retval, s[start:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
