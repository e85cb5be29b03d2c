package tabledefinition

import (
	"fmt"
	"strings"

	"github.com/relloyd/salespipe/constants"
)

// ColumnType is the semantic type of a staged column.
type ColumnType string

const (
	ColumnTypeInteger   ColumnType = "INTEGER"
	ColumnTypeFloat     ColumnType = "FLOAT"
	ColumnTypeString    ColumnType = "STRING"
	ColumnTypeTimestamp ColumnType = "TIMESTAMP"
)

func (c ColumnType) IsValid() bool {
	switch c {
	case ColumnTypeInteger, ColumnTypeFloat, ColumnTypeString, ColumnTypeTimestamp:
		return true
	}
	return false
}

type Column struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// TableSpec describes one source table: the query that extracts it and the ordered schema of its output.
// The schema order must match the projection of SourceQuery.
type TableSpec struct {
	Name        string   `json:"name" yaml:"name"`
	SourceQuery string   `json:"sourceQuery" yaml:"sourceQuery"`
	Schema      []Column `json:"schema" yaml:"schema"`
}

// LowerName is used for the staged file, the warehouse table and the job names.
func (t TableSpec) LowerName() string {
	return strings.ToLower(t.Name)
}

// StagedFileName is the object name written by extraction and read by loading.
func (t TableSpec) StagedFileName() string {
	return t.LowerName() + constants.CsvFileExtension
}

func (t TableSpec) WarehouseTableName() string {
	return t.LowerName()
}

func (t TableSpec) ExtractJobName() string {
	return fmt.Sprintf(constants.JobNameExtractFmt, t.LowerName())
}

func (t TableSpec) LoadJobName() string {
	return fmt.Sprintf(constants.JobNameLoadFmt, t.LowerName())
}

// ColumnNames returns the schema column names in order.
func (t TableSpec) ColumnNames() []string {
	retval := make([]string, len(t.Schema))
	for idx, c := range t.Schema {
		retval[idx] = c.Name
	}
	return retval
}

// copy returns a deep copy so callers can't mutate registry contents.
func (t TableSpec) copy() TableSpec {
	s := make([]Column, len(t.Schema))
	copy(s, t.Schema)
	t.Schema = s
	return t
}

func (t TableSpec) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table spec is missing a name")
	}
	if strings.TrimSpace(t.SourceQuery) == "" {
		return fmt.Errorf("table %v is missing a source query", t.Name)
	}
	if len(t.Schema) == 0 {
		return fmt.Errorf("table %v has an empty schema", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Schema))
	for _, c := range t.Schema {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("table %v has a column with no name", t.Name)
		}
		if !c.Type.IsValid() {
			return fmt.Errorf("table %v column %v has unsupported type %q", t.Name, c.Name, c.Type)
		}
		k := strings.ToLower(c.Name)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("table %v has duplicate column %v", t.Name, c.Name)
		}
		seen[k] = struct{}{}
	}
	return nil
}
