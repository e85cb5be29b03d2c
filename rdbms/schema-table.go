package rdbms

import (
	"fmt"
	"strings"
)

// SchemaTable is a warehouse object name of the form [<database>.][<schema>.]<table>.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<database>.][<schema>.]<object>" mandatory:"yes"`
}

// NewSchemaTable joins the non-empty parts of a fully qualified name.
func NewSchemaTable(database string, schema string, table string) SchemaTable {
	parts := make([]string, 0, 3)
	for _, p := range []string{database, schema, table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return SchemaTable{strings.Join(parts, ".")}
}

func (st SchemaTable) parts() []string {
	return strings.Split(st.SchemaTable, ".")
}

func (st SchemaTable) GetTable() string {
	p := st.parts()
	return p[len(p)-1]
}

func (st SchemaTable) GetSchema() string {
	p := st.parts()
	if len(p) < 2 {
		return ""
	}
	return p[len(p)-2]
}

func (st SchemaTable) GetDatabase() string {
	p := st.parts()
	if len(p) < 3 {
		return ""
	}
	return p[len(p)-3]
}

// WithTable returns a SchemaTable in the same database and schema as st.
func (st SchemaTable) WithTable(table string) SchemaTable {
	return NewSchemaTable(st.GetDatabase(), st.GetSchema(), table)
}

// Join returns the object named table inside st, where st names a database and schema.
func (st SchemaTable) Join(table string) SchemaTable {
	if st.SchemaTable == "" {
		return SchemaTable{table}
	}
	return SchemaTable{st.SchemaTable + "." + table}
}

// Validate returns an error if the name has empty or too many parts.
func (st SchemaTable) Validate() error {
	p := st.parts()
	if len(p) > 3 {
		return fmt.Errorf("too many parts in object name %q", st.SchemaTable)
	}
	for _, x := range p {
		if strings.TrimSpace(x) == "" {
			return fmt.Errorf("empty part in object name %q", st.SchemaTable)
		}
	}
	return nil
}

func (st SchemaTable) String() string {
	return st.SchemaTable
}
