package tabledefinition

import (
	"fmt"

	om "github.com/cevaris/ordered_map"
)

// Registry is the fixed, ordered set of tables that drive both the extraction and loading stages.
// It has no mutation API once built.
type Registry struct {
	tables *om.OrderedMap // key: lower-cased table name; value: TableSpec
}

// NewRegistry validates specs and returns a Registry that iterates in the supplied order.
// Table names must be unique ignoring case since they derive file, table and job names.
func NewRegistry(specs ...TableSpec) (*Registry, error) {
	r := &Registry{tables: om.NewOrderedMap()}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, ok := r.tables.Get(s.LowerName()); ok {
			return nil, fmt.Errorf("duplicate table %q in registry", s.Name)
		}
		r.tables.Set(s.LowerName(), s.copy())
	}
	return r, nil
}

// MustNewRegistry panics if the specs are invalid.
func MustNewRegistry(specs ...TableSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Tables returns copies of every TableSpec in definition order.
func (r *Registry) Tables() []TableSpec {
	retval := make([]TableSpec, 0, r.tables.Len())
	iter := r.tables.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Value.(TableSpec).copy())
	}
	return retval
}

// Get fetches a TableSpec by name ignoring case.
func (r *Registry) Get(name string) (TableSpec, bool) {
	v, ok := r.tables.Get(TableSpec{Name: name}.LowerName())
	if !ok {
		return TableSpec{}, false
	}
	return v.(TableSpec).copy(), true
}

func (r *Registry) Len() int {
	return r.tables.Len()
}

// Names returns the table names in definition order.
func (r *Registry) Names() []string {
	retval := make([]string, 0, r.tables.Len())
	for _, t := range r.Tables() {
		retval = append(retval, t.Name)
	}
	return retval
}
