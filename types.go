package orm

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Field types the relation resolver interprets. Anything else is carried
// through as a plain value.
const (
	TypeMany2One  = "many2one"
	TypeOne2Many  = "one2many"
	TypeMany2Many = "many2many"
	TypeBinary    = "binary"
)

// Row is one record's raw field data as returned by Client.Read.
// A row always carries its record id under the "id" key.
type Row map[string]interface{}

func (r Row) ID() int64 {
	id, _ := Int64(r["id"])
	return id
}

func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// FieldInfo describes one column of a model, as reported by
// Client.FieldsGet.
type FieldInfo struct {
	Type     string // "char", "integer", "many2one", ...
	Relation string // target model for relational types
	Function bool   // computed server-side
	String   string // human readable label
}

type FieldMap map[string]*FieldInfo

// Simple returns the names of fields that are fast to read in bulk:
// everything that is neither binary nor computed. Sorted for deterministic
// read requests.
func (m FieldMap) Simple() []string {
	fields := make([]string, 0, len(m))
	for name, fi := range m {
		if fi.Type == TypeBinary || fi.Function {
			continue
		}
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Condition is one search criterion. It marshals to the wire triple form
// ["field", "op", value].
type Condition struct {
	Field string
	Op    string
	Value interface{}
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Field, c.Op, c.Value})
}

func (c Condition) String() string {
	return fmt.Sprintf("(%s %s %v)", c.Field, c.Op, c.Value)
}

// Domain is a conjunction of search conditions.
type Domain []Condition

// WithIDs returns a new domain restricted to the given ids.
func (d Domain) WithIDs(ids []int64) Domain {
	nd := make(Domain, 0, len(d)+1)
	nd = append(nd, Condition{"id", "in", ids})
	return append(nd, d...)
}

// CallContext is the parameter set (locale, timezone, company, ...)
// attached to remote calls issued through a cache scope.
type CallContext map[string]interface{}

func (cc CallContext) Clone() CallContext {
	if cc == nil {
		return nil
	}
	c := make(CallContext, len(cc))
	for k, v := range cc {
		c[k] = v
	}
	return c
}

// Merge returns a new context combining cc with delta; delta wins on
// conflicts. Neither receiver nor argument is modified.
func (cc CallContext) Merge(delta CallContext) CallContext {
	if len(delta) == 0 {
		return cc.Clone()
	}
	c := cc.Clone()
	if c == nil {
		c = make(CallContext, len(delta))
	}
	for k, v := range delta {
		c[k] = v
	}
	return c
}

// NamePair is one name_get result.
type NamePair struct {
	ID   int64
	Name string
}

// SearchQuery carries the paging arguments of a search call.
type SearchQuery struct {
	Offset int
	Limit  int
	Order  string
}

// Int64 coerces the id representations that appear in raw field values
// and decoded JSON: int64, int, float64 and json.Number.
func Int64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Int64s coerces a raw one2many/many2many field value into a slice of ids.
func Int64s(v interface{}) ([]int64, bool) {
	switch t := v.(type) {
	case []int64:
		return t, true
	case []interface{}:
		ids := make([]int64, 0, len(t))
		for _, e := range t {
			id, ok := Int64(e)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	case nil:
		return nil, true
	case bool:
		// servers report "no relations" as false
		if !t {
			return nil, true
		}
	}
	return nil, false
}
