package orm

import (
	"context"
	"fmt"
)

// display names fetched via name_get are cached under a reserved row key
// so they ride the same scope as ordinary fields.
const displayNameKey = "__name_get_result"

// RecordKey identifies a record by (model, id). It is comparable, so it
// can be used as a map or set key consistently with Record equality.
type RecordKey struct {
	Model string
	ID    int64
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s(%d)", k.Model, k.ID)
}

// Record is a proxy for one remote record. Constructing one never touches
// the network; data is fetched on first field access, batched across the
// whole population registered in the record's cache scope.
//
// Create records through GetRecord or the Object read helpers, never by
// struct literal, so registered per-model makers can specialize them.
type Record struct {
	obj   *Object
	id    int64
	cache *Cache
	scope *ModelScope

	// relation proxies resolved so far, by field name. Separate from the
	// shared field cache: proxy identity is per parent record.
	rel map[string]interface{}

	// bound remote methods resolved so far.
	methods map[string]BoundMethod

	fieldHook FieldHook
}

// BoundMethod is a remote model method bound to a fixed id set and the
// owning scope's call context.
type BoundMethod func(ctx context.Context, args ...interface{}) (interface{}, error)

// FieldHook post-processes resolved field values. Registered record
// makers may install one to specialize behavior per model.
type FieldHook func(ctx context.Context, r *Record, ftype, name string, value interface{}) (interface{}, error)

// SetFieldHook installs a field post-processing hook. Intended for use by
// registered record makers.
func (r *Record) SetFieldHook(h FieldHook) {
	r.fieldHook = h
}

// ID returns the record id. Always local, never a remote call.
func (r *Record) ID() int64 {
	return r.id
}

func (r *Record) Key() RecordKey {
	return RecordKey{Model: r.obj.name, ID: r.id}
}

func (r *Record) Object() *Object {
	return r.obj
}

func (r *Record) Cache() *Cache {
	return r.cache
}

// Context returns the call context of this record's cache scope.
func (r *Record) Context() CallContext {
	return r.scope.Context()
}

// Data returns a copy of the raw cached row.
func (r *Record) Data() Row {
	return r.scope.Data(r.id)
}

// Equal reports whether o identifies the same (model, id) pair.
func (r *Record) Equal(o *Record) bool {
	if o == nil {
		return false
	}
	return r.obj.name == o.obj.name && r.id == o.id
}

// Is compares the record against a bare id without any remote call.
func (r *Record) Is(id int64) bool {
	return r.id == id
}

func (r *Record) String() string {
	return fmt.Sprintf("R(%s, %d)", r.obj.name, r.id)
}

// Get returns the value of a data field, fetching it if needed. The fetch
// covers every id registered in the scope that lacks the field, not just
// this record. Relational fields resolve to *Record / *RecordList proxies
// sharing this record's cache; an absent many2one resolves to nil.
//
// A name missing from the model metadata yields *UnknownFieldError.
func (r *Record) Get(ctx context.Context, name string) (interface{}, error) {
	if name == "id" {
		return r.id, nil
	}

	fields, err := r.obj.Fields(ctx)
	if err != nil {
		return nil, err
	}
	fi, ok := fields[name]
	if !ok {
		return nil, &UnknownFieldError{Model: r.obj.name, Field: name}
	}

	return r.getField(ctx, fi, name, true)
}

func (r *Record) getField(ctx context.Context, fi *FieldInfo, name string, cached bool) (interface{}, error) {
	raw, err := r.scope.FetchField(ctx, r.id, fi.Type, name)
	if err != nil {
		return nil, err
	}

	var v interface{} = raw
	switch fi.Type {
	case TypeMany2One:
		rec, err := r.many2one(ctx, name, fi, raw, cached)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			v = nil
		} else {
			v = rec
		}
	case TypeOne2Many, TypeMany2Many:
		list, err := r.toMany(ctx, name, fi, raw, cached)
		if err != nil {
			return nil, err
		}
		v = list
	}

	if r.fieldHook != nil {
		return r.fieldHook(ctx, r, fi.Type, name, v)
	}
	return v, nil
}

// Member resolves a name the way attribute access does in dynamic
// clients: data field first, bound remote method otherwise. The returned
// value is either the field value or a BoundMethod.
func (r *Record) Member(ctx context.Context, name string) (interface{}, error) {
	if name == "id" {
		return r.id, nil
	}
	fields, err := r.obj.Fields(ctx)
	if err != nil {
		return nil, err
	}
	if fi, ok := fields[name]; ok {
		return r.getField(ctx, fi, name, true)
	}
	return r.Method(name), nil
}

// Method returns the remote method of the owning model bound to [id] and
// this record's call context. Bindings are memoized until Refresh.
func (r *Record) Method(name string) BoundMethod {
	if m, ok := r.methods[name]; ok {
		return m
	}
	m := func(ctx context.Context, args ...interface{}) (interface{}, error) {
		callArgs := append([]interface{}{[]int64{r.id}}, args...)
		kwargs := map[string]interface{}{}
		if cc := r.Context(); len(cc) != 0 {
			kwargs["context"] = cc
		}
		return r.obj.Client().Call(ctx, r.obj.name, name, callArgs, kwargs)
	}
	if r.methods == nil {
		r.methods = make(map[string]BoundMethod)
	}
	r.methods[name] = m
	return m
}

// Read re-reads data from the server and merges it into the cache. With
// multi set, the read extends to every id registered in this record's
// scope. The returned row is this record's; cc is combined with the
// scope context for this call only.
func (r *Record) Read(ctx context.Context, fields []string, cc CallContext, multi bool) (Row, error) {
	ids := []int64{r.id}
	if multi {
		ids = r.scope.IDs()
	}

	rows, err := r.obj.Client().Read(ctx, r.obj.name, ids, fields, r.Context().Merge(cc))
	if err != nil {
		return nil, err
	}

	var res Row
	for _, row := range rows {
		r.scope.MergeRow(row)
		if row.ID() == r.id {
			res = row
		}
	}
	if res == nil {
		return nil, &NoSuchRecordError{Model: r.obj.name, ID: r.id}
	}
	return res, nil
}

// DisplayName returns the server-side display name of the record,
// batching name_get over every id registered in the scope.
func (r *Record) DisplayName(ctx context.Context) (string, error) {
	if v, ok := r.scope.Value(r.id, displayNameKey); ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}

	pairs, err := r.obj.Client().NameGet(ctx, r.obj.name, r.scope.IDs(), r.Context())
	if err != nil {
		return "", err
	}
	for _, p := range pairs {
		r.scope.CacheField(p.ID, "char", displayNameKey, p.Name)
	}

	v, ok := r.scope.Value(r.id, displayNameKey)
	if !ok {
		return "", &NoSuchRecordError{Model: r.obj.name, ID: r.id}
	}
	return v.(string), nil
}

// Refresh drops this record's cached field data, relation proxies and
// method bindings, recursing into resolved relations. The next access
// re-fetches. Returns the record for chaining.
func (r *Record) Refresh() *Record {
	r.scope.Invalidate(r.id)
	r.methods = nil

	rel := r.rel
	r.rel = nil
	for _, v := range rel {
		switch t := v.(type) {
		case *Record:
			if t != nil {
				t.Refresh()
			}
		case *RecordList:
			t.Refresh()
		}
	}
	return r
}
