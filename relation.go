package orm

import (
	"context"
	"fmt"
)

// Relation traversal. Raw relational values (a bare id, an (id, label)
// pair, or an id list) resolve into Record / RecordList proxies backed
// by the same Cache as the parent, so traversing order_id.partner_id on
// many records still batches into one read per model and field.
//
// Resolution is memoized per parent record, not in the shared cache:
// resolved proxy identity (and its own relation memos) belongs to the
// parent, while the underlying field data stays shared.

// Related resolves a many2one field into a record proxy sharing this
// record's cache and context. An absent relation yields nil, not an
// error.
func (r *Record) Related(ctx context.Context, name string) (*Record, error) {
	fi, err := r.relationField(ctx, name, TypeMany2One)
	if err != nil {
		return nil, err
	}
	raw, err := r.scope.FetchField(ctx, r.id, fi.Type, name)
	if err != nil {
		return nil, err
	}
	return r.many2one(ctx, name, fi, raw, true)
}

// RelatedList resolves a one2many or many2many field into a record list
// sharing this record's cache and context.
func (r *Record) RelatedList(ctx context.Context, name string) (*RecordList, error) {
	fi, err := r.relationField(ctx, name, TypeOne2Many, TypeMany2Many)
	if err != nil {
		return nil, err
	}
	raw, err := r.scope.FetchField(ctx, r.id, fi.Type, name)
	if err != nil {
		return nil, err
	}
	return r.toMany(ctx, name, fi, raw, true)
}

// Resolve re-runs relation resolution for name. With cached set it
// returns the memoized proxy; without, it builds a fresh proxy (still
// sharing the underlying field cache unless Refresh was also called).
func (r *Record) Resolve(ctx context.Context, name string, cached bool) (interface{}, error) {
	fields, err := r.obj.Fields(ctx)
	if err != nil {
		return nil, err
	}
	fi, ok := fields[name]
	if !ok {
		return nil, &UnknownFieldError{Model: r.obj.name, Field: name}
	}
	return r.getField(ctx, fi, name, cached)
}

func (r *Record) relationField(ctx context.Context, name string, types ...string) (*FieldInfo, error) {
	fields, err := r.obj.Fields(ctx)
	if err != nil {
		return nil, err
	}
	fi, ok := fields[name]
	if !ok {
		return nil, &UnknownFieldError{Model: r.obj.name, Field: name}
	}
	for _, t := range types {
		if fi.Type == t {
			return fi, nil
		}
	}
	return nil, fmt.Errorf("orm: field %q of %s is %s, not %s", name, r.obj.name, fi.Type, types[0])
}

func (r *Record) many2one(ctx context.Context, name string, fi *FieldInfo, raw interface{}, cached bool) (*Record, error) {
	if cached {
		if v, ok := r.rel[name]; ok {
			rec, _ := v.(*Record)
			return rec, nil
		}
	}

	rec, err := r.buildMany2One(fi, raw)
	if err != nil {
		return nil, err
	}
	r.memoRelation(name, rec)
	return rec, nil
}

func (r *Record) buildMany2One(fi *FieldInfo, raw interface{}) (*Record, error) {
	relID, ok := relationID(raw)
	if !ok {
		return nil, fmt.Errorf("orm: malformed many2one value %v for %s.%s", raw, r.obj.name, fi.Relation)
	}
	if relID == 0 {
		return nil, nil
	}
	relObj := r.obj.svc.Object(fi.Relation)
	return GetRecord(relObj, relID, r.cache, r.Context())
}

func (r *Record) toMany(ctx context.Context, name string, fi *FieldInfo, raw interface{}, cached bool) (*RecordList, error) {
	if cached {
		if v, ok := r.rel[name]; ok {
			if list, ok := v.(*RecordList); ok {
				return list, nil
			}
		}
	}

	ids, ok := Int64s(raw)
	if !ok {
		return nil, fmt.Errorf("orm: malformed %s value %v for %s.%s", fi.Type, raw, r.obj.name, name)
	}
	relObj := r.obj.svc.Object(fi.Relation)
	list, err := GetRecordList(ctx, relObj, ids, nil, r.cache, r.Context())
	if err != nil {
		return nil, err
	}
	r.memoRelation(name, list)
	return list, nil
}

func (r *Record) memoRelation(name string, v interface{}) {
	if r.rel == nil {
		r.rel = make(map[string]interface{})
	}
	r.rel[name] = v
}

// relationID extracts the id from a raw many2one value: a bare id, an
// (id, label) pair, or false/nil for "no relation" (reported as id 0).
func relationID(raw interface{}) (int64, bool) {
	switch t := raw.(type) {
	case nil:
		return 0, true
	case bool:
		if !t {
			return 0, true
		}
		return 0, false
	case []interface{}:
		if len(t) == 0 {
			return 0, false
		}
		return Int64(t[0])
	}
	return Int64(raw)
}
