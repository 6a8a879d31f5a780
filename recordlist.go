package orm

import (
	"context"
	"fmt"
	"sort"
)

// RecordList is an ordered, mutable collection of records of one model
// sharing one Cache. Order reflects fetch/search order and survives
// slicing; duplicate ids are permitted unless removed via Existing.
//
// Create lists through GetRecordList or the Object search/read helpers.
type RecordList struct {
	obj     *Object
	cache   *Cache
	scope   *ModelScope
	records []*Record
}

func (l *RecordList) Object() *Object {
	return l.obj
}

func (l *RecordList) Cache() *Cache {
	return l.cache
}

// Context returns the call context of the list's cache scope.
func (l *RecordList) Context() CallContext {
	return l.scope.Context()
}

func (l *RecordList) Len() int {
	return len(l.records)
}

// Record returns the element at index i.
func (l *RecordList) Record(i int) *Record {
	return l.records[i]
}

// Records returns the backing slice. Callers must not reorder it behind
// the list's back; use Sort.
func (l *RecordList) Records() []*Record {
	return l.records
}

// IDs returns the record ids in list order, duplicates included.
func (l *RecordList) IDs() []int64 {
	ids := make([]int64, len(l.records))
	for i, r := range l.records {
		ids[i] = r.id
	}
	return ids
}

// Slice returns a new list over records[i:j], relative order preserved,
// sharing the same cache. The scope context carries over because it
// lives in the shared scope, not on the list.
func (l *RecordList) Slice(i, j int) *RecordList {
	sub := l.records[i:j]
	records := make([]*Record, len(sub))
	copy(records, sub)
	return &RecordList{obj: l.obj, cache: l.cache, scope: l.scope, records: records}
}

// Insert places an item at index i. The item is a *Record, or a bare id
// (int or int64) which is coerced into a record proxy sharing the list's
// cache; the coercion is lazy, no read happens until a field is touched.
func (l *RecordList) Insert(i int, item interface{}) error {
	var rec *Record
	switch t := item.(type) {
	case *Record:
		rec = t
	case int64, int:
		id, _ := Int64(t)
		var err error
		rec, err = GetRecord(l.obj, id, l.cache, nil)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("orm: only *Record or an integer id can be inserted, got %T", item)
	}

	l.records = append(l.records, nil)
	copy(l.records[i+1:], l.records[i:])
	l.records[i] = rec
	return nil
}

// Set replaces the element at index i.
func (l *RecordList) Set(i int, rec *Record) {
	l.records[i] = rec
}

// Delete removes the element at index i.
func (l *RecordList) Delete(i int) {
	l.records = append(l.records[:i], l.records[i+1:]...)
}

// Contains reports membership: bare ids are checked against the id
// sequence, records by (model, id) equality.
func (l *RecordList) Contains(item interface{}) bool {
	switch t := item.(type) {
	case int64, int:
		id, _ := Int64(t)
		for _, r := range l.records {
			if r.id == id {
				return true
			}
		}
	case *Record:
		for _, r := range l.records {
			if r.Equal(t) {
				return true
			}
		}
	}
	return false
}

// Sort reorders the list in place.
func (l *RecordList) Sort(less func(a, b *Record) bool) {
	sort.SliceStable(l.records, func(i, j int) bool {
		return less(l.records[i], l.records[j])
	})
}

// Prefetch fetches the given fields (default: all simple fields of the
// model) for every record in the scope that lacks them, in one batched
// read. Returns the list for chaining.
func (l *RecordList) Prefetch(ctx context.Context, fields ...string) (*RecordList, error) {
	if len(fields) == 0 {
		var err error
		fields, err = l.obj.SimpleFields(ctx)
		if err != nil {
			return nil, err
		}
	}
	if err := l.scope.PrefetchFields(ctx, fields...); err != nil {
		return nil, err
	}
	return l, nil
}

// Search runs a remote search restricted to this list's ids. The list's
// context is combined with any option-supplied context for this call
// only.
func (l *RecordList) Search(ctx context.Context, domain Domain, opts ...SearchOption) ([]int64, error) {
	s := applySearchOptions(opts)
	return l.obj.Client().Search(ctx, l.obj.name, domain.WithIDs(l.IDs()), &s.query, l.Context().Merge(s.callCtx))
}

// SearchCount counts matches of domain restricted to this list's ids.
func (l *RecordList) SearchCount(ctx context.Context, domain Domain, opts ...SearchOption) (int, error) {
	s := applySearchOptions(opts)
	return l.obj.Client().SearchCount(ctx, l.obj.name, domain.WithIDs(l.IDs()), l.Context().Merge(s.callCtx))
}

// SearchRecords is Search returning the matches as a new list sharing
// this list's cache.
func (l *RecordList) SearchRecords(ctx context.Context, domain Domain, opts ...SearchOption) (*RecordList, error) {
	ids, err := l.Search(ctx, domain, opts...)
	if err != nil {
		return nil, err
	}
	return GetRecordList(ctx, l.obj, ids, nil, l.cache, nil)
}

// Existing returns a new list restricted to ids that still exist on the
// server, first-seen order preserved. With uniqify set, duplicates are
// dropped as well.
func (l *RecordList) Existing(ctx context.Context, uniqify bool) (*RecordList, error) {
	existing, err := l.obj.Client().Exists(ctx, l.obj.name, l.IDs())
	if err != nil {
		return nil, err
	}
	alive := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		alive[id] = struct{}{}
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, id := range l.IDs() {
		if _, ok := alive[id]; !ok {
			continue
		}
		if uniqify {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
		}
		ids = append(ids, id)
	}
	return GetRecordList(ctx, l.obj, ids, nil, l.cache, nil)
}

// Copy returns a new list over the same ids. With newCache set the copy
// gets a fresh cache that shares nothing with the source; otherwise
// edits stay visible both ways through the shared cache.
func (l *RecordList) Copy(ctx context.Context, cc CallContext, newCache bool) (*RecordList, error) {
	cache := l.cache
	if newCache {
		cache = NewCache(l.cache.Client())
	}
	return GetRecordList(ctx, l.obj, l.IDs(), nil, cache, cc)
}

// Read reads fields for every id in the list, combining the list context
// with cc for this call only. Results pass through to the caller without
// touching the cache.
func (l *RecordList) Read(ctx context.Context, fields []string, cc CallContext) ([]Row, error) {
	return l.obj.Client().Read(ctx, l.obj.name, l.IDs(), fields, l.Context().Merge(cc))
}

// Write writes values to every record in the list.
func (l *RecordList) Write(ctx context.Context, values Row, cc CallContext) (bool, error) {
	return l.obj.Client().Write(ctx, l.obj.name, l.IDs(), values, l.Context().Merge(cc))
}

// Unlink deletes every record in the list on the server. Cached data is
// untouched; use Refresh or Existing to notice the gap.
func (l *RecordList) Unlink(ctx context.Context, cc CallContext) (bool, error) {
	return l.obj.Client().Unlink(ctx, l.obj.name, l.IDs(), l.Context().Merge(cc))
}

// Method returns a remote method of the owning model bound to this
// list's ids and context. It is the batched counterpart of
// Record.Method.
func (l *RecordList) Method(name string) BoundMethod {
	return func(ctx context.Context, args ...interface{}) (interface{}, error) {
		callArgs := append([]interface{}{l.IDs()}, args...)
		kwargs := map[string]interface{}{}
		if cc := l.Context(); len(cc) != 0 {
			kwargs["context"] = cc
		}
		return l.obj.Client().Call(ctx, l.obj.name, name, callArgs, kwargs)
	}
}

// Call invokes a remote method over this list's ids.
func (l *RecordList) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	return l.Method(method)(ctx, args...)
}

// Refresh drops cached data of every record in the list. Returns the
// list for chaining.
func (l *RecordList) Refresh() *RecordList {
	for _, r := range l.records {
		r.Refresh()
	}
	return l
}

func (l *RecordList) String() string {
	return fmt.Sprintf("RecordList(%s): length=%d", l.obj.name, len(l.records))
}
