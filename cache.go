package orm

import (
	"context"
	"sort"
)

// Cache maps model names to per-model scopes. Any number of Record and
// RecordList values may share one Cache; sharing it is how data fetched
// through one proxy becomes visible through every other.
//
// A Cache is not synchronized; see the package documentation.
type Cache struct {
	client Client
	scopes map[string]*ModelScope
}

// NewCache returns a fresh, empty cache over the given client.
func NewCache(client Client) *Cache {
	return &Cache{
		client: client,
		scopes: make(map[string]*ModelScope),
	}
}

func (c *Cache) Client() Client {
	return c.client
}

// Scope returns the per-model scope, creating an empty one on first
// access.
func (c *Cache) Scope(model string) *ModelScope {
	s, ok := c.scopes[model]
	if !ok {
		s = &ModelScope{
			model:  model,
			client: c.client,
			ids:    make(map[int64]struct{}),
			data:   make(map[int64]Row),
		}
		c.scopes[model] = s
	}
	return s
}

// ModelScope tracks, for one model, the ids known to a logical view, the
// partially fetched row data per id, and the call context applied to
// reads issued through the scope.
//
// Registered ids are a superset of ids with data: registering an id with
// no data is how a later batched fetch discovers the full population to
// read for.
type ModelScope struct {
	model   string
	client  Client
	ids     map[int64]struct{}
	data    map[int64]Row
	callCtx CallContext
}

func (s *ModelScope) Model() string {
	return s.model
}

// RegisterIDs adds ids to the known set without fetching anything.
func (s *ModelScope) RegisterIDs(ids ...int64) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// IDs returns every registered id, sorted so that batched reads are
// deterministic.
func (s *ModelScope) IDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IDsNeeding returns the registered ids that do not yet have field in
// their data. One read over this result populates the whole population,
// not just the record that triggered the miss.
func (s *ModelScope) IDsNeeding(field string) []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		if row, ok := s.data[id]; ok {
			if _, ok := row[field]; ok {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CacheField stores a raw value. The field type is carried by callers
// that post-process relational values; the scope does not interpret it.
func (s *ModelScope) CacheField(id int64, ftype, name string, value interface{}) {
	s.row(id)[name] = value
}

// Value reports the cached value of field for id, if any.
func (s *ModelScope) Value(id int64, field string) (interface{}, bool) {
	row, ok := s.data[id]
	if !ok {
		return nil, false
	}
	v, ok := row[field]
	return v, ok
}

// Data returns a copy of the cached row for id.
func (s *ModelScope) Data(id int64) Row {
	row, ok := s.data[id]
	if !ok {
		return Row{"id": id}
	}
	return row.Clone()
}

// UpdateContext merges delta into the scope's call context. The stored
// context is never replaced wholesale and never silently reset.
func (s *ModelScope) UpdateContext(delta CallContext) {
	if len(delta) == 0 {
		return
	}
	if s.callCtx == nil {
		s.callCtx = make(CallContext, len(delta))
	}
	for k, v := range delta {
		s.callCtx[k] = v
	}
}

// Context returns a copy of the scope's call context; mutation goes
// through UpdateContext only.
func (s *ModelScope) Context() CallContext {
	return s.callCtx.Clone()
}

// FetchField ensures field is cached for id, batching the fetch over
// every registered id that lacks it, and returns the raw value. The whole
// batch is applied before the triggering access returns.
func (s *ModelScope) FetchField(ctx context.Context, id int64, ftype, name string) (interface{}, error) {
	s.RegisterIDs(id)
	if v, ok := s.Value(id, name); ok {
		return v, nil
	}

	rows, err := s.client.Read(ctx, s.model, s.IDsNeeding(name), []string{name}, s.Context())
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.CacheField(row.ID(), ftype, name, row[name])
	}

	v, ok := s.Value(id, name)
	if !ok {
		return nil, &NoSuchRecordError{Model: s.model, ID: id}
	}
	return v, nil
}

// PrefetchFields fetches the given fields for every registered id that
// lacks any of them, in a single read. Results are distributed into the
// store only after the read succeeded as a whole.
func (s *ModelScope) PrefetchFields(ctx context.Context, fields ...string) error {
	seen := make(map[int64]struct{})
	var union []int64
	for _, f := range fields {
		for _, id := range s.IDsNeeding(f) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	if len(union) == 0 {
		return nil
	}
	sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })

	rows, err := s.client.Read(ctx, s.model, union, fields, s.Context())
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.MergeRow(row)
	}
	return nil
}

// MergeRow folds one read result row into the store.
func (s *ModelScope) MergeRow(row Row) {
	id := row.ID()
	dst := s.row(id)
	for k, v := range row {
		dst[k] = v
	}
}

// Invalidate drops the cached data of id, keeping the id registered.
func (s *ModelScope) Invalidate(id int64) {
	delete(s.data, id)
}

func (s *ModelScope) row(id int64) Row {
	row, ok := s.data[id]
	if !ok {
		row = Row{"id": id}
		s.data[id] = row
		s.ids[id] = struct{}{}
	}
	return row
}
