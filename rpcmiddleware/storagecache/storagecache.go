package storagecache

import (
	"context"

	orm "go.openobject.io/orm"
)

var _ orm.Middleware = &cacheHandler{}

func New(s Storage, opts *Options) orm.Middleware {
	ch := &cacheHandler{
		s: s,
	}
	if opts != nil {
		ch.logf = opts.Logf
		ch.filters = opts.Filters
	}

	if ch.logf == nil {
		ch.logf = func(ctx context.Context, format string, args ...interface{}) {}
	}

	return ch
}

type Options struct {
	Logf    func(ctx context.Context, format string, args ...interface{})
	Filters []KeyFilter
}

type Storage interface {
	SetMulti(ctx context.Context, is []*CacheItem) error
	// GetMulti returns a slice of CacheItem of the same length as keys.
	// If a key is not in the storage, the corresponding element is nil.
	GetMulti(ctx context.Context, keys []orm.RecordKey) ([]*CacheItem, error)
	DeleteMulti(ctx context.Context, keys []orm.RecordKey) error
}

type KeyFilter func(ctx context.Context, key orm.RecordKey) bool

type CacheItem struct {
	Key orm.RecordKey
	Row orm.Row
}

type cacheHandler struct {
	s       Storage
	logf    func(ctx context.Context, format string, args ...interface{})
	filters []KeyFilter
}

func (ch *cacheHandler) target(ctx context.Context, key orm.RecordKey) bool {
	for _, f := range ch.filters {
		// If false comes back even once, it is not cached
		if !f(ctx, key) {
			return false
		}
	}

	return true
}

func hasFields(row orm.Row, fields []string) bool {
	for _, f := range fields {
		if _, ok := row[f]; !ok {
			return false
		}
	}
	return true
}

func (ch *cacheHandler) Search(info *orm.MiddlewareInfo, model string, domain orm.Domain, q *orm.SearchQuery) ([]int64, error) {
	return info.Next.Search(info, model, domain, q)
}

func (ch *cacheHandler) SearchCount(info *orm.MiddlewareInfo, model string, domain orm.Domain) (int, error) {
	return info.Next.SearchCount(info, model, domain)
}

func (ch *cacheHandler) Read(info *orm.MiddlewareInfo, model string, ids []int64, fields []string) ([]orm.Row, error) {
	// strategy summary
	//   When the storage has a row covering all requested fields, don't fetch it.
	//   When it doesn't, pass the remainder to the next strategy and store what comes back.

	// rows read under a call context can differ per context, those are
	// never cached
	if len(info.CallContext) != 0 || len(fields) == 0 {
		return info.Next.Read(info, model, ids, fields)
	}

	byID := make(map[int64]orm.Row, len(ids))

	filteredKeys := make([]orm.RecordKey, 0, len(ids))
	for _, id := range ids {
		key := orm.RecordKey{Model: model, ID: id}
		if ch.target(info.Context, key) {
			filteredKeys = append(filteredKeys, key)
		}
	}

	cached := make(map[int64]orm.Row)
	if len(filteredKeys) != 0 {
		cis, err := ch.s.GetMulti(info.Context, filteredKeys)
		if err != nil {
			ch.logf(info.Context, "middleware/storagecache.Read: error on storage.GetMulti err=%s", err.Error())

			return info.Next.Read(info, model, ids, fields)
		}

		for idx, ci := range cis {
			if ci == nil {
				continue
			}
			cached[filteredKeys[idx].ID] = ci.Row
			if hasFields(ci.Row, fields) {
				byID[filteredKeys[idx].ID] = ci.Row
			}
		}
	}

	missingIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missingIDs = append(missingIDs, id)
		}
	}

	if len(missingIDs) != 0 {
		rows, err := info.Next.Read(info, model, missingIDs, fields)
		if err != nil {
			return nil, err
		}

		cis := make([]*CacheItem, 0, len(rows))
		for _, row := range rows {
			id := row.ID()
			byID[id] = row

			key := orm.RecordKey{Model: model, ID: id}
			if !ch.target(info.Context, key) {
				continue
			}
			// widen the stored row instead of replacing it, so fields
			// cached by earlier reads survive
			stored := cached[id]
			if stored == nil {
				stored = orm.Row{}
			}
			for k, v := range row {
				stored[k] = v
			}
			cis = append(cis, &CacheItem{Key: key, Row: stored})
		}
		if len(cis) != 0 {
			if err := ch.s.SetMulti(info.Context, cis); err != nil {
				ch.logf(info.Context, "middleware/storagecache.Read: error on storage.SetMulti err=%s", err.Error())
			}
		}
	}

	result := make([]orm.Row, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			// dead ids stay omitted, same as the raw operation
			continue
		}
		out := orm.Row{"id": id}
		for _, f := range fields {
			out[f] = row[f]
		}
		result = append(result, out)
	}
	return result, nil
}

func (ch *cacheHandler) Write(info *orm.MiddlewareInfo, model string, ids []int64, values orm.Row) (bool, error) {
	ok, err := info.Next.Write(info, model, ids, values)
	if err != nil {
		return ok, err
	}

	ch.invalidate(info, model, ids, "Write")
	return ok, nil
}

func (ch *cacheHandler) Unlink(info *orm.MiddlewareInfo, model string, ids []int64) (bool, error) {
	ok, err := info.Next.Unlink(info, model, ids)
	if err != nil {
		return ok, err
	}

	ch.invalidate(info, model, ids, "Unlink")
	return ok, nil
}

func (ch *cacheHandler) invalidate(info *orm.MiddlewareInfo, model string, ids []int64, op string) {
	keys := make([]orm.RecordKey, 0, len(ids))
	for _, id := range ids {
		key := orm.RecordKey{Model: model, ID: id}
		if ch.target(info.Context, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := ch.s.DeleteMulti(info.Context, keys); err != nil {
		ch.logf(info.Context, "middleware/storagecache.%s: error on storage.DeleteMulti err=%s", op, err.Error())
	}
}

func (ch *cacheHandler) NameGet(info *orm.MiddlewareInfo, model string, ids []int64) ([]orm.NamePair, error) {
	return info.Next.NameGet(info, model, ids)
}

func (ch *cacheHandler) Exists(info *orm.MiddlewareInfo, model string, ids []int64) ([]int64, error) {
	return info.Next.Exists(info, model, ids)
}

func (ch *cacheHandler) FieldsGet(info *orm.MiddlewareInfo, model string) (orm.FieldMap, error) {
	return info.Next.FieldsGet(info, model)
}

func (ch *cacheHandler) Call(info *orm.MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	// an arbitrary method can touch anything; reads stay correct because
	// Write and Unlink invalidate explicitly, but a method that mutates
	// rows server side should be followed by a Refresh anyway
	return info.Next.Call(info, model, method, args, kwargs)
}
