package orm

import (
	"context"
	"fmt"
	"sync"
)

// Record and RecordList construction goes through maker registries so
// that extensions can specialize behavior per model without touching the
// core: a registered maker may build on DefaultRecordMaker and install
// hooks on the result.

type RecordMaker func(obj *Object, id int64, cache *Cache) *Record

type RecordListMaker func(obj *Object, ids []int64, cache *Cache) (*RecordList, error)

var (
	makersMu     sync.RWMutex
	recordMakers = make(map[string]RecordMaker)
	listMakers   = make(map[string]RecordListMaker)
)

// RegisterRecordMaker installs a construction override for one model
// name. Later registrations replace earlier ones.
func RegisterRecordMaker(model string, m RecordMaker) {
	makersMu.Lock()
	defer makersMu.Unlock()
	recordMakers[model] = m
}

// RegisterRecordListMaker installs a list construction override for one
// model name.
func RegisterRecordListMaker(model string, m RecordListMaker) {
	makersMu.Lock()
	defer makersMu.Unlock()
	listMakers[model] = m
}

// DefaultRecordMaker builds a plain record proxy. Registered makers
// usually call it and adjust the result.
func DefaultRecordMaker(obj *Object, id int64, cache *Cache) *Record {
	return &Record{
		obj:   obj,
		id:    id,
		cache: cache,
		scope: cache.Scope(obj.name),
	}
}

// DefaultRecordListMaker builds a plain record list over ids.
func DefaultRecordListMaker(obj *Object, ids []int64, cache *Cache) (*RecordList, error) {
	list := &RecordList{
		obj:     obj,
		cache:   cache,
		scope:   cache.Scope(obj.name),
		records: make([]*Record, 0, len(ids)),
	}
	for _, id := range ids {
		rec, err := GetRecord(obj, id, cache, nil)
		if err != nil {
			return nil, err
		}
		list.records = append(list.records, rec)
	}
	return list, nil
}

// GetRecord creates a record proxy for (obj, id). A nil cache means a
// fresh one; cc, when given, is merged into the scope's context.
// Construction registers the id in the scope and touches nothing remote.
func GetRecord(obj *Object, id int64, cache *Cache, cc CallContext) (*Record, error) {
	if obj == nil {
		return nil, fmt.Errorf("orm: GetRecord requires an Object")
	}
	if id <= 0 {
		return nil, fmt.Errorf("orm: GetRecord requires a positive id, got %d", id)
	}
	if cache == nil {
		cache = NewCache(obj.Client())
	}

	rec := recordMakerFor(obj.name)(obj, id, cache)
	rec.scope.RegisterIDs(id)
	if cc != nil {
		rec.scope.UpdateContext(cc)
	}
	return rec, nil
}

// GetRecordList creates a record list over ids. A nil cache means a
// fresh one. All ids are registered in the scope up front, so a later
// field access batches its fetch across the whole list. When fields are
// given they are prefetched immediately; this is the only construction
// path that goes remote.
func GetRecordList(ctx context.Context, obj *Object, ids []int64, fields []string, cache *Cache, cc CallContext) (*RecordList, error) {
	if obj == nil {
		return nil, fmt.Errorf("orm: GetRecordList requires an Object")
	}
	if cache == nil {
		cache = NewCache(obj.Client())
	}

	scope := cache.Scope(obj.name)
	if cc != nil {
		scope.UpdateContext(cc)
	}
	scope.RegisterIDs(ids...)

	list, err := listMakerFor(obj.name)(obj, ids, cache)
	if err != nil {
		return nil, err
	}

	if len(fields) != 0 {
		if _, err := list.Prefetch(ctx, fields...); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func recordMakerFor(model string) RecordMaker {
	makersMu.RLock()
	defer makersMu.RUnlock()
	if m, ok := recordMakers[model]; ok {
		return m
	}
	return DefaultRecordMaker
}

func listMakerFor(model string) RecordListMaker {
	makersMu.RLock()
	defer makersMu.RUnlock()
	if m, ok := listMakers[model]; ok {
		return m
	}
	return DefaultRecordListMaker
}
