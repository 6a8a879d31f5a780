package localcache

import (
	"context"
	"sync"
	"time"

	orm "go.openobject.io/orm"
	"go.openobject.io/orm/rpcmiddleware/storagecache"
)

var _ storagecache.Storage = &cacheHandler{}
var _ orm.Middleware = &cacheHandler{}

const defaultExpiration = 3 * time.Minute

func New(opts ...CacheOption) CacheHandler {
	ch := &cacheHandler{
		cache:  make(map[orm.RecordKey]cacheItem),
		stOpts: &storagecache.Options{},
	}

	for _, opt := range opts {
		opt.Apply(ch)
	}

	s := storagecache.New(ch, ch.stOpts)
	ch.Middleware = s

	if ch.expireDuration == 0 {
		ch.expireDuration = defaultExpiration
	}
	if ch.logf == nil {
		ch.logf = func(ctx context.Context, format string, args ...interface{}) {}
	}

	return ch
}

type CacheHandler interface {
	orm.Middleware
	storagecache.Storage

	HasCache(key orm.RecordKey) bool
	DeleteCache(ctx context.Context, key orm.RecordKey)
	CacheKeys() []orm.RecordKey
	CacheLen() int
	FlushLocalCache()
}

type cacheHandler struct {
	orm.Middleware
	stOpts *storagecache.Options

	cache          map[orm.RecordKey]cacheItem
	m              sync.Mutex
	expireDuration time.Duration
	logf           func(ctx context.Context, format string, args ...interface{})
}

type CacheOption interface {
	Apply(*cacheHandler)
}

type cacheItem struct {
	Key        orm.RecordKey
	Row        orm.Row
	setAt      time.Time
	expiration time.Duration
}

func (ch *cacheHandler) HasCache(key orm.RecordKey) bool {
	ch.m.Lock()
	defer ch.m.Unlock()
	_, ok := ch.cache[key]
	return ok
}

func (ch *cacheHandler) DeleteCache(ctx context.Context, key orm.RecordKey) {
	ch.m.Lock()
	defer ch.m.Unlock()
	ch.logf(ctx, "middleware/localcache.DeleteCache: key=%s", key.String())
	delete(ch.cache, key)
}

func (ch *cacheHandler) CacheKeys() []orm.RecordKey {
	ch.m.Lock()
	defer ch.m.Unlock()
	list := make([]orm.RecordKey, 0, len(ch.cache))
	for key := range ch.cache {
		list = append(list, key)
	}

	return list
}

func (ch *cacheHandler) CacheLen() int {
	ch.m.Lock()
	defer ch.m.Unlock()
	return len(ch.cache)
}

func (ch *cacheHandler) FlushLocalCache() {
	ch.m.Lock()
	defer ch.m.Unlock()
	ch.cache = make(map[orm.RecordKey]cacheItem)
}

func (ch *cacheHandler) SetMulti(ctx context.Context, cis []*storagecache.CacheItem) error {
	ch.m.Lock()
	defer ch.m.Unlock()

	ch.logf(ctx, "middleware/localcache.SetMulti: len=%d", len(cis))
	for idx, ci := range cis {
		ch.logf(ctx, "middleware/localcache.SetMulti: idx=%d key=%s len(row)=%d", idx, ci.Key.String(), len(ci.Row))
	}

	now := time.Now()
	for _, ci := range cis {
		ch.cache[ci.Key] = cacheItem{
			Key:        ci.Key,
			Row:        ci.Row.Clone(),
			setAt:      now,
			expiration: ch.expireDuration,
		}
	}

	return nil
}

func (ch *cacheHandler) GetMulti(ctx context.Context, keys []orm.RecordKey) ([]*storagecache.CacheItem, error) {
	ch.m.Lock()
	defer ch.m.Unlock()

	now := time.Now()

	ch.logf(ctx, "middleware/localcache.GetMulti: len=%d", len(keys))
	for idx, key := range keys {
		ch.logf(ctx, "middleware/localcache.GetMulti: idx=%d key=%s", idx, key.String())
	}

	resultList := make([]*storagecache.CacheItem, len(keys))
	for idx, key := range keys {
		cItem, ok := ch.cache[key]
		if !ok {
			ch.logf(ctx, "middleware/localcache.GetMulti: idx=%d, missed key=%s", idx, key.String())
			continue
		}

		if cItem.setAt.Add(cItem.expiration).After(now) {
			ch.logf(ctx, "middleware/localcache.GetMulti: idx=%d, hit key=%s len(row)=%d", idx, key.String(), len(cItem.Row))
			resultList[idx] = &storagecache.CacheItem{
				Key: key,
				Row: cItem.Row.Clone(),
			}
		} else {
			ch.logf(ctx, "middleware/localcache.GetMulti: idx=%d, expired key=%s", idx, key.String())
			delete(ch.cache, key)
		}
	}

	return resultList, nil
}

func (ch *cacheHandler) DeleteMulti(ctx context.Context, keys []orm.RecordKey) error {
	ch.m.Lock()
	defer ch.m.Unlock()

	ch.logf(ctx, "middleware/localcache.DeleteMulti: len=%d", len(keys))
	for idx, key := range keys {
		ch.logf(ctx, "middleware/localcache.DeleteMulti: idx=%d key=%s", idx, key.String())
	}

	for _, key := range keys {
		delete(ch.cache, key)
	}

	return nil
}
