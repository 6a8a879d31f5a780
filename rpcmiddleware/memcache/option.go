package memcache

import (
	"context"
	"time"

	orm "go.openobject.io/orm"
	"go.openobject.io/orm/rpcmiddleware/storagecache"
)

func WithIncludeModels(models ...string) CacheOption {
	return &withIncludeModels{models}
}

type withIncludeModels struct{ models []string }

func (w *withIncludeModels) Apply(o *cacheHandler) {
	o.stOpts.Filters = append(o.stOpts.Filters, func(ctx context.Context, key orm.RecordKey) bool {
		for _, incModel := range w.models {
			if key.Model == incModel {
				return true
			}
		}

		return false
	})
}

func WithExcludeModels(models ...string) CacheOption {
	return &withExcludeModels{models}
}

type withExcludeModels struct{ models []string }

func (w *withExcludeModels) Apply(o *cacheHandler) {
	o.stOpts.Filters = append(o.stOpts.Filters, func(ctx context.Context, key orm.RecordKey) bool {
		for _, excModel := range w.models {
			if key.Model == excModel {
				return false
			}
		}

		return true
	})
}

func WithKeyFilter(f storagecache.KeyFilter) CacheOption {
	return &withKeyFilter{f}
}

type withKeyFilter struct{ f storagecache.KeyFilter }

func (w *withKeyFilter) Apply(o *cacheHandler) {
	o.stOpts.Filters = append(o.stOpts.Filters, func(ctx context.Context, key orm.RecordKey) bool {
		return w.f(ctx, key)
	})
}

func WithLogger(logf func(ctx context.Context, format string, args ...interface{})) CacheOption {
	return &withLogger{logf}
}

type withLogger struct {
	logf func(ctx context.Context, format string, args ...interface{})
}

func (w *withLogger) Apply(o *cacheHandler) {
	o.logf = w.logf
}

func WithExpireDuration(d time.Duration) CacheOption {
	return &withExpireDuration{d}
}

type withExpireDuration struct{ d time.Duration }

func (w *withExpireDuration) Apply(o *cacheHandler) {
	o.expireDuration = w.d
}

func WithCacheKey(f func(key orm.RecordKey) string) CacheOption {
	return &withCacheKey{f}
}

type withCacheKey struct {
	cacheKey func(key orm.RecordKey) string
}

func (w *withCacheKey) Apply(o *cacheHandler) {
	o.cacheKey = w.cacheKey
}
