package rpcretry

import (
	"context"
	"math"
	"time"

	orm "go.openobject.io/orm"
)

var _ orm.Middleware = &retryHandler{}

// New returns a middleware that retries idempotent read operations with
// exponential backoff. Write, Unlink and Call are never retried.
func New(opts ...RetryOption) orm.Middleware {
	rh := &retryHandler{
		retryLimit:         3,
		minBackoffDuration: 100 * time.Millisecond,
		logf:               func(ctx context.Context, format string, args ...interface{}) {},
	}

	for _, opt := range opts {
		opt.Apply(rh)
	}

	return rh
}

type retryHandler struct {
	retryLimit         int
	minBackoffDuration time.Duration
	maxBackoffDuration time.Duration
	maxDoublings       int
	logf               func(ctx context.Context, format string, args ...interface{})
}

type RetryOption interface {
	Apply(*retryHandler)
}

func (rh *retryHandler) waitDuration(retry int) time.Duration {
	d := 10 * time.Millisecond
	if 0 <= rh.minBackoffDuration {
		d = rh.minBackoffDuration
	}

	m := retry
	if 0 < rh.maxDoublings && rh.maxDoublings < m {
		m = rh.maxDoublings
	}
	if m <= 0 {
		m = 1
	}

	wait := math.Pow(2, float64(m-1)) * float64(d)

	if 0 < rh.maxBackoffDuration {
		wait = math.Min(wait, float64(rh.maxBackoffDuration))
	}

	return time.Duration(wait)
}

func retryable(err error) bool {
	if serr, ok := err.(*orm.ServerError); ok {
		// 4xx class responses won't change on a replay
		return serr.Code >= 500
	}
	return true
}

func (rh *retryHandler) try(ctx context.Context, logPrefix string, f func() error) {
	try := 1
	for {
		err := f()
		if err == nil {
			return
		} else if !retryable(err) {
			return
		}
		if rh.retryLimit <= try {
			return
		}
		d := rh.waitDuration(try)
		rh.logf(ctx, "%s: err=%s, will be retry #%d after %s", logPrefix, err.Error(), try, d.String())
		time.Sleep(d)
		try++
	}
}

func (rh *retryHandler) Search(info *orm.MiddlewareInfo, model string, domain orm.Domain, q *orm.SearchQuery) (retIDs []int64, retErr error) {
	next := info.Next
	rh.try(info.Context, "middleware/rpcretry.Search", func() error {
		retIDs, retErr = next.Search(info, model, domain, q)
		return retErr
	})
	return
}

func (rh *retryHandler) SearchCount(info *orm.MiddlewareInfo, model string, domain orm.Domain) (retCnt int, retErr error) {
	next := info.Next
	rh.try(info.Context, "middleware/rpcretry.SearchCount", func() error {
		retCnt, retErr = next.SearchCount(info, model, domain)
		return retErr
	})
	return
}

func (rh *retryHandler) Read(info *orm.MiddlewareInfo, model string, ids []int64, fields []string) (retRows []orm.Row, retErr error) {
	next := info.Next
	rh.try(info.Context, "middleware/rpcretry.Read", func() error {
		retRows, retErr = next.Read(info, model, ids, fields)
		return retErr
	})
	return
}

func (rh *retryHandler) Write(info *orm.MiddlewareInfo, model string, ids []int64, values orm.Row) (bool, error) {
	// Write is not idempotent
	return info.Next.Write(info, model, ids, values)
}

func (rh *retryHandler) Unlink(info *orm.MiddlewareInfo, model string, ids []int64) (bool, error) {
	// Unlink is not idempotent
	return info.Next.Unlink(info, model, ids)
}

func (rh *retryHandler) NameGet(info *orm.MiddlewareInfo, model string, ids []int64) (retPairs []orm.NamePair, retErr error) {
	next := info.Next
	rh.try(info.Context, "middleware/rpcretry.NameGet", func() error {
		retPairs, retErr = next.NameGet(info, model, ids)
		return retErr
	})
	return
}

func (rh *retryHandler) Exists(info *orm.MiddlewareInfo, model string, ids []int64) (retIDs []int64, retErr error) {
	next := info.Next
	rh.try(info.Context, "middleware/rpcretry.Exists", func() error {
		retIDs, retErr = next.Exists(info, model, ids)
		return retErr
	})
	return
}

func (rh *retryHandler) FieldsGet(info *orm.MiddlewareInfo, model string) (retFields orm.FieldMap, retErr error) {
	next := info.Next
	rh.try(info.Context, "middleware/rpcretry.FieldsGet", func() error {
		retFields, retErr = next.FieldsGet(info, model)
		return retErr
	})
	return
}

func (rh *retryHandler) Call(info *orm.MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	// an arbitrary remote method may have side effects
	return info.Next.Call(info, model, method, args, kwargs)
}
