package orm

import (
	"context"
)

// Connect is installed by transport packages (e.g. jsonrpc) on import.
var Connect ClientGenerator

type ClientGenerator func(ctx context.Context, opts ...ClientOption) (Client, error)

// Client is the remote object service boundary. Implementations live in
// transport packages; the cache/record layer only consumes this interface.
//
// Every operation takes the call context (locale, timezone and similar
// read parameters) explicitly; implementations pass it to the server
// unmodified. A failed call is returned unmodified, this layer never
// retries on its own.
type Client interface {
	Search(ctx context.Context, model string, domain Domain, q *SearchQuery, cc CallContext) ([]int64, error)
	SearchCount(ctx context.Context, model string, domain Domain, cc CallContext) (int, error)
	// Read returns exactly one row per requested id that still exists;
	// ids gone from the server are silently omitted.
	Read(ctx context.Context, model string, ids []int64, fields []string, cc CallContext) ([]Row, error)
	Write(ctx context.Context, model string, ids []int64, values Row, cc CallContext) (bool, error)
	Unlink(ctx context.Context, model string, ids []int64, cc CallContext) (bool, error)
	NameGet(ctx context.Context, model string, ids []int64, cc CallContext) ([]NamePair, error)
	Exists(ctx context.Context, model string, ids []int64) ([]int64, error)
	FieldsGet(ctx context.Context, model string) (FieldMap, error)

	// Call invokes an arbitrary remote method on a model. Record and
	// RecordList method forwarding is built on it.
	Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

	AppendMiddleware(mw Middleware) // NOTE First-In First-Apply
	RemoveMiddleware(mw Middleware) bool

	Close() error
}

// Middleware intercepts Client operations. Implementations must forward
// to info.Next for anything they do not handle themselves.
type Middleware interface {
	Search(info *MiddlewareInfo, model string, domain Domain, q *SearchQuery) ([]int64, error)
	SearchCount(info *MiddlewareInfo, model string, domain Domain) (int, error)
	Read(info *MiddlewareInfo, model string, ids []int64, fields []string) ([]Row, error)
	Write(info *MiddlewareInfo, model string, ids []int64, values Row) (bool, error)
	Unlink(info *MiddlewareInfo, model string, ids []int64) (bool, error)
	NameGet(info *MiddlewareInfo, model string, ids []int64) ([]NamePair, error)
	Exists(info *MiddlewareInfo, model string, ids []int64) ([]int64, error)
	FieldsGet(info *MiddlewareInfo, model string) (FieldMap, error)
	Call(info *MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

type MiddlewareInfo struct {
	Context     context.Context
	CallContext CallContext
	Client      Client
	Next        Middleware
}
