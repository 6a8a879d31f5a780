package shared

import (
	"context"

	orm "go.openobject.io/orm"
)

var _ orm.Middleware = &MiddlewareBridge{}

// OriginalClientBridge is the raw transport behind a middleware chain.
type OriginalClientBridge interface {
	Search(ctx context.Context, model string, domain orm.Domain, q *orm.SearchQuery, cc orm.CallContext) ([]int64, error)
	SearchCount(ctx context.Context, model string, domain orm.Domain, cc orm.CallContext) (int, error)
	Read(ctx context.Context, model string, ids []int64, fields []string, cc orm.CallContext) ([]orm.Row, error)
	Write(ctx context.Context, model string, ids []int64, values orm.Row, cc orm.CallContext) (bool, error)
	Unlink(ctx context.Context, model string, ids []int64, cc orm.CallContext) (bool, error)
	NameGet(ctx context.Context, model string, ids []int64, cc orm.CallContext) ([]orm.NamePair, error)
	Exists(ctx context.Context, model string, ids []int64) ([]int64, error)
	FieldsGet(ctx context.Context, model string) (orm.FieldMap, error)
	Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

// MiddlewareBridge walks a middleware chain one element per step,
// falling through to the original client bridge at the tail.
type MiddlewareBridge struct {
	ocb  OriginalClientBridge
	mws  []orm.Middleware
	Info *orm.MiddlewareInfo
}

func NewMiddlewareBridge(info *orm.MiddlewareInfo, ocb OriginalClientBridge, mws []orm.Middleware) *MiddlewareBridge {
	cb := &MiddlewareBridge{
		ocb:  ocb,
		mws:  mws,
		Info: info,
	}
	cb.Info.Next = cb
	return cb
}

func (cb *MiddlewareBridge) step() (orm.Middleware, *MiddlewareBridge) {
	current := cb.mws[0]
	left := &MiddlewareBridge{
		ocb:  cb.ocb,
		mws:  cb.mws[1:],
		Info: cb.Info,
	}
	left.Info.Next = left
	return current, left
}

func (cb *MiddlewareBridge) Search(info *orm.MiddlewareInfo, model string, domain orm.Domain, q *orm.SearchQuery) ([]int64, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.Search(info.Context, model, domain, q, info.CallContext)
	}
	current, left := cb.step()
	return current.Search(left.Info, model, domain, q)
}

func (cb *MiddlewareBridge) SearchCount(info *orm.MiddlewareInfo, model string, domain orm.Domain) (int, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.SearchCount(info.Context, model, domain, info.CallContext)
	}
	current, left := cb.step()
	return current.SearchCount(left.Info, model, domain)
}

func (cb *MiddlewareBridge) Read(info *orm.MiddlewareInfo, model string, ids []int64, fields []string) ([]orm.Row, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.Read(info.Context, model, ids, fields, info.CallContext)
	}
	current, left := cb.step()
	return current.Read(left.Info, model, ids, fields)
}

func (cb *MiddlewareBridge) Write(info *orm.MiddlewareInfo, model string, ids []int64, values orm.Row) (bool, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.Write(info.Context, model, ids, values, info.CallContext)
	}
	current, left := cb.step()
	return current.Write(left.Info, model, ids, values)
}

func (cb *MiddlewareBridge) Unlink(info *orm.MiddlewareInfo, model string, ids []int64) (bool, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.Unlink(info.Context, model, ids, info.CallContext)
	}
	current, left := cb.step()
	return current.Unlink(left.Info, model, ids)
}

func (cb *MiddlewareBridge) NameGet(info *orm.MiddlewareInfo, model string, ids []int64) ([]orm.NamePair, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.NameGet(info.Context, model, ids, info.CallContext)
	}
	current, left := cb.step()
	return current.NameGet(left.Info, model, ids)
}

func (cb *MiddlewareBridge) Exists(info *orm.MiddlewareInfo, model string, ids []int64) ([]int64, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.Exists(info.Context, model, ids)
	}
	current, left := cb.step()
	return current.Exists(left.Info, model, ids)
}

func (cb *MiddlewareBridge) FieldsGet(info *orm.MiddlewareInfo, model string) (orm.FieldMap, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.FieldsGet(info.Context, model)
	}
	current, left := cb.step()
	return current.FieldsGet(left.Info, model)
}

func (cb *MiddlewareBridge) Call(info *orm.MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(cb.mws) == 0 {
		return cb.ocb.Call(info.Context, model, method, args, kwargs)
	}
	current, left := cb.step()
	return current.Call(left.Info, model, method, args, kwargs)
}
