package jsonrpc

import (
	"context"
	"net/http"

	orm "go.openobject.io/orm"
	"go.openobject.io/orm/internal/shared"
)

var _ orm.Client = (*jsonrpcClient)(nil)

type jsonrpcClient struct {
	endpoint string
	database string
	uid      int64
	password string
	hc       *http.Client

	middlewares []orm.Middleware
}

func (cl *jsonrpcClient) bridge(info *orm.MiddlewareInfo) *shared.MiddlewareBridge {
	return shared.NewMiddlewareBridge(info, &originalClientBridgeImpl{cl}, cl.middlewares)
}

func (cl *jsonrpcClient) info(ctx context.Context, cc orm.CallContext) *orm.MiddlewareInfo {
	return &orm.MiddlewareInfo{Context: ctx, CallContext: cc, Client: cl}
}

func (cl *jsonrpcClient) Search(ctx context.Context, model string, domain orm.Domain, q *orm.SearchQuery, cc orm.CallContext) ([]int64, error) {
	info := cl.info(ctx, cc)
	return cl.bridge(info).Search(info, model, domain, q)
}

func (cl *jsonrpcClient) SearchCount(ctx context.Context, model string, domain orm.Domain, cc orm.CallContext) (int, error) {
	info := cl.info(ctx, cc)
	return cl.bridge(info).SearchCount(info, model, domain)
}

func (cl *jsonrpcClient) Read(ctx context.Context, model string, ids []int64, fields []string, cc orm.CallContext) ([]orm.Row, error) {
	info := cl.info(ctx, cc)
	return cl.bridge(info).Read(info, model, ids, fields)
}

func (cl *jsonrpcClient) Write(ctx context.Context, model string, ids []int64, values orm.Row, cc orm.CallContext) (bool, error) {
	info := cl.info(ctx, cc)
	return cl.bridge(info).Write(info, model, ids, values)
}

func (cl *jsonrpcClient) Unlink(ctx context.Context, model string, ids []int64, cc orm.CallContext) (bool, error) {
	info := cl.info(ctx, cc)
	return cl.bridge(info).Unlink(info, model, ids)
}

func (cl *jsonrpcClient) NameGet(ctx context.Context, model string, ids []int64, cc orm.CallContext) ([]orm.NamePair, error) {
	info := cl.info(ctx, cc)
	return cl.bridge(info).NameGet(info, model, ids)
}

func (cl *jsonrpcClient) Exists(ctx context.Context, model string, ids []int64) ([]int64, error) {
	info := cl.info(ctx, nil)
	return cl.bridge(info).Exists(info, model, ids)
}

func (cl *jsonrpcClient) FieldsGet(ctx context.Context, model string) (orm.FieldMap, error) {
	info := cl.info(ctx, nil)
	return cl.bridge(info).FieldsGet(info, model)
}

func (cl *jsonrpcClient) Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	info := cl.info(ctx, nil)
	return cl.bridge(info).Call(info, model, method, args, kwargs)
}

func (cl *jsonrpcClient) AppendMiddleware(mw orm.Middleware) {
	cl.middlewares = append(cl.middlewares, mw)
}

func (cl *jsonrpcClient) RemoveMiddleware(mw orm.Middleware) bool {
	list := make([]orm.Middleware, 0, len(cl.middlewares))
	found := false
	for _, m := range cl.middlewares {
		if m == mw {
			found = true
			continue
		}
		list = append(list, m)
	}
	cl.middlewares = list
	return found
}

func (cl *jsonrpcClient) Close() error {
	cl.hc.CloseIdleConnections()
	return nil
}

var _ shared.OriginalClientBridge = (*originalClientBridgeImpl)(nil)

// originalClientBridgeImpl is the tail of the middleware chain. Every
// method maps 1:1 onto an execute_kw call.
type originalClientBridgeImpl struct {
	cl *jsonrpcClient
}

func (ocb *originalClientBridgeImpl) Search(ctx context.Context, model string, domain orm.Domain, q *orm.SearchQuery, cc orm.CallContext) ([]int64, error) {
	kwargs := kwargsWithContext(cc)
	if q != nil {
		if q.Offset > 0 {
			kwargs["offset"] = q.Offset
		}
		if q.Limit > 0 {
			kwargs["limit"] = q.Limit
		}
		if q.Order != "" {
			kwargs["order"] = q.Order
		}
	}
	raw, err := ocb.cl.executeKw(ctx, model, "search", []interface{}{marshalDomain(domain)}, kwargs)
	if err != nil {
		return nil, err
	}
	return toInt64s(raw)
}

func (ocb *originalClientBridgeImpl) SearchCount(ctx context.Context, model string, domain orm.Domain, cc orm.CallContext) (int, error) {
	raw, err := ocb.cl.executeKw(ctx, model, "search_count", []interface{}{marshalDomain(domain)}, kwargsWithContext(cc))
	if err != nil {
		return 0, err
	}
	n, err := toInt64(raw)
	return int(n), err
}

func (ocb *originalClientBridgeImpl) Read(ctx context.Context, model string, ids []int64, fields []string, cc orm.CallContext) ([]orm.Row, error) {
	args := []interface{}{ids}
	if len(fields) != 0 {
		args = append(args, fields)
	}
	raw, err := ocb.cl.executeKw(ctx, model, "read", args, kwargsWithContext(cc))
	if err != nil {
		return nil, err
	}
	return toRows(raw)
}

func (ocb *originalClientBridgeImpl) Write(ctx context.Context, model string, ids []int64, values orm.Row, cc orm.CallContext) (bool, error) {
	raw, err := ocb.cl.executeKw(ctx, model, "write", []interface{}{ids, values}, kwargsWithContext(cc))
	if err != nil {
		return false, err
	}
	return toBool(raw), nil
}

func (ocb *originalClientBridgeImpl) Unlink(ctx context.Context, model string, ids []int64, cc orm.CallContext) (bool, error) {
	raw, err := ocb.cl.executeKw(ctx, model, "unlink", []interface{}{ids}, kwargsWithContext(cc))
	if err != nil {
		return false, err
	}
	return toBool(raw), nil
}

func (ocb *originalClientBridgeImpl) NameGet(ctx context.Context, model string, ids []int64, cc orm.CallContext) ([]orm.NamePair, error) {
	raw, err := ocb.cl.executeKw(ctx, model, "name_get", []interface{}{ids}, kwargsWithContext(cc))
	if err != nil {
		return nil, err
	}
	return toNamePairs(raw)
}

func (ocb *originalClientBridgeImpl) Exists(ctx context.Context, model string, ids []int64) ([]int64, error) {
	raw, err := ocb.cl.executeKw(ctx, model, "exists", []interface{}{ids}, nil)
	if err != nil {
		return nil, err
	}
	return toInt64s(raw)
}

func (ocb *originalClientBridgeImpl) FieldsGet(ctx context.Context, model string) (orm.FieldMap, error) {
	raw, err := ocb.cl.executeKw(ctx, model, "fields_get", nil, nil)
	if err != nil {
		return nil, err
	}
	return toFieldMap(raw)
}

func (ocb *originalClientBridgeImpl) Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return ocb.cl.executeKw(ctx, model, method, args, kwargs)
}

func kwargsWithContext(cc orm.CallContext) map[string]interface{} {
	kwargs := map[string]interface{}{}
	if len(cc) != 0 {
		kwargs["context"] = cc
	}
	return kwargs
}

func marshalDomain(domain orm.Domain) orm.Domain {
	if domain == nil {
		return orm.Domain{}
	}
	return domain
}
