package noop

import orm "go.openobject.io/orm"

var _ orm.Middleware = &noop{}

// New no-op middleware creates and returns.
func New() orm.Middleware {
	return &noop{}
}

type noop struct {
}

func (*noop) Search(info *orm.MiddlewareInfo, model string, domain orm.Domain, q *orm.SearchQuery) ([]int64, error) {
	return info.Next.Search(info, model, domain, q)
}

func (*noop) SearchCount(info *orm.MiddlewareInfo, model string, domain orm.Domain) (int, error) {
	return info.Next.SearchCount(info, model, domain)
}

func (*noop) Read(info *orm.MiddlewareInfo, model string, ids []int64, fields []string) ([]orm.Row, error) {
	return info.Next.Read(info, model, ids, fields)
}

func (*noop) Write(info *orm.MiddlewareInfo, model string, ids []int64, values orm.Row) (bool, error) {
	return info.Next.Write(info, model, ids, values)
}

func (*noop) Unlink(info *orm.MiddlewareInfo, model string, ids []int64) (bool, error) {
	return info.Next.Unlink(info, model, ids)
}

func (*noop) NameGet(info *orm.MiddlewareInfo, model string, ids []int64) ([]orm.NamePair, error) {
	return info.Next.NameGet(info, model, ids)
}

func (*noop) Exists(info *orm.MiddlewareInfo, model string, ids []int64) ([]int64, error) {
	return info.Next.Exists(info, model, ids)
}

func (*noop) FieldsGet(info *orm.MiddlewareInfo, model string) (orm.FieldMap, error) {
	return info.Next.FieldsGet(info, model)
}

func (*noop) Call(info *orm.MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return info.Next.Call(info, model, method, args, kwargs)
}
