package testutils

import (
	"context"
	"fmt"
	"sort"
	"testing"

	orm "go.openobject.io/orm"
	"go.openobject.io/orm/internal/shared"
)

var _ orm.Client = &Stub{}

// Stub is an in-memory object service. It records every raw call in
// issue order, which is what the batching property tests assert against,
// and supports the same middleware chain as a real transport.
type Stub struct {
	models      map[string]*StubModel
	methods     map[string]CallHandler
	middlewares []orm.Middleware

	logs    []string
	glitchN map[string]int
}

type StubModel struct {
	Fields orm.FieldMap
	Rows   map[int64]orm.Row
}

// CallHandler serves one remote method name for Stub.Call. The handler
// key is "model.method".
type CallHandler func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)

func NewStub() *Stub {
	return &Stub{
		models:  make(map[string]*StubModel),
		methods: make(map[string]CallHandler),
		glitchN: make(map[string]int),
	}
}

// SetupStub returns a context, a fresh stub and a cleanup func, in the
// shape shared by all package tests.
func SetupStub(t *testing.T) (context.Context, *Stub, func()) {
	t.Helper()
	s := NewStub()
	return context.Background(), s, func() {}
}

// AddModel registers a model with its field metadata.
func (s *Stub) AddModel(model string, fields orm.FieldMap) *StubModel {
	m := &StubModel{Fields: fields, Rows: make(map[int64]orm.Row)}
	s.models[model] = m
	return m
}

// AddRow stores one fixture row; the row must carry "id".
func (s *Stub) AddRow(model string, row orm.Row) {
	s.models[model].Rows[row.ID()] = row
}

// DeleteRow removes a fixture row, simulating a record deleted behind
// the cache's back.
func (s *Stub) DeleteRow(model string, id int64) {
	delete(s.models[model].Rows, id)
}

// HandleCall registers a handler for "model.method" dispatched through
// Call.
func (s *Stub) HandleCall(model, method string, h CallHandler) {
	s.methods[model+"."+method] = h
}

// Glitch makes the next n raw calls of op ("read", "search", ...) fail
// with a server error.
func (s *Stub) Glitch(op string, n int) {
	s.glitchN[op] = n
}

// Logs returns the raw call log.
func (s *Stub) Logs() []string {
	return s.logs
}

func (s *Stub) ClearLogs() {
	s.logs = nil
}

func (s *Stub) logf(format string, args ...interface{}) {
	s.logs = append(s.logs, fmt.Sprintf(format, args...))
}

func (s *Stub) glitch(op string) error {
	if s.glitchN[op] > 0 {
		s.glitchN[op]--
		return &orm.ServerError{Code: 500, Message: "glitch on " + op}
	}
	return nil
}

func (s *Stub) model(model string) (*StubModel, error) {
	m, ok := s.models[model]
	if !ok {
		return nil, &orm.ServerError{Code: 404, Message: "no such model " + model}
	}
	return m, nil
}

// orm.Client implementation. Each op runs the middleware chain and falls
// through to the raw* methods.

func (s *Stub) Search(ctx context.Context, model string, domain orm.Domain, q *orm.SearchQuery, cc orm.CallContext) ([]int64, error) {
	return s.bridge(ctx, cc).Search(s.info(ctx, cc), model, domain, q)
}

func (s *Stub) SearchCount(ctx context.Context, model string, domain orm.Domain, cc orm.CallContext) (int, error) {
	return s.bridge(ctx, cc).SearchCount(s.info(ctx, cc), model, domain)
}

func (s *Stub) Read(ctx context.Context, model string, ids []int64, fields []string, cc orm.CallContext) ([]orm.Row, error) {
	return s.bridge(ctx, cc).Read(s.info(ctx, cc), model, ids, fields)
}

func (s *Stub) Write(ctx context.Context, model string, ids []int64, values orm.Row, cc orm.CallContext) (bool, error) {
	return s.bridge(ctx, cc).Write(s.info(ctx, cc), model, ids, values)
}

func (s *Stub) Unlink(ctx context.Context, model string, ids []int64, cc orm.CallContext) (bool, error) {
	return s.bridge(ctx, cc).Unlink(s.info(ctx, cc), model, ids)
}

func (s *Stub) NameGet(ctx context.Context, model string, ids []int64, cc orm.CallContext) ([]orm.NamePair, error) {
	return s.bridge(ctx, cc).NameGet(s.info(ctx, cc), model, ids)
}

func (s *Stub) Exists(ctx context.Context, model string, ids []int64) ([]int64, error) {
	return s.bridge(ctx, nil).Exists(s.info(ctx, nil), model, ids)
}

func (s *Stub) FieldsGet(ctx context.Context, model string) (orm.FieldMap, error) {
	return s.bridge(ctx, nil).FieldsGet(s.info(ctx, nil), model)
}

func (s *Stub) Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return s.bridge(ctx, nil).Call(s.info(ctx, nil), model, method, args, kwargs)
}

func (s *Stub) AppendMiddleware(mw orm.Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

func (s *Stub) RemoveMiddleware(mw orm.Middleware) bool {
	list := make([]orm.Middleware, 0, len(s.middlewares))
	found := false
	for _, m := range s.middlewares {
		if m == mw {
			found = true
			continue
		}
		list = append(list, m)
	}
	s.middlewares = list
	return found
}

func (s *Stub) Close() error {
	return nil
}

func (s *Stub) info(ctx context.Context, cc orm.CallContext) *orm.MiddlewareInfo {
	return &orm.MiddlewareInfo{Context: ctx, CallContext: cc, Client: s}
}

func (s *Stub) bridge(ctx context.Context, cc orm.CallContext) *shared.MiddlewareBridge {
	info := s.info(ctx, cc)
	return shared.NewMiddlewareBridge(info, &rawBridge{s}, s.middlewares)
}

// rawBridge is the stub's transport tail.
type rawBridge struct {
	s *Stub
}

var _ shared.OriginalClientBridge = &rawBridge{}

func (b *rawBridge) Search(ctx context.Context, model string, domain orm.Domain, q *orm.SearchQuery, cc orm.CallContext) ([]int64, error) {
	b.s.logf("search model=%s domain=%v", model, domain)
	if err := b.s.glitch("search"); err != nil {
		return nil, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(m.Rows))
	for id, row := range m.Rows {
		if matchDomain(row, domain) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if q != nil {
		if q.Offset > 0 {
			if q.Offset >= len(ids) {
				ids = nil
			} else {
				ids = ids[q.Offset:]
			}
		}
		if q.Limit > 0 && q.Limit < len(ids) {
			ids = ids[:q.Limit]
		}
	}
	return ids, nil
}

func (b *rawBridge) SearchCount(ctx context.Context, model string, domain orm.Domain, cc orm.CallContext) (int, error) {
	b.s.logf("search_count model=%s domain=%v", model, domain)
	if err := b.s.glitch("search_count"); err != nil {
		return 0, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range m.Rows {
		if matchDomain(row, domain) {
			n++
		}
	}
	return n, nil
}

func (b *rawBridge) Read(ctx context.Context, model string, ids []int64, fields []string, cc orm.CallContext) ([]orm.Row, error) {
	b.s.logf("read model=%s ids=%v fields=%v", model, ids, fields)
	if err := b.s.glitch("read"); err != nil {
		return nil, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return nil, err
	}

	rows := make([]orm.Row, 0, len(ids))
	for _, id := range ids {
		src, ok := m.Rows[id]
		if !ok {
			continue // dead ids are silently omitted
		}
		row := orm.Row{"id": id}
		if len(fields) == 0 {
			for k, v := range src {
				row[k] = v
			}
		} else {
			for _, f := range fields {
				if v, ok := src[f]; ok {
					row[f] = v
				} else {
					row[f] = false
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *rawBridge) Write(ctx context.Context, model string, ids []int64, values orm.Row, cc orm.CallContext) (bool, error) {
	b.s.logf("write model=%s ids=%v values=%v", model, ids, values)
	if err := b.s.glitch("write"); err != nil {
		return false, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		row, ok := m.Rows[id]
		if !ok {
			return false, &orm.ServerError{Code: 404, Message: fmt.Sprintf("no such record %s(%d)", model, id)}
		}
		for k, v := range values {
			row[k] = v
		}
	}
	return true, nil
}

func (b *rawBridge) Unlink(ctx context.Context, model string, ids []int64, cc orm.CallContext) (bool, error) {
	b.s.logf("unlink model=%s ids=%v", model, ids)
	if err := b.s.glitch("unlink"); err != nil {
		return false, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		delete(m.Rows, id)
	}
	return true, nil
}

func (b *rawBridge) NameGet(ctx context.Context, model string, ids []int64, cc orm.CallContext) ([]orm.NamePair, error) {
	b.s.logf("name_get model=%s ids=%v", model, ids)
	if err := b.s.glitch("name_get"); err != nil {
		return nil, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return nil, err
	}
	pairs := make([]orm.NamePair, 0, len(ids))
	for _, id := range ids {
		row, ok := m.Rows[id]
		if !ok {
			continue
		}
		name, _ := row["name"].(string)
		if name == "" {
			name = fmt.Sprintf("%s,%d", model, id)
		}
		pairs = append(pairs, orm.NamePair{ID: id, Name: name})
	}
	return pairs, nil
}

func (b *rawBridge) Exists(ctx context.Context, model string, ids []int64) ([]int64, error) {
	b.s.logf("exists model=%s ids=%v", model, ids)
	if err := b.s.glitch("exists"); err != nil {
		return nil, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return nil, err
	}
	alive := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{})
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := m.Rows[id]; ok {
			alive = append(alive, id)
		}
	}
	return alive, nil
}

func (b *rawBridge) FieldsGet(ctx context.Context, model string) (orm.FieldMap, error) {
	b.s.logf("fields_get model=%s", model)
	if err := b.s.glitch("fields_get"); err != nil {
		return nil, err
	}
	m, err := b.s.model(model)
	if err != nil {
		return nil, err
	}
	return m.Fields, nil
}

func (b *rawBridge) Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	b.s.logf("call model=%s method=%s args=%v", model, method, args)
	if err := b.s.glitch("call"); err != nil {
		return nil, err
	}
	h, ok := b.s.methods[model+"."+method]
	if !ok {
		return nil, &orm.ServerError{Code: 404, Message: fmt.Sprintf("no such method %s.%s", model, method)}
	}
	return h(args, kwargs)
}

func matchDomain(row orm.Row, domain orm.Domain) bool {
	for _, c := range domain {
		v := row[c.Field]
		switch c.Op {
		case "=":
			if !looseEqual(v, c.Value) {
				return false
			}
		case "!=":
			if looseEqual(v, c.Value) {
				return false
			}
		case "in":
			if !looseIn(v, c.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func looseEqual(a, b interface{}) bool {
	// many2one values compare by their id component.
	if pair, ok := a.([]interface{}); ok && len(pair) == 2 {
		a = pair[0]
	}
	if ai, ok := orm.Int64(a); ok {
		if bi, ok := orm.Int64(b); ok {
			return ai == bi
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func looseIn(v, set interface{}) bool {
	switch t := set.(type) {
	case []int64:
		id, ok := orm.Int64(v)
		if !ok {
			return false
		}
		for _, e := range t {
			if e == id {
				return true
			}
		}
	case []interface{}:
		for _, e := range t {
			if looseEqual(v, e) {
				return true
			}
		}
	case []string:
		s := fmt.Sprintf("%v", v)
		for _, e := range t {
			if e == s {
				return true
			}
		}
	}
	return false
}
