package rpclog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	orm "go.openobject.io/orm"
)

var _ orm.Middleware = &logger{}

// NewLogger returns a middleware that logs every remote call with a
// monotonic call number, before and after it runs.
func NewLogger(prefix string, logf func(ctx context.Context, format string, args ...interface{})) orm.Middleware {
	return &logger{Prefix: prefix, Logf: logf, counter: 1}
}

type logger struct {
	Prefix string
	Logf   func(ctx context.Context, format string, args ...interface{})

	m       sync.Mutex
	counter int
}

func (l *logger) next() int {
	l.m.Lock()
	cnt := l.counter
	l.counter++
	l.m.Unlock()
	return cnt
}

func (l *logger) IDsToString(ids []int64) string {
	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, fmt.Sprintf("%d", id))
	}

	return strings.Join(idStrings, ", ")
}

func (l *logger) Search(info *orm.MiddlewareInfo, model string, domain orm.Domain, q *orm.SearchQuery) ([]int64, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Search #%d, model=%s, len(domain)=%d", cnt, model, len(domain))

	ids, err := info.Next.Search(info, model, domain, q)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"Search #%d, ids=[%s]", cnt, l.IDsToString(ids))
	} else {
		l.Logf(info.Context, l.Prefix+"Search #%d, err=%s", cnt, err.Error())
	}

	return ids, err
}

func (l *logger) SearchCount(info *orm.MiddlewareInfo, model string, domain orm.Domain) (int, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"SearchCount #%d, model=%s, len(domain)=%d", cnt, model, len(domain))

	n, err := info.Next.SearchCount(info, model, domain)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"SearchCount #%d, count=%d", cnt, n)
	} else {
		l.Logf(info.Context, l.Prefix+"SearchCount #%d, err=%s", cnt, err.Error())
	}

	return n, err
}

func (l *logger) Read(info *orm.MiddlewareInfo, model string, ids []int64, fields []string) ([]orm.Row, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Read #%d, model=%s, ids=[%s], fields=[%s]", cnt, model, l.IDsToString(ids), strings.Join(fields, ", "))

	rows, err := info.Next.Read(info, model, ids, fields)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"Read #%d, len(rows)=%d", cnt, len(rows))
	} else {
		l.Logf(info.Context, l.Prefix+"Read #%d, err=%s", cnt, err.Error())
	}

	return rows, err
}

func (l *logger) Write(info *orm.MiddlewareInfo, model string, ids []int64, values orm.Row) (bool, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Write #%d, model=%s, ids=[%s], len(values)=%d", cnt, model, l.IDsToString(ids), len(values))

	ok, err := info.Next.Write(info, model, ids, values)

	if err != nil {
		l.Logf(info.Context, l.Prefix+"Write #%d, err=%s", cnt, err.Error())
	}

	return ok, err
}

func (l *logger) Unlink(info *orm.MiddlewareInfo, model string, ids []int64) (bool, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Unlink #%d, model=%s, ids=[%s]", cnt, model, l.IDsToString(ids))

	ok, err := info.Next.Unlink(info, model, ids)

	if err != nil {
		l.Logf(info.Context, l.Prefix+"Unlink #%d, err=%s", cnt, err.Error())
	}

	return ok, err
}

func (l *logger) NameGet(info *orm.MiddlewareInfo, model string, ids []int64) ([]orm.NamePair, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"NameGet #%d, model=%s, ids=[%s]", cnt, model, l.IDsToString(ids))

	pairs, err := info.Next.NameGet(info, model, ids)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"NameGet #%d, len(pairs)=%d", cnt, len(pairs))
	} else {
		l.Logf(info.Context, l.Prefix+"NameGet #%d, err=%s", cnt, err.Error())
	}

	return pairs, err
}

func (l *logger) Exists(info *orm.MiddlewareInfo, model string, ids []int64) ([]int64, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Exists #%d, model=%s, ids=[%s]", cnt, model, l.IDsToString(ids))

	alive, err := info.Next.Exists(info, model, ids)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"Exists #%d, ids=[%s]", cnt, l.IDsToString(alive))
	} else {
		l.Logf(info.Context, l.Prefix+"Exists #%d, err=%s", cnt, err.Error())
	}

	return alive, err
}

func (l *logger) FieldsGet(info *orm.MiddlewareInfo, model string) (orm.FieldMap, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"FieldsGet #%d, model=%s", cnt, model)

	fields, err := info.Next.FieldsGet(info, model)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"FieldsGet #%d, len(fields)=%d", cnt, len(fields))
	} else {
		l.Logf(info.Context, l.Prefix+"FieldsGet #%d, err=%s", cnt, err.Error())
	}

	return fields, err
}

func (l *logger) Call(info *orm.MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Call #%d, model=%s, method=%s, len(args)=%d", cnt, model, method, len(args))

	result, err := info.Next.Call(info, model, method, args, kwargs)

	if err != nil {
		l.Logf(info.Context, l.Prefix+"Call #%d, err=%s", cnt, err.Error())
	}

	return result, err
}
