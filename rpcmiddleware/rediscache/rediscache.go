package rediscache

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	orm "go.openobject.io/orm"
	"go.openobject.io/orm/rpcmiddleware/storagecache"
)

var _ storagecache.Storage = &cacheHandler{}
var _ orm.Middleware = &cacheHandler{}

const defaultExpiration = 15 * time.Minute

func New(conn redis.Conn, opts ...CacheOption) interface {
	orm.Middleware
	storagecache.Storage
} {

	// I want to make ch.storage accessible from the test
	ch := &cacheHandler{
		conn:           conn,
		stOpts:         &storagecache.Options{},
		expireDuration: defaultExpiration,
	}

	for _, opt := range opts {
		opt.Apply(ch)
	}

	s := storagecache.New(ch, ch.stOpts)
	ch.st = s

	if ch.logf == nil {
		ch.logf = func(ctx context.Context, format string, args ...interface{}) {}
	}
	if ch.cacheKey == nil {
		ch.cacheKey = func(key orm.RecordKey) string {
			return fmt.Sprintf("openobject:rediscache:%s:%d", key.Model, key.ID)
		}
	}

	return ch
}

type cacheHandler struct {
	conn           redis.Conn
	st             orm.Middleware
	stOpts         *storagecache.Options
	expireDuration time.Duration
	logf           func(ctx context.Context, format string, args ...interface{})
	cacheKey       func(key orm.RecordKey) string
}

type CacheOption interface {
	Apply(*cacheHandler)
}

// storagecache.Storage implementation

func (ch *cacheHandler) SetMulti(ctx context.Context, cis []*storagecache.CacheItem) error {

	ch.logf(ctx, "middleware/rediscache.SetMulti: incoming len=%d", len(cis))

	err := ch.conn.Send("MULTI")
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.SetMulti: conn.Send("MULTI") err=%s`, err.Error())
		return err
	}

	cnt := 0
	for _, ci := range cis {
		var buf bytes.Buffer
		enc := gob.NewEncoder(&buf)
		err := enc.Encode(ci.Row)
		if err != nil {
			ch.logf(ctx, "middleware/rediscache.SetMulti: gob.Encode error key=%s err=%s", ci.Key.String(), err.Error())
			continue
		}
		cacheKey := ch.cacheKey(ci.Key)
		cacheValue := buf.Bytes()

		if ch.expireDuration <= 0 {
			err = ch.conn.Send("SET", cacheKey, cacheValue)
			if err != nil {
				ch.logf(ctx, `middleware/rediscache.SetMulti: conn.Send("SET", "%s", ...) err=%s`, cacheKey, err.Error())
				return err
			}
		} else {
			err = ch.conn.Send("SET", cacheKey, cacheValue, "PX", int64(ch.expireDuration/time.Millisecond))
			if err != nil {
				ch.logf(ctx, `middleware/rediscache.SetMulti: conn.Send("SET", "%s", ..., "PX", %d) err=%s`, cacheKey, ch.expireDuration/time.Millisecond, err.Error())
				return err
			}
		}
		cnt++
	}

	ch.logf(ctx, "middleware/rediscache.SetMulti: len=%d", cnt)

	_, err = ch.conn.Do("EXEC")
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.SetMulti: conn.Send("EXEC") err=%s`, err.Error())
		return err
	}

	return nil
}

func (ch *cacheHandler) GetMulti(ctx context.Context, keys []orm.RecordKey) ([]*storagecache.CacheItem, error) {

	ch.logf(ctx, "middleware/rediscache.GetMulti: incoming len=%d", len(keys))

	err := ch.conn.Send("MULTI")
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.GetMulti: conn.Send("MULTI") err=%s`, err.Error())
		return nil, err
	}

	resultList := make([]*storagecache.CacheItem, len(keys))

	for idx, key := range keys {
		cacheKey := ch.cacheKey(key)
		resultList[idx] = &storagecache.CacheItem{
			Key: key,
		}
		err := ch.conn.Send("GET", cacheKey)
		if err != nil {
			ch.logf(ctx, `middleware/rediscache.GetMulti: conn.Send("GET", "%s") err=%s`, cacheKey, err.Error())
			return nil, err
		}
	}

	resp, err := ch.conn.Do("EXEC")
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.GetMulti: conn.Do("EXEC") err=%s`, err.Error())
		return nil, err
	}
	bs, err := redis.ByteSlices(resp, nil)
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.GetMulti: redis.ByteSlices err=%s`, err.Error())
		return nil, err
	}

	hit := 0
	miss := 0
	for idx, b := range bs {
		if len(b) == 0 {
			resultList[idx] = nil
			miss++
			continue
		}
		buf := bytes.NewBuffer(b)
		dec := gob.NewDecoder(buf)
		var row orm.Row
		err = dec.Decode(&row)
		if err != nil {
			resultList[idx] = nil
			ch.logf(ctx, "middleware/rediscache.GetMulti: gob.Decode error key=%s err=%s", keys[idx].String(), err.Error())
			miss++
			continue
		}

		resultList[idx].Row = row
		hit++
	}

	ch.logf(ctx, "middleware/rediscache.GetMulti: hit=%d miss=%d", hit, miss)

	return resultList, nil
}

func (ch *cacheHandler) DeleteMulti(ctx context.Context, keys []orm.RecordKey) error {
	ch.logf(ctx, "middleware/rediscache.DeleteMulti: incoming len=%d", len(keys))

	err := ch.conn.Send("MULTI")
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.DeleteMulti: conn.Send("MULTI") err=%s`, err.Error())
		return err
	}

	for _, key := range keys {
		cacheKey := ch.cacheKey(key)

		err = ch.conn.Send("DEL", cacheKey)
		if err != nil {
			ch.logf(ctx, `middleware/rediscache.DeleteMulti: conn.Send("DEL", "%s") err=%s`, cacheKey, err.Error())
			return err
		}
	}

	_, err = ch.conn.Do("EXEC")
	if err != nil {
		ch.logf(ctx, `middleware/rediscache.DeleteMulti: conn.Send("EXEC") err=%s`, err.Error())
		return err
	}

	return nil
}

// orm.Middleware implementations

func (ch *cacheHandler) Search(info *orm.MiddlewareInfo, model string, domain orm.Domain, q *orm.SearchQuery) ([]int64, error) {
	return ch.st.Search(info, model, domain, q)
}

func (ch *cacheHandler) SearchCount(info *orm.MiddlewareInfo, model string, domain orm.Domain) (int, error) {
	return ch.st.SearchCount(info, model, domain)
}

func (ch *cacheHandler) Read(info *orm.MiddlewareInfo, model string, ids []int64, fields []string) ([]orm.Row, error) {
	return ch.st.Read(info, model, ids, fields)
}

func (ch *cacheHandler) Write(info *orm.MiddlewareInfo, model string, ids []int64, values orm.Row) (bool, error) {
	return ch.st.Write(info, model, ids, values)
}

func (ch *cacheHandler) Unlink(info *orm.MiddlewareInfo, model string, ids []int64) (bool, error) {
	return ch.st.Unlink(info, model, ids)
}

func (ch *cacheHandler) NameGet(info *orm.MiddlewareInfo, model string, ids []int64) ([]orm.NamePair, error) {
	return ch.st.NameGet(info, model, ids)
}

func (ch *cacheHandler) Exists(info *orm.MiddlewareInfo, model string, ids []int64) ([]int64, error) {
	return ch.st.Exists(info, model, ids)
}

func (ch *cacheHandler) FieldsGet(info *orm.MiddlewareInfo, model string) (orm.FieldMap, error) {
	return ch.st.FieldsGet(info, model)
}

func (ch *cacheHandler) Call(info *orm.MiddlewareInfo, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return ch.st.Call(info, model, method, args, kwargs)
}
