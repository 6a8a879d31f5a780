package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	orm "go.openobject.io/orm"
)

// wire format of the JSON-RPC 2.0 endpoint.

type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	Params  *rpcParams `json:"params"`
	ID      int64      `json:"id"`
}

type rpcParams struct {
	Service string        `json:"service"`
	Method  string        `json:"method"`
	Args    []interface{} `json:"args"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *rpcErrorData `json:"data"`
}

type rpcErrorData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Debug   string `json:"debug"`
}

var rpcSeq int64

func (cl *jsonrpcClient) call(ctx context.Context, service, method string, args []interface{}) (json.RawMessage, error) {
	reqBody := &rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  &rpcParams{Service: service, Method: method, Args: args},
		ID:      atomic.AddInt64(&rpcSeq, 1),
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", cl.endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := cl.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &orm.ServerError{Code: resp.StatusCode, Message: resp.Status}
	}

	var respBody rpcResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&respBody); err != nil {
		return nil, err
	}
	if respBody.Error != nil {
		return nil, toServerError(respBody.Error)
	}
	return respBody.Result, nil
}

func toServerError(e *rpcError) error {
	serr := &orm.ServerError{Code: e.Code, Message: e.Message}
	if e.Data != nil {
		serr.Data = e.Data.Message
		if e.Data.Name != "" {
			serr.Message = e.Data.Name
		}
	}
	return serr
}

// authenticate resolves the user id with the "common" service.
func (cl *jsonrpcClient) authenticate(ctx context.Context, login, password string) (int64, error) {
	raw, err := cl.call(ctx, "common", "login", []interface{}{cl.database, login, password})
	if err != nil {
		return 0, err
	}
	uid, err := decodeInt64(raw)
	if err != nil || uid == 0 {
		return 0, fmt.Errorf("jsonrpc: authentication failed for %q on %q", login, cl.database)
	}
	return uid, nil
}

func (cl *jsonrpcClient) executeKw(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (json.RawMessage, error) {
	if args == nil {
		args = []interface{}{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	return cl.call(ctx, "object", "execute_kw", []interface{}{
		cl.database, cl.uid, cl.password, model, method, args, kwargs,
	})
}

// result decoding. Everything numeric comes back as json.Number because
// the decoder runs with UseNumber.

func decodeInt64(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n.Int64()
}

func toInt64(raw json.RawMessage) (int64, error) {
	return decodeInt64(raw)
}

func toBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

func toInt64s(raw json.RawMessage) ([]int64, error) {
	var ids []json.Number
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	result := make([]int64, 0, len(ids))
	for _, n := range ids {
		id, err := n.Int64()
		if err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, nil
}

func toRows(raw json.RawMessage) ([]orm.Row, error) {
	var rows []orm.Row
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		normalizeRow(row)
	}
	return rows, nil
}

// normalizeRow rewrites json.Number values into int64 or float64 so the
// cache holds plain Go scalars.
func normalizeRow(row orm.Row) {
	for k, v := range row {
		row[k] = normalizeValue(v)
	}
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeValue(e)
		}
		return t
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeValue(e)
		}
		return t
	default:
		return v
	}
}

func toNamePairs(raw json.RawMessage) ([]orm.NamePair, error) {
	var tuples [][]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&tuples); err != nil {
		return nil, err
	}
	pairs := make([]orm.NamePair, 0, len(tuples))
	for _, t := range tuples {
		if len(t) != 2 {
			return nil, fmt.Errorf("jsonrpc: malformed name_get tuple %v", t)
		}
		n, ok := t[0].(json.Number)
		if !ok {
			return nil, fmt.Errorf("jsonrpc: malformed name_get id %v", t[0])
		}
		id, err := n.Int64()
		if err != nil {
			return nil, err
		}
		name, _ := t[1].(string)
		pairs = append(pairs, orm.NamePair{ID: id, Name: name})
	}
	return pairs, nil
}

func toFieldMap(raw json.RawMessage) (orm.FieldMap, error) {
	var wire map[string]struct {
		Type     string      `json:"type"`
		Relation string      `json:"relation"`
		Function interface{} `json:"function"`
		String   string      `json:"string"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	fields := make(orm.FieldMap, len(wire))
	for name, f := range wire {
		fi := &orm.FieldInfo{
			Type:     f.Type,
			Relation: f.Relation,
			String:   f.String,
		}
		// the server sends false for plain columns and the compute
		// method's name for function fields
		if s, ok := f.Function.(string); ok && s != "" {
			fi.Function = true
		}
		fields[name] = fi
	}
	return fields, nil
}
