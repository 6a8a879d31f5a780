package jsonrpc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	orm "go.openobject.io/orm"
)

type fakeServer struct {
	t        *testing.T
	requests []*rpcRequest
	handler  func(req *rpcRequest) (interface{}, *rpcError)
}

func (fs *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		fs.t.Fatal(err)
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		fs.t.Fatal(err)
	}
	fs.requests = append(fs.requests, &req)

	result, rpcErr := fs.handler(&req)
	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
	}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		fs.t.Fatal(err)
	}
}

func setupServer(t *testing.T, handler func(req *rpcRequest) (interface{}, *rpcError)) (orm.Client, *fakeServer, func()) {
	t.Helper()

	fs := &fakeServer{t: t, handler: handler}
	ts := httptest.NewServer(fs)

	client, err := Dial(
		context.Background(),
		orm.WithEndpoint(ts.URL),
		orm.WithDatabase("testdb"),
		orm.WithLogin("admin"),
		orm.WithPassword("secret"),
	)
	if err != nil {
		ts.Close()
		t.Fatal(err)
	}

	return client, fs, func() {
		client.Close()
		ts.Close()
	}
}

func TestJSONRPCClient_DialAuthenticates(t *testing.T) {
	client, fs, cleanup := setupServer(t, func(req *rpcRequest) (interface{}, *rpcError) {
		return 7, nil
	})
	defer cleanup()

	if len(fs.requests) != 1 {
		t.Fatalf("unexpected request count: %d", len(fs.requests))
	}
	req := fs.requests[0]
	if req.Params.Service != "common" || req.Params.Method != "login" {
		t.Errorf("unexpected login call: %s.%s", req.Params.Service, req.Params.Method)
	}
	wantArgs := []interface{}{"testdb", "admin", "secret"}
	if !reflect.DeepEqual(req.Params.Args, wantArgs) {
		t.Errorf("unexpected login args: %v", req.Params.Args)
	}
	if !IsJSONRPCClient(client) {
		t.Errorf("unexpected client type: %T", client)
	}
}

func TestJSONRPCClient_DialRejectsBadCredentials(t *testing.T) {
	fs := &fakeServer{t: t, handler: func(req *rpcRequest) (interface{}, *rpcError) {
		return false, nil
	}}
	ts := httptest.NewServer(fs)
	defer ts.Close()

	_, err := Dial(
		context.Background(),
		orm.WithEndpoint(ts.URL),
		orm.WithDatabase("testdb"),
		orm.WithLogin("admin"),
		orm.WithPassword("wrong"),
	)
	if err == nil {
		t.Fatal("authentication unexpectedly succeeded")
	}
}

func TestJSONRPCClient_Search(t *testing.T) {
	client, fs, cleanup := setupServer(t, func(req *rpcRequest) (interface{}, *rpcError) {
		if req.Params.Method == "login" {
			return 7, nil
		}
		return []int64{3, 1, 2}, nil
	})
	defer cleanup()

	ids, err := client.Search(
		context.Background(), "res.partner",
		orm.Domain{{Field: "name", Op: "=", Value: "Alice"}},
		&orm.SearchQuery{Limit: 10},
		orm.CallContext{"lang": "en_US"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{3, 1, 2}) {
		t.Errorf("unexpected ids: %v", ids)
	}

	req := fs.requests[1]
	if req.Params.Service != "object" || req.Params.Method != "execute_kw" {
		t.Fatalf("unexpected call: %s.%s", req.Params.Service, req.Params.Method)
	}
	// args are [db, uid, password, model, method, args, kwargs]
	if got := req.Params.Args[3]; got != "res.partner" {
		t.Errorf("unexpected model: %v", got)
	}
	if got := req.Params.Args[4]; got != "search" {
		t.Errorf("unexpected method: %v", got)
	}
	domain := req.Params.Args[5].([]interface{})[0].([]interface{})
	want := []interface{}{[]interface{}{"name", "=", "Alice"}}
	if !reflect.DeepEqual(domain, want) {
		t.Errorf("unexpected domain: %v", domain)
	}
	kwargs := req.Params.Args[6].(map[string]interface{})
	if kwargs["limit"] != float64(10) {
		t.Errorf("unexpected limit: %v", kwargs["limit"])
	}
	cc := kwargs["context"].(map[string]interface{})
	if cc["lang"] != "en_US" {
		t.Errorf("unexpected context: %v", cc)
	}
}

func TestJSONRPCClient_ReadNormalizesNumbers(t *testing.T) {
	client, _, cleanup := setupServer(t, func(req *rpcRequest) (interface{}, *rpcError) {
		if req.Params.Method == "login" {
			return 7, nil
		}
		return []map[string]interface{}{
			{"id": 1, "name": "Alice", "credit": 12.5, "country_id": []interface{}{5, "Utopia"}},
		}, nil
	})
	defer cleanup()

	rows, err := client.Read(context.Background(), "res.partner", []int64{1}, []string{"name", "credit", "country_id"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}
	row := rows[0]
	if row["id"] != int64(1) {
		t.Errorf("id not normalized: %T %v", row["id"], row["id"])
	}
	if row["credit"] != 12.5 {
		t.Errorf("credit not normalized: %T %v", row["credit"], row["credit"])
	}
	rel := row["country_id"].([]interface{})
	if rel[0] != int64(5) || rel[1] != "Utopia" {
		t.Errorf("relation not normalized: %v", rel)
	}
}

func TestJSONRPCClient_ServerErrorPassesThrough(t *testing.T) {
	client, _, cleanup := setupServer(t, func(req *rpcRequest) (interface{}, *rpcError) {
		if req.Params.Method == "login" {
			return 7, nil
		}
		return nil, &rpcError{
			Code:    200,
			Message: "Odoo Server Error",
			Data: &rpcErrorData{
				Name:    "odoo.exceptions.AccessError",
				Message: "You are not allowed to access this document.",
			},
		}
	})
	defer cleanup()

	_, err := client.Read(context.Background(), "res.partner", []int64{1}, nil, nil)
	serr, ok := err.(*orm.ServerError)
	if !ok {
		t.Fatalf("unexpected error type: %T %v", err, err)
	}
	if serr.Code != 200 {
		t.Errorf("unexpected code: %d", serr.Code)
	}
	if serr.Message != "odoo.exceptions.AccessError" {
		t.Errorf("unexpected message: %s", serr.Message)
	}
	if serr.Data != "You are not allowed to access this document." {
		t.Errorf("unexpected data: %s", serr.Data)
	}
}

func TestJSONRPCClient_NameGet(t *testing.T) {
	client, _, cleanup := setupServer(t, func(req *rpcRequest) (interface{}, *rpcError) {
		if req.Params.Method == "login" {
			return 7, nil
		}
		return [][]interface{}{{1, "Alice"}, {2, "Bob"}}, nil
	})
	defer cleanup()

	pairs, err := client.NameGet(context.Background(), "res.partner", []int64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []orm.NamePair{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("unexpected pairs: %v", pairs)
	}
}
