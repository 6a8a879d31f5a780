package rpcretry

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	orm "go.openobject.io/orm"
	"go.openobject.io/orm/internal/testutils"
)

func TestRetryInterceptor_Read(t *testing.T) {
	ctx, client, cleanUp := testutils.SetupStub(t)
	defer cleanUp()

	client.AddModel("res.partner", orm.FieldMap{
		"name": {Type: "char", String: "Name"},
	})
	client.AddRow("res.partner", orm.Row{"id": int64(1), "name": "A"})

	var logs []string
	logf := func(ctx context.Context, format string, args ...interface{}) {
		t.Logf(format, args...)
		logs = append(logs, fmt.Sprintf(format, args...))
	}

	rh := New(
		WithLogf(logf),
		WithMinBackoffDuration(1*time.Millisecond),
		WithRetryLimit(4),
	)
	client.AppendMiddleware(rh)
	defer func() {
		client.RemoveMiddleware(rh)
	}()

	client.Glitch("read", 2)

	rows, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := rows[0]["name"]; v != "A" {
		t.Errorf("unexpected: %v", v)
	}

	expected := heredoc.Doc(`
		middleware/rpcretry.Read: err=orm: server error 500: glitch on read, will be retry #1 after 1ms
		middleware/rpcretry.Read: err=orm: server error 500: glitch on read, will be retry #2 after 2ms
	`)
	if v := strings.Join(logs, "\n") + "\n"; v != expected {
		t.Errorf("unexpected: %v", v)
	}
}

func TestRetryInterceptor_GivesUpAtLimit(t *testing.T) {
	ctx, client, cleanUp := testutils.SetupStub(t)
	defer cleanUp()

	client.AddModel("res.partner", orm.FieldMap{
		"name": {Type: "char", String: "Name"},
	})

	rh := New(
		WithMinBackoffDuration(1 * time.Millisecond),
		WithRetryLimit(2),
	)
	client.AppendMiddleware(rh)
	defer func() {
		client.RemoveMiddleware(rh)
	}()

	client.Glitch("read", 10)

	_, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name"}, nil)
	serr, ok := err.(*orm.ServerError)
	if !ok {
		t.Fatalf("unexpected error type: %T %v", err, err)
	}
	if serr.Code != 500 {
		t.Errorf("unexpected: %v", serr.Code)
	}
}

func TestRetryInterceptor_WriteIsNotRetried(t *testing.T) {
	ctx, client, cleanUp := testutils.SetupStub(t)
	defer cleanUp()

	client.AddModel("res.partner", orm.FieldMap{
		"name": {Type: "char", String: "Name"},
	})
	client.AddRow("res.partner", orm.Row{"id": int64(1), "name": "A"})

	rh := New(
		WithMinBackoffDuration(1 * time.Millisecond),
	)
	client.AppendMiddleware(rh)
	defer func() {
		client.RemoveMiddleware(rh)
	}()

	client.Glitch("write", 1)

	if _, err := client.Write(ctx, "res.partner", []int64{1}, orm.Row{"name": "B"}, nil); err == nil {
		t.Fatal("write unexpectedly succeeded")
	}

	// the same write goes through once the glitch is gone.
	if _, err := client.Write(ctx, "res.partner", []int64{1}, orm.Row{"name": "B"}, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRetryInterceptor_ClientErrorIsNotRetried(t *testing.T) {
	ctx, client, cleanUp := testutils.SetupStub(t)
	defer cleanUp()

	rh := New(
		WithMinBackoffDuration(1 * time.Millisecond),
	)
	client.AppendMiddleware(rh)
	defer func() {
		client.RemoveMiddleware(rh)
	}()

	// unknown model responds with a 404 class error.
	_, err := client.Read(ctx, "res.missing", []int64{1}, []string{"name"}, nil)
	serr, ok := err.(*orm.ServerError)
	if !ok {
		t.Fatalf("unexpected error type: %T %v", err, err)
	}
	if serr.Code != 404 {
		t.Errorf("unexpected: %v", serr.Code)
	}

	logs := client.Logs()
	if v := len(logs); v != 1 {
		t.Errorf("unexpected raw call count: %v %v", v, logs)
	}
}
