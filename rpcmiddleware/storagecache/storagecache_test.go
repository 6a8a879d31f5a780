package storagecache

import (
	"context"
	"sync"
	"testing"

	orm "go.openobject.io/orm"
	"go.openobject.io/orm/internal/testutils"
)

var _ Storage = &mapStorage{}

type mapStorage struct {
	m    sync.Mutex
	rows map[orm.RecordKey]orm.Row
}

func newMapStorage() *mapStorage {
	return &mapStorage{rows: make(map[orm.RecordKey]orm.Row)}
}

func (s *mapStorage) SetMulti(ctx context.Context, cis []*CacheItem) error {
	s.m.Lock()
	defer s.m.Unlock()
	for _, ci := range cis {
		s.rows[ci.Key] = ci.Row.Clone()
	}
	return nil
}

func (s *mapStorage) GetMulti(ctx context.Context, keys []orm.RecordKey) ([]*CacheItem, error) {
	s.m.Lock()
	defer s.m.Unlock()
	resultList := make([]*CacheItem, len(keys))
	for idx, key := range keys {
		if row, ok := s.rows[key]; ok {
			resultList[idx] = &CacheItem{Key: key, Row: row.Clone()}
		}
	}
	return resultList, nil
}

func (s *mapStorage) DeleteMulti(ctx context.Context, keys []orm.RecordKey) error {
	s.m.Lock()
	defer s.m.Unlock()
	for _, key := range keys {
		delete(s.rows, key)
	}
	return nil
}

func setup(t *testing.T) (context.Context, *testutils.Stub, *mapStorage, func()) {
	ctx, client, cleanUp := testutils.SetupStub(t)

	client.AddModel("res.partner", orm.FieldMap{
		"name":  {Type: "char", String: "Name"},
		"email": {Type: "char", String: "Email"},
	})
	client.AddRow("res.partner", orm.Row{"id": int64(1), "name": "Alice", "email": "alice@example.com"})
	client.AddRow("res.partner", orm.Row{"id": int64(2), "name": "Bob", "email": "bob@example.com"})

	st := newMapStorage()
	mw := New(st, nil)
	client.AppendMiddleware(mw)

	return ctx, client, st, func() {
		client.RemoveMiddleware(mw)
		cleanUp()
	}
}

func TestStorageCache_ReadThrough(t *testing.T) {
	ctx, client, _, cleanUp := setup(t)
	defer cleanUp()

	rows, err := client.Read(ctx, "res.partner", []int64{1, 2}, []string{"name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(rows); v != 2 {
		t.Fatalf("unexpected: %v", v)
	}

	client.ClearLogs()

	// a second read of the same fields never reaches the service.
	rows, err = client.Read(ctx, "res.partner", []int64{1, 2}, []string{"name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(rows); v != 2 {
		t.Fatalf("unexpected: %v", v)
	}
	if rows[0]["name"] != "Alice" || rows[1]["name"] != "Bob" {
		t.Errorf("unexpected: %v", rows)
	}
	if v := len(client.Logs()); v != 0 {
		t.Errorf("unexpected raw calls: %v", client.Logs())
	}
}

func TestStorageCache_PartialHitFetchesOnlyMissing(t *testing.T) {
	ctx, client, _, cleanUp := setup(t)
	defer cleanUp()

	if _, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name"}, nil); err != nil {
		t.Fatal(err)
	}

	client.ClearLogs()

	rows, err := client.Read(ctx, "res.partner", []int64{1, 2}, []string{"name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(rows); v != 2 {
		t.Fatalf("unexpected: %v", v)
	}

	logs := client.Logs()
	if v := len(logs); v != 1 {
		t.Fatalf("unexpected raw calls: %v", logs)
	}
	if want := "read model=res.partner ids=[2] fields=[name]"; logs[0] != want {
		t.Errorf("unexpected: %v", logs[0])
	}
}

func TestStorageCache_WidensStoredRow(t *testing.T) {
	ctx, client, st, cleanUp := setup(t)
	defer cleanUp()

	if _, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name"}, nil); err != nil {
		t.Fatal(err)
	}
	// a read of a different field set must not drop the fields already
	// stored.
	if _, err := client.Read(ctx, "res.partner", []int64{1}, []string{"email"}, nil); err != nil {
		t.Fatal(err)
	}

	row := st.rows[orm.RecordKey{Model: "res.partner", ID: 1}]
	if row["name"] != "Alice" || row["email"] != "alice@example.com" {
		t.Errorf("unexpected: %v", row)
	}

	client.ClearLogs()

	// both fields now come from storage.
	rows, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name", "email"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["name"] != "Alice" || rows[0]["email"] != "alice@example.com" {
		t.Errorf("unexpected: %v", rows[0])
	}
	if v := len(client.Logs()); v != 0 {
		t.Errorf("unexpected raw calls: %v", client.Logs())
	}
}

func TestStorageCache_DeadIDStaysOmitted(t *testing.T) {
	ctx, client, _, cleanUp := setup(t)
	defer cleanUp()

	rows, err := client.Read(ctx, "res.partner", []int64{1, 999}, []string{"name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(rows); v != 1 {
		t.Fatalf("unexpected: %v", v)
	}
	if v := rows[0].ID(); v != 1 {
		t.Errorf("unexpected: %v", v)
	}
}

func TestStorageCache_WriteInvalidates(t *testing.T) {
	ctx, client, st, cleanUp := setup(t)
	defer cleanUp()

	if _, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.rows[orm.RecordKey{Model: "res.partner", ID: 1}]; !ok {
		t.Fatal("row not cached")
	}

	if _, err := client.Write(ctx, "res.partner", []int64{1}, orm.Row{"name": "Alicia"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.rows[orm.RecordKey{Model: "res.partner", ID: 1}]; ok {
		t.Fatal("row still cached after write")
	}

	rows, err := client.Read(ctx, "res.partner", []int64{1}, []string{"name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := rows[0]["name"]; v != "Alicia" {
		t.Errorf("unexpected: %v", v)
	}
}
