package orm_test

import (
	"reflect"
	"testing"

	orm "go.openobject.io/orm"
)

func TestRecordList_OrderAndSlice(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{3, 1, 2})
	if err != nil {
		t.Fatal(err)
	}

	// construction order is list order, not id order.
	if v := list.IDs(); !reflect.DeepEqual(v, []int64{3, 1, 2}) {
		t.Errorf("unexpected: %v", v)
	}

	sub := list.Slice(1, 3)
	if v := sub.IDs(); !reflect.DeepEqual(v, []int64{1, 2}) {
		t.Errorf("unexpected: %v", v)
	}
	if sub.Cache() != list.Cache() {
		t.Error("slice does not share the cache")
	}

	// mutating the slice leaves the source alone.
	sub.Delete(0)
	if v := sub.IDs(); !reflect.DeepEqual(v, []int64{2}) {
		t.Errorf("unexpected: %v", v)
	}
	if v := list.IDs(); !reflect.DeepEqual(v, []int64{3, 1, 2}) {
		t.Errorf("unexpected: %v", v)
	}

	if v := list.String(); v != "RecordList(res.partner): length=3" {
		t.Errorf("unexpected: %v", v)
	}
}

func TestRecordList_InsertCoercesIDs(t *testing.T) {
	ctx, client, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	client.ClearLogs()

	// a bare id becomes a proxy lazily; nothing goes out.
	if err := list.Insert(0, 7); err != nil {
		t.Fatal(err)
	}
	if v := list.IDs(); !reflect.DeepEqual(v, []int64{7, 1, 2}) {
		t.Errorf("unexpected: %v", v)
	}
	if n := len(client.Logs()); n != 0 {
		t.Errorf("unexpected raw calls: %v", client.Logs())
	}

	// records insert as-is and share nothing new.
	rec, err := orm.GetRecord(obj, 3, list.Cache(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := list.Insert(2, rec); err != nil {
		t.Fatal(err)
	}
	if v := list.IDs(); !reflect.DeepEqual(v, []int64{7, 1, 3, 2}) {
		t.Errorf("unexpected: %v", v)
	}

	// anything else is rejected.
	if err := list.Insert(0, "7"); err == nil {
		t.Error("insert of a string unexpectedly succeeded")
	}
}

func TestRecordList_Contains(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	if !list.Contains(1) || !list.Contains(int64(2)) {
		t.Error("id membership broken")
	}
	if list.Contains(3) {
		t.Error("unexpected membership")
	}

	other, err := orm.GetRecord(obj, 2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !list.Contains(other) {
		t.Error("record membership broken")
	}
	foreign, err := orm.GetRecord(svc.Object("res.country"), 2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if list.Contains(foreign) {
		t.Error("unexpected membership across models")
	}
}

func TestRecordList_Sort(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	list, err := svc.Object("res.partner").ReadRecordList(ctx, []int64{3, 1, 2})
	if err != nil {
		t.Fatal(err)
	}

	list.Sort(func(a, b *orm.Record) bool { return a.ID() < b.ID() })
	if v := list.IDs(); !reflect.DeepEqual(v, []int64{1, 2, 3}) {
		t.Errorf("unexpected: %v", v)
	}
}

func TestRecordList_ScopedSearch(t *testing.T) {
	ctx, client, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	client.ClearLogs()

	// Carol matches the domain but is outside the list.
	ids, err := list.Search(ctx, orm.Domain{{Field: "email", Op: "!=", Value: false}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Errorf("unexpected: %v", ids)
	}

	// the issued domain is the conjunction of the id restriction and the
	// caller's conditions.
	want := []string{"search model=res.partner domain=[(id in [1 2]) (email != false)]"}
	if !reflect.DeepEqual(client.Logs(), want) {
		t.Errorf("unexpected: %v", client.Logs())
	}

	n, err := list.SearchCount(ctx, orm.Domain{{Field: "name", Op: "=", Value: "Alice"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("unexpected: %v", n)
	}

	sub, err := list.SearchRecords(ctx, orm.Domain{{Field: "name", Op: "=", Value: "Bob"}})
	if err != nil {
		t.Fatal(err)
	}
	if v := sub.IDs(); !reflect.DeepEqual(v, []int64{2}) {
		t.Errorf("unexpected: %v", v)
	}
	if sub.Cache() != list.Cache() {
		t.Error("scoped search result does not share the cache")
	}
}

func TestRecordList_Existing(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{1, 1, 2, 999})
	if err != nil {
		t.Fatal(err)
	}

	// duplicates stay unless uniqify is set; dead ids always go.
	kept, err := list.Existing(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if v := kept.IDs(); !reflect.DeepEqual(v, []int64{1, 1, 2}) {
		t.Errorf("unexpected: %v", v)
	}

	unique, err := list.Existing(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if v := unique.IDs(); !reflect.DeepEqual(v, []int64{1, 2}) {
		t.Errorf("unexpected: %v", v)
	}
}

func TestRecordList_Copy(t *testing.T) {
	ctx, client, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	shared, err := list.Copy(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if shared.Cache() != list.Cache() {
		t.Error("plain copy does not share the cache")
	}

	detached, err := list.Copy(ctx, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if detached.Cache() == list.Cache() {
		t.Error("detached copy still shares the cache")
	}

	// data fetched through the source is invisible to the detached copy.
	if _, err := list.Record(0).Get(ctx, "name"); err != nil {
		t.Fatal(err)
	}
	client.ClearLogs()
	if _, err := detached.Record(0).Get(ctx, "name"); err != nil {
		t.Fatal(err)
	}
	if n := len(client.Logs()); n != 1 {
		t.Errorf("unexpected raw calls: %v", client.Logs())
	}
	// while the sharing copy sees it for free.
	client.ClearLogs()
	if _, err := shared.Record(0).Get(ctx, "name"); err != nil {
		t.Fatal(err)
	}
	if n := len(client.Logs()); n != 0 {
		t.Errorf("unexpected raw calls: %v", client.Logs())
	}
}

func TestRecordList_WriteUnlink(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	obj := svc.Object("res.partner")
	list, err := obj.ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := list.Write(ctx, orm.Row{"email": "shared@example.com"}, nil); err != nil {
		t.Fatal(err)
	}
	rows, err := list.Read(ctx, []string{"email"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row["email"] != "shared@example.com" {
			t.Errorf("unexpected: %v", row)
		}
	}

	if _, err := list.Unlink(ctx, nil); err != nil {
		t.Fatal(err)
	}
	kept, err := list.Existing(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if v := kept.Len(); v != 0 {
		t.Errorf("unexpected: %v", v)
	}
}

func TestRecordList_CallBindsIDs(t *testing.T) {
	ctx, client, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	var gotArgs []interface{}
	client.HandleCall("res.partner", "archive", func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		gotArgs = args
		return true, nil
	})

	list, err := svc.Object("res.partner").ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := list.Call(ctx, "archive"); err != nil {
		t.Fatal(err)
	}
	want := []interface{}{[]int64{1, 2}}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Errorf("unexpected: %v", gotArgs)
	}
}
