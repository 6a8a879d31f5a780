package orm_test

import (
	"context"
	"strings"
	"testing"

	orm "go.openobject.io/orm"
)

func TestRegisterRecordMaker(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()
	defer orm.RegisterRecordMaker("res.partner", orm.DefaultRecordMaker)

	orm.RegisterRecordMaker("res.partner", func(obj *orm.Object, id int64, cache *orm.Cache) *orm.Record {
		rec := orm.DefaultRecordMaker(obj, id, cache)
		rec.SetFieldHook(func(ctx context.Context, r *orm.Record, ftype, name string, value interface{}) (interface{}, error) {
			if ftype == "char" {
				if s, ok := value.(string); ok {
					return strings.ToUpper(s), nil
				}
			}
			return value, nil
		})
		return rec
	})

	rec, err := orm.GetRecord(svc.Object("res.partner"), 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, err := rec.Get(ctx, "name")
	if err != nil {
		t.Fatal(err)
	}
	if v != "ALICE" {
		t.Errorf("unexpected: %v", v)
	}

	// other models are untouched.
	country, err := orm.GetRecord(svc.Object("res.country"), 5, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, err = country.Get(ctx, "name")
	if err != nil {
		t.Fatal(err)
	}
	if v != "Utopia" {
		t.Errorf("unexpected: %v", v)
	}
}

func TestRegisterRecordListMaker(t *testing.T) {
	ctx, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()
	defer orm.RegisterRecordListMaker("res.partner", orm.DefaultRecordListMaker)

	used := false
	orm.RegisterRecordListMaker("res.partner", func(obj *orm.Object, ids []int64, cache *orm.Cache) (*orm.RecordList, error) {
		used = true
		return orm.DefaultRecordListMaker(obj, ids, cache)
	})

	list, err := svc.Object("res.partner").ReadRecordList(ctx, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !used {
		t.Error("registered maker was not used")
	}
	if list.Len() != 2 {
		t.Errorf("unexpected: %v", list)
	}
}

func TestGetRecord_Preconditions(t *testing.T) {
	_, _, svc, cleanUp := setupPartners(t)
	defer cleanUp()

	if _, err := orm.GetRecord(nil, 1, nil, nil); err == nil {
		t.Error("nil object should be rejected")
	}
	if _, err := orm.GetRecord(svc.Object("res.partner"), 0, nil, nil); err == nil {
		t.Error("zero id should be rejected")
	}
	if _, err := orm.GetRecord(svc.Object("res.partner"), -3, nil, nil); err == nil {
		t.Error("negative id should be rejected")
	}
}

func TestGetRecordList_Preconditions(t *testing.T) {
	ctx, _, _, cleanUp := setupPartners(t)
	defer cleanUp()

	if _, err := orm.GetRecordList(ctx, nil, []int64{1}, nil, nil, nil); err == nil {
		t.Error("nil object should be rejected")
	}
}
