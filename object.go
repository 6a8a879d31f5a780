package orm

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Object is the client-side descriptor of one remote model: it carries
// the model name, the memoized field metadata, and the remote-call
// capability. Obtain Objects through a Service so that relation
// traversal finds related models on the same client.
type Object struct {
	svc  *Service
	name string

	mu     sync.RWMutex
	fields FieldMap
	group  singleflight.Group

	model *Record
}

func (o *Object) Name() string {
	return o.name
}

func (o *Object) Service() *Service {
	return o.svc
}

func (o *Object) Client() Client {
	return o.svc.client
}

// Fields returns the model's column metadata, fetching it once and
// deduplicating concurrent fetches.
func (o *Object) Fields(ctx context.Context) (FieldMap, error) {
	o.mu.RLock()
	fields := o.fields
	o.mu.RUnlock()
	if fields != nil {
		return fields, nil
	}

	v, err, _ := o.group.Do("fields_get", func() (interface{}, error) {
		fields, err := o.svc.client.FieldsGet(ctx, o.name)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.fields = fields
		o.mu.Unlock()
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(FieldMap), nil
}

// SimpleFields lists the fields that are fast to read in bulk: neither
// binary nor computed. This is the default prefetch set.
func (o *Object) SimpleFields(ctx context.Context) ([]string, error) {
	fields, err := o.Fields(ctx)
	if err != nil {
		return nil, err
	}
	return fields.Simple(), nil
}

// Search runs a remote search and returns matching ids.
func (o *Object) Search(ctx context.Context, domain Domain, opts ...SearchOption) ([]int64, error) {
	s := applySearchOptions(opts)
	return o.svc.client.Search(ctx, o.name, domain, &s.query, s.callCtx)
}

// SearchCount counts matches without fetching them.
func (o *Object) SearchCount(ctx context.Context, domain Domain, opts ...SearchOption) (int, error) {
	s := applySearchOptions(opts)
	return o.svc.client.SearchCount(ctx, o.name, domain, s.callCtx)
}

// SearchRecords searches and returns the matches as a RecordList over a
// fresh cache. WithReadFields prefetches those fields into it.
func (o *Object) SearchRecords(ctx context.Context, domain Domain, opts ...SearchOption) (*RecordList, error) {
	s := applySearchOptions(opts)
	ids, err := o.svc.client.Search(ctx, o.name, domain, &s.query, s.callCtx)
	if err != nil {
		return nil, err
	}
	return GetRecordList(ctx, o, ids, s.readFields, nil, s.callCtx)
}

// ReadRecord returns a record proxy for one id. When fields are given
// they are read eagerly; otherwise nothing is fetched until first
// access.
func (o *Object) ReadRecord(ctx context.Context, id int64, fields ...string) (*Record, error) {
	rec, err := GetRecord(o, id, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(fields) != 0 {
		if _, err := rec.Read(ctx, fields, nil, false); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// ReadRecordList returns a record list over ids with an own cache; given
// fields are prefetched.
func (o *Object) ReadRecordList(ctx context.Context, ids []int64, fields ...string) (*RecordList, error) {
	return GetRecordList(ctx, o, ids, fields, nil, nil)
}

// Browse is the conventional name for ReadRecordList.
func (o *Object) Browse(ctx context.Context, ids []int64, fields ...string) (*RecordList, error) {
	return o.ReadRecordList(ctx, ids, fields...)
}

// Model returns the registry record (ir.model) describing this model,
// memoized after the first lookup. Anything other than exactly one match
// is a precondition violation.
func (o *Object) Model(ctx context.Context) (*Record, error) {
	o.mu.RLock()
	model := o.model
	o.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	res, err := o.svc.Object("ir.model").SearchRecords(ctx,
		Domain{{"model", "=", o.name}}, WithLimit(2))
	if err != nil {
		return nil, err
	}
	if res.Len() != 1 {
		return nil, &AmbiguousModelError{Model: o.name, Matches: res.Len()}
	}

	model = res.Record(0)
	o.mu.Lock()
	o.model = model
	o.mu.Unlock()
	return model, nil
}

// ModelName returns the display name of this model's registry record.
func (o *Object) ModelName(ctx context.Context) (string, error) {
	model, err := o.Model(ctx)
	if err != nil {
		return "", err
	}
	return model.DisplayName(ctx)
}
