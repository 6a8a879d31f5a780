package orm

import (
	"net/http"

	"go.openobject.io/orm/internal"
)

type ClientOption interface {
	Apply(*internal.ClientSettings)
}

// WithEndpoint sets the base URL of the remote object service.
func WithEndpoint(endpoint string) ClientOption {
	return withEndpoint(endpoint)
}

type withEndpoint string

func (w withEndpoint) Apply(o *internal.ClientSettings) {
	o.Endpoint = string(w)
}

// WithDatabase selects the database on the remote service.
func WithDatabase(db string) ClientOption {
	return withDatabase(db)
}

type withDatabase string

func (w withDatabase) Apply(o *internal.ClientSettings) {
	o.Database = string(w)
}

// WithLogin sets the account to authenticate as.
func WithLogin(login string) ClientOption {
	return withLogin(login)
}

type withLogin string

func (w withLogin) Apply(o *internal.ClientSettings) {
	o.Login = string(w)
}

// WithPassword sets the account password or API key.
func WithPassword(password string) ClientOption {
	return withPassword(password)
}

type withPassword string

func (w withPassword) Apply(o *internal.ClientSettings) {
	o.Password = string(w)
}

// WithHTTPClient specifies the HTTP client to use as the basis of
// communications. When used, it takes precedence over default transport
// construction.
func WithHTTPClient(client *http.Client) ClientOption {
	return withHTTPClient{client}
}

type withHTTPClient struct{ client *http.Client }

func (w withHTTPClient) Apply(o *internal.ClientSettings) {
	o.HTTPClient = w.client
}

// SearchOption tunes search calls issued through Object and RecordList.
type SearchOption interface {
	Apply(*searchSettings)
}

type searchSettings struct {
	query      SearchQuery
	callCtx    CallContext
	readFields []string
}

func applySearchOptions(opts []SearchOption) *searchSettings {
	s := &searchSettings{}
	for _, opt := range opts {
		opt.Apply(s)
	}
	return s
}

// WithOffset skips the first n matches.
func WithOffset(n int) SearchOption {
	return withOffset(n)
}

type withOffset int

func (w withOffset) Apply(s *searchSettings) {
	s.query.Offset = int(w)
}

// WithLimit caps the number of matches.
func WithLimit(n int) SearchOption {
	return withLimit(n)
}

type withLimit int

func (w withLimit) Apply(s *searchSettings) {
	s.query.Limit = int(w)
}

// WithOrder sets the server-side sort order.
func WithOrder(order string) SearchOption {
	return withOrder(order)
}

type withOrder string

func (w withOrder) Apply(s *searchSettings) {
	s.query.Order = string(w)
}

// WithCallContext attaches extra call context to this search only; it is
// not persisted into any cache scope.
func WithCallContext(cc CallContext) SearchOption {
	return withCallContext{cc}
}

type withCallContext struct{ cc CallContext }

func (w withCallContext) Apply(s *searchSettings) {
	s.callCtx = s.callCtx.Merge(w.cc)
}

// WithReadFields makes SearchRecords prefetch the given fields into the
// result list.
func WithReadFields(fields ...string) SearchOption {
	return withReadFields(fields)
}

type withReadFields []string

func (w withReadFields) Apply(s *searchSettings) {
	s.readFields = append(s.readFields, w...)
}
