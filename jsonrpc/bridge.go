package jsonrpc

import (
	"context"
	"net/http"

	orm "go.openobject.io/orm"
	"go.openobject.io/orm/internal"
)

func init() {
	orm.Connect = Dial
}

func newClientSettings(opts ...orm.ClientOption) *internal.ClientSettings {
	settings := &internal.ClientSettings{
		Endpoint: internal.GetEndpoint(),
		Database: internal.GetDatabase(),
	}
	for _, opt := range opts {
		opt.Apply(settings)
	}
	return settings
}

// Dial authenticates against the object service's JSON-RPC endpoint and
// returns a client. The user id obtained here is reused for every
// subsequent call.
func Dial(ctx context.Context, opts ...orm.ClientOption) (orm.Client, error) {
	settings := newClientSettings(opts...)
	hc := settings.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	cl := &jsonrpcClient{
		endpoint: settings.Endpoint,
		database: settings.Database,
		password: settings.Password,
		hc:       hc,
	}
	uid, err := cl.authenticate(ctx, settings.Login, settings.Password)
	if err != nil {
		return nil, err
	}
	cl.uid = uid

	return cl, nil
}

// IsJSONRPCClient reports whether client came from this package.
func IsJSONRPCClient(client orm.Client) bool {
	_, ok := client.(*jsonrpcClient)
	return ok
}
