/*
Package orm is a client-side cache and lazy ORM layer for remote object
services: servers that expose typed models with fields, relations and
remote methods such as search, read, write, unlink and name_get
(OpenObject / Odoo style RPC backends).

The layer lets a caller treat remote records as local objects. Field access
is resolved on demand, relation fields turn into nested Record / RecordList
proxies, and a shared Cache collapses what would otherwise be one RPC per
record and field into one batched read per field.

Create a Client using the Dial function of a transport package such as
go.openobject.io/orm/jsonrpc, then wrap it in a Service:

	client, err := jsonrpc.Dial(ctx,
		orm.WithEndpoint("https://erp.example.com"),
		orm.WithDatabase("production"),
		orm.WithLogin("admin"),
		orm.WithPassword("secret"))
	if err != nil {
		// ...
	}
	defer client.Close()

	svc := orm.NewService(client)
	partners, err := svc.Object("res.partner").SearchRecords(ctx,
		orm.Domain{{"customer", "=", true}})

The purpose of this package

This package has three main objectives.

	1. Treat remote records as local objects: field access, relation
	   traversal and remote method calls all hang off Record and RecordList.
	2. Minimize round trips. Records sharing one Cache batch their field
	   fetches: touching a field on one record fetches it for every record
	   registered in the same scope, and Prefetch turns N+1 access patterns
	   into a single read.
	3. Provide a middleware layer over every RPC, so logging, retries and
	   read-through row caches stay out of application code.

Caching model

A Cache holds one scope per model name. A scope tracks which record ids a
logical view knows about, the partially fetched row data per id, and the
call context (locale, timezone, ...) applied to reads issued through it.
Any number of Record and RecordList values may share one Cache; a value
fetched through one proxy is immediately visible through every other proxy
sharing the Cache. Cached values are authoritative until Refresh; nothing
expires on its own.

A Cache is not synchronized. The layer assumes a single goroutine per Cache
instance, or external serialization.

Middleware layer

RPC concerns that are not application logic live in middleware. See
go.openobject.io/orm/rpcmiddleware for call logging, retries with backoff,
and read-through row caches backed by process-local memory, Memcached or
Redis. Middleware is first in, first applied.
*/
package orm // import "go.openobject.io/orm"
