/*
Package memcache handles Read etc to the object service and provides caching by memcached.
How the cache is used is explained in the storagecache package's document.

Related document.

https://godoc.org/github.com/bradfitz/gomemcache/memcache
https://godoc.org/go.openobject.io/orm/rpcmiddleware/storagecache
*/
package memcache // import "go.openobject.io/orm/rpcmiddleware/memcache"
