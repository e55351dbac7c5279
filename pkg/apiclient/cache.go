package apiclient

import (
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// QueryCache keeps the last successful response per query so views can
// render instantly while a refetch is in flight. Keys are the endpoint
// path plus the encoded query string, so two parameter sets never
// collide.
type QueryCache struct {
	store *gocache.Cache
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		store: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (q *QueryCache) Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

func (q *QueryCache) Get(key string) (interface{}, bool) {
	return q.store.Get(key)
}

func (q *QueryCache) Set(key string, value interface{}) {
	q.store.SetDefault(key, value)
}

// Snapshot captures the current entry so an optimistic update can be
// rolled back verbatim.
func (q *QueryCache) Snapshot(key string) (interface{}, bool) {
	return q.store.Get(key)
}

func (q *QueryCache) Restore(key string, snapshot interface{}, existed bool) {
	if existed {
		q.store.SetDefault(key, snapshot)
		return
	}
	q.store.Delete(key)
}

// Invalidate drops every cached entry whose key starts with prefix.
func (q *QueryCache) Invalidate(prefix string) {
	for key := range q.store.Items() {
		if strings.HasPrefix(key, prefix) {
			q.store.Delete(key)
		}
	}
}
