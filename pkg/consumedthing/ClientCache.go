package consumedthing

import (
	"sort"
	"sync"

	"github.com/wostzone/wostconsumer-go/api"
	"golang.org/x/sync/singleflight"
)

// ClientCache holds the protocol clients of a consumed Thing, one per scheme.
// The cache is shared by all interactions of the Thing. Clients are only added, never
// replaced or removed.
type ClientCache struct {
	clients     map[string]api.IProtocolClient
	creating    singleflight.Group
	updateMutex sync.RWMutex
}

// Get returns the cached client for the scheme
func (cache *ClientCache) Get(scheme string) (client api.IProtocolClient, found bool) {
	cache.updateMutex.RLock()
	defer cache.updateMutex.RUnlock()
	client, found = cache.clients[scheme]
	return client, found
}

// GetOrCreate returns the cached client for the scheme or creates it.
// Creation is serialized per scheme: concurrent callers for the same scheme wait for
// a single create and all receive its client. A failed create leaves the cache unchanged.
//  scheme to get the client for
//  create is invoked at most once per concurrent group of callers to create the client
func (cache *ClientCache) GetOrCreate(
	scheme string, create func() (api.IProtocolClient, error)) (api.IProtocolClient, error) {

	result, err, _ := cache.creating.Do(scheme, func() (interface{}, error) {
		if client, found := cache.Get(scheme); found {
			return client, nil
		}
		client, err := create()
		if err != nil {
			return nil, err
		}
		cache.updateMutex.Lock()
		defer cache.updateMutex.Unlock()
		cache.clients[scheme] = client
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(api.IProtocolClient), nil
}

// Len returns the number of cached clients
func (cache *ClientCache) Len() int {
	cache.updateMutex.RLock()
	defer cache.updateMutex.RUnlock()
	return len(cache.clients)
}

// Schemes returns the sorted schemes of the cached clients
func (cache *ClientCache) Schemes() []string {
	cache.updateMutex.RLock()
	defer cache.updateMutex.RUnlock()
	schemes := make([]string, 0, len(cache.clients))
	for scheme := range cache.clients {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// NewClientCache creates an empty client cache
func NewClientCache() *ClientCache {
	cache := &ClientCache{
		clients: make(map[string]api.IProtocolClient),
	}
	return cache
}
