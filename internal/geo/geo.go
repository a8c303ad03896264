package geo

import (
	"context"
	"net"
	"sync"
)

// MMDBReader is the replaceable local GeoLite2 lookup interface: this
// package defines the seam, not a bundled database reader.
type MMDBReader interface {
	// Lookup returns the two-letter country code for ip, or ok=false if
	// ip isn't present in the database.
	Lookup(ip net.IP) (cc string, ok bool)
}

// NoopMMDB is an MMDBReader that never resolves anything, used when no
// local database is configured.
type NoopMMDB struct{}

func (NoopMMDB) Lookup(net.IP) (string, bool) { return "", false }

// Resolver resolves a host to a public IP for geo lookups.
type Resolver interface {
	LookupIP(ctx context.Context, host string) (net.IP, error)
}

type netResolver struct{}

func (netResolver) LookupIP(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(addrs) == 0 {
		addrs, err = net.DefaultResolver.LookupIP(ctx, "ip6", host)
	}
	if err != nil || len(addrs) == 0 {
		return nil, err
	}
	return addrs[0], nil
}

// Cache is the interface the persistent geo-lookup cache satisfies; see
// internal/store/cache for the sqlite-backed implementation. A nil
// Cache disables caching.
type Cache interface {
	Get(ip string) (cc string, ok bool)
	Set(ip string, cc string)
}

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemCache returns an in-process-only Cache, used when no persistent
// cache is configured (e.g. in tests).
func NewMemCache() Cache {
	return &memCache{m: make(map[string]string)}
}

func (c *memCache) Get(ip string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc, ok := c.m[ip]
	return cc, ok
}

func (c *memCache) Set(ip string, cc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[ip] = cc
}

// Service resolves country codes with an MMDB-first, ip-api.com-fallback
// strategy, backed by a shared cache. The cache is mutated through a
// lock and no lock spans a network call; the Cache implementation
// itself owns that lock.
type Service struct {
	mmdb     MMDBReader
	resolver Resolver
	client   *IPAPIClient
	cache    Cache
}

// NewService builds a geo Service. mmdb and client may be nil/zero to
// disable that stage; cache may be nil to disable caching entirely.
func NewService(mmdb MMDBReader, client *IPAPIClient, cache Cache) *Service {
	if mmdb == nil {
		mmdb = NoopMMDB{}
	}
	if cache == nil {
		cache = NewMemCache()
	}
	return &Service{mmdb: mmdb, resolver: netResolver{}, client: client, cache: cache}
}

// Lookup resolves host to a country code, preferring a local MMDB hit,
// then the cache, then a live ip-api.com call. Returns UnknownCC if
// nothing resolves.
func (s *Service) Lookup(ctx context.Context, host string) string {
	ip, err := s.resolver.LookupIP(ctx, host)
	if err != nil || ip == nil {
		return UnknownCC
	}

	if cc, ok := s.mmdb.Lookup(ip); ok {
		return cc
	}

	ipStr := ip.String()
	if cc, ok := s.cache.Get(ipStr); ok {
		return cc
	}

	if s.client == nil {
		return UnknownCC
	}
	cc, ok := s.client.Lookup(ctx, ipStr)
	if !ok {
		return UnknownCC
	}
	s.cache.Set(ipStr, cc)
	return cc
}
