// Package cache implements the persistent DNS and geo lookup caches:
// one sqlite database, one mutex per table, and no lock ever spans a
// network call — callers resolve first, then call Set.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	storedb "github.com/sakha1370/openray/internal/store/db"
)

const dbName = "openray.db"

// Store owns the sqlite-backed DNS and geo caches. It satisfies
// internal/geo's Cache interface.
type Store struct {
	db *sql.DB

	dnsMu sync.Mutex
	geoMu sync.Mutex
}

// Open creates (or reuses) the cache database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: mkdir: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbName)

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA synchronous = NORMAL;",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, fmt.Errorf("cache: pragma %q: %w", pragma, err)
		}
	}
	if _, err := sqlDB.Exec(storedb.Schema); err != nil {
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}

	return &Store{db: sqlDB}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements internal/geo.Cache: a geo_cache lookup by IP.
func (s *Store) Get(ip string) (string, bool) {
	s.geoMu.Lock()
	defer s.geoMu.Unlock()

	var cc string
	err := s.db.QueryRow(`SELECT country_code FROM geo_cache WHERE ip = ?`, ip).Scan(&cc)
	if err != nil {
		return "", false
	}
	return cc, true
}

// Set implements internal/geo.Cache: upserts a geo_cache row.
func (s *Store) Set(ip string, cc string) {
	s.geoMu.Lock()
	defer s.geoMu.Unlock()

	_, _ = s.db.Exec(
		`INSERT INTO geo_cache (ip, country_code, looked_up_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(ip) DO UPDATE SET country_code = excluded.country_code, looked_up_at = excluded.looked_up_at`,
		ip, cc,
	)
}

// GetDNS looks up a cached resolution for host.
func (s *Store) GetDNS(host string) (string, bool) {
	s.dnsMu.Lock()
	defer s.dnsMu.Unlock()

	var ip string
	err := s.db.QueryRow(`SELECT ip FROM dns_cache WHERE host = ?`, host).Scan(&ip)
	if err != nil {
		return "", false
	}
	return ip, true
}

// SetDNS upserts a dns_cache row for host.
func (s *Store) SetDNS(host string, ip string) {
	s.dnsMu.Lock()
	defer s.dnsMu.Unlock()

	_, _ = s.db.Exec(
		`INSERT INTO dns_cache (host, ip, resolved_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(host) DO UPDATE SET ip = excluded.ip, resolved_at = excluded.resolved_at`,
		host, ip,
	)
}
