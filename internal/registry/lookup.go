// Package registry resolves transponder hex codes to aircraft details from the FAA registry.
// Lookups never fail: a missing registration or a database error yields a placeholder.
package registry

import (
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	UnknownType       = "MODEL?"
	UnknownRegistrant = "REG?"
)

// Store is the subset of the registry repository used for lookups
type Store interface {
	LookupType(modeSHex string) (string, bool, error)
	LookupRegistrant(modeSHex string) (string, bool, error)
}

type answerKind uint8

const (
	typeAnswer answerKind = iota
	registrantAnswer
)

type cacheKey struct {
	kind answerKind
	hex  string
}

// Lookup answers registry queries through an expiring LRU cache
type Lookup struct {
	store Store
	cache *expirable.LRU[cacheKey, string]
}

// NewLookup creates a Lookup caching up to size answers of each kind for ttl.
// The cache runs an expiry goroutine for the life of the process, so create one
// Lookup per registry and share it.
func NewLookup(store Store, size int, ttl time.Duration) *Lookup {
	if size <= 0 {
		size = 512
	}
	return &Lookup{
		store: store,
		cache: expirable.NewLRU[cacheKey, string](size*2, nil, ttl),
	}
}

// LookupType returns the aircraft model for hex, or UnknownType
func (l *Lookup) LookupType(hex string) string {
	return l.resolve(typeAnswer, hex, UnknownType, l.store.LookupType)
}

// LookupRegistrant returns the registrant name for hex, or UnknownRegistrant
func (l *Lookup) LookupRegistrant(hex string) string {
	return l.resolve(registrantAnswer, hex, UnknownRegistrant, l.store.LookupRegistrant)
}

func (l *Lookup) resolve(kind answerKind, hex, placeholder string,
	query func(string) (string, bool, error)) string {
	hex = strings.ToUpper(strings.TrimSpace(hex))
	if hex == "" {
		return placeholder
	}

	key := cacheKey{kind: kind, hex: hex}
	if v, ok := l.cache.Get(key); ok {
		return v
	}

	value, found, err := query(hex)
	if err != nil {
		// not cached, so the next lookup retries the database
		slog.Warn("Registry lookup failed", "hex", hex, "error", err)
		return placeholder
	}
	if !found {
		value = placeholder
	}

	l.cache.Add(key, value)
	return value
}
