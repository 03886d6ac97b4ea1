package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Query is a logical query descriptor: an intent name plus a normalized
// filter set. Equal intent + filters produce equal keys regardless of the
// order filters were added in.
type Query struct {
	Intent  string
	Filters map[string]string
}

// NewQuery creates a query descriptor.
func NewQuery(intent string, filters map[string]string) Query {
	return Query{Intent: intent, Filters: filters}
}

// Key derives the deterministic cache key: the canonical form is the
// intent followed by filters sorted by name, hashed to a fixed width.
func (q Query) Key() string {
	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(q.Intent)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(q.Filters[name])
	}

	sum := md5.Sum([]byte(b.String()))
	return q.Intent + ":" + hex.EncodeToString(sum[:])
}
