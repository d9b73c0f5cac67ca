// Package plancache persists compiled plan snapshots in a pebble database,
// keyed by the hash of the graph document and the compile options.
package plancache

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/birdayz/kgraph"
	"github.com/birdayz/kgraph/kserde"
)

// ErrNotFound is returned by Get for keys without a cached plan.
var ErrNotFound = errors.New("plancache: plan not found")

const keyPrefix = "plan/"

// Cache is a persistent snapshot store. It is safe for concurrent use.
type Cache struct {
	dir   string
	db    *pebble.DB
	serde kserde.Serde[kgraph.Snapshot]
}

// Open opens or creates the cache in dir.
func Open(dir string) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dir, err)
	}
	return &Cache{
		dir:   dir,
		db:    db,
		serde: kserde.StrictJSON[kgraph.Snapshot](),
	}, nil
}

// Key builds the cache key of a document hash compiled with the given
// option tags. Tag order does not matter.
func Key(hash string, tags ...string) string {
	key := keyPrefix + hash
	if len(tags) == 0 {
		return key
	}
	sorted := append([]string(nil), tags...)
	slices.Sort(sorted)
	return key + "/" + strings.Join(sorted, ",")
}

// Get returns the snapshot stored under key.
func (c *Cache) Get(key string) (kgraph.Snapshot, error) {
	v, closer, err := c.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return kgraph.Snapshot{}, ErrNotFound
		}
		return kgraph.Snapshot{}, err
	}
	defer closer.Close()

	s, err := c.serde.Deserializer(v)
	if err != nil {
		return kgraph.Snapshot{}, fmt.Errorf("plancache: corrupt entry %s: %w", key, err)
	}
	return s, nil
}

// Put stores a snapshot under key, replacing any previous entry.
func (c *Cache) Put(key string, s kgraph.Snapshot) error {
	v, err := c.serde.Serializer(s)
	if err != nil {
		return err
	}
	return c.db.Set([]byte(key), v, &pebble.WriteOptions{Sync: false})
}

// Delete removes the entry under key.
func (c *Cache) Delete(key string) error {
	return c.db.Delete([]byte(key), &pebble.WriteOptions{Sync: false})
}

// Keys iterates over all cached keys in order.
func (c *Cache) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		it := c.db.NewIter(&pebble.IterOptions{
			LowerBound: []byte(keyPrefix),
			UpperBound: []byte("plan0"), // '0' follows '/'
		})
		defer it.Close()

		for it.First(); it.Valid(); it.Next() {
			if !yield(string(it.Key())) {
				return
			}
		}
	}
}

// Purge removes every cached plan and returns how many were removed.
func (c *Cache) Purge() (int, error) {
	var keys []string
	for k := range c.Keys() {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := c.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// Close flushes and closes the database.
func (c *Cache) Close() error {
	if err := c.db.Flush(); err != nil {
		return err
	}
	return c.db.Close()
}
