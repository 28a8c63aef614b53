// ABOUTME: Charm KV client wrapper implementing the storage Repository.
// ABOUTME: Thread-safe access, sequence counters, and automatic cloud sync.
package charm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/vitals/internal/storage"
)

const (
	dbName    = "vitals"
	charmHost = "charm.2389.dev"

	SubjectPrefix     = "subject:"
	MetricPrefix      = "metric:"
	RecipePrefix      = "recipe:"
	SourcePrefix      = "source:"
	ObservationPrefix = "obs:"
	seqPrefix         = "seq:"
)

var _ storage.Repository = (*Client)(nil)

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// Client wraps a Charm KV database behind the Repository interface. All
// records are JSON values under type-prefixed keys; filtering, ordering,
// and pagination happen client-side.
type Client struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.RWMutex
}

// InitClient initializes the global Charm client.
// Thread-safe; can be called multiple times.
func InitClient() (*Client, error) {
	clientOnce.Do(func() {
		// Set server before opening KV
		if err := os.Setenv("CHARM_HOST", charmHost); err != nil {
			clientErr = err
			return
		}

		db, err := kv.OpenWithDefaultsFallback(dbName)
		if err != nil {
			clientErr = err
			return
		}

		globalClient = &Client{
			kv:       db,
			autoSync: true,
		}

		// Pull remote data on startup (skip in read-only mode)
		if !db.IsReadOnly() {
			_ = db.Sync()
		}
	})

	return globalClient, clientErr
}

// GetClient returns the global client, initializing if needed.
func GetClient() (*Client, error) {
	return InitClient()
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// syncIfEnabled calls Sync if autoSync is enabled.
func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

// Reset wipes local data and rebuilds from Charm Cloud.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// recordKey builds a fixed-width key so lexicographic and numeric id order
// agree.
func recordKey(prefix string, id int64) string {
	return fmt.Sprintf("%s%020d", prefix, id)
}

// nextID allocates the next id for an entity prefix. Callers must hold the
// write lock.
func (c *Client) nextID(prefix string) (int64, error) {
	key := []byte(seqPrefix + prefix)
	var current int64
	if raw, err := c.kv.Get(key); err == nil && len(raw) > 0 {
		current, _ = strconv.ParseInt(string(raw), 10, 64)
	}
	next := current + 1
	if err := c.kv.Set(key, []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, fmt.Errorf("advance %s sequence: %w", prefix, err)
	}
	return next, nil
}

// bumpSeq raises an entity sequence to at least id, for imports that carry
// their own ids. Callers must hold the write lock.
func (c *Client) bumpSeq(prefix string, id int64) error {
	key := []byte(seqPrefix + prefix)
	var current int64
	if raw, err := c.kv.Get(key); err == nil && len(raw) > 0 {
		current, _ = strconv.ParseInt(string(raw), 10, 64)
	}
	if id <= current {
		return nil
	}
	return c.kv.Set(key, []byte(strconv.FormatInt(id, 10)))
}

// set stores a value with the given key.
func (c *Client) set(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(key, data)
}

func (c *Client) setLocked(key string, data []byte) error {
	if c.kv.IsReadOnly() {
		return fmt.Errorf("cannot write: database is locked by another process (MCP server?)")
	}

	if err := c.kv.Set([]byte(key), data); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

// get retrieves a single value by exact key.
func (c *Client) get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// kv.Get reports missing keys as errors; distinguish via Keys.
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, false, err
	}
	target := []byte(key)
	for _, k := range keys {
		if bytes.Equal(k, target) {
			val, err := c.kv.Get(k)
			if err != nil {
				return nil, false, err
			}
			return val, true, nil
		}
	}
	return nil, false, nil
}

// listByPrefix returns all values with keys matching the given prefix, in
// key order.
func (c *Client) listByPrefix(prefix string) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var results [][]byte
	prefixBytes := []byte(prefix)

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if bytes.HasPrefix(key, prefixBytes) {
			val, err := c.kv.Get(key)
			if err != nil {
				return nil, err
			}
			results = append(results, val)
		}
	}

	return results, nil
}

// unmarshalJSON is a helper to unmarshal JSON data.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// marshalJSON is a helper to marshal data to JSON.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
