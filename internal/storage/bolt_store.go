package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/httpfetch/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	seenBucket       = "seen"
	latestBucket     = "latest"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB.
// The seen bucket maps outcome keys to expiry times; the latest bucket maps
// endpoint ids to the last marked outcome as JSON.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	outcomeTTL      time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{seenBucket, latestBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		outcomeTTL:      opts.OutcomeTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenOutcome reports whether key was marked and has not expired.
func (b *boltStore) SeenOutcome(key string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(seenBucket))
		if bucket == nil {
			return fmt.Errorf("seen bucket missing")
		}

		k := []byte(key)
		value := bucket.Get(k)
		if value == nil {
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(time.Now()) {
			return bucket.Delete(k)
		}

		exists = true
		return nil
	})
	return exists, err
}

// MarkOutcome records o as seen and as the latest outcome for its endpoint.
func (b *boltStore) MarkOutcome(o domain.Outcome) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		seen := tx.Bucket([]byte(seenBucket))
		latest := tx.Bucket([]byte(latestBucket))
		if seen == nil || latest == nil {
			return fmt.Errorf("outcome buckets missing")
		}
		buf := make([]byte, expiryValueBytes)
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.outcomeTTL).Unix()))
		if err := seen.Put([]byte(o.Key()), buf); err != nil {
			return err
		}
		return latest.Put([]byte(o.EndpointID), payload)
	})
}

// Latest returns the last marked outcome for endpointID.
func (b *boltStore) Latest(endpointID string) (domain.Outcome, bool, error) {
	if b == nil || b.db == nil {
		return domain.Outcome{}, false, nil
	}

	var (
		out   domain.Outcome
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(latestBucket))
		if bucket == nil {
			return fmt.Errorf("latest bucket missing")
		}
		raw := bucket.Get([]byte(endpointID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode latest outcome for %s: %w", endpointID, err)
		}
		found = true
		return nil
	})
	return out, found, err
}

// maybeCleanupExpired removes expired seen keys on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(seenBucket))
		if bucket == nil {
			return fmt.Errorf("seen bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeExpiry decodes the expiry time from the stored byte slice.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
