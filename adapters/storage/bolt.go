package storage

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// boltKV maps each bucket to a BoltDB bucket
type boltKV struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a BoltDB file
func NewBoltStore(filename string) (*DocumentStore, error) {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(filename, 0644, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketCatalogs, bucketStrategies, bucketResults} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return newDocumentStore(BackendBolt, &boltKV{db: db}), nil
}

func (b *boltKV) put(bucket, key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), value)
	})
}

func (b *boltKV) get(bucket, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// Bytes are only valid inside the transaction
		if v := tx.Bucket([]byte(bucket)).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, value != nil, err
}

func (b *boltKV) each(bucket string, fn func(string, []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := fn(string(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltKV) remove(bucket, key string) (bool, error) {
	var found bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk.Get([]byte(key)) == nil {
			return nil
		}
		found = true
		return bk.Delete([]byte(key))
	})
	return found, err
}

func (b *boltKV) Close() error {
	return b.db.Close()
}
