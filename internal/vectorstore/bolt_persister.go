package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"docchat/internal/helper"
	"docchat/internal/models"
)

var bucketRecords = []byte("records")

const lockTimeout = time.Second

// BoltPersister keeps one bbolt key per record, keyed by insertion position so
// cursor order equals insertion order.
type BoltPersister struct {
	db *bbolt.DB
}

// NewBoltPersister opens (or creates) the db at path. It gives up after
// lockTimeout when another process holds the file.
func NewBoltPersister(path string) (*BoltPersister, error) {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketRecords, err)
	}

	return &BoltPersister{db: db}, nil
}

func positionKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

func (p *BoltPersister) Load(ctx context.Context) ([]models.Record, error) {
	var records []models.Record
	err := p.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var r models.Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to decode record at %d: %w", binary.BigEndian.Uint64(k), err)
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}

// Save replaces the bucket with records in one transaction, so positions left
// over from an unreadable or longer snapshot never survive.
func (p *BoltPersister) Save(ctx context.Context, records []models.Record) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return err
		}

		for i, r := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := b.Put(positionKey(i), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *BoltPersister) Close() error {
	return p.db.Close()
}
