// Package store persists extracted receipts in an embedded bbolt database.
// The pipeline itself never writes here; callers decide what to keep.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/joseph-ayodele/receipt-extract/internal/fields"
)

const bucketName = "receipts"

// Record is a saved extraction result.
type Record struct {
	ID         uuid.UUID          `json:"id"`
	SourcePath string             `json:"source_path"`
	Method     string             `json:"method"`
	Receipt    fields.ReceiptData `json:"receipt"`
	CreatedAt  time.Time          `json:"created_at"`
}

// DB is the receipt store contract.
type DB interface {
	Save(rec *Record) error
	Get(id uuid.UUID) (*Record, error)
	List() ([]*Record, error)
	Delete(id uuid.UUID) error
	Close() error
}

// BoltDB implements DB on bbolt.
type BoltDB struct {
	db     *bbolt.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*BoltDB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &BoltDB{db: db, logger: logger}, nil
}

// Save validates the receipt against the JSON schema before writing. A zero ID
// is assigned a fresh UUID.
func (b *BoltDB) Save(rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	receiptJSON, err := json.Marshal(rec.Receipt)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	if err := fields.ValidateReceiptJSON(receiptJSON); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(rec.ID.String()), data)
	})
	if err != nil {
		return err
	}
	b.logger.Debug("store.save.ok", "id", rec.ID.String(), "source", rec.SourcePath)
	return nil
}

func (b *BoltDB) Get(id uuid.UUID) (*Record, error) {
	var rec *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id.String()))
		if data == nil {
			return fmt.Errorf("receipt not found: %s", id)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *BoltDB) List() ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (b *BoltDB) Delete(id uuid.UUID) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(id.String()))
	})
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}
