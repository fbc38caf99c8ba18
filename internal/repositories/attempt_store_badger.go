package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerAttemptStore keeps attempts in an embedded badger database so they
// survive a process restart on the same machine.
type BadgerAttemptStore struct {
	DB  *badger.DB
	TTL time.Duration
}

func NewBadgerAttemptStore(db *badger.DB, freshness time.Duration) *BadgerAttemptStore {
	return &BadgerAttemptStore{DB: db, TTL: recordTTL(freshness)}
}

func (s *BadgerAttemptStore) Load(_ context.Context, key string) (models.PaymentAttempt, error) {
	var raw []byte
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.PaymentAttempt{}, ErrNoAttempt
	}
	if err != nil {
		return models.PaymentAttempt{}, fmt.Errorf("read attempt: %w", err)
	}
	return decodeAttempt(raw)
}

func (s *BadgerAttemptStore) Save(_ context.Context, key string, a models.PaymentAttempt) error {
	raw, err := encodeAttempt(a)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	err = s.DB.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), raw)
		if s.TTL > 0 {
			e = e.WithTTL(s.TTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("store attempt: %w", err)
	}
	return nil
}

func (s *BadgerAttemptStore) Clear(_ context.Context, key string) error {
	err := s.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("clear attempt: %w", err)
	}
	return nil
}

func (s *BadgerAttemptStore) ClearIf(_ context.Context, key, paymentRef string) (bool, error) {
	cleared := false
	err := s.DB.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !ownedBy(raw, paymentRef) {
			return nil
		}
		if err := txn.Delete([]byte(key)); err != nil {
			return err
		}
		cleared = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("clear attempt: %w", err)
	}
	return cleared, nil
}

// writeRaw stores bytes as-is; tests use it to plant corrupt records.
func (s *BadgerAttemptStore) writeRaw(key string, raw []byte) error {
	return s.DB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}
