package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TxRunner provides the shared transaction boundary for multi-write units.
// The prediction persist step (prediction row + feature cache + alerts) runs
// inside one InTx call so a partial write never survives.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return fmt.Errorf("transaction runner has nil db")
	}
	return r.db.WithContext(ctx).Transaction(fn)
}
