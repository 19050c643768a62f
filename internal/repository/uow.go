package repository

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// UnitOfWork wraps a body of reads and writes in a storage transaction when
// the deployment supports one, and degrades to sequential execution on the
// bare session when it does not (single-node deployments without
// transactional semantics). Callers never branch on session-or-not: they get
// a *gorm.DB either way.
type UnitOfWork struct {
	db      *gorm.DB
	loggerf func(format string, args ...interface{})

	warnOnce sync.Once
}

func NewUnitOfWork(db *gorm.DB, loggerf func(format string, args ...interface{})) *UnitOfWork {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &UnitOfWork{db: db, loggerf: loggerf}
}

func (u *UnitOfWork) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		if !isTxUnsupported(tx.Error) {
			return tx.Error
		}
		// Degraded mode: donation and campaign writes happen sequentially.
		// A failure between them leaves a window that needs manual
		// reconciliation, which is why it is logged every time.
		u.warnOnce.Do(func() {
			u.loggerf("level=warn msg=storage does not support transactions, falling back to sequential writes err=%v", tx.Error)
		})
		return fn(u.db.WithContext(ctx))
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func isTxUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "transactions are not supported") ||
		strings.Contains(msg, "transaction not supported") ||
		strings.Contains(msg, "does not support transactions")
}
