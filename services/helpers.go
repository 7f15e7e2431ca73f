package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/urjafest/sportsfest-backend/repositories"
)

// storeTimeout ограничивает каждый поход в хранилище.
// Зависшие вызовы превращаются в ErrStoreTimeout, а не вечную загрузку.
const storeTimeout = 5 * time.Second

func storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// storeError переводит инфраструктурные сбои хранилища в ошибки
// таксономии сервисов. Остальные ошибки проходят без изменений.
func storeError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}

// TxManager прячет BeginTx/Commit/Rollback за одним колбэком,
// чтобы сервисы можно было тестировать без живой базы.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (txErr error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}
