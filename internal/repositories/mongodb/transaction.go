package mongodb

import (
	"context"
	"errors"

	"shuttle/internal/repositories/interfaces"
	"shuttle/pkg/database"
	"shuttle/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

type txRunner struct {
	db         *database.MongoDB
	maxRetries int
	logger     *logger.Logger
}

// NewTxRunner returns a TxRunner that retries optimistic conflicts up to
// maxRetries attempts in total.
func NewTxRunner(db *database.MongoDB, maxRetries int, log *logger.Logger) interfaces.TxRunner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &txRunner{
		db:         db,
		maxRetries: maxRetries,
		logger:     log,
	}
}

func (t *txRunner) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		_, err = t.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			return nil, fn(sessCtx)
		})
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.logger.WithContext(ctx).WithError(err).Debugf("Transaction conflict, attempt %d of %d", attempt, t.maxRetries)
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, interfaces.ErrConflict) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel("TransientTransactionError")
	}
	return mongo.IsDuplicateKeyError(err)
}
