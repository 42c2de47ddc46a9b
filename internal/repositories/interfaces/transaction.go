package interfaces

import (
	"context"
)

// TxRunner runs fn inside one atomic transaction. Repository calls made with
// the context handed to fn take part in that transaction. Conflicts are
// retried a bounded number of times before the last error is returned.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
