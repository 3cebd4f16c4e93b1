package mongostore

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"bestai/archive"
)

// classify maps driver errors to archive error kinds. Network, timeout and
// server selection failures mean the store is unavailable; command errors
// such as a missing search index are failures of the query.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "server selection error") {
		return archive.StoreUnavailable(op, err)
	}
	return archive.QueryFailed(op, err)
}
