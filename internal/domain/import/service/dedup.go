package service

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/repository"
)

// dedupFilter drops rows whose dedup key is already stored under the
// statement. It queries through the import's own transaction, so rows
// inserted earlier in the same batch count as stored.
type dedupFilter struct{}

func (dedupFilter) IsDuplicate(ctx context.Context, q repository.Queries, key repository.DedupKey) (bool, error) {
	exists, err := q.TransactionExists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate for %q on %s: %w",
			key.StoreName, key.TransactionDate.Format("2006-01-02"), err)
	}
	return exists, nil
}
