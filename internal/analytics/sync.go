package analytics

import (
	"context"

	"github.com/dense-analysis/stocker/internal/model"
	log "github.com/sirupsen/logrus"
)

const DefaultPageSize = 1000

// Ledger reads pages of the ledger in ID order.
type Ledger interface {
	LedgerSince(ctx context.Context, afterID uint, limit int) ([]model.Transaction, error)
}

// Mirror is where ledger entries are copied to.
type Mirror interface {
	LastMirroredID(ctx context.Context) (uint64, error)
	AppendLedger(ctx context.Context, transactionList []model.Transaction) error
}

// Sync copies every ledger entry newer than the mirror's latest in pages of `pageSize`.
//
// It returns the number of entries copied.
func Sync(ctx context.Context, ledger Ledger, mirror Mirror, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	lastID, err := mirror.LastMirroredID(ctx)

	if err != nil {
		return 0, err
	}

	copied := 0

	for {
		page, err := ledger.LedgerSince(ctx, uint(lastID), pageSize)

		if err != nil {
			return copied, err
		}

		if len(page) == 0 {
			break
		}

		if err := mirror.AppendLedger(ctx, page); err != nil {
			return copied, err
		}

		copied += len(page)
		lastID = uint64(page[len(page)-1].ID)

		log.WithFields(log.Fields{"rows": len(page), "last_id": lastID}).Debug("mirrored ledger page")

		if len(page) < pageSize {
			break
		}
	}

	return copied, nil
}
