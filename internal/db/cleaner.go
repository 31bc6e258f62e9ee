package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// FileRemover deletes stored document files by storage name.
type FileRemover interface {
	Delete(name string) error
}

// PurgeDeletedDocuments hard-deletes documents soft-deleted before cutoff
// and removes their files. It returns the number of purged rows.
func PurgeDeletedDocuments(ctx context.Context, db *sqlx.DB, files FileRemover, cutoff time.Time, log *zap.Logger) (int64, error) {
	var victims []struct {
		ID          int64  `db:"id"`
		StorageName string `db:"storage_name"`
	}
	if err := db.SelectContext(ctx, &victims, `
		SELECT id, storage_name FROM documents
		 WHERE deleted_at IS NOT NULL
		   AND deleted_at < $1
	`, cutoff); err != nil {
		return 0, fmt.Errorf("select purgeable documents: %w", err)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(victims))
	for _, v := range victims {
		ids = append(ids, v.ID)
	}

	res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}

	for _, v := range victims {
		if err := files.Delete(v.StorageName); err != nil {
			log.Warn("failed to remove document file", zap.Int64("id", v.ID), zap.Error(err))
		}
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}

// StartSoftDeleteCleaner periodically purges documents that were deleted
// more than retention ago.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sqlx.DB,
	files FileRemover,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := PurgeDeletedDocuments(ctx, db, files, time.Now().Add(-retention), log)
				if err != nil {
					log.Error("failed to clean soft-deleted documents", zap.Error(err))
					continue
				}
				if rows > 0 {
					log.Info("cleaned soft-deleted documents", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
