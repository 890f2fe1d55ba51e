package media

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
)

const maxReleaseAttempts = 10

// Releaser deletes hosted assets that are no longer referenced. Deletions are
// recorded in the database first so failures can be retried.
type Releaser struct {
	db    *gorm.DB
	store Store
}

func NewReleaser(db *gorm.DB, store Store) *Releaser {
	return &Releaser{db: db, store: store}
}

// Record queues the asset ids for release using the caller's transaction.
// Empty ids are skipped.
func Record(tx *gorm.DB, reason string, assetIDs ...string) ([]uint, error) {
	rows := make([]models.AssetRelease, 0, len(assetIDs))
	for _, id := range assetIDs {
		if id != "" {
			rows = append(rows, models.AssetRelease{AssetID: id, Reason: reason})
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "recording asset releases")
	}
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// Release deletes the recorded assets from the store. Failures are kept for RetryPending.
func (r *Releaser) Release(ctx context.Context, releaseIDs ...uint) (released int) {
	if len(releaseIDs) == 0 {
		return 0
	}
	var rows []models.AssetRelease
	if err := r.db.WithContext(ctx).Where("id IN ?", releaseIDs).Find(&rows).Error; err != nil {
		log.Printf("[MEDIA] Error loading asset releases %v: %v", releaseIDs, err)
		return 0
	}

	for _, row := range rows {
		if err := r.store.Delete(ctx, row.AssetID); err != nil {
			log.Printf("[MEDIA] Failed to release asset %s: %v", row.AssetID, err)
			r.db.WithContext(ctx).Model(&models.AssetRelease{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + ?", 1),
				"last_error": err.Error(),
			})
			continue
		}
		if err := r.db.WithContext(ctx).Unscoped().Delete(&models.AssetRelease{}, row.ID).Error; err != nil {
			log.Printf("[MEDIA] Error clearing asset release %d: %v", row.ID, err)
		}
		released++
	}
	return released
}

// RetryPending retries every release below the attempt limit.
func (r *Releaser) RetryPending(ctx context.Context) (int, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.AssetRelease{}).
		Where("attempts < ?", maxReleaseAttempts).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return 0, errors.Wrap(err, "listing pending asset releases")
	}
	return r.Release(ctx, ids...), nil
}
