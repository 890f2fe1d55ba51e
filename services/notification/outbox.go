package notification

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
)

const (
	defaultMaxAttempts  = 5
	defaultClaimTimeout = 10 * time.Minute
)

// Enqueue writes a pending notification using the caller's transaction.
func Enqueue(tx *gorm.DB, kind, to string, msg Message) (uint, error) {
	n := models.Notification{
		Kind:      kind,
		Recipient: to,
		Subject:   msg.Subject,
		Body:      msg.HTML,
		Status:    models.NotificationPending,
	}
	if err := tx.Create(&n).Error; err != nil {
		return 0, errors.Wrap(err, "enqueue notification")
	}
	return n.ID, nil
}

// Dispatcher delivers outbox rows. Failed rows stay in the outbox and are
// picked up again by RetryPending until MaxAttempts is reached.
//
// A row is claimed (moved to SENDING) before it is handed to the notifier,
// so only one caller delivers it. A claim older than ClaimTimeout is treated
// as abandoned and may be taken again.
type Dispatcher struct {
	db           *gorm.DB
	notifier     Notifier
	MaxAttempts  int
	ClaimTimeout time.Duration
	sync         bool
}

func NewDispatcher(db *gorm.DB, notifier Notifier) *Dispatcher {
	return &Dispatcher{db: db, notifier: notifier, MaxAttempts: defaultMaxAttempts, ClaimTimeout: defaultClaimTimeout}
}

// NewSyncDispatcher delivers inside Dispatch instead of on a goroutine.
func NewSyncDispatcher(db *gorm.DB, notifier Notifier) *Dispatcher {
	d := NewDispatcher(db, notifier)
	d.sync = true
	return d
}

func (d *Dispatcher) Dispatch(ids ...uint) {
	if len(ids) == 0 {
		return
	}
	if d.sync {
		d.Flush(context.Background(), ids...)
		return
	}
	go d.Flush(context.Background(), ids...)
}

// Flush attempts delivery of the given notifications and returns how many were sent.
func (d *Dispatcher) Flush(ctx context.Context, ids ...uint) int {
	var pending []models.Notification
	if err := d.db.WithContext(ctx).
		Where("id IN ? AND status <> ?", ids, models.NotificationSent).
		Find(&pending).Error; err != nil {
		log.Printf("[NOTIFY] Error loading notifications %v: %v", ids, err)
		return 0
	}

	sent := 0
	for i := range pending {
		ok, err := d.claim(ctx, pending[i].ID)
		if err != nil {
			log.Printf("[NOTIFY] Error claiming notification %d: %v", pending[i].ID, err)
			continue
		}
		if !ok {
			continue
		}
		if d.deliver(ctx, &pending[i]) {
			sent++
		}
	}
	return sent
}

// RetryPending re-sends every undelivered notification below the attempt limit.
func (d *Dispatcher) RetryPending(ctx context.Context) (int, error) {
	var ids []uint
	if err := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("status <> ? AND attempts < ?", models.NotificationSent, d.MaxAttempts).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return 0, errors.Wrap(err, "listing pending notifications")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return d.Flush(ctx, ids...), nil
}

// claim moves a row to SENDING. It reports false when another caller holds
// the row or it was already delivered.
func (d *Dispatcher) claim(ctx context.Context, id uint) (bool, error) {
	res := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Where("status IN ? OR (status = ? AND updated_at < ?)",
			[]string{models.NotificationPending, models.NotificationFailed},
			models.NotificationSending, time.Now().Add(-d.ClaimTimeout)).
		Update("status", models.NotificationSending)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "claiming notification")
	}
	return res.RowsAffected == 1, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) bool {
	err := d.notifier.Send(ctx, n.Recipient, n.Subject, n.Body)

	updates := map[string]interface{}{"attempts": gorm.Expr("attempts + ?", 1)}
	if err != nil {
		log.Printf("[NOTIFY] Failed to send %s notification %d to %s: %v", n.Kind, n.ID, n.Recipient, err)
		updates["status"] = models.NotificationFailed
		updates["last_error"] = err.Error()
	} else {
		now := time.Now()
		updates["status"] = models.NotificationSent
		updates["sent_at"] = &now
		updates["last_error"] = ""
	}

	if uerr := d.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", n.ID).Updates(updates).Error; uerr != nil {
		log.Printf("[NOTIFY] Error updating notification %d: %v", n.ID, uerr)
	}
	return err == nil
}
