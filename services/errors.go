package services

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studysync/models"
)

// Error kinds shared by every service. Callers match them with errors.Is;
// the HTTP layer maps each kind to a status code.
var (
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrAmountMismatch    = errors.New("payment amount does not match course price")
	ErrAlreadyProcessed  = errors.New("payment already processed")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrNotCurrentLecture = errors.New("lecture is not the current lecture")
	ErrAlreadyCompleted  = errors.New("lecture already completed")
	ErrNotEligible       = errors.New("not eligible")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Roles  models.Roles
}

func (a Actor) Is(r models.Role) bool { return a.Roles.Has(r) }

func (a Actor) Can(c models.Capability) bool { return models.Can(a.Roles, c) }

// Lookup converts gorm.ErrRecordNotFound into ErrNotFound and wraps anything else.
func Lookup(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrapf(err, "loading %s", what)
}

// Invalid returns an ErrValidation carrying a client facing message.
func Invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// ForUpdate adds a row lock where the dialect supports one. SQLite serializes
// writers on its own.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Dispatcher delivers outbox rows after the transaction that wrote them commits.
type Dispatcher interface {
	Dispatch(ids ...uint)
}
