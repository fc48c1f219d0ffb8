package sales

import (
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/google/uuid"
)

// CanRollback reports whether actor may roll back batch. countryCode is the
// country of the batch's sampled store and may be blank.
func CanRollback(actor identity.Actor, batch *ImportBatch, countryCode string) bool {
	if actor.IsAdmin() {
		return true
	}
	if batch.ImportedByID == actor.UserID {
		return true
	}
	return actor.Supervises(countryCode)
}

// Visibility restricts which batches a listing returns
type Visibility struct {
	// Unrestricted shows every batch
	Unrestricted bool
	// ImporterID shows batches the user imported
	ImporterID uuid.UUID
	// Countries shows batches owning rows of stores in these countries
	Countries []string
}

// VisibilityFor derives the batch visibility of an actor
func VisibilityFor(actor identity.Actor) Visibility {
	if actor.IsAdmin() {
		return Visibility{Unrestricted: true}
	}
	return Visibility{
		ImporterID: actor.UserID,
		Countries:  actor.SupervisedCountries,
	}
}
