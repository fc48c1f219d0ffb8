// Package datascope provides row-level visibility filtering for GORM queries.
//
// A Filter is derived from a sales.Visibility and narrows queries on a
// resource to the rows the actor may see:
//   - unrestricted actors see every row
//   - other actors see rows they own, plus rows tied to stores in the
//     countries they supervise
//
// Usage:
//
//	filter := datascope.NewFilter(sales.VisibilityFor(actor))
//	db.Scopes(filter.ApplyToQuery(datascope.ResourceImportBatch)).Find(&batches)
package datascope

import (
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceImportBatch is the import batch resource
const ResourceImportBatch = "import_batch"

// scopeFields says how a resource is tied to an owner and to a country
type scopeFields struct {
	// owner column holding the user id
	owner string
	// country subquery; must select a single column and take the outer
	// table's row through a correlated reference
	country string
}

// scopedResources is the single source of truth for visibility configuration
var scopedResources = map[string]scopeFields{
	ResourceImportBatch: {
		owner: "import_batches.imported_by_id",
		country: "EXISTS (SELECT 1 FROM sales_data sd JOIN stores s ON s.id = sd.store_id " +
			"WHERE sd.import_batch_id = import_batches.id AND s.country_code IN ?)",
	},
}

// Filter applies visibility filtering to GORM queries
type Filter struct {
	visibility sales.Visibility
}

// NewFilter creates a Filter for the given visibility
func NewFilter(visibility sales.Visibility) *Filter {
	return &Filter{visibility: visibility}
}

// Apply applies visibility filtering for a specific resource
func (f *Filter) Apply(db *gorm.DB, resource string) *gorm.DB {
	if f.visibility.Unrestricted {
		return db
	}

	fields, ok := scopedResources[resource]
	if !ok {
		// Unknown resource: nothing is visible
		return db.Where("1 = 0")
	}

	hasOwner := f.visibility.ImporterID != uuid.Nil
	hasCountries := len(f.visibility.Countries) > 0

	switch {
	case hasOwner && hasCountries:
		return db.Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where(fields.owner+" = ?", f.visibility.ImporterID).
				Or(fields.country, f.visibility.Countries),
		)
	case hasOwner:
		return db.Where(fields.owner+" = ?", f.visibility.ImporterID)
	case hasCountries:
		return db.Where(fields.country, f.visibility.Countries)
	default:
		return db.Where("1 = 0")
	}
}

// ApplyToQuery returns a GORM scope function applying the filter to resource
func (f *Filter) ApplyToQuery(resource string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return f.Apply(db, resource)
	}
}
