package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens an in-memory database with the import schema
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each connection of :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.CountryModel{},
		&models.StoreModel{},
		&models.ProductModel{},
		&models.ListingModel{},
		&models.ListingMappingModel{},
		&models.UserModel{},
		&models.ImportBatchModel{},
		&models.SalesRecordModel{},
	))
	return db
}

type fixture struct {
	db *gorm.DB
	t  *testing.T
}

func (f fixture) country(code, name string) {
	require.NoError(f.t, f.db.Create(&models.CountryModel{Code: code, Name: name}).Error)
}

func (f fixture) store(platform marketplace.Platform, country string) models.StoreModel {
	now := time.Now().UTC()
	s := models.StoreModel{
		ID:          uuid.New(),
		Name:        string(platform) + " " + country,
		Platform:    platform,
		CountryCode: country,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(f.t, f.db.Create(&s).Error)
	return s
}

func (f fixture) product(sku string) models.ProductModel {
	now := time.Now().UTC()
	p := models.ProductModel{ID: uuid.New(), SKU: sku, Name: "Product " + sku, CreatedAt: now, UpdatedAt: now}
	require.NoError(f.t, f.db.Create(&p).Error)
	return p
}

// listing creates a listing; created orders listings created in the same test
func (f fixture) listing(store models.StoreModel, product models.ProductModel, code, title string, created time.Time) models.ListingModel {
	l := models.ListingModel{
		BaseModel:    models.BaseModel{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
		StoreID:      store.ID,
		ProductID:    product.ID,
		ProductCode:  code,
		StoreTitle:   title,
		CurrentPrice: decimal.NewFromInt(100),
	}
	require.NoError(f.t, f.db.Create(&l).Error)
	return l
}

func (f fixture) user(username, nickname string) models.UserModel {
	u := models.UserModel{ID: uuid.New(), Username: username, Nickname: nickname}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

func (f fixture) batch(platform marketplace.Platform, importer uuid.UUID, at time.Time) *sales.ImportBatch {
	b := sales.NewImportBatch(platform, "orders.xlsx", importer, at)
	require.NoError(f.t, NewGormImportBatchRepository(f.db).Create(f.t.Context(), b))
	return b
}

func (f fixture) record(orderID string, listing models.ListingModel, batchID *uuid.UUID, revenue int64) *sales.SalesRecord {
	r := &sales.SalesRecord{
		BaseEntity:      shared.NewBaseEntity(),
		PlatformOrderID: orderID,
		RecordDate:      time.Now().UTC(),
		SalesVolume:     1,
		Revenue:         decimal.NewFromInt(revenue),
		Currency:        "IDR",
		Platform:        marketplace.PlatformShopee,
		Notes:           "Imported from SHOPEE",
		EnteredByID:     uuid.New(),
		StoreID:         listing.StoreID,
		ProductID:       listing.ProductID,
		ListingID:       listing.ID,
		ImportBatchID:   batchID,
	}
	require.NoError(f.t, NewGormSalesRecordRepository(f.db).Upsert(f.t.Context(), r))
	return r
}

// findRecord loads a ledger row by order id, or nil when there is none
func (f fixture) findRecord(orderID string) *sales.SalesRecord {
	f.t.Helper()
	var model models.SalesRecordModel
	err := f.db.Where("platform_order_id = ?", orderID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	require.NoError(f.t, err)
	return model.ToDomain()
}

// countInBatch counts the ledger rows owned by a batch
func (f fixture) countInBatch(batchID uuid.UUID) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&models.SalesRecordModel{}).Where("import_batch_id = ?", batchID).Count(&n).Error)
	return n
}
