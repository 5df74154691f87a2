// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
)

// NewDB opens a private in-memory sqlite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Property{},
		&model.RentalApplication{},
		&model.Agreement{},
		&model.Payment{},
		&model.Notification{},
		&model.Review{},
	))
	require.NoError(t, queue.Migrate(db))
	return db
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func CreateUser(t *testing.T, db *gorm.DB, role model.Role) model.User {
	t.Helper()
	user := model.User{
		FullName: fmt.Sprintf("%s %s", role, uuid.NewString()[:8]),
		Email:    uuid.NewString() + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func CreateProperty(t *testing.T, db *gorm.DB, ownerID uuid.UUID, rent string) model.Property {
	t.Helper()
	property := model.Property{
		OwnerID:       ownerID,
		Title:         "Sunny flat",
		Street:        "12 Lake Road",
		City:          "Pune",
		State:         "MH",
		Country:       "India",
		Zipcode:       "411001",
		PropertyType:  "apartment",
		Bedrooms:      2,
		Bathrooms:     1,
		AreaSqft:      850,
		RentAmount:    decimal.RequireFromString(rent),
		DepositAmount: decimal.RequireFromString(rent).Mul(decimal.NewFromInt(2)),
	}
	require.NoError(t, db.Create(&property).Error)
	return property
}

func CreateApplication(t *testing.T, db *gorm.DB, tenantID, propertyID uuid.UUID, moveIn time.Time, duration int) model.RentalApplication {
	t.Helper()
	app := model.RentalApplication{
		TenantID:           tenantID,
		PropertyID:         propertyID,
		FullName:           "Asha Rao",
		PhoneNumber:        "+91 90000 00000",
		Email:              "asha@example.com",
		CurrentAddress:     "4 Hill Street, Mumbai",
		NumberOfOccupants:  2,
		ExpectedMoveInDate: moveIn,
		RentalDuration:     duration,
	}
	require.NoError(t, db.Create(&app).Error)
	return app
}
