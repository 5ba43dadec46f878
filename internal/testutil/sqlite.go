// Package testutil provides throwaway inquiry databases for tests.
package testutil

import (
	"context"
	"fmt"
	"log"
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/storage"
)

const inMemoryDataSourcePattern = "file:solarsite-test-%s?mode=memory&cache=shared&_pragma=foreign_keys(1)"

// InMemoryDatabaseConfig returns settings for a private shared-cache SQLite database.
// Every call names a new database, so tests never see each other's rows.
func InMemoryDatabaseConfig() storage.Config {
	return storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: fmt.Sprintf(inMemoryDataSourcePattern, storage.NewID()),
	}
}

type testLogWriter struct {
	testingT testing.TB
}

func (writer testLogWriter) Write(data []byte) (int, error) {
	if message := strings.TrimSpace(string(data)); message != "" {
		writer.testingT.Log(message)
	}
	return len(data), nil
}

// QuietDatabase routes gorm errors to the test log and drops record-not-found noise.
func QuietDatabase(testingT testing.TB, database *gorm.DB) *gorm.DB {
	testingT.Helper()
	if database == nil {
		testingT.Fatalf("quiet database: nil database")
	}
	return database.Session(&gorm.Session{Logger: logger.New(
		log.New(testLogWriter{testingT: testingT}, "", 0),
		logger.Config{IgnoreRecordNotFoundError: true, LogLevel: logger.Error},
	)})
}

// NewMigratedDatabase opens a fresh in-memory database with the inquiry, note and operator tables.
func NewMigratedDatabase(testingT testing.TB) *gorm.DB {
	testingT.Helper()
	database, openErr := storage.OpenDatabase(InMemoryDatabaseConfig())
	if openErr != nil {
		testingT.Fatalf("open test database: %v", openErr)
	}
	testingT.Cleanup(func() {
		_ = storage.CloseDatabase(database)
	})
	database = QuietDatabase(testingT, database)
	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		testingT.Fatalf("migrate test database: %v", migrateErr)
	}
	return database
}

// NewOperatorDatabase is NewMigratedDatabase with one operator account already present.
func NewOperatorDatabase(testingT testing.TB, username string, password string) *gorm.DB {
	testingT.Helper()
	database := NewMigratedDatabase(testingT)
	if _, operatorErr := storage.EnsureOperator(database, username, password); operatorErr != nil {
		testingT.Fatalf("create test operator: %v", operatorErr)
	}
	return database
}

// SeedInquiry stores a validated inquiry with the given status; empty status keeps New.
func SeedInquiry(testingT testing.TB, store *storage.InquiryStore, input model.InquiryInput, status string) model.Inquiry {
	testingT.Helper()
	inquiry, inquiryErr := model.NewInquiry(input)
	if inquiryErr != nil {
		testingT.Fatalf("build test inquiry: %v", inquiryErr)
	}
	if status != "" {
		inquiry.Status = status
	}
	if createErr := store.Create(context.Background(), &inquiry); createErr != nil {
		testingT.Fatalf("store test inquiry: %v", createErr)
	}
	return inquiry
}
