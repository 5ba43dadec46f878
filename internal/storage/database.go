package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	// DriverNameSQLite identifies the SQLite driver implementation.
	DriverNameSQLite = "sqlite"

	errorMessageMissingDatabaseDriverName = "storage: missing database driver name"
	errorMessageUnsupportedDatabaseDriver = "storage: unsupported database driver"
	errorMessageMissingDataSourceName     = "storage: missing database data source name"
	errorMessageOpenDatabase              = "storage: open database"
	errorMessageOpenSQLiteDatabase        = "storage: open sqlite database"
	errorMessageCreateDatabaseDirectory   = "storage: create database directory"
	errorMessageCloseDatabase             = "storage: close database"

	sqliteFileScheme          = "file:"
	sqliteMemoryMarker        = ":memory:"
	sqliteMemoryModeParameter = "mode=memory"
	sqlitePragmaParameter     = "_pragma="
	sqliteForeignKeysPragma   = "_pragma=foreign_keys(1)"
	sqliteBusyTimeoutPragma   = "_pragma=busy_timeout(5000)"
	sqliteJournalModePragma   = "_pragma=journal_mode(WAL)"
	databaseDirectoryMode     = 0o750
	slowQueryThreshold        = 500 * time.Millisecond
)

var (
	// ErrMissingDatabaseDriverName indicates the database driver name configuration was omitted.
	ErrMissingDatabaseDriverName = errors.New(errorMessageMissingDatabaseDriverName)
	// ErrUnsupportedDatabaseDriver indicates the provided database driver is not supported.
	ErrUnsupportedDatabaseDriver = errors.New(errorMessageUnsupportedDatabaseDriver)
	// ErrMissingDataSourceName indicates the database data source name configuration was omitted.
	ErrMissingDataSourceName = errors.New(errorMessageMissingDataSourceName)
)

type databaseOpener func(Config) (*gorm.DB, error)

var databaseOpeners = map[string]databaseOpener{
	DriverNameSQLite: openSQLiteDatabase,
}

// Config captures database connection configuration.
// Logger receives slow queries and driver errors; nil keeps gorm quiet.
type Config struct {
	DriverName     string
	DataSourceName string
	Logger         *zap.Logger
}

// OpenDatabase opens the inquiry database using the configured driver and data source name.
func OpenDatabase(configuration Config) (*gorm.DB, error) {
	trimmedDriverName := strings.TrimSpace(configuration.DriverName)
	if trimmedDriverName == "" {
		return nil, ErrMissingDatabaseDriverName
	}

	opener, driverSupported := databaseOpeners[trimmedDriverName]
	if !driverSupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabaseDriver, trimmedDriverName)
	}

	database, openErr := opener(Config{
		DriverName:     trimmedDriverName,
		DataSourceName: strings.TrimSpace(configuration.DataSourceName),
		Logger:         configuration.Logger,
	})
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenDatabase, openErr)
	}

	return database, nil
}

// openSQLiteDatabase opens a SQLite file or shared in-memory database with
// foreign keys enforced so notes follow their inquiry.
func openSQLiteDatabase(configuration Config) (*gorm.DB, error) {
	if configuration.DataSourceName == "" {
		return nil, ErrMissingDataSourceName
	}

	if directoryErr := ensureSQLiteDirectory(configuration.DataSourceName); directoryErr != nil {
		return nil, directoryErr
	}

	database, openErr := gorm.Open(
		sqlite.Open(sqliteDataSourceName(configuration.DataSourceName)),
		&gorm.Config{Logger: newGormLogger(configuration.Logger)},
	)
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenSQLiteDatabase, openErr)
	}

	return database, nil
}

// sqliteDataSourceName appends the pragmas the inquiry store relies on unless the caller already set them.
func sqliteDataSourceName(dataSourceName string) string {
	pragmas := []string{sqliteForeignKeysPragma, sqliteBusyTimeoutPragma}
	if !isSQLiteMemoryDataSource(dataSourceName) {
		pragmas = append(pragmas, sqliteJournalModePragma)
	}

	missing := make([]string, 0, len(pragmas))
	for _, pragma := range pragmas {
		pragmaName := strings.TrimPrefix(pragma, sqlitePragmaParameter)
		pragmaName = pragmaName[:strings.Index(pragmaName, "(")]
		if strings.Contains(dataSourceName, sqlitePragmaParameter+pragmaName) {
			continue
		}
		missing = append(missing, pragma)
	}
	if len(missing) == 0 {
		return dataSourceName
	}

	separator := "?"
	if strings.Contains(dataSourceName, "?") {
		separator = "&"
	}
	return dataSourceName + separator + strings.Join(missing, "&")
}

func isSQLiteMemoryDataSource(dataSourceName string) bool {
	return strings.Contains(dataSourceName, sqliteMemoryMarker) || strings.Contains(dataSourceName, sqliteMemoryModeParameter)
}

// sqliteFilePath returns the on-disk path named by a data source, or "" for in-memory databases.
func sqliteFilePath(dataSourceName string) string {
	if isSQLiteMemoryDataSource(dataSourceName) {
		return ""
	}
	path := strings.TrimPrefix(dataSourceName, sqliteFileScheme)
	if queryIndex := strings.Index(path, "?"); queryIndex >= 0 {
		path = path[:queryIndex]
	}
	return path
}

func ensureSQLiteDirectory(dataSourceName string) error {
	path := sqliteFilePath(dataSourceName)
	if path == "" {
		return nil
	}
	directory := filepath.Dir(path)
	if directory == "." {
		return nil
	}
	if _, statErr := os.Stat(directory); statErr == nil {
		return nil
	}
	if mkdirErr := os.MkdirAll(directory, databaseDirectoryMode); mkdirErr != nil {
		return fmt.Errorf("%s: %w", errorMessageCreateDatabaseDirectory, mkdirErr)
	}
	return nil
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	if zapLogger == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(
		zap.NewStdLog(zapLogger.Named("gorm")),
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
		},
	)
}

// AutoMigrate creates or updates the inquiry, note and operator tables.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(&model.Inquiry{}, &model.Note{}, &model.Operator{})
}

// CloseDatabase releases the connection pool behind a gorm handle.
func CloseDatabase(database *gorm.DB) error {
	if database == nil {
		return nil
	}
	sqlDatabase, sqlErr := database.DB()
	if sqlErr != nil {
		return fmt.Errorf("%s: %w", errorMessageCloseDatabase, sqlErr)
	}
	if closeErr := sqlDatabase.Close(); closeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageCloseDatabase, closeErr)
	}
	return nil
}

// NewID generates a new inquiry, note or operator identifier.
func NewID() string {
	return uuid.NewString()
}
