package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/storage"
	"github.com/smarthomesolar/solarsite/internal/testutil"
)

const (
	testUnsupportedDriverName = "unsupported-driver"
	testOperatorUsername      = "admin"
	testOperatorPassword      = "sunshine-2025"
)

func newTestInquiry(testingT *testing.T, email string) model.Inquiry {
	testingT.Helper()
	inquiry, err := model.NewInquiry(model.InquiryInput{
		FirstName: "Ravi",
		LastName:  "Das",
		Email:     email,
		Phone:     "9876543210",
		Service:   "On Grid Solar System",
	})
	require.NoError(testingT, err)
	return inquiry
}

func TestOpenDatabaseWithSQLiteConfiguration(t *testing.T) {
	database, openErr := storage.OpenDatabase(testutil.InMemoryDatabaseConfig())
	require.NoError(t, openErr)
	t.Cleanup(func() {
		require.NoError(t, storage.CloseDatabase(database))
	})
	database = testutil.QuietDatabase(t, database)
	require.NoError(t, storage.AutoMigrate(database))

	inquiry := newTestInquiry(t, "ravi@example.com")
	require.NoError(t, database.Create(&inquiry).Error)

	note, noteErr := model.NewNote(inquiry.ID, "Site survey booked")
	require.NoError(t, noteErr)
	require.NoError(t, database.Create(&note).Error)

	var fetched model.Inquiry
	require.NoError(t, database.Preload("Notes").First(&fetched, "id = ?", inquiry.ID).Error)
	require.Equal(t, model.InquiryStatusNew, fetched.Status)
	require.Len(t, fetched.Notes, 1)
	require.Equal(t, "Site survey booked", fetched.Notes[0].Content)
}

func TestOpenDatabaseValidation(t *testing.T) {
	dataSourceName := testutil.InMemoryDatabaseConfig().DataSourceName

	testCases := []struct {
		name              string
		configuration     storage.Config
		expectedRootError error
	}{
		{
			name: "missing driver",
			configuration: storage.Config{
				DriverName:     "",
				DataSourceName: dataSourceName,
			},
			expectedRootError: storage.ErrMissingDatabaseDriverName,
		},
		{
			name: "unsupported driver",
			configuration: storage.Config{
				DriverName:     testUnsupportedDriverName,
				DataSourceName: dataSourceName,
			},
			expectedRootError: storage.ErrUnsupportedDatabaseDriver,
		},
		{
			name: "missing data source",
			configuration: storage.Config{
				DriverName:     storage.DriverNameSQLite,
				DataSourceName: "",
			},
			expectedRootError: storage.ErrMissingDataSourceName,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			_, openErr := storage.OpenDatabase(testCase.configuration)
			require.Error(testingT, openErr)
			require.True(testingT, errors.Is(openErr, testCase.expectedRootError))
		})
	}
}

func TestEnsureOperatorCreatesAndResetsPassword(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)

	created, err := storage.EnsureOperator(database, testOperatorUsername, testOperatorPassword)
	require.NoError(t, err)
	require.NoError(t, created.CheckPassword(testOperatorPassword))

	unchanged, err := storage.EnsureOperator(database, " ADMIN ", testOperatorPassword)
	require.NoError(t, err)
	require.Equal(t, created.ID, unchanged.ID)
	require.Equal(t, created.PasswordHash, unchanged.PasswordHash)

	rotated, err := storage.EnsureOperator(database, testOperatorUsername, "another-password")
	require.NoError(t, err)
	require.Equal(t, created.ID, rotated.ID)

	loaded, err := storage.FindOperator(database, testOperatorUsername)
	require.NoError(t, err)
	require.NoError(t, loaded.CheckPassword("another-password"))
	require.ErrorIs(t, loaded.CheckPassword(testOperatorPassword), model.ErrOperatorPasswordMismatch)

	var operatorCount int64
	require.NoError(t, database.Model(&model.Operator{}).Count(&operatorCount).Error)
	require.Equal(t, int64(1), operatorCount)
}

func TestDeleteClosedInquiriesBeforeRemovesOnlyStaleClosedLeads(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	staleTimestamp := cutoff.Add(-time.Hour)

	staleClosed := newTestInquiry(t, "stale-closed@example.com")
	staleClosed.Status = model.InquiryStatusClosed
	staleOpen := newTestInquiry(t, "stale-open@example.com")
	freshClosed := newTestInquiry(t, "fresh-closed@example.com")
	freshClosed.Status = model.InquiryStatusClosed
	for _, inquiry := range []*model.Inquiry{&staleClosed, &staleOpen, &freshClosed} {
		require.NoError(t, database.Create(inquiry).Error)
	}

	staleNote, noteErr := model.NewNote(staleClosed.ID, "Signed with competitor")
	require.NoError(t, noteErr)
	require.NoError(t, database.Create(&staleNote).Error)

	for _, inquiryID := range []string{staleClosed.ID, staleOpen.ID} {
		require.NoError(t, database.Model(&model.Inquiry{}).Where("id = ?", inquiryID).UpdateColumn("updated_at", staleTimestamp).Error)
	}

	deleted, err := storage.NewInquiryStore(database).DeleteClosedInquiriesBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	var remaining []model.Inquiry
	require.NoError(t, database.Order("email").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	require.Equal(t, "fresh-closed@example.com", remaining[0].Email)
	require.Equal(t, "stale-open@example.com", remaining[1].Email)

	var noteCount int64
	require.NoError(t, database.Model(&model.Note{}).Count(&noteCount).Error)
	require.Zero(t, noteCount)
}
