package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/storage"
	"github.com/smarthomesolar/solarsite/internal/testutil"
)

func TestInquiryStoreListsNewestFirstWithNotes(testingT *testing.T) {
	database := testutil.NewMigratedDatabase(testingT)
	store := storage.NewInquiryStore(database)
	ctx := context.Background()

	older := newTestInquiry(testingT, "older@example.com")
	newer := newTestInquiry(testingT, "newer@example.com")
	require.NoError(testingT, store.Create(ctx, &older))
	require.NoError(testingT, store.Create(ctx, &newer))
	require.NoError(testingT, database.Model(&model.Inquiry{}).Where("id = ?", older.ID).UpdateColumn("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	firstNote, err := model.NewNote(older.ID, "First call")
	require.NoError(testingT, err)
	_, err = store.AddNote(ctx, firstNote)
	require.NoError(testingT, err)

	inquiries, err := store.List(ctx)
	require.NoError(testingT, err)
	require.Len(testingT, inquiries, 2)
	require.Equal(testingT, newer.ID, inquiries[0].ID)
	require.NotNil(testingT, inquiries[0].Notes)
	require.Empty(testingT, inquiries[0].Notes)
	require.Len(testingT, inquiries[1].Notes, 1)
}

func TestInquiryStoreAddNoteReturnsEveryNoteInOrder(testingT *testing.T) {
	database := testutil.NewMigratedDatabase(testingT)
	store := storage.NewInquiryStore(database)
	ctx := context.Background()

	inquiry := newTestInquiry(testingT, "notes@example.com")
	require.NoError(testingT, store.Create(ctx, &inquiry))

	firstNote, _ := model.NewNote(inquiry.ID, "Called, no answer")
	firstNote.CreatedAt = time.Now().UTC().Add(-time.Minute)
	_, err := store.AddNote(ctx, firstNote)
	require.NoError(testingT, err)

	secondNote, _ := model.NewNote(inquiry.ID, "Quote sent")
	updated, err := store.AddNote(ctx, secondNote)
	require.NoError(testingT, err)
	require.Len(testingT, updated.Notes, 2)
	require.Equal(testingT, "Called, no answer", updated.Notes[0].Content)
	require.Equal(testingT, "Quote sent", updated.Notes[1].Content)

	orphanNote, _ := model.NewNote("missing", "Nobody home")
	_, err = store.AddNote(ctx, orphanNote)
	require.ErrorIs(testingT, err, storage.ErrInquiryNotFound)
}

func TestInquiryStoreUpdateStatus(testingT *testing.T) {
	store := storage.NewInquiryStore(testutil.NewMigratedDatabase(testingT))
	ctx := context.Background()

	inquiry := newTestInquiry(testingT, "status@example.com")
	require.NoError(testingT, store.Create(ctx, &inquiry))

	updated, err := store.UpdateStatus(ctx, inquiry.ID, model.InquiryStatusInProgress)
	require.NoError(testingT, err)
	require.Equal(testingT, model.InquiryStatusInProgress, updated.Status)

	_, err = store.UpdateStatus(ctx, "missing", model.InquiryStatusClosed)
	require.ErrorIs(testingT, err, storage.ErrInquiryNotFound)
}

func TestInquiryStoreDeleteRemovesNotes(testingT *testing.T) {
	database := testutil.NewMigratedDatabase(testingT)
	store := storage.NewInquiryStore(database)
	ctx := context.Background()

	inquiry := newTestInquiry(testingT, "delete@example.com")
	require.NoError(testingT, store.Create(ctx, &inquiry))
	note, _ := model.NewNote(inquiry.ID, "Duplicate lead")
	_, err := store.AddNote(ctx, note)
	require.NoError(testingT, err)

	require.NoError(testingT, store.Delete(ctx, inquiry.ID))
	_, err = store.Get(ctx, inquiry.ID)
	require.ErrorIs(testingT, err, storage.ErrInquiryNotFound)

	var noteCount int64
	require.NoError(testingT, database.Model(&model.Note{}).Count(&noteCount).Error)
	require.Zero(testingT, noteCount)

	require.ErrorIs(testingT, store.Delete(ctx, inquiry.ID), storage.ErrInquiryNotFound)
}
