package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/smarthomesolar/solarsite/internal/model"
)

// ErrInquiryNotFound indicates no inquiry has the requested id.
var ErrInquiryNotFound = errors.New("storage: inquiry not found")

// InquiryStore persists inquiries and their notes.
type InquiryStore struct {
	database *gorm.DB
}

// NewInquiryStore wraps an opened, migrated database.
func NewInquiryStore(database *gorm.DB) *InquiryStore {
	return &InquiryStore{database: database}
}

// List returns every inquiry newest first, notes oldest first.
func (store *InquiryStore) List(ctx context.Context) ([]model.Inquiry, error) {
	var inquiries []model.Inquiry
	err := store.database.WithContext(ctx).
		Preload("Notes", orderNotes).
		Order("created_at DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, err
	}
	for index := range inquiries {
		ensureNotes(&inquiries[index])
	}
	return inquiries, nil
}

// Get loads one inquiry with its notes.
func (store *InquiryStore) Get(ctx context.Context, inquiryID string) (model.Inquiry, error) {
	var inquiry model.Inquiry
	err := store.database.WithContext(ctx).
		Preload("Notes", orderNotes).
		First(&inquiry, "id = ?", inquiryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Inquiry{}, ErrInquiryNotFound
	}
	if err != nil {
		return model.Inquiry{}, err
	}
	ensureNotes(&inquiry)
	return inquiry, nil
}

// Create inserts a new inquiry.
func (store *InquiryStore) Create(ctx context.Context, inquiry *model.Inquiry) error {
	if err := store.database.WithContext(ctx).Create(inquiry).Error; err != nil {
		return err
	}
	ensureNotes(inquiry)
	return nil
}

// UpdateStatus sets the status of one inquiry and returns the updated record.
func (store *InquiryStore) UpdateStatus(ctx context.Context, inquiryID string, status string) (model.Inquiry, error) {
	result := store.database.WithContext(ctx).
		Model(&model.Inquiry{}).
		Where("id = ?", inquiryID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return model.Inquiry{}, result.Error
	}
	if result.RowsAffected == 0 {
		return model.Inquiry{}, ErrInquiryNotFound
	}
	return store.Get(ctx, inquiryID)
}

// AddNote attaches a note and returns the inquiry with every note.
func (store *InquiryStore) AddNote(ctx context.Context, note model.Note) (model.Inquiry, error) {
	err := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var count int64
		if err := transaction.Model(&model.Inquiry{}).Where("id = ?", note.InquiryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrInquiryNotFound
		}
		if err := transaction.Create(&note).Error; err != nil {
			return err
		}
		return transaction.Model(&model.Inquiry{}).
			Where("id = ?", note.InquiryID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return model.Inquiry{}, err
	}
	return store.Get(ctx, note.InquiryID)
}

// Delete removes one inquiry and its notes.
func (store *InquiryStore) Delete(ctx context.Context, inquiryID string) error {
	return store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		if err := transaction.Where("inquiry_id = ?", inquiryID).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		result := transaction.Where("id = ?", inquiryID).Delete(&model.Inquiry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInquiryNotFound
		}
		return nil
	})
}

// DeleteClosedInquiriesBefore removes closed inquiries last updated before the cutoff, together with their notes.
func (store *InquiryStore) DeleteClosedInquiriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		staleInquiries := transaction.Model(&model.Inquiry{}).
			Select("id").
			Where("status = ? AND updated_at < ?", model.InquiryStatusClosed, cutoff)
		if err := transaction.Where("inquiry_id IN (?)", staleInquiries).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		result := transaction.
			Where("status = ? AND updated_at < ?", model.InquiryStatusClosed, cutoff).
			Delete(&model.Inquiry{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

func orderNotes(database *gorm.DB) *gorm.DB {
	return database.Order("created_at ASC")
}

func ensureNotes(inquiry *model.Inquiry) {
	if inquiry.Notes == nil {
		inquiry.Notes = []model.Note{}
	}
}
