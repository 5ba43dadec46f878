package leads

import (
	"github.com/smarthomesolar/solarsite/internal/model"
)

// Board is the operator's local copy of the inquiry collection plus the inquiry open in the detail view.
// It is not safe for concurrent use.
type Board struct {
	inquiries  []model.Inquiry
	selectedID string
}

// NewBoard wraps a freshly fetched collection.
func NewBoard(inquiries []model.Inquiry) *Board {
	return &Board{inquiries: cloneInquiries(inquiries)}
}

// Inquiries returns a copy of the full collection.
func (board *Board) Inquiries() []model.Inquiry {
	return cloneInquiries(board.inquiries)
}

// Len reports the size of the full collection.
func (board *Board) Len() int {
	return len(board.inquiries)
}

// Filtered returns the view derived from filter.
func (board *Board) Filtered(filter Filter) []model.Inquiry {
	return filter.Apply(board.inquiries)
}

// Stats summarizes the full, unfiltered collection.
func (board *Board) Stats() Stats {
	return ComputeStats(board.inquiries)
}

// Find looks an inquiry up by id.
func (board *Board) Find(inquiryID string) (model.Inquiry, bool) {
	index := board.indexOf(inquiryID)
	if index < 0 {
		return model.Inquiry{}, false
	}
	return board.inquiries[index], true
}

// Select opens an inquiry in the detail view. Unknown ids clear the selection.
func (board *Board) Select(inquiryID string) bool {
	if board.indexOf(inquiryID) < 0 {
		board.selectedID = ""
		return false
	}
	board.selectedID = inquiryID
	return true
}

// ClearSelection closes the detail view.
func (board *Board) ClearSelection() {
	board.selectedID = ""
}

// Selected returns the inquiry open in the detail view.
func (board *Board) Selected() (model.Inquiry, bool) {
	if board.selectedID == "" {
		return model.Inquiry{}, false
	}
	return board.Find(board.selectedID)
}

// ApplyStatus records a status change the server has accepted.
func (board *Board) ApplyStatus(inquiryID string, status string) bool {
	index := board.indexOf(inquiryID)
	if index < 0 {
		return false
	}
	board.inquiries[index].Status = status
	return true
}

// ReplaceInquiry swaps in the server's copy of an inquiry, e.g. after a note was added.
func (board *Board) ReplaceInquiry(inquiry model.Inquiry) bool {
	index := board.indexOf(inquiry.ID)
	if index < 0 {
		return false
	}
	board.inquiries[index] = cloneInquiry(inquiry)
	return true
}

// Remove drops a deleted inquiry and closes the detail view when it showed that inquiry.
func (board *Board) Remove(inquiryID string) bool {
	index := board.indexOf(inquiryID)
	if index < 0 {
		return false
	}
	board.inquiries = append(board.inquiries[:index], board.inquiries[index+1:]...)
	if board.selectedID == inquiryID {
		board.selectedID = ""
	}
	return true
}

func (board *Board) indexOf(inquiryID string) int {
	if inquiryID == "" {
		return -1
	}
	for index := range board.inquiries {
		if board.inquiries[index].ID == inquiryID {
			return index
		}
	}
	return -1
}

func cloneInquiries(inquiries []model.Inquiry) []model.Inquiry {
	cloned := make([]model.Inquiry, len(inquiries))
	for index, inquiry := range inquiries {
		cloned[index] = cloneInquiry(inquiry)
	}
	return cloned
}

func cloneInquiry(inquiry model.Inquiry) model.Inquiry {
	inquiry.Notes = append([]model.Note(nil), inquiry.Notes...)
	return inquiry
}
