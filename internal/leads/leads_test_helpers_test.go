package leads_test

import (
	"time"

	"github.com/smarthomesolar/solarsite/internal/model"
)

var testReferenceTime = time.Date(2025, time.March, 14, 18, 30, 0, 0, time.UTC)

func sampleInquiries() []model.Inquiry {
	return []model.Inquiry{
		{
			ID:        "lead-1",
			FirstName: "Asha",
			LastName:  "Mohanty",
			Email:     "asha@example.com",
			Phone:     "+91 75408 36582",
			Service:   "Hybrid Solar System",
			Status:    model.InquiryStatusNew,
			Notes:     []model.Note{},
			CreatedAt: testReferenceTime,
		},
		{
			ID:        "lead-2",
			FirstName: "Ravi",
			LastName:  "Patnaik",
			Email:     "ravi.p@example.org",
			Phone:     "98610 22233",
			Service:   "On Grid Solar System",
			Status:    model.InquiryStatusInProgress,
			Notes:     []model.Note{{ID: "note-1", Content: "Site survey booked"}},
			CreatedAt: testReferenceTime.Add(-24 * time.Hour),
		},
		{
			ID:        "lead-3",
			FirstName: "Meera",
			LastName:  "Das",
			Email:     "MEERA@solarfan.in",
			Phone:     "70000 11111",
			Service:   "Solar Water Pump",
			Status:    model.InquiryStatusContacted,
			Notes:     []model.Note{},
			CreatedAt: testReferenceTime.Add(-48 * time.Hour),
		},
		{
			ID:        "lead-4",
			FirstName: "Kiran",
			LastName:  "Sahoo",
			Email:     "kiran@example.com",
			Phone:     "90400 12345",
			Service:   "Off Grid Solar System",
			Status:    model.InquiryStatusClosed,
			Notes:     []model.Note{},
			CreatedAt: testReferenceTime.Add(-72 * time.Hour),
		},
	}
}

func inquiryIDs(inquiries []model.Inquiry) []string {
	identifiers := make([]string, 0, len(inquiries))
	for _, inquiry := range inquiries {
		identifiers = append(identifiers, inquiry.ID)
	}
	return identifiers
}
