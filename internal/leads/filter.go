package leads

import (
	"strings"

	"github.com/smarthomesolar/solarsite/internal/model"
)

// StatusAll disables status filtering.
const StatusAll = "All"

// Filter narrows an inquiry collection by status and free-text search.
type Filter struct {
	Status string
	Search string
}

// NewFilter normalizes raw filter input. Unknown statuses fall back to StatusAll.
func NewFilter(status string, search string) Filter {
	normalizedStatus, statusErr := model.ParseInquiryStatus(status)
	if statusErr != nil {
		normalizedStatus = StatusAll
	}
	return Filter{Status: normalizedStatus, Search: strings.TrimSpace(search)}
}

// IsZero reports whether the filter keeps every inquiry.
func (filter Filter) IsZero() bool {
	return filter.matchesAllStatuses() && filter.Search == ""
}

// Apply returns the matching inquiries in their original order. The input slice is never modified.
func (filter Filter) Apply(inquiries []model.Inquiry) []model.Inquiry {
	filtered := make([]model.Inquiry, 0, len(inquiries))
	lowerTerm := strings.ToLower(filter.Search)
	for _, inquiry := range inquiries {
		if !filter.matchesAllStatuses() && inquiry.Status != filter.Status {
			continue
		}
		if lowerTerm != "" && !matchesSearch(inquiry, lowerTerm) {
			continue
		}
		filtered = append(filtered, inquiry)
	}
	return filtered
}

func (filter Filter) matchesAllStatuses() bool {
	return filter.Status == "" || filter.Status == StatusAll
}

// Phone numbers are matched verbatim against the lowered term.
func matchesSearch(inquiry model.Inquiry, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(inquiry.FirstName), lowerTerm) ||
		strings.Contains(strings.ToLower(inquiry.LastName), lowerTerm) ||
		strings.Contains(strings.ToLower(inquiry.Email), lowerTerm) ||
		strings.Contains(inquiry.Phone, lowerTerm)
}

// Stats summarizes a collection for the dashboard header.
type Stats struct {
	Total      int
	New        int
	InProgress int
	Closed     int
}

// ComputeStats counts inquiries per headline status. Contacted inquiries count toward Total only.
func ComputeStats(inquiries []model.Inquiry) Stats {
	stats := Stats{Total: len(inquiries)}
	for _, inquiry := range inquiries {
		switch inquiry.Status {
		case model.InquiryStatusNew:
			stats.New++
		case model.InquiryStatusInProgress:
			stats.InProgress++
		case model.InquiryStatusClosed:
			stats.Closed++
		}
	}
	return stats
}
