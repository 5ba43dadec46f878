package leads

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	// ExportFileName is the download name of a lead export.
	ExportFileName = "solar_leads.csv"
	// ExportContentType is the MIME type of a lead export.
	ExportContentType = "text/csv; charset=utf-8"

	exportDateLayout = "2006-01-02"
)

var exportHeader = []string{"Date", "First Name", "Last Name", "Email", "Phone", "Service", "Status", "Address", "Message"}

// WriteCSV writes inquiries in view order. Dates are rendered in location; nil means UTC.
func WriteCSV(writer io.Writer, inquiries []model.Inquiry, location *time.Location) error {
	if location == nil {
		location = time.UTC
	}
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(exportHeader); err != nil {
		return err
	}
	for _, inquiry := range inquiries {
		record := []string{
			inquiry.CreatedAt.In(location).Format(exportDateLayout),
			inquiry.FirstName,
			inquiry.LastName,
			inquiry.Email,
			inquiry.Phone,
			inquiry.Service,
			inquiry.Status,
			inquiry.Address,
			inquiry.Message,
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
