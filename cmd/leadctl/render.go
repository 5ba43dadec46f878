package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	tableDateLayout         = "2006-01-02"
	detailDateLayout        = "Jan 2, 2006 3:04 PM"
	detailWordWrap          = 80
	detailStyleNoColor      = "notty"
	tableCellPadding        = 1
	tableHeaderRowIndex     = table.HeaderRow
	missingValuePlaceholder = "-"
)

var inquiryTableHeaders = []string{"Date", "ID", "Name", "Email", "Phone", "Service", "Status"}

var statusColors = map[string]color.Attribute{
	model.InquiryStatusNew:        color.FgBlue,
	model.InquiryStatusContacted:  color.FgYellow,
	model.InquiryStatusInProgress: color.FgMagenta,
	model.InquiryStatusClosed:     color.FgGreen,
}

func colorizeStatus(status string, noColor bool) string {
	attribute, known := statusColors[status]
	if !known {
		return status
	}
	statusColor := color.New(attribute, color.Bold)
	if noColor {
		statusColor.DisableColor()
	}
	return statusColor.Sprint(status)
}

func summaryLine(stats leads.Stats, noColor bool) string {
	return fmt.Sprintf("%d inquiries: %d %s, %d %s, %d %s",
		stats.Total,
		stats.New, colorizeStatus(model.InquiryStatusNew, noColor),
		stats.InProgress, colorizeStatus(model.InquiryStatusInProgress, noColor),
		stats.Closed, colorizeStatus(model.InquiryStatusClosed, noColor),
	)
}

// renderInquiryTable lays out inquiries in view order. The writer decides whether lipgloss emits styling.
func renderInquiryTable(writer io.Writer, inquiries []model.Inquiry, location *time.Location, noColor bool) string {
	renderer := lipgloss.NewRenderer(writer)
	headerStyle := renderer.NewStyle().Padding(0, tableCellPadding)
	if !noColor {
		headerStyle = headerStyle.Bold(true)
	}
	cellStyle := renderer.NewStyle().Padding(0, tableCellPadding)

	rows := make([][]string, 0, len(inquiries))
	for _, inquiry := range inquiries {
		rows = append(rows, []string{
			inquiry.CreatedAt.In(location).Format(tableDateLayout),
			inquiry.ID,
			strings.TrimSpace(inquiry.FirstName + " " + inquiry.LastName),
			inquiry.Email,
			inquiry.Phone,
			valueOrPlaceholder(inquiry.Service),
			colorizeStatus(inquiry.Status, noColor),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(renderer.NewStyle()).
		Headers(inquiryTableHeaders...).
		Rows(rows...).
		StyleFunc(func(row int, _ int) lipgloss.Style {
			if row == tableHeaderRowIndex {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// renderInquiryDetail renders one inquiry as terminal markdown.
func renderInquiryDetail(inquiry model.Inquiry, location *time.Location, noColor bool) (string, error) {
	styleOption := glamour.WithAutoStyle()
	if noColor {
		styleOption = glamour.WithStylePath(detailStyleNoColor)
	}
	renderer, rendererErr := glamour.NewTermRenderer(styleOption, glamour.WithWordWrap(detailWordWrap))
	if rendererErr != nil {
		return "", rendererErr
	}
	return renderer.Render(inquiryMarkdown(inquiry, location))
}

func inquiryMarkdown(inquiry model.Inquiry, location *time.Location) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s %s\n\n", inquiry.FirstName, inquiry.LastName)
	fmt.Fprintf(&builder, "- **Status:** %s\n", inquiry.Status)
	fmt.Fprintf(&builder, "- **Received:** %s\n", inquiry.CreatedAt.In(location).Format(detailDateLayout))
	fmt.Fprintf(&builder, "- **Email:** `%s`\n", inquiry.Email)
	fmt.Fprintf(&builder, "- **Phone:** %s\n", valueOrPlaceholder(inquiry.Phone))
	fmt.Fprintf(&builder, "- **Service:** %s\n", valueOrPlaceholder(inquiry.Service))
	fmt.Fprintf(&builder, "- **Monthly bill:** %s\n", valueOrPlaceholder(inquiry.MonthlyBill))
	fmt.Fprintf(&builder, "- **Address:** %s\n", valueOrPlaceholder(inquiry.Address))
	fmt.Fprintf(&builder, "- **ID:** `%s`\n\n", inquiry.ID)

	builder.WriteString("## Message\n\n")
	if message := strings.TrimSpace(inquiry.Message); message != "" {
		builder.WriteString(message)
	} else {
		builder.WriteString("_No message provided._")
	}
	builder.WriteString("\n\n## Notes\n\n")
	if len(inquiry.Notes) == 0 {
		builder.WriteString("_No notes yet._\n")
		return builder.String()
	}
	for _, note := range inquiry.Notes {
		fmt.Fprintf(&builder, "- %s: %s\n", note.CreatedAt.In(location).Format(detailDateLayout), note.Content)
	}
	return builder.String()
}

func valueOrPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return missingValuePlaceholder
	}
	return value
}
