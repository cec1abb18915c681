package lead

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	exportTimeLayout = "2006-01-02 15:04:05"

	LeadsSheet    = "Leads"
	ActivitySheet = "Activity"
)

var leadColumns = []string{
	"ID", "Client", "Company", "Email", "Phone", "Source", "Stage",
	"Budget", "Assigned To", "Follow Up", "Created", "Updated",
}

var activityColumns = []string{
	"Lead ID", "Client", "Action", "Previous Stage", "New Stage", "By", "At",
}

// WriteWorkbook writes the leads as an xlsx workbook with one row per lead on
// the Leads sheet and one row per log entry on the Activity sheet.
func WriteWorkbook(w io.Writer, leads []*Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeadsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ActivitySheet); err != nil {
		return fmt.Errorf("create activity sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeRow(f, LeadsSheet, 1, toRow(leadColumns), headerStyle); err != nil {
		return err
	}
	if err := writeRow(f, ActivitySheet, 1, toRow(activityColumns), headerStyle); err != nil {
		return err
	}

	activityRow := 2
	for i, l := range leads {
		if err := writeRow(f, LeadsSheet, i+2, leadRow(l), 0); err != nil {
			return err
		}
		for _, entry := range l.Logs {
			row := []interface{}{
				l.ID, l.ClientName(), entry.Action, string(entry.PreviousStage), string(entry.NewStage),
				entry.ActorName, entry.Timestamp.Format(exportTimeLayout),
			}
			if err := writeRow(f, ActivitySheet, activityRow, row, 0); err != nil {
				return err
			}
			activityRow++
		}
	}

	for _, sheet := range []string{LeadsSheet, ActivitySheet} {
		if err := f.SetColWidth(sheet, "A", "L", 18); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func leadRow(l *Lead) []interface{} {
	var company, email, phone string
	if l.Client != nil {
		company, email, phone = l.Client.Company, l.Client.Email, l.Client.Phone
	}
	followUp := ""
	if l.FollowUpDate != nil {
		followUp = l.FollowUpDate.Format(exportTimeLayout)
	}
	return []interface{}{
		l.ID, l.ClientName(), company, email, phone, string(l.Source), string(l.Stage),
		l.Budget, l.AssignedTo, followUp,
		l.CreatedAt.Format(exportTimeLayout), l.UpdatedAt.Format(exportTimeLayout),
	}
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	if style == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
