package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
)

// Service renders book outlines as Excel workbooks for download.
type Service struct{}

// NewExcelService creates a new Excel service instance
func NewExcelService() *Service {
	return &Service{}
}

// RenderOutline builds a one-sheet workbook from an outline: one row per
// chapter with its position, title and synopsis.
func (s *Service) RenderOutline(slug string, outline []models.ChapterMeta) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Outline"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"#", "Title", "Synopsis"}
	for i, col := range headers {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(sheetName, cell, col)
	}
	if err := f.SetCellStyle(sheetName, "A1", columnToLetter(len(headers))+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, entry := range outline {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entry.Title)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), entry.Synopsis)
	}

	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "C", 80)
	f.SetDocProps(&excelize.DocProperties{Title: slug})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// columnToLetter converts a 1-based column index to its Excel letter
func columnToLetter(col int) string {
	letter := ""
	for col > 0 {
		col--
		letter = string(rune('A'+col%26)) + letter
		col /= 26
	}
	return letter
}
