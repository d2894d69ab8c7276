package glossary

import (
	"fmt"
	"io"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Glossary"

func encodeXLSX(w io.Writer, items []models.GlossaryItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{item.Term, item.Translation, string(item.Category), item.Project}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// decodeXLSX reads the first sheet. The first row is a header when its first
// cell is "Term"; otherwise columns are term, translation, category.
func decodeXLSX(r io.Reader, project string) ([]models.GlossaryItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := map[string]int{"term": 0, "translation": 1, "category": 2}
	if len(rows[0]) > 0 && isCSVHeader(rows[0][0]+",") {
		col = columnIndex(rows[0])
		rows = rows[1:]
	}

	var items []models.GlossaryItem
	for _, rec := range rows {
		term := field(rec, col["term"])
		translation := field(rec, col["translation"])
		if term == "" || translation == "" {
			continue
		}
		items = append(items, models.GlossaryItem{
			Term:        term,
			Translation: translation,
			Category:    models.NormalizeCategory(field(rec, col["category"])),
			Project:     project,
		})
	}
	return items, nil
}
