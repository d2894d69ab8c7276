package glossary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/parquet-go/parquet-go"
)

type parquetRow struct {
	Term        string `parquet:"term"`
	Translation string `parquet:"translation"`
	Category    string `parquet:"category"`
	Project     string `parquet:"project"`
}

func encodeParquet(w io.Writer, items []models.GlossaryItem) error {
	rows := make([]parquetRow, len(items))
	for i, item := range items {
		rows[i] = parquetRow{
			Term:        item.Term,
			Translation: item.Translation,
			Category:    string(item.Category),
			Project:     item.Project,
		}
	}
	if err := parquet.Write(w, rows); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

func decodeParquet(r io.Reader, project string) ([]models.GlossaryItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	rows, err := parquet.Read[parquetRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet: %w", err)
	}

	items := make([]models.GlossaryItem, 0, len(rows))
	for _, row := range rows {
		if row.Term == "" || row.Translation == "" {
			continue
		}
		items = append(items, models.GlossaryItem{
			Term:        row.Term,
			Translation: row.Translation,
			Category:    models.NormalizeCategory(row.Category),
			Project:     project,
		})
	}
	return items, nil
}
