package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/radiusdt/vector-insights/internal/models"
)

// ReadCSV parses an ads-manager CSV export into a normalized batch. table
// names the upload in errors and becomes the batch source.
func (s Schema) ReadCSV(table string, r io.Reader) (*models.Batch, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", table, ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", table, err)
	}
	header = append([]string(nil), header...)

	mapping, err := s.Resolve(table, header)
	if err != nil {
		return nil, err
	}

	batch := &models.Batch{Source: table}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
		if blank(row) {
			continue
		}

		batch.Stats.Rows++
		rec, st := mapping.Record(row)
		if st.badDate {
			batch.Stats.BadDate++
			continue
		}
		if st.badNumber {
			batch.Stats.BadNumber++
		}
		if st.clamped {
			batch.Stats.Clamped++
		}
		batch.Records = append(batch.Records, rec)
		batch.Stats.Accepted++
	}

	if batch.Stats.Accepted == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrEmptyDataset)
	}
	return batch, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
