package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVParser reads the CSV classification export.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]Classification, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", filename, err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("parse csv %s: missing column %q", filename, col)
		}
	}

	var rows []Classification
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv %s: %w", filename, err)
		}
		line, _ := reader.FieldPos(0)
		field := func(col string) string {
			if i := pos[col]; i < len(record) {
				return record[i]
			}
			return ""
		}
		c, err := newClassification(line,
			field(ColClassificationID), field(ColWorkflowID), field(ColWorkflowVersion),
			field(ColSubjectData), field(ColAnnotations))
		if err != nil {
			return nil, fmt.Errorf("parse csv %s: %w", filename, err)
		}
		rows = append(rows, c)
	}
	return rows, nil
}

func parseWorkflowID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", ColWorkflowID, s)
	}
	return n, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
