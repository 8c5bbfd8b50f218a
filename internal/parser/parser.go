package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// Classification is one volunteer's transcription of one page.
type Classification struct {
	ID          string
	Key         vocab.Key
	SubjectData string
	Annotations string
	// Line is the 1-based input record the row came from.
	Line int
}

// Parser reads a classification export.
type Parser interface {
	Parse(r io.Reader, filename string) ([]Classification, error)
}

// Required export columns.
const (
	ColClassificationID = "classification_id"
	ColWorkflowID       = "workflow_id"
	ColWorkflowVersion  = "workflow_version"
	ColSubjectData      = "subject_data"
	ColAnnotations      = "annotations"
)

var requiredColumns = []string{
	ColClassificationID, ColWorkflowID, ColWorkflowVersion, ColSubjectData, ColAnnotations,
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".csv":  true,
	".json": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return &CSVParser{}, nil
	case ".json":
		return &JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseFile opens path and parses it with the parser for its extension.
func ParseFile(path string) ([]Classification, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

// newClassification validates the identifying fields of one row.
func newClassification(line int, id, workflowID, version, subject, annotations string) (Classification, error) {
	c := Classification{
		ID:          strings.TrimSpace(id),
		SubjectData: subject,
		Annotations: annotations,
		Line:        line,
	}
	if c.ID == "" {
		return c, fmt.Errorf("line %d: empty %s", line, ColClassificationID)
	}
	n, err := parseWorkflowID(workflowID)
	if err != nil {
		return c, fmt.Errorf("line %d: %w", line, err)
	}
	v, err := vocab.ParseVersion(version)
	if err != nil {
		return c, fmt.Errorf("line %d: %w", line, err)
	}
	c.Key = vocab.Key{ID: n, Version: v}
	return c, nil
}
