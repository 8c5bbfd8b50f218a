package decode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/parser"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// Result is the sorted output of one workflow.
type Result struct {
	Workflow *vocab.Workflow
	Tables
}

// Slug names the workflow in file and table names, e.g. "index-11.28".
func (r *Result) Slug() string {
	return strings.ToLower(strings.ReplaceAll(r.Workflow.Name, " ", "-")) + "-" + r.Workflow.Key.Version.String()
}

// Stats summarizes a run.
type Stats struct {
	Classifications int
	Decoded         int
	Ignored         int
	Pages           map[vocab.Kind]int
	Elapsed         time.Duration
}

// Run decodes rows for each workflow in keys, or for every registered
// workflow when keys is empty. Every key must be registered; this is checked
// before any row is decoded. Rows of other workflows are counted as ignored.
// The first decode error aborts the run.
func Run(ctx context.Context, reg *vocab.Registry, keys []vocab.Key, rows []parser.Classification, log *slog.Logger) ([]*Result, Stats, error) {
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	stats := Stats{Classifications: len(rows), Pages: make(map[vocab.Kind]int)}

	workflows, err := resolve(reg, keys)
	if err != nil {
		return nil, stats, err
	}

	decoders := make(map[vocab.Key]*Decoder, len(workflows))
	for _, wf := range workflows {
		decoders[wf.Key] = NewDecoder(wf, log)
	}

	for _, c := range rows {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		d, ok := decoders[c.Key]
		if !ok {
			stats.Ignored++
			continue
		}
		kind, err := d.Classification(c)
		if err != nil {
			return nil, stats, err
		}
		stats.Decoded++
		stats.Pages[kind]++
	}

	results := make([]*Result, 0, len(workflows))
	for _, wf := range workflows {
		results = append(results, decoders[wf.Key].Result())
	}
	stats.Elapsed = time.Since(start)
	log.Debug("run complete",
		"classifications", stats.Classifications,
		"decoded", stats.Decoded,
		"ignored", stats.Ignored,
		"elapsed_ms", stats.Elapsed.Milliseconds(),
	)
	return results, stats, nil
}

func resolve(reg *vocab.Registry, keys []vocab.Key) ([]*vocab.Workflow, error) {
	if len(keys) == 0 {
		return reg.Workflows(), nil
	}
	workflows := make([]*vocab.Workflow, 0, len(keys))
	seen := make(map[vocab.Key]bool, len(keys))
	for _, k := range keys {
		wf, err := reg.Lookup(k)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			workflows = append(workflows, wf)
		}
	}
	return workflows, nil
}

// Classification decodes one input row.
func (d *Decoder) Classification(c parser.Classification) (vocab.Kind, error) {
	page, err := SubjectPage(c.SubjectData)
	if err != nil {
		return "", fmt.Errorf("classification %s: %w", c.ID, err)
	}
	nodes, err := annotation.Parse([]byte(c.Annotations))
	if err != nil {
		return "", fmt.Errorf("classification %s: %w", c.ID, annotation.AtPage(err, page))
	}
	kind, err := d.Page(page, nodes)
	if err != nil {
		return "", fmt.Errorf("classification %s: %w", c.ID, err)
	}
	return kind, nil
}

// SubjectPage reads the page number from subject metadata: a one-entry
// object whose value holds a "page" number or numeric string.
func SubjectPage(raw string) (int, error) {
	desc, err := subjectDescriptor(raw)
	if err != nil {
		return 0, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(desc, &fields); err != nil {
		return 0, subjectError(raw, "descriptor is not an object")
	}
	p, ok := fields["page"]
	if !ok {
		return 0, subjectError(raw, "descriptor has no page")
	}
	var n int
	if err := json.Unmarshal(p, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(p, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, nil
		}
	}
	return 0, subjectError(raw, "page %s is not a whole number", p)
}

func subjectDescriptor(raw string) (json.RawMessage, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return nil, subjectError(raw, "subject data is not a JSON object")
	}
	if len(outer) != 1 {
		return nil, subjectError(raw, "subject data has %d entries, expected 1", len(outer))
	}
	for _, v := range outer {
		return v, nil
	}
	return nil, nil
}

func subjectError(raw, format string, args ...any) error {
	return annotation.Errorf(annotation.ErrSchemaViolation, "", raw, format, args...)
}

// DumpPage is the raw (page descriptor, annotations) pair of a row. It
// marshals as a two-element JSON array.
type DumpPage struct {
	Descriptor  json.RawMessage
	Annotations json.RawMessage
}

func (p DumpPage) MarshalJSON() ([]byte, error) {
	return json.Marshal([]json.RawMessage{p.Descriptor, p.Annotations})
}

// Dump returns the raw pages of the rows belonging to key, in input order.
func Dump(rows []parser.Classification, key vocab.Key) ([]DumpPage, error) {
	var out []DumpPage
	for _, c := range rows {
		if c.Key != key {
			continue
		}
		desc, err := subjectDescriptor(c.SubjectData)
		if err != nil {
			return nil, fmt.Errorf("classification %s: %w", c.ID, err)
		}
		if !json.Valid([]byte(c.Annotations)) {
			return nil, fmt.Errorf("classification %s: annotations are not valid JSON", c.ID)
		}
		out = append(out, DumpPage{Descriptor: desc, Annotations: json.RawMessage(c.Annotations)})
	}
	return out, nil
}
