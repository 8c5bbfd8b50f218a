package decode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/parser"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

func row(id string, k vocab.Key, page int, nodes ...string) parser.Classification {
	return parser.Classification{
		ID:          id,
		Key:         k,
		SubjectData: fmt.Sprintf(`{"%s":{"page":%d,"#volume":"1901"}}`, id, page),
		Annotations: list(nodes...),
	}
}

func TestDispatch_ControlErrors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		want  error
	}{
		{"no control", nil, annotation.ErrSchemaViolation},
		{"control not first", []string{text("T12", "H"), text("T20", "Other page")}, annotation.ErrSchemaViolation},
		{"unknown answer", []string{text("T20", "Minutes")}, annotation.ErrUnknownControlValue},
		{"blank with content", []string{text("T20", "Blank page"), text("T12", "H")}, annotation.ErrSchemaViolation},
	}
	for _, tt := range tests {
		_, _, err := decodePage(t, index1128, 1, tt.nodes...)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestDispatch_SameAnswerDifferentVersions(t *testing.T) {
	// "Name list" maps to the flat decoder in 11.28 and the combo decoder
	// in 12.40, where T30 is a name combo rather than an unknown task.
	_, _, err := decodePage(t, index1128, 1, text("T20", "Name list"), group("T30"))
	if !errors.Is(err, annotation.ErrUnrecognizedTask) {
		t.Fatalf("11.28: expected ErrUnrecognizedTask, got %v", err)
	}
	if _, _, err := decodePage(t, index1240, 1, text("T20", "Name list"), group("T30")); err != nil {
		t.Fatalf("12.40: unexpected error: %v", err)
	}
}

func TestRun_SortsAndNumbersAcrossClassifications(t *testing.T) {
	rows := []parser.Classification{
		row("c1", index1128, 5, text("T20", "Other page"), text("T13", "B"), text("T14", "2")),
		row("c2", underline35, 1, text("T0", "Blank page")),
		row("c3", index1128, 3, text("T20", "Other page"), text("T13", "A"), text("T14", "1")),
		row("c4", index1128, 5, text("T20", "Other page"), text("T13", "C"), text("T14", "9")),
		row("c5", index1128, 6, text("T20", "Blank page")),
	}
	results, stats, err := Run(context.Background(), registry(t), []vocab.Key{index1128}, rows, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := []IndexEntry{
		{Page: 3, Entry: 0, Subject: "A", PageRef: "1"},
		{Page: 5, Entry: 0, Subject: "B", PageRef: "2"},
		{Page: 5, Entry: 1, Subject: "C", PageRef: "9"},
	}
	if diff := cmp.Diff(want, results[0].Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if stats.Decoded != 4 || stats.Ignored != 1 || stats.Classifications != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Pages[vocab.KindBlank] != 1 || stats.Pages[vocab.KindIndexOther] != 3 {
		t.Errorf("unexpected page kinds %v", stats.Pages)
	}
	if got := results[0].Slug(); got != "index-11.28" {
		t.Errorf("expected slug index-11.28, got %q", got)
	}
}

func TestRun_AllWorkflowsByDefault(t *testing.T) {
	results, _, err := Run(context.Background(), registry(t), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
}

func TestRun_UnknownWorkflowBeforeDecoding(t *testing.T) {
	rows := []parser.Classification{row("bad", index1128, 1, text("T20", "nonsense"))}
	unknown := vocab.Key{ID: 16866, Version: vocab.Version{Major: 1, Minor: 0}}
	_, stats, err := Run(context.Background(), registry(t), []vocab.Key{index1128, unknown}, rows, nil)
	if !errors.Is(err, vocab.ErrUnknownWorkflow) {
		t.Fatalf("expected ErrUnknownWorkflow, got %v", err)
	}
	if stats.Decoded != 0 {
		t.Errorf("expected nothing decoded, got %d", stats.Decoded)
	}
}

func TestRun_ErrorNamesClassificationAndPage(t *testing.T) {
	rows := []parser.Classification{
		row("ok", index1128, 1, text("T20", "Blank page")),
		row("c-42", index1128, 17, text("T20", "Other page"), text("T13", "x"), text("T14", "12a")),
	}
	_, _, err := Run(context.Background(), registry(t), []vocab.Key{index1128}, rows, nil)
	if !errors.Is(err, annotation.ErrUnparsableReference) {
		t.Fatalf("expected ErrUnparsableReference, got %v", err)
	}
	for _, want := range []string{"classification c-42", "page 17", "task T14", `"12a"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to contain %q, got %q", want, err)
		}
	}
}

func TestRun_BadAnnotationsJSON(t *testing.T) {
	rows := []parser.Classification{{ID: "j", Key: index1128, SubjectData: `{"1":{"page":2}}`, Annotations: `{"task":"T20"}`}}
	_, _, err := Run(context.Background(), registry(t), []vocab.Key{index1128}, rows, nil)
	if !errors.Is(err, annotation.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rows := []parser.Classification{row("c", index1128, 1, text("T20", "Blank page"))}
	if _, _, err := Run(ctx, registry(t), nil, rows, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSubjectPage(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{`{"81":{"page":4}}`, 4, false},
		{`{"81":{"page":" 12 ","#note":"x"}}`, 12, false},
		{`{"81":{"page":"iv"}}`, 0, true},
		{`{"81":{}}`, 0, true},
		{`{"81":{"page":1},"82":{"page":2}}`, 0, true},
		{`[]`, 0, true},
	}
	for _, tt := range tests {
		got, err := SubjectPage(tt.in)
		if tt.wantErr {
			if !errors.Is(err, annotation.ErrSchemaViolation) {
				t.Errorf("%s: expected ErrSchemaViolation, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: expected %d, got %d err=%v", tt.in, tt.want, got, err)
		}
	}
}

func TestDump(t *testing.T) {
	rows := []parser.Classification{
		row("a", index1128, 2, text("T20", "Blank page")),
		row("b", underline35, 3, text("T0", "Blank page")),
	}
	pages, err := Dump(rows, index1128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	out, err := json.Marshal(pages)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded [][]json.RawMessage
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal dump: %v", err)
	}
	if len(decoded) != 1 || len(decoded[0]) != 2 {
		t.Fatalf("expected one (descriptor, annotations) pair, got %s", out)
	}
	if !strings.Contains(string(decoded[0][0]), `"page":2`) {
		t.Errorf("unexpected descriptor %s", decoded[0][0])
	}
}
