package decode

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/sbaggregate/internal/annotation"
)

func TestOther_SubjectExpandsPageReferences(t *testing.T) {
	res, _, err := decodePage(t, index1128, 7,
		text("T20", "Other page"),
		text("T12", "Correspondence"),
		text("T13", "Letters from X"),
		text("T14", "12, 15 (reply)"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []IndexEntry{
		{Page: 7, Entry: 0, Heading: "Correspondence", Subject: "Letters from X", PageRef: "12"},
		{Page: 7, Entry: 1, Heading: "Correspondence", Subject: "Letters from X", PageRef: "15", MarginalNote: "reply"},
	}
	if diff := cmp.Diff(want, res.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestOther_OrphanHeadingGetsPlaceholder(t *testing.T) {
	res, _, err := decodePage(t, index1128, 2,
		text("T20", "Other page"),
		text("T12", "H1"),
		text("T12", "H2"),
		text("T16", "Drains"),
		text("T17", "4"),
		text("T12", "H3"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []IndexEntry{
		{Page: 2, Entry: 0, Heading: "H1"},
		{Page: 2, Entry: 1, Heading: "H2", Subject: "Drains", PageRef: "4"},
		{Page: 2, Entry: 2, Heading: "H3"},
	}
	if diff := cmp.Diff(want, res.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestOther_CommentFlushesHeading(t *testing.T) {
	res, _, err := decodePage(t, index1128, 1,
		text("T20", "Other page"),
		text("T12", "Parks"),
		text("T27", "ink faded"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []IndexEntry{
		{Page: 1, Entry: 0, Heading: "Parks"},
		{Page: 1, Entry: 1, Heading: "Parks", Comment: "ink faded"},
	}
	if diff := cmp.Diff(want, res.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestOther_EmptyPages(t *testing.T) {
	res, _, err := decodePage(t, index1128, 1,
		text("T20", "Other page"),
		text("T13", "Baths"),
		text("T14", ""),
		text("T16", ""),
		text("T17", " "),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []IndexEntry{{Page: 1, Subject: "Baths"}}
	if diff := cmp.Diff(want, res.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestOther_SubjectWithoutPages(t *testing.T) {
	_, _, err := decodePage(t, index1128, 3,
		text("T20", "Other page"),
		text("T13", "Baths"),
		text("T12", "Next"),
	)
	if !errors.Is(err, annotation.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestOther_UnknownTaskIsFatal(t *testing.T) {
	_, _, err := decodePage(t, index1128, 3,
		text("T20", "Other page"),
		text("T99", "?"),
	)
	if !errors.Is(err, annotation.ErrUnrecognizedTask) {
		t.Fatalf("expected ErrUnrecognizedTask, got %v", err)
	}
	var de *annotation.DecodeError
	if !errors.As(err, &de) || de.Page != 3 || de.Task != "T99" {
		t.Errorf("expected page 3 task T99 in error, got %v", err)
	}
}

func TestOther_AmbiguousPagesNamesTask(t *testing.T) {
	_, _, err := decodePage(t, index1128, 5,
		text("T20", "Other page"),
		text("T13", "Letters"),
		text("T14", "3 (see 4, 5)"),
	)
	if !errors.Is(err, annotation.ErrAmbiguousInput) {
		t.Fatalf("expected ErrAmbiguousInput, got %v", err)
	}
	var de *annotation.DecodeError
	if !errors.As(err, &de) || de.Task != "T14" || de.Page != 5 {
		t.Errorf("expected task T14 page 5 in error, got %v", err)
	}
}

func TestNames_FlatThenHandOffToOther(t *testing.T) {
	res, _, err := decodePage(t, index1128, 9,
		text("T20", "Name list"),
		dropdown("T8", "Mr", true),
		text("T24", ""),
		text("T2", "John"),
		dropdown("T9", "Other", false),
		text("T25", "Alderman"),
		text("T26", "Roads"),
		text("T6", "4, 9 (chair)"),
		text("T12", "Finance"),
		text("T13", "Budget"),
		text("T14", "20"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantNames := []NameEntry{
		{Page: 9, Entry: 0, Title: "Mr", Forename: "John", Position: "Alderman", Subject: "Roads", PageRef: "4"},
		{Page: 9, Entry: 1, Title: "Mr", Forename: "John", Position: "Alderman", Subject: "Roads", PageRef: "9", MarginalNote: "chair"},
	}
	if diff := cmp.Diff(wantNames, res.Names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	wantIndex := []IndexEntry{{Page: 9, Entry: 0, Heading: "Finance", Subject: "Budget", PageRef: "20"}}
	if diff := cmp.Diff(wantIndex, res.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestNames_EmptyTitleDropdownIsFatal(t *testing.T) {
	for _, empty := range []string{`{"task":"T8","value":[]}`, `{"task":"T8","value":null}`} {
		_, _, err := decodePage(t, index1128, 9,
			text("T20", "Name list"),
			empty,
			text("T2", "John"),
			text("T26", "Baths"),
			text("T6", "3"),
		)
		if !errors.Is(err, annotation.ErrSchemaViolation) {
			t.Errorf("%s: expected ErrSchemaViolation, got %v", empty, err)
		}
	}
}

func TestNames_OpenEntryFlushedWithoutPages(t *testing.T) {
	res, _, err := decodePage(t, index1128, 4,
		text("T20", "Name list"),
		text("T2", "Ann"),
		text("T27", "smudged"),
		text("T2", "Bea"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []NameEntry{
		{Page: 4, Entry: 0, Forename: "Ann"},
		{Page: 4, Entry: 1, Comment: "smudged"},
		{Page: 4, Entry: 2, Forename: "Bea"},
	}
	if diff := cmp.Diff(want, res.Names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func nameEntry(title string, option bool, titleText, forename, surname, position, subject, pages string) []string {
	return []string{
		dropdown("T31", title, option),
		text("T32", titleText),
		text("T33", forename),
		text("T34", surname),
		dropdown("T35", "Councillor", true),
		text("T36", position),
		text("T37", subject),
		text("T38", pages),
	}
}

func TestNames_ComboEntries(t *testing.T) {
	var subs []string
	subs = append(subs, nameEntry("Mrs", true, "", "Mary", "Smith", "", "Libraries", "3")...)
	subs = append(subs, nameEntry("Other", false, "Dr", "Henry", "Jones", "", "Health", "5, 6")...)

	res, _, err := decodePage(t, index1240, 11,
		text("T20", "Name list"),
		group("T30", subs...),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []NameEntry{
		{Page: 11, Entry: 0, Title: "Mrs", Forename: "Mary", Surname: "Smith", Position: "Councillor", Subject: "Libraries", PageRef: "3"},
		{Page: 11, Entry: 1, Title: "Dr", Forename: "Henry", Surname: "Jones", Position: "Councillor", Subject: "Health", PageRef: "5"},
		{Page: 11, Entry: 2, Title: "Dr", Forename: "Henry", Surname: "Jones", Position: "Councillor", Subject: "Health", PageRef: "6"},
	}
	if diff := cmp.Diff(want, res.Names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestNames_ComboOutOfOrderField(t *testing.T) {
	subs := nameEntry("Mr", true, "", "A", "B", "", "S", "1")
	subs[2], subs[3] = subs[3], subs[2]
	_, _, err := decodePage(t, index1240, 1,
		text("T20", "Name list"),
		group("T30", subs...),
	)
	if !errors.Is(err, annotation.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}
