package pageref

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/sbaggregate/internal/annotation"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want []Ref
	}{
		{"12", []Ref{{Page: "12"}}},
		{"12, 15 (reply)", []Ref{{Page: "12"}, {Page: "15", Note: "reply"}}},
		{" 3 ,4,  5 ", []Ref{{Page: "3"}, {Page: "4"}, {Page: "5"}}},
		{"(see margin)", []Ref{{Note: "see margin"}}},
		{"7(x)", []Ref{{Page: "7", Note: "x"}}},
		{"see 12", []Ref{{Page: "12", Note: "see"}}},
		{"(reply) 15", []Ref{{Page: "15", Note: "reply"}}},
		{"12,", []Ref{{Page: "12"}, {}}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParse_OnePairPerToken(t *testing.T) {
	inputs := []string{"1", "1,2", "1, 2 (a), see 3", "4 (b),5 (c),6 (d),7"}
	for _, in := range inputs {
		got, err := Parse(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if want := strings.Count(in, ",") + 1; len(got) != want {
			t.Errorf("%q: expected %d refs, got %d", in, want, len(got))
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	notes := []string{"reply", "see also", " padded ", "a-b", "minute 4"}
	for i, note := range notes {
		page := fmt.Sprint(10 + i*7)
		in := fmt.Sprintf("%s (%s)", page, note)
		got, err := Parse(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if len(got) != 1 || got[0].Page != page || got[0].Note != note {
			t.Errorf("%q: expected (%s, %q), got %+v", in, page, note, got)
		}
	}
}

func TestParse_AmbiguousNestedComma(t *testing.T) {
	for _, in := range []string{"x (a,b)", "12 (see 3, 4)"} {
		_, err := Parse(in)
		if !errors.Is(err, annotation.ErrAmbiguousInput) {
			t.Errorf("%q: expected ErrAmbiguousInput, got %v", in, err)
		}
	}
}

func TestParse_SeveralNotesUnparsable(t *testing.T) {
	for _, in := range []string{"12 (a) (b)", "3 (a)b)"} {
		_, err := Parse(in)
		if !errors.Is(err, annotation.ErrUnparsableReference) {
			t.Errorf("%q: expected ErrUnparsableReference, got %v", in, err)
		}
	}
}

func TestParse_Unparsable(t *testing.T) {
	_, err := Parse("12, 12a")
	if !errors.Is(err, annotation.ErrUnparsableReference) {
		t.Fatalf("expected ErrUnparsableReference, got %v", err)
	}
	var de *annotation.DecodeError
	if !errors.As(err, &de) || de.Value != "12a" {
		t.Errorf("expected error to carry token 12a, got %v", err)
	}
}
