package decode

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

var (
	index1128   = vocab.Key{ID: 16866, Version: vocab.Version{Major: 11, Minor: 28}}
	index1240   = vocab.Key{ID: 16866, Version: vocab.Version{Major: 12, Minor: 40}}
	minutesA    = vocab.Key{ID: 18227, Version: vocab.Version{Major: 5, Minor: 12}}
	minutes3176 = vocab.Key{ID: 18228, Version: vocab.Version{Major: 31, Minor: 76}}
	underline35 = vocab.Key{ID: 18611, Version: vocab.Version{Major: 3, Minor: 5}}
)

func registry(t *testing.T) *vocab.Registry {
	t.Helper()
	reg, err := vocab.Default()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func workflow(t *testing.T, k vocab.Key) *vocab.Workflow {
	t.Helper()
	wf, err := registry(t).Lookup(k)
	if err != nil {
		t.Fatalf("lookup %s: %v", k, err)
	}
	return wf
}

// decodePage runs one page through a fresh decoder and returns its tables
// and anything logged.
func decodePage(t *testing.T, k vocab.Key, page int, nodes ...string) (*Result, string, error) {
	t.Helper()
	var logs bytes.Buffer
	d := NewDecoder(workflow(t, k), slog.New(slog.NewTextHandler(&logs, nil)))
	parsed, err := annotation.Parse([]byte(list(nodes...)))
	if err != nil {
		t.Fatalf("parse annotations: %v", err)
	}
	_, err = d.Page(page, parsed)
	return d.Result(), logs.String(), err
}

func text(task, v string) string {
	return fmt.Sprintf(`{"task":%q,"value":%q}`, task, v)
}

func dropdown(task, label string, option bool) string {
	return fmt.Sprintf(`{"task":%q,"value":[{"option":%t,"label":%q}]}`, task, option, label)
}

func group(task string, nodes ...string) string {
	return fmt.Sprintf(`{"task":%q,"value":%s}`, task, list(nodes...))
}

func list(nodes ...string) string {
	return "[" + strings.Join(nodes, ",") + "]"
}

func checklist(task string, labels ...string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(`{"task":%q,"value":[%s]}`, task, strings.Join(quoted, ","))
}
