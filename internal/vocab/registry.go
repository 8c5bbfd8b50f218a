package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed workflows.toml
var defaultRegistry string

// ErrUnknownWorkflow is returned when a requested workflow/version has no
// vocabulary. It is a configuration error, raised before any decoding.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// Registry holds every configured vocabulary, keyed by (id, version).
type Registry struct {
	workflows []*Workflow
	byKey     map[Key]*Workflow
}

type registryFile struct {
	Workflows []workflowFile `toml:"workflow"`
}

type workflowFile struct {
	Name         string            `toml:"name"`
	ID           int               `toml:"id"`
	Version      string            `toml:"version"`
	ControlTask  string            `toml:"control_task"`
	Control      map[string]string `toml:"control"`
	Tasks        map[string]string `toml:"tasks"`
	NameFields   []string          `toml:"name_fields"`
	ItemFields   []string          `toml:"item_fields"`
	TableControl map[string]string `toml:"table_control"`
	StrokeTools  []string          `toml:"stroke_tools"`
}

// Default returns the registry built into the binary.
func Default() (*Registry, error) {
	reg, err := LoadRegistry(strings.NewReader(defaultRegistry))
	if err != nil {
		return nil, fmt.Errorf("embedded registry: %w", err)
	}
	return reg, nil
}

// LoadRegistryFile reads a TOML registry from path.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()
	reg, err := LoadRegistry(f)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return reg, nil
}

// LoadRegistry parses and validates a TOML registry.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var file registryFile
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(file.Workflows) == 0 {
		return nil, errors.New("registry defines no workflows")
	}

	reg := &Registry{byKey: make(map[Key]*Workflow, len(file.Workflows))}
	for i, wf := range file.Workflows {
		w, err := wf.build()
		if err != nil {
			return nil, fmt.Errorf("workflow %d (%s): %w", i, wf.Name, err)
		}
		if prev, dup := reg.byKey[w.Key]; dup {
			return nil, fmt.Errorf("workflow %s: duplicate key %s (already used by %s)", w.Name, w.Key, prev.Name)
		}
		reg.byKey[w.Key] = w
		reg.workflows = append(reg.workflows, w)
	}
	return reg, nil
}

func (wf workflowFile) build() (*Workflow, error) {
	if strings.TrimSpace(wf.Name) == "" {
		return nil, errors.New("name is required")
	}
	if wf.ID <= 0 {
		return nil, errors.New("id must be positive")
	}
	version, err := ParseVersion(wf.Version)
	if err != nil {
		return nil, err
	}

	w := &Workflow{
		Name:         wf.Name,
		Key:          Key{ID: wf.ID, Version: version},
		ControlTask:  wf.ControlTask,
		tasks:        make(map[string]Role, len(wf.Tasks)),
		control:      make(map[string]Kind, len(wf.Control)),
		tableControl: make(map[string]TableAction, len(wf.TableControl)),
		StrokeTools:  wf.StrokeTools,
	}

	for task, name := range wf.Tasks {
		role, err := ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task, err)
		}
		w.tasks[task] = role
	}
	if w.ControlTask == "" {
		return nil, errors.New("control_task is required")
	}
	if w.Role(w.ControlTask) != RoleControl {
		return nil, fmt.Errorf("control_task %s must have role %s", w.ControlTask, RoleControl)
	}

	if len(wf.Control) == 0 {
		return nil, errors.New("control answers are required")
	}
	for answer, name := range wf.Control {
		kind, err := parseKind(name)
		if err != nil {
			return nil, fmt.Errorf("control answer %q: %w", answer, err)
		}
		w.control[answer] = kind
	}

	for answer, name := range wf.TableControl {
		action, err := parseTableAction(name)
		if err != nil {
			return nil, fmt.Errorf("table control answer %q: %w", answer, err)
		}
		w.tableControl[answer] = action
	}

	if w.NameFields, err = w.fieldRoles("name_fields", wf.NameFields); err != nil {
		return nil, err
	}
	if w.ItemFields, err = w.fieldRoles("item_fields", wf.ItemFields); err != nil {
		return nil, err
	}

	if w.has(RoleNameCombo) && len(w.NameFields) == 0 {
		return nil, errors.New("name_fields are required when a name_combo task exists")
	}
	if w.has(RoleItemCombo) && len(w.ItemFields) == 0 {
		return nil, errors.New("item_fields are required when an item_combo task exists")
	}
	if w.has(RoleTableControl) && len(w.tableControl) == 0 {
		return nil, errors.New("table_control answers are required when a table_control task exists")
	}
	if w.has(RoleStrokes) && len(w.StrokeTools) == 0 {
		return nil, errors.New("stroke_tools are required when a strokes task exists")
	}
	return w, nil
}

// fieldRoles resolves a combo field layout; every field role must be carried
// by at least one task so that sub-annotations can be validated.
func (w *Workflow) fieldRoles(field string, names []string) ([]Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	roles := make([]Role, len(names))
	seen := make(map[Role]bool, len(names))
	for i, name := range names {
		role, err := ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		if !w.has(role) {
			return nil, fmt.Errorf("%s[%d]: no task has role %s", field, i, role)
		}
		if seen[role] {
			return nil, fmt.Errorf("%s[%d]: role %s listed twice", field, i, role)
		}
		seen[role] = true
		roles[i] = role
	}
	return roles, nil
}

func (w *Workflow) has(r Role) bool {
	for _, role := range w.tasks {
		if role == r {
			return true
		}
	}
	return false
}

// Lookup returns the vocabulary for an exact (id, version) key.
func (r *Registry) Lookup(k Key) (*Workflow, error) {
	w, ok := r.byKey[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, k)
	}
	return w, nil
}

// Workflows returns every vocabulary in registry order.
func (r *Registry) Workflows() []*Workflow {
	out := make([]*Workflow, len(r.workflows))
	copy(out, r.workflows)
	return out
}

// Select resolves workflow selectors. A selector is NAME or ID, optionally
// followed by @VERSION; without a version it matches every version. No
// selectors selects the whole registry. A selector matching nothing is an
// ErrUnknownWorkflow.
func (r *Registry) Select(selectors []string) ([]*Workflow, error) {
	if len(selectors) == 0 {
		return r.Workflows(), nil
	}

	var out []*Workflow
	picked := make(map[Key]bool)
	for _, sel := range selectors {
		matches, err := r.match(sel)
		if err != nil {
			return nil, err
		}
		for _, w := range matches {
			if !picked[w.Key] {
				picked[w.Key] = true
				out = append(out, w)
			}
		}
	}
	return out, nil
}

func (r *Registry) match(selector string) ([]*Workflow, error) {
	sel := strings.TrimSpace(selector)
	name, versionStr, hasVersion := strings.Cut(sel, "@")

	var version Version
	if hasVersion {
		v, err := ParseVersion(versionStr)
		if err != nil {
			return nil, fmt.Errorf("workflow selector %q: %w", selector, err)
		}
		version = v
	}
	id, idErr := strconv.Atoi(name)

	var out []*Workflow
	for _, w := range r.workflows {
		if !strings.EqualFold(w.Name, name) && (idErr != nil || w.Key.ID != id) {
			continue
		}
		if hasVersion && w.Key.Version != version {
			continue
		}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, selector)
	}
	return out, nil
}
