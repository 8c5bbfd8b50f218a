package vocab

import "sort"

// Workflow is the task vocabulary of one workflow version.
type Workflow struct {
	Name        string
	Key         Key
	ControlTask string

	tasks        map[string]Role
	control      map[string]Kind
	tableControl map[string]TableAction

	// NameFields is the field order of a name combo; field j is value[j::k].
	NameFields []Role
	// ItemFields is the field order of an agenda item combo.
	ItemFields []Role
	// StrokeTools names the stroke category of each drawing tool index.
	StrokeTools []string
}

// Role returns the role of a task identifier, or RoleUnknown.
func (w *Workflow) Role(task string) Role {
	return w.tasks[task]
}

// ControlKind returns the page decoder selected by a control answer.
func (w *Workflow) ControlKind(answer string) (Kind, bool) {
	k, ok := w.control[answer]
	return k, ok
}

// TableAction returns the effect of a table-accordion answer.
func (w *Workflow) TableAction(answer string) (TableAction, bool) {
	a, ok := w.tableControl[answer]
	return a, ok
}

// ControlAnswers lists the accepted control answers, sorted.
func (w *Workflow) ControlAnswers() []string {
	return sortedKeys(w.control)
}

// TableAnswers lists the accepted table control answers, sorted.
func (w *Workflow) TableAnswers() []string {
	return sortedKeys(w.tableControl)
}

// Tasks lists the task identifiers carrying role r, sorted.
func (w *Workflow) Tasks(r Role) []string {
	var out []string
	for task, role := range w.tasks {
		if role == r {
			out = append(out, task)
		}
	}
	sort.Strings(out)
	return out
}

// TaskCount returns the number of task identifiers in the vocabulary.
func (w *Workflow) TaskCount() int {
	return len(w.tasks)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
