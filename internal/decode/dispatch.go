// Package decode turns the annotation lists of classification rows into
// the output tables of each workflow.
package decode

import (
	"log/slog"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/extract"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// Decoder routes the pages of one workflow to their page decoders and
// owns the workflow's accumulator.
type Decoder struct {
	wf  *vocab.Workflow
	ex  *extract.Extractor
	acc *Accumulator
	log *slog.Logger
}

func NewDecoder(wf *vocab.Workflow, log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{
		wf:  wf,
		ex:  extract.New(wf),
		acc: NewAccumulator(),
		log: log.With("workflow", wf.Name, "version", wf.Key.Version.String()),
	}
}

// Page decodes one page. The first node must answer the control question;
// its answer selects the decoder for the rest. The returned kind is the
// decoder that ran.
func (d *Decoder) Page(page int, nodes []annotation.Node) (vocab.Kind, error) {
	kind, err := d.page(page, nodes)
	return kind, annotation.AtPage(err, page)
}

func (d *Decoder) page(page int, nodes []annotation.Node) (vocab.Kind, error) {
	cur := annotation.NewCursor(nodes)
	control, ok := cur.Next()
	if !ok {
		return "", annotation.Errorf(annotation.ErrSchemaViolation, "", "",
			"page has no control answer")
	}
	if control.Task != d.wf.ControlTask {
		return "", annotation.Errorf(annotation.ErrSchemaViolation, control.Task, control.Value.String(),
			"first task is not control task %s", d.wf.ControlTask)
	}
	answer, err := d.ex.Value(control, vocab.RoleControl)
	if err != nil {
		return "", err
	}
	kind, ok := d.wf.ControlKind(answer)
	if !ok {
		return "", annotation.Errorf(annotation.ErrUnknownControlValue, control.Task, answer,
			"expected one of %q", d.wf.ControlAnswers())
	}

	pd := &pageDecoder{wf: d.wf, ex: d.ex, acc: d.acc, page: page, log: d.log}
	switch kind {
	case vocab.KindBlank:
		err = pd.blank(cur)
	case vocab.KindIndexOther:
		err = pd.other(cur)
	case vocab.KindIndexNames:
		err = pd.names(cur)
	case vocab.KindMinutes:
		err = pd.minutes(cur)
	case vocab.KindUnderline:
		err = pd.underline(cur)
	}
	return kind, err
}

// Result sorts and returns everything decoded so far.
func (d *Decoder) Result() *Result {
	r := &Result{Workflow: d.wf, Tables: d.acc.Tables}
	r.Tables.sort()
	return r
}
