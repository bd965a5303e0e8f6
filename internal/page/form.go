package page

import (
	"context"
	"errors"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/models"
)

// Mode tells whether a form creates a new record or edits an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Outcome is the result of a form submission.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeValidationFailed
	OutcomeServerError
)

// SaveFunc persists values. id is zero in create mode.
type SaveFunc[V any] func(ctx context.Context, mode Mode, id int64, values V) error

// FormState is what a page renders for its modal.
type FormState[V any] struct {
	Open   bool
	Mode   Mode
	ID     int64
	Values V
	Errors models.ValidationErrors
	Notice *models.Notice
}

// FormOptions carries the texts and hooks of a form.
type FormOptions struct {
	// SuccessText returns the notice shown after a save in the given mode.
	SuccessText func(Mode) string
	// FailureText is shown when the save fails for any reason but validation.
	FailureText string
	// Refresh reloads the owning list after a successful save.
	Refresh func(ctx context.Context) error
}

// Form drives a create/edit modal: open, submit, map 422 field errors.
type Form[V any] struct {
	save  SaveFunc[V]
	opts  FormOptions
	state FormState[V]
}

func NewForm[V any](save SaveFunc[V], opts FormOptions) *Form[V] {
	if opts.SuccessText == nil {
		opts.SuccessText = func(Mode) string { return "Data berhasil disimpan!" }
	}
	if opts.FailureText == "" {
		opts.FailureText = "Terjadi kesalahan saat menyimpan data."
	}
	return &Form[V]{save: save, opts: opts}
}

// Open shows the modal seeded with values. Previous field errors are dropped.
func (f *Form[V]) Open(mode Mode, id int64, seed V) {
	if mode == ModeCreate {
		id = 0
	}
	f.state = FormState[V]{Open: true, Mode: mode, ID: id, Values: seed}
}

// Close hides the modal.
func (f *Form[V]) Close() {
	f.state.Open = false
	f.state.Errors = nil
}

func (f *Form[V]) State() FormState[V] {
	return f.state
}

// Submit saves values. On success the modal closes, the list is refreshed and
// a success notice is set; otherwise the modal stays open with field errors
// or a generic notice. The error is the save error, if any.
func (f *Form[V]) Submit(ctx context.Context, values V) (Outcome, error) {
	f.state.Values = values
	f.state.Errors = nil
	f.state.Notice = nil

	err := f.save(ctx, f.state.Mode, f.state.ID, values)
	if err != nil {
		f.state.Open = true
		if fields, ok := backend.FieldErrors(err); ok {
			f.state.Errors = fields
			return OutcomeValidationFailed, err
		}
		f.state.Notice = models.ErrorNotice(f.opts.FailureText)
		return OutcomeServerError, err
	}

	mode := f.state.Mode
	f.Close()
	f.state.Notice = models.SuccessNotice(f.opts.SuccessText(mode))
	if f.opts.Refresh != nil {
		if err := f.opts.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			return OutcomeSuccess, err
		}
	}
	return OutcomeSuccess, nil
}
