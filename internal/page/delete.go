package page

import (
	"context"
	"errors"

	"github.com/Chqrety/reservation/internal/models"
)

// ErrNotConfirmed is returned when a delete was requested without the user
// confirming it. No backend call is made.
var ErrNotConfirmed = errors.New("page: delete not confirmed")

// Deleter removes a record after explicit confirmation and then refreshes
// the owning list. Rows are never removed optimistically.
type Deleter struct {
	Remove      func(ctx context.Context, id int64) error
	Refresh     func(ctx context.Context) error
	Prompt      string
	SuccessText string
	FailureText string
}

// Delete returns the notice to show. confirmed must come from the user.
func (d Deleter) Delete(ctx context.Context, id int64, confirmed bool) (*models.Notice, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	if err := d.Remove(ctx, id); err != nil {
		text := d.FailureText
		if text == "" {
			text = "Gagal menghapus data."
		}
		return models.ErrorNotice(text), err
	}

	text := d.SuccessText
	if text == "" {
		text = "Data berhasil dihapus!"
	}
	if d.Refresh != nil {
		if err := d.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			return models.SuccessNotice(text), err
		}
	}
	return models.SuccessNotice(text), nil
}
