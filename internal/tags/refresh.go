package tags

import (
	"context"

	"github.com/kutbudev/invctl/internal/logging"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
	"go.uber.org/zap"
)

// RefreshFailedMessage is shown when a user-initiated refresh fails.
const RefreshFailedMessage = "Could not load tags. Try again later."

// Refresher wraps a Store refresh with the failure reporting of the
// views: the failure is always logged, the user is told unless silent,
// and the error is always returned to the caller.
type Refresher struct {
	Store    *Store
	Notifier notify.Notifier
}

// Refresh refreshes the store.
func (r *Refresher) Refresh(ctx context.Context, force, silent bool) ([]models.Tag, error) {
	tags, err := r.Store.Refresh(ctx, force)
	if err == nil {
		return tags, nil
	}

	logging.L().Warn("tag refresh failed",
		zap.Bool("force", force),
		zap.Bool("silent", silent),
		zap.Error(err))
	if !silent && r.Notifier != nil {
		r.Notifier.Notify(notify.Warning, RefreshFailedMessage)
	}
	return nil, err
}
