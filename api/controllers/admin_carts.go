package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/miguelsandoval/storefront-backend/api/responses"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
)

type cartSweeper interface {
	SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweepAbandonedCarts runs the abandoned cart sweep on demand and returns the
// number of carts flipped. The cron worker runs the same sweep on a schedule.
func SweepAbandonedCarts(carts cartSweeper, cutoff time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		swept, err := carts.SweepAbandoned(r.Context(), time.Now().UTC().Add(-cutoff))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithField(r.Context(), "count", swept)
			logg.Info(ctx, "manual abandoned cart sweep complete")
		}

		responses.WriteSuccess(w, map[string]int64{"swept": swept})
	}
}
