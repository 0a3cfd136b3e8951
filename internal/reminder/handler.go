package reminder

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/studiofisyo/ledger/pkg/authn"
	"github.com/studiofisyo/ledger/pkg/jsonutil"
)

// Runner is satisfied by *Dispatcher.
type Runner interface {
	Run(ctx context.Context) (*Summary, error)
}

// Handler exposes a dispatch run to an external scheduler.
type Handler struct {
	runner     Runner
	cronSecret string
}

// NewHandler builds the trigger endpoint. A non-empty cronSecret must be
// presented as a bearer token.
func NewHandler(runner Runner, cronSecret string) *Handler {
	return &Handler{runner: runner, cronSecret: cronSecret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret != "" {
		token, err := authn.BearerToken(r)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) != 1 {
			jsonutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	// a disconnecting scheduler must not abort a half-finished batch
	summary, err := h.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		jsonutil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, summary)
}
