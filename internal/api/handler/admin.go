package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/harutoki/licensegate/internal/api/apierr"
	"github.com/harutoki/licensegate/internal/api/request"
	"github.com/harutoki/licensegate/internal/api/response"
	"github.com/harutoki/licensegate/internal/dependencies/clock"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/services/arbiter"
	"github.com/harutoki/licensegate/internal/services/gate"
	"github.com/harutoki/licensegate/internal/services/license"
)

// AdminHandler handles token administration endpoints
type AdminHandler struct {
	tokens   *license.Service
	sessions *arbiter.Service
	gate     *gate.Service
	clock    clock.Clock
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(tokens *license.Service, sessions *arbiter.Service, gateService *gate.Service, clk clock.Clock) *AdminHandler {
	return &AdminHandler{
		tokens:   tokens,
		sessions: sessions,
		gate:     gateService,
		clock:    clk,
	}
}

// List handles GET /api/v1/admin/tokens. The cache is refreshed first so the
// listing reflects the store, the way the original dashboard did.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Refresh(r.Context()); err != nil {
		apierr.WriteError(w, model.ErrStoreUnavailable)
		return
	}

	tokens, err := h.tokens.List()
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	now := h.clock.Now()
	out := make([]response.Token, len(tokens))
	for i, t := range tokens {
		bound, _ := h.sessions.SessionFor(t.ID)
		out[i] = response.TokenFromModel(t, bound, now)
	}

	response.JSON(w, http.StatusOK, response.TokenList{Tokens: out})
}

// Issue handles POST /api/v1/admin/tokens
func (h *AdminHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req request.IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	var expires time.Time
	if req.Expires != "" {
		var err error
		expires, err = time.ParseInLocation("2006-01-02", req.Expires, time.UTC)
		if err != nil {
			apierr.WriteError(w, apierr.NewInvalidRequestError("expires must be a YYYY-MM-DD date"))
			return
		}
	}

	token, err := h.tokens.Issue(r.Context(),
		model.TokenID(req.Token), req.User, expires, req.Uses, req.Version)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TokenFromModel(*token, "", h.clock.Now()))
}

// Revoke handles DELETE /api/v1/admin/tokens/{token}. The bound session, if
// any, dies with the token.
func (h *AdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := model.TokenID(mux.Vars(r)["token"])

	if _, err := h.tokens.Get(id); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := h.gate.Revoke(r.Context(), id); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}
