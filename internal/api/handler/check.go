package handler

import (
	"encoding/json"
	"net/http"

	"github.com/harutoki/licensegate/internal/api/apierr"
	"github.com/harutoki/licensegate/internal/api/request"
	"github.com/harutoki/licensegate/internal/api/response"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/services/gate"
)

// CheckHandler handles the public validation endpoints
type CheckHandler struct {
	gate *gate.Service
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(gateService *gate.Service) *CheckHandler {
	return &CheckHandler{
		gate: gateService,
	}
}

// Check handles GET/POST /api/v1/check. Rejections come back as structured
// 200 responses; the client treats any of them as "not authorized right now".
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCheck(w, r)
	if !ok {
		return
	}

	if req.Token == "" {
		response.JSON(w, http.StatusOK, response.CheckResponse{
			Valid:  false,
			Reason: apierr.CodeInvalidRequest,
			Msg:    "token is required",
		})
		return
	}
	if req.Token != string(model.HealthProbeToken) && req.SessionID == "" {
		response.JSON(w, http.StatusOK, response.CheckResponse{
			Valid:  false,
			Reason: apierr.CodeInvalidRequest,
			Msg:    "session_id is required",
		})
		return
	}

	result := h.gate.ValidateAndConsume(r.Context(),
		model.TokenID(req.Token), model.SessionID(req.SessionID), req.Version)

	switch {
	case result.Alive:
		response.JSON(w, http.StatusOK, response.CheckResponse{
			Valid: false,
			Msg:   "Server is alive",
		})
	case result.Err != nil:
		response.JSON(w, http.StatusOK, response.CheckResponse{
			Valid:  false,
			Reason: apierr.Code(result.Err),
			Msg:    result.Err.Error(),
		})
	default:
		remaining := result.Token.Remaining()
		response.JSON(w, http.StatusOK, response.CheckResponse{
			Valid:     true,
			SessionID: string(result.SessionID),
			Remaining: &remaining,
		})
	}
}

// Logout handles POST /api/v1/logout. Releasing an already-free token is
// fine: logouts may arrive long after the claim is gone.
func (h *CheckHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req request.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Token == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("token is required"))
		return
	}
	if req.SessionID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("session_id is required"))
		return
	}

	h.gate.Logout(r.Context(), model.TokenID(req.Token), model.SessionID(req.SessionID))
	response.NoContent(w)
}

// decodeCheck accepts JSON bodies on POST and query parameters on GET, the
// latter for compatibility with clients of the original /api/check
func (h *CheckHandler) decodeCheck(w http.ResponseWriter, r *http.Request) (request.CheckRequest, bool) {
	var req request.CheckRequest

	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
			return req, false
		}
		return req, true
	}

	q := r.URL.Query()
	req.Token = q.Get("token")
	req.SessionID = q.Get("session")
	req.Version = q.Get("version")
	return req, true
}
