package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/harutoki/licensegate/internal/api/apierr"
	"github.com/harutoki/licensegate/internal/api/request"
	"github.com/harutoki/licensegate/internal/api/response"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/services/playerlog"
)

// maxImportSize bounds the bulk import body
const maxImportSize = 8 << 20

// PlayerHandler handles player identity log endpoints
type PlayerHandler struct {
	log *playerlog.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(log *playerlog.Service) *PlayerHandler {
	return &PlayerHandler{
		log: log,
	}
}

// Observe handles POST /api/v1/players/observe, the live telemetry path
func (h *PlayerHandler) Observe(w http.ResponseWriter, r *http.Request) {
	var req request.ObserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if len(req.Players) == 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("players is required"))
		return
	}

	observations := make([]playerlog.Observation, len(req.Players))
	for i, p := range req.Players {
		observations[i] = playerlog.Observation{
			FriendCode: model.FriendCode(p.FriendCode),
			Name:       p.Name,
		}
	}

	if err := h.log.ObserveBatch(r.Context(), observations); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/admin/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.log.List(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	out := make([]response.PlayerRecord, len(records))
	for i, record := range records {
		out[i] = response.PlayerRecordFromModel(record)
	}

	response.JSON(w, http.StatusOK, response.PlayerList{Players: out})
}

// SetBlacklist handles POST /api/v1/admin/players/blacklist
func (h *PlayerHandler) SetBlacklist(w http.ResponseWriter, r *http.Request) {
	var req request.BlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	record, err := h.log.SetBlacklist(r.Context(), model.FriendCode(req.FriendCode), req.Label)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerRecordFromModel(record))
}

// Import handles POST /api/v1/admin/players/import with a plain text body
func (h *PlayerHandler) Import(w http.ResponseWriter, r *http.Request) {
	imported, err := h.log.Import(r.Context(), io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ImportResult{Imported: imported})
}

// Export handles GET /api/v1/admin/players/export
func (h *PlayerHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.log.Export(r.Context(), &buf); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.Text(w, http.StatusOK, buf.Bytes())
}
