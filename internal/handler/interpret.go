package handler

import (
	"encoding/json"
	"net/http"

	"github.com/lrsystem/lrsystem/internal/agent"
	"github.com/lrsystem/lrsystem/internal/models"
	"github.com/lrsystem/lrsystem/internal/security"
)

// InterpretHandler handles POST /api/v1/interpret
type InterpretHandler struct {
	agent  *agent.QueryAgent
	masker *security.DataMasker
}

func NewInterpretHandler(a *agent.QueryAgent, masker *security.DataMasker) *InterpretHandler {
	return &InterpretHandler{agent: a, masker: masker}
}

// Interpret turns free text into a table query and returns its rows.
func (h *InterpretHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	var req models.InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.agent.Run(r.Context(), req.Query)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.masker != nil {
		for table, rows := range answer.Data {
			answer.Data[table] = h.masker.MaskRows(rows)
		}
	}
	models.WriteJSON(w, http.StatusOK, answer)
}
