package handler

import (
	"encoding/json"
	"net/http"

	"github.com/lrsystem/lrsystem/internal/agent"
	"github.com/lrsystem/lrsystem/internal/models"
	"github.com/lrsystem/lrsystem/internal/security"
)

// GenerateHandler handles POST /api/v1/generate
type GenerateHandler struct {
	chain     *agent.FallbackChain
	promptVal *security.PromptValidator
}

func NewGenerateHandler(chain *agent.FallbackChain, promptVal *security.PromptValidator) *GenerateHandler {
	return &GenerateHandler{chain: chain, promptVal: promptVal}
}

// Generate always answers 200: when every provider fails the canned
// response is returned with the failures listed.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.promptVal != nil {
		if vr := h.promptVal.Validate(req.Prompt); !vr.Valid {
			models.WriteError(w, http.StatusBadRequest, "prompt validation failed: "+vr.Message)
			return
		}
	}

	models.WriteJSON(w, http.StatusOK, h.chain.Run(r.Context(), req.Prompt))
}
