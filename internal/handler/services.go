package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/agent"
	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/models"
	"github.com/lrsystem/lrsystem/internal/service"
)

// ServicesHandler handles POST /api/v1/services
type ServicesHandler struct {
	orch         *service.Orchestrator
	apiKeyHeader string
}

func NewServicesHandler(orch *service.Orchestrator, apiKeyHeader string) *ServicesHandler {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &ServicesHandler{orch: orch, apiKeyHeader: apiKeyHeader}
}

// Handle routes consultaAI requests through classification and everything
// else to the named category and action.
func (h *ServicesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	apiKey := r.Header.Get(h.apiKeyHeader)
	if req.IsConsulta() {
		h.consulta(w, r, &req, apiKey)
		return
	}

	res, err := h.orch.Direct(r.Context(),
		catalog.Category(req.Service), catalog.Action(req.Content.Action), req.Content.Params, apiKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	models.WriteEnvelope(w, res.Status, res.Data)
}

func (h *ServicesHandler) consulta(w http.ResponseWriter, r *http.Request, req *models.ServiceRequest, apiKey string) {
	resp, err := h.orch.Consulta(r.Context(), req.Content.Query, req.Content.Params, apiKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	models.WriteEnvelope(w, http.StatusOK, resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var (
		rejected *service.RejectedError
		status   *service.StatusError
		classErr *agent.ClassificationError
	)
	switch {
	case errors.As(err, &rejected):
		models.WriteError(w, http.StatusBadRequest, rejected.Reason)
	case errors.As(err, &status):
		models.WriteError(w, status.Code, status.Message)
	case errors.As(err, &classErr):
		models.WriteErrorDetails(w, http.StatusBadRequest, err.Error(), map[string]string{"raw": classErr.Raw})
	case errors.Is(err, context.DeadlineExceeded):
		models.WriteError(w, http.StatusGatewayTimeout, err.Error())
	default:
		log.Error().Err(err).Msg("service request failed")
		models.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
