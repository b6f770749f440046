package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lrsystem/lrsystem/internal/models"
	"github.com/lrsystem/lrsystem/internal/notify"
)

// NotifyHandler handles the mail and WhatsApp endpoints
type NotifyHandler struct {
	mailer   *notify.Mailer
	whatsapp *notify.WhatsAppSession
}

func NewNotifyHandler(mailer *notify.Mailer, whatsapp *notify.WhatsAppSession) *NotifyHandler {
	return &NotifyHandler{mailer: mailer, whatsapp: whatsapp}
}

// SendMail handles POST /api/v1/mail/send
func (h *NotifyHandler) SendMail(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "mail is not configured")
		return
	}
	var req notify.Email
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		msg := err.Error()
		if errors.Is(err, notify.ErrMissingFields) {
			msg = "Faltan campos requeridos (from, to, subject, message)"
		}
		models.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	receipt, err := h.mailer.Send(r.Context(), req)
	if err != nil {
		models.WriteErrorDetails(w, http.StatusInternalServerError, "No se pudo enviar el correo", err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, receipt)
}

// SendWhatsApp handles POST /api/v1/whatsapp/send
func (h *NotifyHandler) SendWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req models.WhatsAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.whatsapp.Send(req.Phone, req.Message)
	switch {
	case errors.Is(err, notify.ErrWhatsAppDisabled):
		models.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		models.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		models.WriteJSON(w, http.StatusOK, d)
	}
}

// WhatsAppStatus handles GET /api/v1/whatsapp/status
func (h *NotifyHandler) WhatsAppStatus(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, h.whatsapp.State())
}
