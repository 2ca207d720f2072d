package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contacts/internal/contacts/auth"
	"contacts/internal/contacts/models"
	"contacts/internal/platform/metrics"
	"contacts/internal/platform/middleware"
	dErrors "contacts/pkg/domain-errors"
	"contacts/pkg/platform/httputil"
)

// maxBodyBytes caps contact payloads; a valid body is a four-field object.
const maxBodyBytes = 4 << 10

// ContactsService is the domain surface the handler needs.
type ContactsService interface {
	GetContacts(ctx context.Context, username string) ([]models.Contact, error)
	AddContact(ctx context.Context, username, callerAcct string, req *models.NewContactRequest) error
}

// ContactsHandler serves the per-user contact list endpoints.
type ContactsHandler struct {
	service  ContactsService
	verifier *auth.Verifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewContactsHandler constructs the handler.
func NewContactsHandler(service ContactsService, verifier *auth.Verifier, logger *slog.Logger, m *metrics.Metrics) *ContactsHandler {
	return &ContactsHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
		metrics:  m,
	}
}

// Register mounts the contact routes on the given router.
func (h *ContactsHandler) Register(r chi.Router) {
	r.Get("/contacts/{username}", h.handleGetContacts)
	r.Post("/contacts/{username}", h.handleAddContact)
}

// handleGetContacts retrieves the contacts list for the authenticated user.
func (h *ContactsHandler) handleGetContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	_, err := h.verifier.Authenticate(r.Header.Get("Authorization"), username)
	if err != nil {
		h.authDenied(ctx, w, "error retrieving contacts list", err)
		return
	}

	contacts, err := h.service.GetContacts(ctx, username)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, contacts)
}

// handleAddContact adds a new favorite account to the user's contacts list.
func (h *ContactsHandler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	claims, err := h.verifier.Authenticate(r.Header.Get("Authorization"), username)
	if err != nil {
		h.authDenied(ctx, w, "error adding contact", err)
		return
	}
	// Writes need the caller's own account number for the self-reference
	// rule; a token without it cannot authorize a write.
	if claims.Acct == "" {
		h.authDenied(ctx, w, "error adding contact",
			dErrors.New(dErrors.CodeUnauthorized, "authentication denied"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	req, err := models.DecodeNewContact(body)
	if err != nil {
		h.logger.WarnContext(ctx, "error adding contact",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		if h.metrics != nil {
			h.metrics.IncrementValidationFailures()
		}
		h.writeError(ctx, w, err)
		return
	}

	if err := h.service.AddContact(ctx, username, claims.Acct, req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// authDenied logs the underlying cause and writes the generic authentication
// failure. The response never distinguishes which check failed.
func (h *ContactsHandler) authDenied(ctx context.Context, w http.ResponseWriter, logMsg string, err error) {
	h.logger.WarnContext(ctx, logMsg,
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
	if h.metrics != nil {
		h.metrics.IncrementAuthFailures()
	}
	httputil.WriteText(w, http.StatusUnauthorized, "authentication denied")
}

// writeError translates domain error codes into status codes. Validation and
// conflict reasons are enumerated, client-safe strings and are returned
// verbatim; everything else gets its generic message and a 500.
func (h *ContactsHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		switch domainErr.Code {
		case dErrors.CodeUnauthorized:
			status = http.StatusUnauthorized
			message = "authentication denied"
		case dErrors.CodeValidation:
			status = http.StatusBadRequest
		case dErrors.CodeConflict:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	httputil.WriteText(w, status, message)
}
