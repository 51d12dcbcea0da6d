package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	auditrecorder "resupply/contexts/exchange-core/audit-recorder"
	inventoryledger "resupply/contexts/exchange-core/inventory-ledger"
	transferworkflow "resupply/contexts/exchange-core/transfer-workflow"
	identitycontext "resupply/contexts/identity-access/identity-context"
	identityentities "resupply/contexts/identity-access/identity-context/domain/entities"
	identityerrors "resupply/contexts/identity-access/identity-context/domain/errors"

	auditports "resupply/contexts/exchange-core/audit-recorder/ports"
	ledgerports "resupply/contexts/exchange-core/inventory-ledger/ports"
	transferports "resupply/contexts/exchange-core/transfer-workflow/ports"
)

// Socket timeouts keep a stalled client from parking a connection
// forever; handlers inherit the write timeout as their ceiling.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

type Server struct {
	mux       *http.ServeMux
	srv       *http.Server
	logger    *slog.Logger
	addr      string
	identity  identitycontext.Module
	ledger    inventoryledger.Module
	transfers transferworkflow.Module
	audit     auditrecorder.Module
}

func New(
	identity identitycontext.Module,
	ledger inventoryledger.Module,
	transfers transferworkflow.Module,
	audit auditrecorder.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		identity:  identity,
		ledger:    ledger,
		transfers: transfers,
		audit:     audit,
	}
	s.registerRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return s.srv.ListenAndServe()
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/v1/auth/token", s.handleIssueToken)
	s.mux.HandleFunc("GET /api/v1/me", s.handleWhoAmI)

	s.mux.HandleFunc("POST /api/v1/materials", s.handleCreateMaterial)
	s.mux.HandleFunc("GET /api/v1/materials", s.handleListSurplus)
	s.mux.HandleFunc("GET /api/v1/materials/{material_id}", s.handleGetMaterial)
	s.mux.HandleFunc("PATCH /api/v1/materials/{material_id}", s.handleUpdateMaterial)
	s.mux.HandleFunc("POST /api/v1/materials/{material_id}/archive", s.handleArchiveMaterial)

	s.mux.HandleFunc("POST /api/v1/transfers", s.handleCreateTransfer)
	s.mux.HandleFunc("GET /api/v1/transfers", s.handleListTransfers)
	s.mux.HandleFunc("GET /api/v1/transfers/{request_id}", s.handleGetTransfer)
	s.mux.HandleFunc("POST /api/v1/transfers/{request_id}/approve", s.handleApproveTransfer)
	s.mux.HandleFunc("POST /api/v1/transfers/{request_id}/reject", s.handleRejectTransfer)
	s.mux.HandleFunc("POST /api/v1/transfers/{request_id}/cancel", s.handleCancelTransfer)
	s.mux.HandleFunc("POST /api/v1/transfers/{request_id}/complete", s.handleCompleteTransfer)

	s.mux.HandleFunc("GET /api/v1/audit/entities/{entity}/{entity_id}", s.handleAuditByEntity)
	s.mux.HandleFunc("GET /api/v1/audit/actors/{actor_id}", s.handleAuditByActor)
	s.mux.HandleFunc("GET /api/v1/audit/range", s.handleAuditByTimeRange)
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	token, err := s.identity.Service.IssueCredential(r.Context(), req.UserID)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]string{"token": token},
	})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_credential", "Authorization bearer token is required")
		return
	}
	resp, err := s.identity.Handler.WhoAmIHandler(r.Context(), token)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveIdentity authenticates the request and returns the resolved
// caller. A failure has already been written to the response.
func (s *Server) resolveIdentity(w http.ResponseWriter, r *http.Request) (identityentities.IdentityContext, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_credential", "Authorization bearer token is required")
		return identityentities.IdentityContext{}, false
	}
	identity, err := s.identity.Service.VerifyCredential(r.Context(), token)
	if err != nil {
		writeIdentityError(w, err)
		return identityentities.IdentityContext{}, false
	}
	return identity, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func ledgerIdentity(identity identityentities.IdentityContext) ledgerports.Identity {
	return ledgerports.Identity{
		UserID:               identity.UserID,
		OrganizationID:       identity.OrganizationID,
		OrganizationCategory: identity.OrganizationCategory,
		Role:                 string(identity.Role),
	}
}

func transferIdentity(identity identityentities.IdentityContext) transferports.Identity {
	return transferports.Identity{
		UserID:               identity.UserID,
		OrganizationID:       identity.OrganizationID,
		OrganizationCategory: identity.OrganizationCategory,
		Role:                 string(identity.Role),
	}
}

func auditIdentity(identity identityentities.IdentityContext) auditports.Identity {
	return auditports.Identity{
		UserID:         identity.UserID,
		OrganizationID: identity.OrganizationID,
		Role:           string(identity.Role),
	}
}

func writeIdentityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identityerrors.ErrCredentialExpired):
		writeError(w, http.StatusUnauthorized, "credential_expired", err.Error())
	case errors.Is(err, identityerrors.ErrCredentialMalformed):
		writeError(w, http.StatusUnauthorized, "credential_malformed", err.Error())
	case errors.Is(err, identityerrors.ErrUnknownSubject):
		writeError(w, http.StatusUnauthorized, "unknown_subject", err.Error())
	case errors.Is(err, identityerrors.ErrSubjectDisabled):
		writeError(w, http.StatusForbidden, "subject_disabled", err.Error())
	case errors.Is(err, identityerrors.ErrOrganizationInactive):
		writeError(w, http.StatusForbidden, "organization_inactive", err.Error())
	case errors.Is(err, identityerrors.ErrOrganizationNotFound):
		writeError(w, http.StatusNotFound, "organization_not_found", err.Error())
	case errors.Is(err, identityerrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
