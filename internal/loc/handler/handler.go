// Package handler exposes the case registry over HTTP. Handlers decode
// and validate request bodies, resolve the caller origin from the
// request context, and delegate every decision to the loc service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/httputil"
	"locregistry/pkg/requestcontext"
)

// Service defines the case operations the handler depends on.
type Service interface {
	CreateIdentityLoc(ctx context.Context, origin id.Origin, params models.CreateIdentityLocParams) error
	CreateOtherIdentityLoc(ctx context.Context, origin id.Origin, params models.CreateOtherIdentityLocParams) error
	CreateLogionIdentityLoc(ctx context.Context, origin id.Origin, params models.CreateLogionIdentityLocParams) error
	CreateTransactionLoc(ctx context.Context, origin id.Origin, params models.CreateTransactionLocParams) error
	CreateLogionTransactionLoc(ctx context.Context, origin id.Origin, params models.CreateLogionTransactionLocParams) error
	CreateCollectionLoc(ctx context.Context, origin id.Origin, params models.CreateCollectionLocParams) error

	AddMetadata(ctx context.Context, origin id.Origin, locID id.LocID, input models.MetadataInput) error
	AddFile(ctx context.Context, origin id.Origin, locID id.LocID, input models.FileInput) error
	AddLink(ctx context.Context, origin id.Origin, locID id.LocID, input models.LinkInput) error
	AcknowledgeMetadata(ctx context.Context, origin id.Origin, locID id.LocID, name string) error
	AcknowledgeFile(ctx context.Context, origin id.Origin, locID id.LocID, hash id.Hash) error
	AcknowledgeLink(ctx context.Context, origin id.Origin, locID id.LocID, target id.LocID) error

	Close(ctx context.Context, origin id.Origin, locID id.LocID, params models.CloseParams) error
	MakeVoid(ctx context.Context, origin id.Origin, locID id.LocID) error
	MakeVoidAndReplace(ctx context.Context, origin id.Origin, locID, replacerID id.LocID) error

	ImportLoc(ctx context.Context, origin id.Origin, params models.ImportLocParams) error

	GetLoc(ctx context.Context, locID id.LocID) (*models.LegalOfficerCase, error)
	LocValidWithOwner(ctx context.Context, locID id.LocID, legalOfficer id.AccountID) (bool, error)
	HasClosedIdentityLocs(ctx context.Context, account id.AccountID, legalOfficers []id.AccountID) (bool, error)
}

// Handler wires case endpoints to the loc service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a case handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/locs/identity", h.handleCreateIdentity)
	r.Post("/locs/identity/other", h.handleCreateOtherIdentity)
	r.Post("/locs/identity/logion", h.handleCreateLogionIdentity)
	r.Post("/locs/transaction", h.handleCreateTransaction)
	r.Post("/locs/transaction/logion", h.handleCreateLogionTransaction)
	r.Post("/locs/collection", h.handleCreateCollection)

	r.Get("/locs/{locID}", h.handleGetLoc)
	r.Get("/locs/{locID}/validity", h.handleValidity)
	r.Get("/accounts/{accountID}/identified", h.handleIdentified)

	r.Post("/locs/{locID}/metadata", h.handleAddMetadata)
	r.Post("/locs/{locID}/files", h.handleAddFile)
	r.Post("/locs/{locID}/links", h.handleAddLink)
	r.Post("/locs/{locID}/metadata/acknowledge", h.handleAcknowledgeMetadata)
	r.Post("/locs/{locID}/files/acknowledge", h.handleAcknowledgeFile)
	r.Post("/locs/{locID}/links/acknowledge", h.handleAcknowledgeLink)

	r.Post("/locs/{locID}/close", h.handleClose)
	r.Post("/locs/{locID}/void", h.handleVoid)

	r.Post("/imports/locs", h.handleImportLoc)
}

// locIDFromURL parses the {locID} path parameter, writing the error
// response on failure.
func (h *Handler) locIDFromURL(w http.ResponseWriter, r *http.Request) (id.LocID, bool) {
	locID, err := id.ParseLocID(chi.URLParam(r, "locID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.LocID{}, false
	}
	return locID, true
}

// respond finishes a mutation: errors go through the shared envelope,
// success is a bare status.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, err error, status int) {
	if err != nil {
		ctx := r.Context()
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, op+" failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		} else {
			h.logger.WarnContext(ctx, op+" rejected",
				"request_id", requestcontext.RequestID(ctx),
				"code", code,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(status)
}

func (h *Handler) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateIdentityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.CreateIdentityLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "create identity loc", err, http.StatusCreated)
}

func (h *Handler) handleCreateOtherIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateOtherIdentityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.CreateOtherIdentityLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "create other identity loc", err, http.StatusCreated)
}

func (h *Handler) handleCreateLogionIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateLogionIdentityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.CreateLogionIdentityLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "create logion identity loc", err, http.StatusCreated)
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateTransactionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.CreateTransactionLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "create transaction loc", err, http.StatusCreated)
}

func (h *Handler) handleCreateLogionTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateLogionTransactionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.CreateLogionTransactionLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "create logion transaction loc", err, http.StatusCreated)
}

func (h *Handler) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateCollectionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.CreateCollectionLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "create collection loc", err, http.StatusCreated)
}

func (h *Handler) handleGetLoc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	loc, err := h.service.GetLoc(ctx, locID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if loc == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "loc not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLoc(loc))
}

func (h *Handler) handleValidity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	officer, err := id.ParseAccountID(r.URL.Query().Get("legal_officer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	valid, err := h.service.LocValidWithOwner(ctx, locID, officer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidityResponse{Valid: valid})
}

func (h *Handler) handleIdentified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var officers []id.AccountID
	if raw := r.URL.Query().Get("legal_officers"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			officer, err := id.ParseAccountID(strings.TrimSpace(part))
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			officers = append(officers, officer)
		}
	}
	identified, err := h.service.HasClosedIdentityLocs(ctx, account, officers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IdentifiedResponse{Identified: identified})
}

func (h *Handler) handleAddMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddMetadataRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AddMetadata(ctx, requestcontext.Origin(ctx), locID, req.Parsed())
	h.respond(w, r, "add metadata", err, http.StatusNoContent)
}

func (h *Handler) handleAddFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddFileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AddFile(ctx, requestcontext.Origin(ctx), locID, req.Parsed())
	h.respond(w, r, "add file", err, http.StatusNoContent)
}

func (h *Handler) handleAddLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddLinkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AddLink(ctx, requestcontext.Origin(ctx), locID, req.Parsed())
	h.respond(w, r, "add link", err, http.StatusNoContent)
}

func (h *Handler) handleAcknowledgeMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AcknowledgeMetadataRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AcknowledgeMetadata(ctx, requestcontext.Origin(ctx), locID, req.Name)
	h.respond(w, r, "acknowledge metadata", err, http.StatusNoContent)
}

func (h *Handler) handleAcknowledgeFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AcknowledgeFileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AcknowledgeFile(ctx, requestcontext.Origin(ctx), locID, req.ParsedHash())
	h.respond(w, r, "acknowledge file", err, http.StatusNoContent)
}

func (h *Handler) handleAcknowledgeLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AcknowledgeLinkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AcknowledgeLink(ctx, requestcontext.Origin(ctx), locID, req.ParsedTarget())
	h.respond(w, r, "acknowledge link", err, http.StatusNoContent)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CloseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.Close(ctx, requestcontext.Origin(ctx), locID, req.Parsed())
	h.respond(w, r, "close loc", err, http.StatusNoContent)
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VoidRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	var err error
	if replacer := req.ParsedReplacer(); replacer != nil {
		err = h.service.MakeVoidAndReplace(ctx, requestcontext.Origin(ctx), locID, *replacer)
	} else {
		err = h.service.MakeVoid(ctx, requestcontext.Origin(ctx), locID)
	}
	h.respond(w, r, "void loc", err, http.StatusNoContent)
}

func (h *Handler) handleImportLoc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportLocRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.ImportLoc(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "import loc", err, http.StatusCreated)
}
