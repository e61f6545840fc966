// Package handler exposes collection items and tokens records over
// HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"locregistry/internal/collection/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/httputil"
	"locregistry/pkg/requestcontext"
)

// Service defines the collection operations the handler depends on.
type Service interface {
	AddCollectionItem(ctx context.Context, origin id.Origin, locID id.LocID, params models.AddCollectionItemParams) error
	AddTokensRecord(ctx context.Context, origin id.Origin, locID id.LocID, params models.AddTokensRecordParams) error
	GetCollectionItem(ctx context.Context, locID id.LocID, itemID id.CollectionItemID) (*models.CollectionItem, error)
	GetTokensRecord(ctx context.Context, locID id.LocID, recordID id.TokensRecordID) (*models.TokensRecord, error)
	CollectionSize(ctx context.Context, locID id.LocID) (uint32, error)
	ImportCollectionItem(ctx context.Context, origin id.Origin, locID id.LocID, params models.ImportCollectionItemParams) error
	ImportTokensRecord(ctx context.Context, origin id.Origin, locID id.LocID, params models.ImportTokensRecordParams) error
}

// Handler wires collection endpoints to the collection service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a collection handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts collection endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/locs/{locID}/items", h.handleAddItem)
	r.Get("/locs/{locID}/items/{itemID}", h.handleGetItem)
	r.Get("/locs/{locID}/size", h.handleSize)
	r.Post("/locs/{locID}/records", h.handleAddRecord)
	r.Get("/locs/{locID}/records/{recordID}", h.handleGetRecord)

	r.Post("/imports/collection-items", h.handleImportItem)
	r.Post("/imports/tokens-records", h.handleImportRecord)
}

func (h *Handler) locIDFromURL(w http.ResponseWriter, r *http.Request) (id.LocID, bool) {
	locID, err := id.ParseLocID(chi.URLParam(r, "locID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.LocID{}, false
	}
	return locID, true
}

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

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AddCollectionItem(ctx, requestcontext.Origin(ctx), locID, req.Parsed())
	h.respond(w, r, "add collection item", err, http.StatusCreated)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	itemID, err := id.ParseCollectionItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	item, err := h.service.GetCollectionItem(ctx, locID, itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if item == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "collection item not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) handleSize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	size, err := h.service.CollectionSize(ctx, locID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint32{"size": size})
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddRecordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.AddTokensRecord(ctx, requestcontext.Origin(ctx), locID, req.Parsed())
	h.respond(w, r, "add tokens record", err, http.StatusCreated)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, ok := h.locIDFromURL(w, r)
	if !ok {
		return
	}
	recordID, err := id.ParseTokensRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.GetTokensRecord(ctx, locID, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "tokens record not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleImportItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.ImportCollectionItem(ctx, requestcontext.Origin(ctx), req.ParsedLocID(), req.Parsed())
	h.respond(w, r, "import collection item", err, http.StatusCreated)
}

func (h *Handler) handleImportRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportRecordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.ImportTokensRecord(ctx, requestcontext.Origin(ctx), req.ParsedLocID(), req.Parsed())
	h.respond(w, r, "import tokens record", err, http.StatusCreated)
}
