// Package handler exposes verified issuer, invited contributor and
// sponsorship operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"locregistry/internal/delegation/models"
	locmodels "locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/httputil"
	"locregistry/pkg/requestcontext"
)

// Service defines the delegation operations the handler depends on.
type Service interface {
	NominateIssuer(ctx context.Context, origin id.Origin, issuer id.AccountID, identityLocID id.LocID) error
	DismissIssuer(ctx context.Context, origin id.Origin, issuer id.AccountID) error
	SetIssuerSelection(ctx context.Context, origin id.Origin, locID id.LocID, issuer id.AccountID, selected bool) error
	SetInvitedContributorSelection(ctx context.Context, origin id.Origin, locID id.LocID, account id.AccountID, selected bool) error
	Sponsor(ctx context.Context, origin id.Origin, sponsorshipID id.SponsorshipID, sponsoredAccount locmodels.Submitter, legalOfficer id.AccountID) error
	WithdrawSponsorship(ctx context.Context, origin id.Origin, sponsorshipID id.SponsorshipID) error
	ImportIssuer(ctx context.Context, origin id.Origin, params models.ImportIssuerParams) error
	ImportSponsorship(ctx context.Context, origin id.Origin, params models.ImportSponsorshipParams) error
	ImportInvitedContributorSelection(ctx context.Context, origin id.Origin, locID id.LocID, account id.AccountID) error
}

// Handler wires delegation endpoints to the delegation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a delegation handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts delegation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issuers/nominate", h.handleNominate)
	r.Post("/issuers/dismiss", h.handleDismiss)
	r.Put("/locs/{locID}/issuers/{accountID}", h.handleIssuerSelection)
	r.Put("/locs/{locID}/contributors/{accountID}", h.handleContributorSelection)

	r.Post("/sponsorships", h.handleSponsor)
	r.Post("/sponsorships/{sponsorshipID}/withdraw", h.handleWithdraw)

	r.Post("/imports/issuers", h.handleImportIssuer)
	r.Post("/imports/sponsorships", h.handleImportSponsorship)
	r.Post("/imports/contributor-selections", h.handleImportContributor)
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

// selectionTarget parses the {locID} and {accountID} path parameters of
// a selection route.
func (h *Handler) selectionTarget(w http.ResponseWriter, r *http.Request) (id.LocID, id.AccountID, bool) {
	locID, err := id.ParseLocID(chi.URLParam(r, "locID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.LocID{}, id.AccountID{}, false
	}
	account, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.LocID{}, id.AccountID{}, false
	}
	return locID, account, true
}

func (h *Handler) handleNominate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[NominateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.NominateIssuer(ctx, requestcontext.Origin(ctx), req.ParsedIssuer(), req.ParsedLoc())
	h.respond(w, r, "nominate issuer", err, http.StatusCreated)
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DismissRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.DismissIssuer(ctx, requestcontext.Origin(ctx), req.ParsedIssuer())
	h.respond(w, r, "dismiss issuer", err, http.StatusNoContent)
}

func (h *Handler) handleIssuerSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, account, ok := h.selectionTarget(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SelectionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.SetIssuerSelection(ctx, requestcontext.Origin(ctx), locID, account, req.Selected)
	h.respond(w, r, "set issuer selection", err, http.StatusNoContent)
}

func (h *Handler) handleContributorSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locID, account, ok := h.selectionTarget(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SelectionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.SetInvitedContributorSelection(ctx, requestcontext.Origin(ctx), locID, account, req.Selected)
	h.respond(w, r, "set contributor selection", err, http.StatusNoContent)
}

func (h *Handler) handleSponsor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SponsorRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.Sponsor(ctx, requestcontext.Origin(ctx), req.ParsedID(), req.ParsedSponsored(), req.ParsedOfficer())
	h.respond(w, r, "sponsor", err, http.StatusCreated)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sponsorshipID, err := id.ParseSponsorshipID(chi.URLParam(r, "sponsorshipID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	err = h.service.WithdrawSponsorship(ctx, requestcontext.Origin(ctx), sponsorshipID)
	h.respond(w, r, "withdraw sponsorship", err, http.StatusNoContent)
}

func (h *Handler) handleImportIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportIssuerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.ImportIssuer(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "import issuer", err, http.StatusCreated)
}

func (h *Handler) handleImportSponsorship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportSponsorshipRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.ImportSponsorship(ctx, requestcontext.Origin(ctx), req.Parsed())
	h.respond(w, r, "import sponsorship", err, http.StatusCreated)
}

func (h *Handler) handleImportContributor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportContributorRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.ImportInvitedContributorSelection(ctx, requestcontext.Origin(ctx), req.ParsedLoc(), req.ParsedAccount())
	h.respond(w, r, "import contributor selection", err, http.StatusCreated)
}
