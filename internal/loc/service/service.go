// Package service implements the case lifecycle: creation, item
// submission and acknowledgement, closing, voiding, the import path and
// the read-only query surface.
//
// Every public operation follows the same shape: resolve the caller,
// load a copy of the case, run all guards, mutate the copy, then write
// it back. A failure at any step leaves prior state untouched. The
// mutex serializes operations so the read-validate-write sequence is
// never interleaved.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"locregistry/internal/fees"
	"locregistry/internal/loc/metrics"
	"locregistry/internal/loc/models"
	"locregistry/internal/loc/ports"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
	"locregistry/pkg/requestcontext"
)

// Limits bounds the per-case item lists. Overflow surfaces as a
// capacity-exceeded error, never a truncation.
type Limits struct {
	MaxMetadataItems int
	MaxFileItems     int
	MaxLinkItems     int
}

// DefaultLimits mirrors the bounds used by production deployments.
func DefaultLimits() Limits {
	return Limits{
		MaxMetadataItems: 50,
		MaxFileItems:     50,
		MaxLinkItems:     50,
	}
}

func (l Limits) validate() error {
	if l.MaxMetadataItems <= 0 || l.MaxFileItems <= 0 || l.MaxLinkItems <= 0 {
		return fmt.Errorf("item limits must be positive")
	}
	return nil
}

// Service carries the case operations.
type Service struct {
	mu sync.Mutex

	locs         ports.LocStore
	directory    ports.AuthorityDirectory
	fees         *fees.Engine
	issuers      ports.IssuerSelections
	sponsorships ports.SponsorshipLookup

	limits  Limits
	logger  *slog.Logger
	audit   ports.AuditPublisher
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLimits(limits Limits) Option {
	return func(s *Service) {
		s.limits = limits
	}
}

func New(locs ports.LocStore, directory ports.AuthorityDirectory, feeEngine *fees.Engine, issuers ports.IssuerSelections, sponsorships ports.SponsorshipLookup, opts ...Option) (*Service, error) {
	if locs == nil {
		return nil, fmt.Errorf("loc store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("authority directory is required")
	}
	if feeEngine == nil {
		return nil, fmt.Errorf("fee engine is required")
	}
	if issuers == nil {
		return nil, fmt.Errorf("issuer selections are required")
	}
	if sponsorships == nil {
		return nil, fmt.Errorf("sponsorship lookup is required")
	}

	s := &Service{
		locs:         locs,
		directory:    directory,
		fees:         feeEngine,
		issuers:      issuers,
		sponsorships: sponsorships,
		limits:       DefaultLimits(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.limits.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadLoc returns the case or a not-found error.
func (s *Service) loadLoc(ctx context.Context, locID id.LocID) (*models.LegalOfficerCase, error) {
	loc, err := s.locs.Get(ctx, locID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load loc")
	}
	if loc == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "loc not found")
	}
	return loc, nil
}

func (s *Service) requireLegalOfficer(ctx context.Context, account id.AccountID) error {
	ok, err := s.directory.IsLegalOfficer(ctx, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query authority directory")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "account is not a legal officer")
	}
	return nil
}

func (s *Service) isSelectedIssuer(ctx context.Context, locID id.LocID, account id.AccountID) (bool, error) {
	selected, err := s.issuers.IsSelected(ctx, locID, account)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "query issuer selection")
	}
	return selected, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Category = action.Category()
	event.Timestamp = time.Now().UTC()
	event.Action = string(action)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
