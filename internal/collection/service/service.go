// Package service implements the collection subsystem: collection items
// with capacity and time limits, and tokens records documenting
// issuance events. Both live on closed collection cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"locregistry/internal/collection/metrics"
	"locregistry/internal/collection/models"
	"locregistry/internal/collection/ports"
	"locregistry/internal/fees"
	locmodels "locregistry/internal/loc/models"
	locports "locregistry/internal/loc/ports"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
	"locregistry/pkg/platform/sentinel"
	"locregistry/pkg/requestcontext"
)

// Limits bounds the per-item and per-record file lists and the
// terms-and-conditions references.
type Limits struct {
	MaxItemFiles   int
	MaxItemTCRefs  int
	MaxRecordFiles int
}

// DefaultLimits mirrors the bounds used by production deployments.
func DefaultLimits() Limits {
	return Limits{
		MaxItemFiles:   10,
		MaxItemTCRefs:  15,
		MaxRecordFiles: 10,
	}
}

func (l Limits) validate() error {
	if l.MaxItemFiles <= 0 || l.MaxItemTCRefs <= 0 || l.MaxRecordFiles <= 0 {
		return fmt.Errorf("collection limits must be positive")
	}
	return nil
}

// Service carries the collection operations.
type Service struct {
	mu sync.Mutex

	store        ports.CollectionStore
	locs         locports.LocStore
	fees         *fees.Engine
	chain        locports.ChainTime
	issuers      locports.IssuerSelections
	contributors locports.ContributorSelections

	limits  Limits
	logger  *slog.Logger
	audit   locports.AuditPublisher
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher locports.AuditPublisher) Option {
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

func New(store ports.CollectionStore, locs locports.LocStore, feeEngine *fees.Engine, chain locports.ChainTime, issuers locports.IssuerSelections, contributors locports.ContributorSelections, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("collection store is required")
	}
	if locs == nil {
		return nil, fmt.Errorf("loc store is required")
	}
	if feeEngine == nil {
		return nil, fmt.Errorf("fee engine is required")
	}
	if chain == nil {
		return nil, fmt.Errorf("chain time is required")
	}
	if issuers == nil {
		return nil, fmt.Errorf("issuer selections are required")
	}
	if contributors == nil {
		return nil, fmt.Errorf("contributor selections are required")
	}

	s := &Service{
		store:        store,
		locs:         locs,
		fees:         feeEngine,
		chain:        chain,
		issuers:      issuers,
		contributors: contributors,
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

// AddCollectionItem appends an item to a closed collection case. The
// caller must be the requester or a selected verified issuer; size and
// block limits, upload permission and item structure are all checked
// before any fee is charged.
func (s *Service) AddCollectionItem(ctx context.Context, origin id.Origin, locID id.LocID, params models.AddCollectionItemParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadClosedCollection(ctx, locID)
	if err != nil {
		return err
	}

	if !loc.IsRequester(caller) {
		selected, err := s.issuers.IsSelected(ctx, locID, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "query issuer selection")
		}
		if !selected {
			return dErrors.New(dErrors.CodeUnauthorized, "caller may not add collection items")
		}
	}

	existing, err := s.store.GetItem(ctx, locID, params.ItemID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check item id")
	}
	if existing != nil {
		return dErrors.New(dErrors.CodeAlreadyExists, "collection item id already used")
	}

	if err := s.checkCollectionLimits(ctx, loc); err != nil {
		return err
	}
	if err := s.validateItem(ctx, loc, params); err != nil {
		return err
	}

	// Pre-check the full fee sum so a failure never leaves a partial
	// charge.
	total := loc.CollectionItemFee + s.storageFeeFor(itemFileSizes(params.Files))
	if params.Token != nil {
		total += s.fees.Schedule().TokenCertificateFee(params.Token.Issuance)
	}
	if err := s.fees.CanCover(ctx, caller, total); err != nil {
		return err
	}

	if params.Token != nil {
		amount, err := s.fees.ChargeCertificateFee(ctx, caller, params.Token.Issuance, loc.Owner)
		if err != nil {
			return err
		}
		if amount > 0 {
			s.recordFee(ctx, locID, caller, "certificate", amount)
		}
	}
	if err := s.fees.ChargeCollectionItemFee(ctx, caller, loc.CollectionItemFee, loc.Owner); err != nil {
		return err
	}
	if loc.CollectionItemFee > 0 {
		s.recordFee(ctx, locID, caller, "collection_item", loc.CollectionItemFee)
	}
	if len(params.Files) > 0 {
		if err := s.chargeStorage(ctx, loc, caller, itemFileSizes(params.Files)); err != nil {
			return err
		}
	}

	item := &models.CollectionItem{
		LocID:              locID,
		ItemID:             params.ItemID,
		Description:        params.Description,
		Files:              params.Files,
		Token:              params.Token,
		RestrictedDelivery: params.RestrictedDelivery,
		TermsAndConditions: params.TermsAndConditions,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "collection item id already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store collection item")
	}

	if s.metrics != nil {
		s.metrics.IncrementItemsAdded()
	}
	s.emit(ctx, audit.EventCollectionItemAdded, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: params.ItemID.String(),
	})
	return nil
}

// AddTokensRecord appends a tokens record to a closed collection case.
// The caller must be the requester, the owner, a selected issuer or a
// selected invited contributor. The fee lands on the requester unless
// ChargeSubmitter directs it at the caller.
func (s *Service) AddTokensRecord(ctx context.Context, origin id.Origin, locID id.LocID, params models.AddTokensRecordParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadClosedCollection(ctx, locID)
	if err != nil {
		return err
	}
	if err := s.authorizeRecordAdder(ctx, loc, caller); err != nil {
		return err
	}

	existing, err := s.store.GetRecord(ctx, locID, params.RecordID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check record id")
	}
	if existing != nil {
		return dErrors.New(dErrors.CodeAlreadyExists, "tokens record id already used")
	}

	if len(params.Files) == 0 {
		return dErrors.New(dErrors.CodeStructuralMismatch, "tokens record requires at least one file")
	}
	if len(params.Files) > s.limits.MaxRecordFiles {
		return dErrors.New(dErrors.CodeCapacityExceeded, "tokens record file list is full")
	}
	if err := distinctHashes(recordFileHashes(params.Files)); err != nil {
		return err
	}

	payer := loc.Requester.Account
	if params.ChargeSubmitter {
		payer = caller
	}
	total := loc.TokensRecordFee + s.storageFeeFor(recordFileSizes(params.Files))
	if err := s.fees.CanCover(ctx, payer, total); err != nil {
		return err
	}
	if err := s.fees.ChargeTokensRecordFee(ctx, payer, loc.TokensRecordFee, loc.Owner); err != nil {
		return err
	}
	if loc.TokensRecordFee > 0 {
		s.recordFee(ctx, locID, payer, "tokens_record", loc.TokensRecordFee)
	}
	if err := s.chargeStorage(ctx, loc, payer, recordFileSizes(params.Files)); err != nil {
		return err
	}

	record := &models.TokensRecord{
		LocID:       locID,
		RecordID:    params.RecordID,
		Description: params.Description,
		Files:       params.Files,
		Submitter:   caller,
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "tokens record id already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store tokens record")
	}

	if s.metrics != nil {
		s.metrics.IncrementRecordsAdded()
	}
	s.emit(ctx, audit.EventTokensRecordAdded, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: params.RecordID.String(),
	})
	return nil
}

// GetCollectionItem returns the item, or nil when absent.
func (s *Service) GetCollectionItem(ctx context.Context, locID id.LocID, itemID id.CollectionItemID) (*models.CollectionItem, error) {
	item, err := s.store.GetItem(ctx, locID, itemID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load collection item")
	}
	return item, nil
}

// GetTokensRecord returns the record, or nil when absent.
func (s *Service) GetTokensRecord(ctx context.Context, locID id.LocID, recordID id.TokensRecordID) (*models.TokensRecord, error) {
	record, err := s.store.GetRecord(ctx, locID, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load tokens record")
	}
	return record, nil
}

// CollectionSize returns the case's item counter.
func (s *Service) CollectionSize(ctx context.Context, locID id.LocID) (uint32, error) {
	size, err := s.store.Size(ctx, locID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "load collection size")
	}
	return size, nil
}

// ImportCollectionItem reconstructs an item as given. Root only; only
// key uniqueness and the size limit are checked and no fee applies.
func (s *Service) ImportCollectionItem(ctx context.Context, origin id.Origin, locID id.LocID, params models.ImportCollectionItemParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := origin.RequireRoot(); err != nil {
		return err
	}
	loc, err := s.loadCollection(ctx, locID)
	if err != nil {
		return err
	}
	if loc.CollectionMaxSize != nil {
		size, err := s.store.Size(ctx, locID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load collection size")
		}
		if size >= *loc.CollectionMaxSize {
			return dErrors.New(dErrors.CodeCapacityExceeded, "collection size limit reached")
		}
	}

	item := &models.CollectionItem{
		LocID:              locID,
		ItemID:             params.ItemID,
		Description:        params.Description,
		Files:              params.Files,
		Token:              params.Token,
		RestrictedDelivery: params.RestrictedDelivery,
		TermsAndConditions: params.TermsAndConditions,
		Imported:           true,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "collection item id already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store collection item")
	}
	return nil
}

// ImportTokensRecord reconstructs a tokens record as given. Root only.
func (s *Service) ImportTokensRecord(ctx context.Context, origin id.Origin, locID id.LocID, params models.ImportTokensRecordParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := origin.RequireRoot(); err != nil {
		return err
	}
	if _, err := s.loadCollection(ctx, locID); err != nil {
		return err
	}

	record := &models.TokensRecord{
		LocID:       locID,
		RecordID:    params.RecordID,
		Description: params.Description,
		Files:       params.Files,
		Submitter:   params.Submitter,
		Imported:    true,
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "tokens record id already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store tokens record")
	}
	return nil
}

// loadCollection loads the case and checks it is a collection.
func (s *Service) loadCollection(ctx context.Context, locID id.LocID) (*locmodels.LegalOfficerCase, error) {
	loc, err := s.locs.Get(ctx, locID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load loc")
	}
	if loc == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "loc not found")
	}
	if loc.LocType != locmodels.LocTypeCollection {
		return nil, dErrors.New(dErrors.CodeInvalidState, "loc is not a collection")
	}
	return loc, nil
}

// loadClosedCollection additionally requires closed and non-void.
func (s *Service) loadClosedCollection(ctx context.Context, locID id.LocID) (*locmodels.LegalOfficerCase, error) {
	loc, err := s.loadCollection(ctx, locID)
	if err != nil {
		return nil, err
	}
	if loc.IsVoid() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}
	if !loc.Closed {
		return nil, dErrors.New(dErrors.CodeInvalidState, "collection loc is not closed")
	}
	return loc, nil
}

func (s *Service) authorizeRecordAdder(ctx context.Context, loc *locmodels.LegalOfficerCase, caller id.AccountID) error {
	if loc.IsRequester(caller) || loc.IsOwner(caller) {
		return nil
	}
	selected, err := s.issuers.IsSelected(ctx, loc.ID, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query issuer selection")
	}
	if selected {
		return nil
	}
	invited, err := s.contributors.IsSelected(ctx, loc.ID, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query contributor selection")
	}
	if invited {
		return nil
	}
	return dErrors.New(dErrors.CodeUnauthorized, "caller may not add tokens records")
}

// checkCollectionLimits enforces the size and last-block limits.
func (s *Service) checkCollectionLimits(ctx context.Context, loc *locmodels.LegalOfficerCase) error {
	if loc.CollectionMaxSize != nil {
		size, err := s.store.Size(ctx, loc.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load collection size")
		}
		if size >= *loc.CollectionMaxSize {
			return dErrors.New(dErrors.CodeCapacityExceeded, "collection size limit reached")
		}
	}
	if loc.CollectionLastBlockSubmission != nil {
		current, err := s.chain.CurrentBlock(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "query current block")
		}
		if current > *loc.CollectionLastBlockSubmission {
			return dErrors.New(dErrors.CodeCapacityExceeded, "collection submission window has closed")
		}
	}
	return nil
}

// validateItem checks the structure of a submitted collection item.
func (s *Service) validateItem(ctx context.Context, loc *locmodels.LegalOfficerCase, params models.AddCollectionItemParams) error {
	if len(params.Files) > 0 && !loc.CollectionCanUpload {
		return dErrors.New(dErrors.CodeInvalidInput, "collection does not accept uploads")
	}
	if len(params.Files) > s.limits.MaxItemFiles {
		return dErrors.New(dErrors.CodeCapacityExceeded, "item file list is full")
	}
	if len(params.TermsAndConditions) > s.limits.MaxItemTCRefs {
		return dErrors.New(dErrors.CodeCapacityExceeded, "terms and conditions list is full")
	}
	if err := distinctHashes(itemFileHashes(params.Files)); err != nil {
		return err
	}

	if params.Token != nil && params.Token.Issuance < 1 {
		return dErrors.New(dErrors.CodeStructuralMismatch, "token issuance must be at least one")
	}
	if params.RestrictedDelivery {
		if params.Token == nil {
			return dErrors.New(dErrors.CodeStructuralMismatch, "restricted delivery requires a token")
		}
		if len(params.Files) == 0 {
			return dErrors.New(dErrors.CodeStructuralMismatch, "restricted delivery requires at least one file")
		}
	}

	for _, tc := range params.TermsAndConditions {
		tcLoc, err := s.locs.Get(ctx, tc.TCLoc)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load terms loc")
		}
		if tcLoc == nil || !tcLoc.Closed || tcLoc.IsVoid() {
			return dErrors.New(dErrors.CodeStructuralMismatch, "terms and conditions loc must be closed and non-void")
		}
	}
	return nil
}

func (s *Service) storageFeeFor(sizes []uint32) id.Balance {
	if len(sizes) == 0 {
		return 0
	}
	var totalBytes uint64
	for _, size := range sizes {
		totalBytes += uint64(size)
	}
	return s.fees.Schedule().StorageFee(uint32(len(sizes)), totalBytes)
}

func (s *Service) chargeStorage(ctx context.Context, loc *locmodels.LegalOfficerCase, payer id.AccountID, sizes []uint32) error {
	var totalBytes uint64
	for _, size := range sizes {
		totalBytes += uint64(size)
	}
	amount, err := s.fees.ChargeStorageFee(ctx, payer, uint32(len(sizes)), totalBytes, loc.Owner)
	if err != nil {
		return err
	}
	if amount > 0 {
		s.recordFee(ctx, loc.ID, payer, "storage", amount)
	}
	return nil
}

func (s *Service) recordFee(ctx context.Context, locID id.LocID, payer id.AccountID, kind string, amount id.Balance) {
	s.emit(ctx, audit.EventFeeDistributed, audit.Event{
		LocID:   locID.String(),
		Actor:   payer.String(),
		FeeKind: kind,
		Amount:  amount,
	})
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

func distinctHashes(hashes []id.Hash) error {
	seen := make(map[id.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		if _, ok := seen[h]; ok {
			return dErrors.New(dErrors.CodeDuplicateData, "duplicate file hash")
		}
		seen[h] = struct{}{}
	}
	return nil
}

func itemFileHashes(files []models.ItemFile) []id.Hash {
	out := make([]id.Hash, len(files))
	for i := range files {
		out[i] = files[i].Hash
	}
	return out
}

func itemFileSizes(files []models.ItemFile) []uint32 {
	out := make([]uint32, len(files))
	for i := range files {
		out[i] = files[i].Size
	}
	return out
}

func recordFileHashes(files []models.TokensRecordFile) []id.Hash {
	out := make([]id.Hash, len(files))
	for i := range files {
		out[i] = files[i].Hash
	}
	return out
}

func recordFileSizes(files []models.TokensRecordFile) []uint32 {
	out := make([]uint32, len(files))
	for i := range files {
		out[i] = files[i].Size
	}
	return out
}
