package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"locregistry/internal/authority"
	delegationmodels "locregistry/internal/delegation/models"
	delegationStore "locregistry/internal/delegation/store"
	"locregistry/internal/fees"
	"locregistry/internal/ledger"
	"locregistry/internal/loc/models"
	locStore "locregistry/internal/loc/store"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	auditStore "locregistry/pkg/platform/audit/store/memory"
)

// =============================================================================
// Loc Service Test Suite
// =============================================================================
// Justification for unit tests: the lifecycle state machine, submitter
// regimes, acknowledgement rules and fee conservation carry exact
// semantics that HTTP-level tests cannot pin down precisely.

type LocServiceSuite struct {
	suite.Suite
	locs       *locStore.InMemoryLocStore
	delegation *delegationStore.InMemoryDelegationStore
	directory  *authority.InMemoryDirectory
	ledger     *ledger.InMemoryLedger
	audit      *auditStore.Store
	service    *Service

	officer  id.AccountID
	treasury id.AccountID
	pool     id.AccountID
}

func TestLocServiceSuite(t *testing.T) {
	suite.Run(t, new(LocServiceSuite))
}

// testSchedule routes every legal fee 60/40 between owner and treasury
// so the distribution example from the protocol docs holds verbatim.
func testSchedule() fees.Schedule {
	split := fees.DistributionKey{LocOwnerPercent: 60, CommunityTreasuryPercent: 40}
	return fees.Schedule{
		FileStorageEntryFee: 10,
		FileStorageByteFee:  1,
		CertificateFee:      5,

		FileStorageKey:         split,
		CertificateKey:         split,
		IdentityLegalFeeKey:    split,
		TransactionLegalFeeKey: split,
		CollectionLegalFeeKey:  split,
		ValueFeeKey:            split,
		CollectionItemFeeKey:   split,
		TokensRecordFeeKey:     split,
	}
}

func (s *LocServiceSuite) SetupTest() {
	s.locs = locStore.NewInMemory()
	s.delegation = delegationStore.NewInMemory()
	s.directory = authority.New()
	s.ledger = ledger.New()
	s.audit = auditStore.New()

	s.officer = id.NewAccountID()
	s.treasury = id.NewAccountID()
	s.pool = id.NewAccountID()
	s.directory.Add(s.officer)

	distributor, err := fees.NewDistributor(s.ledger, s.treasury, s.pool)
	s.Require().NoError(err)
	engine, err := fees.NewEngine(s.ledger, distributor, testSchedule())
	s.Require().NoError(err)

	s.service, err = New(s.locs, s.directory, engine, s.delegation, s.delegation, WithAuditPublisher(s.audit))
	s.Require().NoError(err)
}

func (s *LocServiceSuite) fund(account id.AccountID, amount id.Balance) {
	s.Require().NoError(s.ledger.Deposit(context.Background(), account, amount))
}

func (s *LocServiceSuite) free(account id.AccountID) id.Balance {
	balance, err := s.ledger.Free(context.Background(), account)
	s.Require().NoError(err)
	return balance
}

func (s *LocServiceSuite) reserved(account id.AccountID) id.Balance {
	balance, err := s.ledger.Reserved(context.Background(), account)
	s.Require().NoError(err)
	return balance
}

func testHash(n int) id.Hash {
	return id.Hash(fmt.Sprintf("0x%064x", n))
}

// createIdentity funds the requester and opens an identity case with no
// fee so tests can focus on one rule at a time.
func (s *LocServiceSuite) createIdentity(requester id.AccountID) id.LocID {
	locID := id.NewLocID()
	err := s.service.CreateIdentityLoc(context.Background(), id.SignedOrigin(requester), models.CreateIdentityLocParams{
		LocID:        locID,
		LegalOfficer: s.officer,
	})
	s.Require().NoError(err)
	return locID
}

func (s *LocServiceSuite) closeLoc(locID id.LocID) {
	err := s.service.Close(context.Background(), id.SignedOrigin(s.officer), locID, models.CloseParams{AutoAck: true})
	s.Require().NoError(err)
}

// createTransaction opens a fee-less transaction case for a requester
// that already holds a closed identity case.
func (s *LocServiceSuite) createTransaction(requester id.AccountID) id.LocID {
	s.closeLoc(s.createIdentity(requester))
	locID := id.NewLocID()
	err := s.service.CreateTransactionLoc(context.Background(), id.SignedOrigin(requester), models.CreateTransactionLocParams{
		LocID:        locID,
		LegalOfficer: s.officer,
	})
	s.Require().NoError(err)
	return locID
}

func (s *LocServiceSuite) sponsorshipFor(spID id.SponsorshipID, sponsor id.AccountID, addr id.OtherAccountID, officer id.AccountID) *delegationmodels.Sponsorship {
	return &delegationmodels.Sponsorship{
		ID:               spID,
		Sponsor:          sponsor,
		SponsoredAccount: models.OtherAccountSubmitter(addr),
		LegalOfficer:     officer,
	}
}

// selectIssuer nominates and selects an issuer on the case, seeding the
// required identity loc along the way.
func (s *LocServiceSuite) selectIssuer(locID id.LocID, issuer id.AccountID) {
	ctx := context.Background()
	s.closeLoc(s.createIdentity(issuer))
	s.Require().NoError(s.delegation.SetSelected(ctx, locID, s.officer, issuer, true))
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *LocServiceSuite) TestCreateIdentityLoc() {
	ctx := context.Background()

	s.Run("creates an open identity loc", func() {
		requester := id.NewAccountID()
		locID := s.createIdentity(requester)

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.Require().NotNil(loc)
		s.Equal(models.LocTypeIdentity, loc.LocType)
		s.Equal(s.officer, loc.Owner)
		s.True(loc.IsRequester(requester))
		s.False(loc.Closed)
		s.False(loc.Imported)
	})

	s.Run("legal fee splits 60/40 between owner and treasury", func() {
		requester := id.NewAccountID()
		s.fund(requester, 150)
		ownerBefore := s.free(s.officer)
		treasuryBefore := s.free(s.treasury)

		err := s.service.CreateIdentityLoc(ctx, id.SignedOrigin(requester), models.CreateIdentityLocParams{
			LocID:        id.NewLocID(),
			LegalOfficer: s.officer,
			LegalFee:     100,
		})
		s.NoError(err)
		s.Equal(id.Balance(50), s.free(requester))
		s.Equal(ownerBefore+60, s.free(s.officer))
		s.Equal(treasuryBefore+40, s.free(s.treasury))
	})

	s.Run("unfunded requester cannot pay the legal fee", func() {
		err := s.service.CreateIdentityLoc(ctx, id.SignedOrigin(id.NewAccountID()), models.CreateIdentityLocParams{
			LocID:        id.NewLocID(),
			LegalOfficer: s.officer,
			LegalFee:     100,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("duplicate loc id fails", func() {
		requester := id.NewAccountID()
		locID := s.createIdentity(requester)

		err := s.service.CreateIdentityLoc(ctx, id.SignedOrigin(requester), models.CreateIdentityLocParams{
			LocID:        locID,
			LegalOfficer: s.officer,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("non legal officer owner is rejected", func() {
		err := s.service.CreateIdentityLoc(ctx, id.SignedOrigin(id.NewAccountID()), models.CreateIdentityLocParams{
			LocID:        id.NewLocID(),
			LegalOfficer: id.NewAccountID(),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("initial items are stored unacknowledged by owner", func() {
		requester := id.NewAccountID()
		locID := id.NewLocID()
		err := s.service.CreateIdentityLoc(ctx, id.SignedOrigin(requester), models.CreateIdentityLocParams{
			LocID:        locID,
			LegalOfficer: s.officer,
			Items: models.ItemsParams{
				Metadata: []models.MetadataInput{{
					Name:      "full-name",
					Value:     "Alice Example",
					Submitter: models.AccountSubmitter(requester),
				}},
			},
		})
		s.NoError(err)

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.Require().Len(loc.Metadata, 1)
		s.False(loc.Metadata[0].AcknowledgedByOwner)
		s.False(loc.Metadata[0].AcknowledgedByVerifiedIssuer)
	})
}

func (s *LocServiceSuite) TestCreateTransactionLoc() {
	ctx := context.Background()

	s.Run("requires a closed identity loc with the officer", func() {
		err := s.service.CreateTransactionLoc(ctx, id.SignedOrigin(id.NewAccountID()), models.CreateTransactionLocParams{
			LocID:        id.NewLocID(),
			LegalOfficer: s.officer,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("open identity loc does not qualify", func() {
		requester := id.NewAccountID()
		s.createIdentity(requester)

		err := s.service.CreateTransactionLoc(ctx, id.SignedOrigin(requester), models.CreateTransactionLocParams{
			LocID:        id.NewLocID(),
			LegalOfficer: s.officer,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("identified requester creates a transaction loc", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.Equal(models.LocTypeTransaction, loc.LocType)
	})
}

func (s *LocServiceSuite) TestCreateOtherIdentityLoc() {
	ctx := context.Background()
	otherAddr := id.OtherAccountID("0x00112233445566778899aabbccddeeff00112233")

	sponsor := id.NewAccountID()
	sponsorshipID := id.NewSponsorshipID()

	seedSponsorship := func(target id.AccountID) id.SponsorshipID {
		spID := id.NewSponsorshipID()
		s.Require().NoError(s.delegation.CreateSponsorship(ctx, s.sponsorshipFor(spID, sponsor, otherAddr, target)))
		return spID
	}

	s.Run("creates and consumes the sponsorship", func() {
		spID := seedSponsorship(s.officer)
		s.fund(sponsor, 100)
		locID := id.NewLocID()

		err := s.service.CreateOtherIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateOtherIdentityLocParams{
			LocID:         locID,
			Requester:     otherAddr,
			SponsorshipID: spID,
			LegalFee:      100,
		})
		s.NoError(err)
		s.Equal(id.Balance(0), s.free(sponsor))

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.Equal(models.RequesterOtherAccount, loc.Requester.Kind)
		s.Equal(otherAddr, loc.Requester.OtherAccount)

		sp, err := s.delegation.Get(ctx, spID)
		s.NoError(err)
		s.Require().NotNil(sp)
		s.True(sp.Consumed())
		s.Equal(locID, *sp.LocID)
	})

	s.Run("consumed sponsorship cannot fund a second loc", func() {
		spID := seedSponsorship(s.officer)
		s.Require().NoError(s.service.CreateOtherIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateOtherIdentityLocParams{
			LocID:         id.NewLocID(),
			Requester:     otherAddr,
			SponsorshipID: spID,
		}))

		err := s.service.CreateOtherIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateOtherIdentityLocParams{
			LocID:         id.NewLocID(),
			Requester:     otherAddr,
			SponsorshipID: spID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyUsed))
	})

	s.Run("sponsorship designating another officer is rejected", func() {
		otherOfficer := id.NewAccountID()
		s.directory.Add(otherOfficer)
		spID := seedSponsorship(otherOfficer)

		err := s.service.CreateOtherIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateOtherIdentityLocParams{
			LocID:         id.NewLocID(),
			Requester:     otherAddr,
			SponsorshipID: spID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing sponsorship fails", func() {
		err := s.service.CreateOtherIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateOtherIdentityLocParams{
			LocID:         id.NewLocID(),
			Requester:     otherAddr,
			SponsorshipID: sponsorshipID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LocServiceSuite) TestCreateCollectionLoc() {
	ctx := context.Background()

	s.Run("requires at least one limit", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))

		err := s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:        id.NewLocID(),
			LegalOfficer: s.officer,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("reserves the value fee on the requester", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))
		s.fund(requester, 500)
		maxSize := uint32(10)

		err := s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:             id.NewLocID(),
			LegalOfficer:      s.officer,
			CollectionMaxSize: &maxSize,
			ValueFee:          200,
		})
		s.NoError(err)
		s.Equal(id.Balance(300), s.free(requester))
		s.Equal(id.Balance(200), s.reserved(requester))
	})
}

func (s *LocServiceSuite) TestFailedCreateLeavesNoTrace() {
	ctx := context.Background()

	s.Run("unaffordable value fee leaves balance and store untouched", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))
		s.fund(requester, 100)
		locID := id.NewLocID()
		maxSize := uint32(10)

		err := s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:             locID,
			LegalOfficer:      s.officer,
			CollectionMaxSize: &maxSize,
			LegalFee:          100,
			ValueFee:          500,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

		loc, err := s.locs.Get(ctx, locID)
		s.Require().NoError(err)
		s.Nil(loc)
		s.Equal(id.Balance(100), s.free(requester))
		s.Equal(id.Balance(0), s.reserved(requester))
	})

	s.Run("unaffordable legal fee unreserves the value fee", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))
		s.fund(requester, 100)
		locID := id.NewLocID()
		maxSize := uint32(10)

		// Reserving 50 leaves 50 free, short of the legal fee of 80.
		err := s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:             locID,
			LegalOfficer:      s.officer,
			CollectionMaxSize: &maxSize,
			LegalFee:          80,
			ValueFee:          50,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

		loc, err := s.locs.Get(ctx, locID)
		s.Require().NoError(err)
		s.Nil(loc)
		s.Equal(id.Balance(100), s.free(requester))
		s.Equal(id.Balance(0), s.reserved(requester))
	})

	s.Run("unaffordable storage fee keeps the legal fee undistributed", func() {
		requester := id.NewAccountID()
		s.fund(requester, 50)
		locID := id.NewLocID()

		// Legal 40 + storage 10+5 = 55 exceeds the free balance of 50.
		err := s.service.CreateIdentityLoc(ctx, id.SignedOrigin(requester), models.CreateIdentityLocParams{
			LocID:        locID,
			LegalOfficer: s.officer,
			LegalFee:     40,
			Items: models.ItemsParams{
				Files: []models.FileInput{{
					Hash:      testHash(1),
					Nature:    "evidence",
					Size:      5,
					Submitter: models.AccountSubmitter(requester),
				}},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

		loc, err := s.locs.Get(ctx, locID)
		s.Require().NoError(err)
		s.Nil(loc)
		s.Equal(id.Balance(50), s.free(requester))
		s.Equal(id.Balance(0), s.free(s.officer))
		s.Equal(id.Balance(0), s.free(s.treasury))
	})
}

func (s *LocServiceSuite) TestCreateLogionLocs() {
	ctx := context.Background()

	s.Run("logion identity loc has no requester", func() {
		locID := id.NewLocID()
		err := s.service.CreateLogionIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateLogionIdentityLocParams{LocID: locID})
		s.NoError(err)

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.Equal(models.RequesterNone, loc.Requester.Kind)
	})

	s.Run("logion transaction loc requires a closed logion identity requester", func() {
		identityID := id.NewLocID()
		s.Require().NoError(s.service.CreateLogionIdentityLoc(ctx, id.SignedOrigin(s.officer), models.CreateLogionIdentityLocParams{LocID: identityID}))

		err := s.service.CreateLogionTransactionLoc(ctx, id.SignedOrigin(s.officer), models.CreateLogionTransactionLocParams{
			LocID:        id.NewLocID(),
			RequesterLoc: identityID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		s.closeLoc(identityID)

		locID := id.NewLocID()
		err = s.service.CreateLogionTransactionLoc(ctx, id.SignedOrigin(s.officer), models.CreateLogionTransactionLocParams{
			LocID:        locID,
			RequesterLoc: identityID,
		})
		s.NoError(err)

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.Equal(models.RequesterLoc, loc.Requester.Kind)
		s.Equal(identityID, loc.Requester.Loc)
	})
}

// =============================================================================
// Item Tests
// =============================================================================

func (s *LocServiceSuite) TestAddItems() {
	ctx := context.Background()

	s.Run("requester adds metadata unacknowledged", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name:      "deed",
			Value:     "sale agreement",
			Submitter: models.AccountSubmitter(requester),
		})
		s.NoError(err)

		loc, _ := s.service.GetLoc(ctx, locID)
		s.Require().Len(loc.Metadata, 1)
		s.False(loc.Metadata[0].AcknowledgedByOwner)
	})

	s.Run("owner addition is pre-acknowledged by owner", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.AddMetadata(ctx, id.SignedOrigin(s.officer), locID, models.MetadataInput{
			Name:      "notary-note",
			Value:     "reviewed",
			Submitter: models.AccountSubmitter(s.officer),
		})
		s.NoError(err)

		loc, _ := s.service.GetLoc(ctx, locID)
		s.Require().Len(loc.Metadata, 1)
		s.True(loc.Metadata[0].AcknowledgedByOwner)
		s.False(loc.Metadata[0].AcknowledgedByVerifiedIssuer)
	})

	s.Run("duplicate metadata name fails", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		input := models.MetadataInput{Name: "deed", Value: "v", Submitter: models.AccountSubmitter(requester)}

		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, input))
		err := s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateData))
	})

	s.Run("duplicate file hash fails", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.fund(requester, 1_000)
		input := models.FileInput{Hash: testHash(1), Nature: "contract", Size: 10, Submitter: models.AccountSubmitter(requester)}

		s.Require().NoError(s.service.AddFile(ctx, id.SignedOrigin(requester), locID, input))
		err := s.service.AddFile(ctx, id.SignedOrigin(requester), locID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateData))
	})

	s.Run("file addition charges the storage fee", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.fund(requester, 1_000)

		err := s.service.AddFile(ctx, id.SignedOrigin(requester), locID, models.FileInput{
			Hash:      testHash(2),
			Nature:    "contract",
			Size:      25,
			Submitter: models.AccountSubmitter(requester),
		})
		s.NoError(err)
		// One entry at 10 plus 25 bytes at 1.
		s.Equal(id.Balance(1_000-35), s.free(requester))
	})

	s.Run("link target must exist", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.AddLink(ctx, id.SignedOrigin(requester), locID, models.LinkInput{
			Target:    id.NewLocID(),
			Nature:    "related",
			Submitter: models.AccountSubmitter(requester),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("duplicate link target fails", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		target := s.createIdentity(id.NewAccountID())
		input := models.LinkInput{Target: target, Nature: "related", Submitter: models.AccountSubmitter(requester)}

		s.Require().NoError(s.service.AddLink(ctx, id.SignedOrigin(requester), locID, input))
		err := s.service.AddLink(ctx, id.SignedOrigin(requester), locID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateData))
	})

	s.Run("closed loc rejects additions", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.closeLoc(locID)

		err := s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "late", Value: "v", Submitter: models.AccountSubmitter(requester),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("void loc rejects additions", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.Require().NoError(s.service.MakeVoid(ctx, id.SignedOrigin(s.officer), locID))

		err := s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "late", Value: "v", Submitter: models.AccountSubmitter(requester),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("outsider may not publish", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		outsider := id.NewAccountID()

		err := s.service.AddMetadata(ctx, id.SignedOrigin(outsider), locID, models.MetadataInput{
			Name: "n", Value: "v", Submitter: models.AccountSubmitter(outsider),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("selected issuer publishes its own submissions", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		issuer := id.NewAccountID()
		s.selectIssuer(locID, issuer)

		err := s.service.AddMetadata(ctx, id.SignedOrigin(issuer), locID, models.MetadataInput{
			Name: "issuer-note", Value: "v", Submitter: models.AccountSubmitter(issuer),
		})
		s.NoError(err)

		err = s.service.AddMetadata(ctx, id.SignedOrigin(issuer), locID, models.MetadataInput{
			Name: "impersonation", Value: "v", Submitter: models.AccountSubmitter(requester),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("owner submitter mismatch is rejected", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.AddMetadata(ctx, id.SignedOrigin(s.officer), locID, models.MetadataInput{
			Name: "n", Value: "v", Submitter: models.AccountSubmitter(requester),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("metadata capacity is enforced", func() {
		limited, err := New(s.locs, s.directory, s.service.fees, s.delegation, s.delegation,
			WithLimits(Limits{MaxMetadataItems: 1, MaxFileItems: 1, MaxLinkItems: 1}))
		s.Require().NoError(err)

		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.Require().NoError(limited.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "one", Value: "v", Submitter: models.AccountSubmitter(requester),
		}))

		err = limited.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "two", Value: "v", Submitter: models.AccountSubmitter(requester),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})
}

// =============================================================================
// Acknowledgement Tests
// =============================================================================

func (s *LocServiceSuite) TestAcknowledge() {
	ctx := context.Background()

	s.Run("owner acknowledges once", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "deed", Value: "v", Submitter: models.AccountSubmitter(requester),
		}))

		s.NoError(s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(s.officer), locID, "deed"))

		err := s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(s.officer), locID, "deed")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("missing item fails", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(s.officer), locID, "ghost")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("issuer acknowledges only own submissions", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		issuer := id.NewAccountID()
		s.selectIssuer(locID, issuer)

		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(issuer), locID, models.MetadataInput{
			Name: "issuer-note", Value: "v", Submitter: models.AccountSubmitter(issuer),
		}))
		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "requester-note", Value: "v", Submitter: models.AccountSubmitter(requester),
		}))

		s.NoError(s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(issuer), locID, "issuer-note"))

		err := s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(issuer), locID, "requester-note")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		err = s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(issuer), locID, "issuer-note")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unselected caller may not acknowledge", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "deed", Value: "v", Submitter: models.AccountSubmitter(requester),
		}))

		err := s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(requester), locID, "deed")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Close Tests
// =============================================================================

func (s *LocServiceSuite) TestClose() {
	ctx := context.Background()

	s.Run("unacknowledged owner items block the close without auto ack", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(requester), locID, models.MetadataInput{
			Name: "deed", Value: "v", Submitter: models.AccountSubmitter(requester),
		}))

		err := s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		s.NoError(s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{AutoAck: true}))

		loc, _ := s.service.GetLoc(ctx, locID)
		s.True(loc.Closed)
		s.True(loc.Metadata[0].AcknowledgedByOwner)
	})

	s.Run("issuer acknowledgement is never auto-stamped", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		issuer := id.NewAccountID()
		s.selectIssuer(locID, issuer)
		s.Require().NoError(s.service.AddMetadata(ctx, id.SignedOrigin(issuer), locID, models.MetadataInput{
			Name: "issuer-note", Value: "v", Submitter: models.AccountSubmitter(issuer),
		}))

		err := s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{AutoAck: true})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		s.Require().NoError(s.service.AcknowledgeMetadata(ctx, id.SignedOrigin(issuer), locID, "issuer-note"))
		s.NoError(s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{AutoAck: true}))
	})

	s.Run("only the owner closes", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.Close(ctx, id.SignedOrigin(requester), locID, models.CloseParams{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("closing twice fails", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		s.closeLoc(locID)

		err := s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("close stores the seal", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)
		seal := testHash(7)

		s.NoError(s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{Seal: &seal}))

		loc, _ := s.service.GetLoc(ctx, locID)
		s.Require().NotNil(loc.Seal)
		s.Equal(seal, *loc.Seal)
	})

	s.Run("closing a collection releases the value fee", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))
		s.fund(requester, 500)
		maxSize := uint32(10)
		locID := id.NewLocID()
		s.Require().NoError(s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:             locID,
			LegalOfficer:      s.officer,
			CollectionMaxSize: &maxSize,
			ValueFee:          200,
		}))
		ownerBefore := s.free(s.officer)
		treasuryBefore := s.free(s.treasury)

		s.NoError(s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{}))

		s.Equal(id.Balance(0), s.reserved(requester))
		s.Equal(id.Balance(300), s.free(requester))
		s.Equal(ownerBefore+120, s.free(s.officer))
		s.Equal(treasuryBefore+80, s.free(s.treasury))
	})
}

// =============================================================================
// Void Tests
// =============================================================================

func (s *LocServiceSuite) TestVoid() {
	ctx := context.Background()

	s.Run("voiding twice fails", func() {
		locID := s.createTransaction(id.NewAccountID())
		s.Require().NoError(s.service.MakeVoid(ctx, id.SignedOrigin(s.officer), locID))

		err := s.service.MakeVoid(ctx, id.SignedOrigin(s.officer), locID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("only the owner voids", func() {
		requester := id.NewAccountID()
		locID := s.createTransaction(requester)

		err := s.service.MakeVoid(ctx, id.SignedOrigin(requester), locID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("replace marks both sides of the chain", func() {
		requester := id.NewAccountID()
		voided := s.createTransaction(requester)
		replacer := id.NewLocID()
		s.Require().NoError(s.service.CreateTransactionLoc(ctx, id.SignedOrigin(requester), models.CreateTransactionLocParams{
			LocID:        replacer,
			LegalOfficer: s.officer,
		}))

		s.NoError(s.service.MakeVoidAndReplace(ctx, id.SignedOrigin(s.officer), voided, replacer))

		voidedLoc, _ := s.service.GetLoc(ctx, voided)
		s.Require().NotNil(voidedLoc.VoidInfo)
		s.Require().NotNil(voidedLoc.VoidInfo.Replacer)
		s.Equal(replacer, *voidedLoc.VoidInfo.Replacer)

		replacerLoc, _ := s.service.GetLoc(ctx, replacer)
		s.Require().NotNil(replacerLoc.ReplacerOf)
		s.Equal(voided, *replacerLoc.ReplacerOf)
	})

	s.Run("replacer of a different type fails", func() {
		requester := id.NewAccountID()
		voided := s.createTransaction(requester)
		identity := s.createIdentity(id.NewAccountID())

		err := s.service.MakeVoidAndReplace(ctx, id.SignedOrigin(s.officer), voided, identity)
		s.True(dErrors.HasCode(err, dErrors.CodeStructuralMismatch))
	})

	s.Run("a replacer cannot replace two cases", func() {
		requester := id.NewAccountID()
		first := s.createTransaction(requester)
		second := id.NewLocID()
		replacer := id.NewLocID()
		for _, locID := range []id.LocID{second, replacer} {
			s.Require().NoError(s.service.CreateTransactionLoc(ctx, id.SignedOrigin(requester), models.CreateTransactionLocParams{
				LocID:        locID,
				LegalOfficer: s.officer,
			}))
		}
		s.Require().NoError(s.service.MakeVoidAndReplace(ctx, id.SignedOrigin(s.officer), first, replacer))

		err := s.service.MakeVoidAndReplace(ctx, id.SignedOrigin(s.officer), second, replacer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("missing replacer fails", func() {
		locID := s.createTransaction(id.NewAccountID())
		err := s.service.MakeVoidAndReplace(ctx, id.SignedOrigin(s.officer), locID, id.NewLocID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("voiding an unclosed collection unreserves the value fee", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))
		s.fund(requester, 500)
		maxSize := uint32(10)
		locID := id.NewLocID()
		s.Require().NoError(s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:             locID,
			LegalOfficer:      s.officer,
			CollectionMaxSize: &maxSize,
			ValueFee:          200,
		}))

		s.NoError(s.service.MakeVoid(ctx, id.SignedOrigin(s.officer), locID))

		s.Equal(id.Balance(0), s.reserved(requester))
		s.Equal(id.Balance(500), s.free(requester))
	})
}

// =============================================================================
// Import Tests
// =============================================================================

func (s *LocServiceSuite) TestImportLoc() {
	ctx := context.Background()

	s.Run("root imports a closed case with items", func() {
		locID := id.NewLocID()
		err := s.service.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
			LocID:     locID,
			Owner:     s.officer,
			Requester: models.AccountRequester(id.NewAccountID()),
			LocType:   models.LocTypeTransaction,
			Closed:    true,
			Metadata: []models.MetadataItem{{
				Name: "deed", Value: "v",
				Submitter:           models.AccountSubmitter(id.NewAccountID()),
				AcknowledgedByOwner: true,
			}},
		})
		s.NoError(err)

		loc, err := s.service.GetLoc(ctx, locID)
		s.NoError(err)
		s.True(loc.Imported)
		s.True(loc.Closed)
		s.Len(loc.Metadata, 1)
	})

	s.Run("signed origins may not import", func() {
		err := s.service.ImportLoc(ctx, id.SignedOrigin(s.officer), models.ImportLocParams{
			LocID:   id.NewLocID(),
			Owner:   s.officer,
			LocType: models.LocTypeIdentity,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("import keeps key uniqueness", func() {
		locID := s.createIdentity(id.NewAccountID())
		err := s.service.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
			LocID:     locID,
			Owner:     s.officer,
			Requester: models.NoneRequester(),
			LocType:   models.LocTypeIdentity,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("import enforces list capacities", func() {
		limited, err := New(s.locs, s.directory, s.service.fees, s.delegation, s.delegation,
			WithLimits(Limits{MaxMetadataItems: 1, MaxFileItems: 1, MaxLinkItems: 1}))
		s.Require().NoError(err)

		err = limited.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
			LocID:     id.NewLocID(),
			Owner:     s.officer,
			Requester: models.NoneRequester(),
			LocType:   models.LocTypeIdentity,
			Metadata: []models.MetadataItem{
				{Name: "a"}, {Name: "b"},
			},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})
}

func (s *LocServiceSuite) TestImportLocRestoresReplacementChain() {
	ctx := context.Background()
	voided := id.NewLocID()
	replacer := id.NewLocID()

	err := s.service.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
		LocID:     voided,
		Owner:     s.officer,
		Requester: models.NoneRequester(),
		LocType:   models.LocTypeIdentity,
		VoidInfo:  &models.VoidInfo{Replacer: &replacer},
	})
	s.Require().NoError(err)

	err = s.service.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
		LocID:      replacer,
		Owner:      s.officer,
		Requester:  models.NoneRequester(),
		LocType:    models.LocTypeIdentity,
		ReplacerOf: &voided,
	})
	s.Require().NoError(err)

	loc, err := s.service.GetLoc(ctx, replacer)
	s.Require().NoError(err)
	s.Require().NotNil(loc.ReplacerOf)
	s.Equal(voided, *loc.ReplacerOf)

	// A restored replacer is not available for another chain.
	third := s.createIdentity(id.NewAccountID())
	err = s.service.MakeVoidAndReplace(ctx, id.SignedOrigin(s.officer), third, replacer)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *LocServiceSuite) TestLifecycleOfImportedCollectionWithoutAccountRequester() {
	ctx := context.Background()
	maxSize := uint32(10)

	s.Run("close skips the value fee release", func() {
		locID := id.NewLocID()
		s.Require().NoError(s.service.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
			LocID:             locID,
			Owner:             s.officer,
			Requester:         models.NoneRequester(),
			LocType:           models.LocTypeCollection,
			CollectionMaxSize: &maxSize,
			ValueFee:          200,
		}))

		s.Require().NoError(s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{AutoAck: true}))

		loc, err := s.service.GetLoc(ctx, locID)
		s.Require().NoError(err)
		s.True(loc.Closed)
		s.Equal(id.Balance(0), s.free(s.officer))
		s.Equal(id.Balance(0), s.free(s.treasury))
	})

	s.Run("void skips the value fee unreserve", func() {
		locID := id.NewLocID()
		s.Require().NoError(s.service.ImportLoc(ctx, id.RootOrigin(), models.ImportLocParams{
			LocID:             locID,
			Owner:             s.officer,
			Requester:         models.NoneRequester(),
			LocType:           models.LocTypeCollection,
			CollectionMaxSize: &maxSize,
			ValueFee:          200,
		}))

		s.Require().NoError(s.service.MakeVoid(ctx, id.SignedOrigin(s.officer), locID))

		loc, err := s.service.GetLoc(ctx, locID)
		s.Require().NoError(err)
		s.True(loc.IsVoid())
	})
}

// =============================================================================
// Query Tests
// =============================================================================

func (s *LocServiceSuite) TestQueries() {
	ctx := context.Background()

	s.Run("loc valid with owner", func() {
		requester := id.NewAccountID()
		locID := s.createIdentity(requester)

		ok, err := s.service.LocValidWithOwner(ctx, locID, s.officer)
		s.NoError(err)
		s.False(ok) // still open

		s.closeLoc(locID)

		ok, err = s.service.LocValidWithOwner(ctx, locID, s.officer)
		s.NoError(err)
		s.True(ok)

		ok, err = s.service.LocValidWithOwner(ctx, locID, id.NewAccountID())
		s.NoError(err)
		s.False(ok)
	})

	s.Run("has closed identity locs requires every officer", func() {
		otherOfficer := id.NewAccountID()
		s.directory.Add(otherOfficer)
		account := id.NewAccountID()
		s.closeLoc(s.createIdentity(account))

		ok, err := s.service.HasClosedIdentityLocs(ctx, account, []id.AccountID{s.officer})
		s.NoError(err)
		s.True(ok)

		ok, err = s.service.HasClosedIdentityLocs(ctx, account, []id.AccountID{s.officer, otherOfficer})
		s.NoError(err)
		s.False(ok)

		ok, err = s.service.HasClosedIdentityLocs(ctx, account, nil)
		s.NoError(err)
		s.False(ok)
	})
}

// =============================================================================
// Fee Conservation Tests
// =============================================================================

func (s *LocServiceSuite) TestFeeConservation() {
	ctx := context.Background()

	s.Run("every slashed unit reaches a beneficiary", func() {
		requester := id.NewAccountID()
		s.closeLoc(s.createIdentity(requester))
		s.fund(requester, 10_000)
		maxSize := uint32(10)
		locID := id.NewLocID()

		beneficiariesBefore := s.free(s.officer) + s.free(s.treasury) + s.free(s.pool)

		s.Require().NoError(s.service.CreateCollectionLoc(ctx, id.SignedOrigin(requester), models.CreateCollectionLocParams{
			LocID:             locID,
			LegalOfficer:      s.officer,
			CollectionMaxSize: &maxSize,
			LegalFee:          123,
			ValueFee:          457,
			Items: models.ItemsParams{
				Files: []models.FileInput{{
					Hash: testHash(9), Nature: "evidence", Size: 33,
					Submitter: models.AccountSubmitter(requester),
				}},
			},
		}))
		s.Require().NoError(s.service.Close(ctx, id.SignedOrigin(s.officer), locID, models.CloseParams{AutoAck: true}))

		// legal 123 + storage (10 + 33) + value 457
		spent := id.Balance(123 + 43 + 457)
		s.Equal(id.Balance(10_000)-spent, s.free(requester))
		s.Equal(id.Balance(0), s.reserved(requester))

		beneficiariesAfter := s.free(s.officer) + s.free(s.treasury) + s.free(s.pool)
		s.Equal(spent, beneficiariesAfter-beneficiariesBefore)
	})
}
