//go:build integration

package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"locregistry/internal/authority"
	delegationstore "locregistry/internal/delegation/store"
	"locregistry/internal/fees"
	"locregistry/internal/ledger"
	"locregistry/internal/loc/models"
	locservice "locregistry/internal/loc/service"
	locstore "locregistry/internal/loc/store"
	platformredis "locregistry/internal/platform/redis"
	id "locregistry/pkg/domain"
	"locregistry/pkg/testutil/containers"
)

type VerificationCacheSuite struct {
	suite.Suite

	redis   *containers.RedisContainer
	ctx     context.Context
	locs    *locstore.InMemoryLocStore
	cache   *VerificationCache
	officer id.AccountID
}

func TestVerificationCacheSuite(t *testing.T) {
	suite.Run(t, new(VerificationCacheSuite))
}

func (s *VerificationCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *VerificationCacheSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(s.ctx)
}

func (s *VerificationCacheSuite) SetupTest() {
	require.NoError(s.T(), s.redis.FlushAll(s.ctx))

	s.officer = id.NewAccountID()
	s.locs = locstore.NewInMemory()
	delegation := delegationstore.NewInMemory()

	bank := ledger.New()
	split := fees.DistributionKey{LocOwnerPercent: 50, CommunityTreasuryPercent: 30, LegalOfficersPercent: 20}
	schedule := fees.Schedule{
		FileStorageEntryFee: 10,
		FileStorageByteFee:  1,
		CertificateFee:      2,

		FileStorageKey:         split,
		CertificateKey:         split,
		IdentityLegalFeeKey:    split,
		TransactionLegalFeeKey: split,
		CollectionLegalFeeKey:  split,
		ValueFeeKey:            split,
		CollectionItemFeeKey:   split,
		TokensRecordFeeKey:     split,
	}
	distributor, err := fees.NewDistributor(bank, id.NewAccountID(), id.NewAccountID())
	require.NoError(s.T(), err)
	engine, err := fees.NewEngine(bank, distributor, schedule)
	require.NoError(s.T(), err)

	service, err := locservice.New(s.locs, authority.New(s.officer), engine, delegation, delegation)
	require.NoError(s.T(), err)

	client := &platformredis.Client{Client: s.redis.Client}
	s.cache = New(service, client, time.Minute, slog.Default())
}

func (s *VerificationCacheSuite) seedClosedIdentityLoc(requester id.AccountID) *models.LegalOfficerCase {
	loc := &models.LegalOfficerCase{
		ID:        id.NewLocID(),
		Owner:     s.officer,
		Requester: models.AccountRequester(requester),
		LocType:   models.LocTypeIdentity,
		Closed:    true,
	}
	s.Require().NoError(s.locs.Create(s.ctx, loc))
	return loc
}

func (s *VerificationCacheSuite) TestLocValidWithOwnerIsCached() {
	loc := s.seedClosedIdentityLoc(id.NewAccountID())

	valid, err := s.cache.LocValidWithOwner(s.ctx, loc.ID, s.officer)
	s.Require().NoError(err)
	s.True(valid)

	// Voiding the case directly does not flip the cached answer until
	// the TTL expires.
	loc.VoidInfo = &models.VoidInfo{}
	s.Require().NoError(s.locs.Update(s.ctx, loc))

	valid, err = s.cache.LocValidWithOwner(s.ctx, loc.ID, s.officer)
	s.Require().NoError(err)
	s.True(valid)
}

func (s *VerificationCacheSuite) TestNegativeAnswersAreCachedToo() {
	locID := id.NewLocID()

	valid, err := s.cache.LocValidWithOwner(s.ctx, locID, s.officer)
	s.Require().NoError(err)
	s.False(valid)

	keys, err := s.redis.Client.Keys(s.ctx, "locregistry:valid:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)
}

func (s *VerificationCacheSuite) TestHasClosedIdentityLocsIsCached() {
	requester := id.NewAccountID()
	loc := s.seedClosedIdentityLoc(requester)

	identified, err := s.cache.HasClosedIdentityLocs(s.ctx, requester, []id.AccountID{s.officer})
	s.Require().NoError(err)
	s.True(identified)

	loc.VoidInfo = &models.VoidInfo{}
	s.Require().NoError(s.locs.Update(s.ctx, loc))

	identified, err = s.cache.HasClosedIdentityLocs(s.ctx, requester, []id.AccountID{s.officer})
	s.Require().NoError(err)
	s.True(identified, "cached answer survives until the TTL expires")
}
