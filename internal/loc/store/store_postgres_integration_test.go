//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/sentinel"
	"locregistry/pkg/testutil/containers"
)

type PostgresLocStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *PostgresLocStore
	ctx   context.Context
}

func TestPostgresLocStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresLocStoreSuite))
}

func (s *PostgresLocStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	require.NoError(s.T(), s.pg.Apply(s.ctx, Schema))
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresLocStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(s.ctx)
}

func (s *PostgresLocStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, `TRUNCATE locs`)
	s.Require().NoError(err)
}

func (s *PostgresLocStoreSuite) newCase(locType models.LocType, requester models.Requester) *models.LegalOfficerCase {
	return &models.LegalOfficerCase{
		ID:        id.NewLocID(),
		Owner:     id.NewAccountID(),
		Requester: requester,
		LocType:   locType,
		LegalFee:  100,
	}
}

func (s *PostgresLocStoreSuite) TestCreateAndGetRoundtrip() {
	loc := s.newCase(models.LocTypeTransaction, models.AccountRequester(id.NewAccountID()))
	loc.Metadata = []models.MetadataItem{{
		Name:      "purpose",
		Value:     "sale agreement",
		Submitter: models.AccountSubmitter(loc.Requester.Account),
	}}

	s.Require().NoError(s.store.Create(s.ctx, loc))

	got, err := s.store.Get(s.ctx, loc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(loc.ID, got.ID)
	s.Equal(loc.Owner, got.Owner)
	s.Equal(loc.Requester, got.Requester)
	s.Equal(loc.LegalFee, got.LegalFee)
	s.Require().Len(got.Metadata, 1)
	s.Equal("purpose", got.Metadata[0].Name)
}

func (s *PostgresLocStoreSuite) TestGetMissingReturnsNil() {
	got, err := s.store.Get(s.ctx, id.NewLocID())
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *PostgresLocStoreSuite) TestCreateDuplicateConflicts() {
	loc := s.newCase(models.LocTypeIdentity, models.NoneRequester())
	s.Require().NoError(s.store.Create(s.ctx, loc))

	err := s.store.Create(s.ctx, loc)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresLocStoreSuite) TestUpdatePersistsLifecycleFlags() {
	loc := s.newCase(models.LocTypeIdentity, models.AccountRequester(id.NewAccountID()))
	s.Require().NoError(s.store.Create(s.ctx, loc))

	loc.Closed = true
	s.Require().NoError(s.store.Update(s.ctx, loc))

	got, err := s.store.Get(s.ctx, loc.ID)
	s.Require().NoError(err)
	s.True(got.Closed)

	loc.VoidInfo = &models.VoidInfo{}
	s.Require().NoError(s.store.Update(s.ctx, loc))

	got, err = s.store.Get(s.ctx, loc.ID)
	s.Require().NoError(err)
	s.True(got.IsVoid())
}

func (s *PostgresLocStoreSuite) TestUpdateMissingReturnsNotFound() {
	loc := s.newCase(models.LocTypeTransaction, models.NoneRequester())
	err := s.store.Update(s.ctx, loc)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLocStoreSuite) TestHasClosedIdentityLoc() {
	requester := models.AccountRequester(id.NewAccountID())
	loc := s.newCase(models.LocTypeIdentity, requester)
	s.Require().NoError(s.store.Create(s.ctx, loc))

	found, err := s.store.HasClosedIdentityLoc(s.ctx, requester, loc.Owner)
	s.Require().NoError(err)
	s.False(found, "open case does not identify")

	loc.Closed = true
	s.Require().NoError(s.store.Update(s.ctx, loc))

	found, err = s.store.HasClosedIdentityLoc(s.ctx, requester, loc.Owner)
	s.Require().NoError(err)
	s.True(found)

	found, err = s.store.HasClosedIdentityLoc(s.ctx, requester, id.NewAccountID())
	s.Require().NoError(err)
	s.False(found, "other officer does not identify")

	loc.VoidInfo = &models.VoidInfo{}
	s.Require().NoError(s.store.Update(s.ctx, loc))

	found, err = s.store.HasClosedIdentityLoc(s.ctx, requester, loc.Owner)
	s.Require().NoError(err)
	s.False(found, "void case does not identify")
}
