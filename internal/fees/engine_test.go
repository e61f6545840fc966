package fees

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"locregistry/internal/ledger"
	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

type FeeEngineSuite struct {
	suite.Suite

	ctx      context.Context
	bank     *ledger.InMemoryLedger
	engine   *Engine
	payer    id.AccountID
	owner    id.AccountID
	treasury id.AccountID
	pool     id.AccountID
}

func TestFeeEngineSuite(t *testing.T) {
	suite.Run(t, new(FeeEngineSuite))
}

func (s *FeeEngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.bank = ledger.New()
	s.payer = id.NewAccountID()
	s.owner = id.NewAccountID()
	s.treasury = id.NewAccountID()
	s.pool = id.NewAccountID()

	split := DistributionKey{LocOwnerPercent: 50, CommunityTreasuryPercent: 30, LegalOfficersPercent: 20}
	schedule := Schedule{
		FileStorageEntryFee: 10,
		FileStorageByteFee:  2,
		CertificateFee:      5,

		FileStorageKey:         split,
		CertificateKey:         split,
		IdentityLegalFeeKey:    split,
		TransactionLegalFeeKey: split,
		CollectionLegalFeeKey:  split,
		ValueFeeKey:            DistributionKey{LocOwnerPercent: 80, CommunityTreasuryPercent: 20},
		CollectionItemFeeKey:   split,
		TokensRecordFeeKey:     split,
	}

	distributor, err := NewDistributor(s.bank, s.treasury, s.pool)
	s.Require().NoError(err)
	s.engine, err = NewEngine(s.bank, distributor, schedule)
	s.Require().NoError(err)
}

func (s *FeeEngineSuite) fund(amount id.Balance) {
	s.Require().NoError(s.bank.Deposit(s.ctx, s.payer, amount))
}

func (s *FeeEngineSuite) free(account id.AccountID) id.Balance {
	balance, err := s.bank.Free(s.ctx, account)
	s.Require().NoError(err)
	return balance
}

func (s *FeeEngineSuite) TestScheduleRejectsBadKey() {
	schedule := s.engine.Schedule()
	schedule.CertificateKey = DistributionKey{LocOwnerPercent: 50, CommunityTreasuryPercent: 30, LegalOfficersPercent: 30}
	s.Require().Error(schedule.Validate())

	_, err := NewEngine(s.bank, s.engine.distributor, schedule)
	s.Require().Error(err)
}

func (s *FeeEngineSuite) TestStorageFeeSplitsExactly() {
	s.fund(1_000)

	// 2 entries and 15 bytes: 2*10 + 15*2 = 50.
	amount, err := s.engine.ChargeStorageFee(s.ctx, s.payer, 2, 15, s.owner)
	s.Require().NoError(err)
	s.Equal(id.Balance(50), amount)

	s.Equal(id.Balance(950), s.free(s.payer))
	s.Equal(id.Balance(25), s.free(s.owner))
	s.Equal(id.Balance(15), s.free(s.treasury))
	s.Equal(id.Balance(10), s.free(s.pool))
}

func (s *FeeEngineSuite) TestRemainderGoesToTreasury() {
	s.fund(1_000)

	// 33 does not divide evenly: owner 16, pool 6, treasury the rest.
	err := s.engine.ChargeLegalFee(s.ctx, s.payer, 33, models.LocTypeIdentity, s.owner)
	s.Require().NoError(err)

	ownerShare := s.free(s.owner)
	poolShare := s.free(s.pool)
	treasuryShare := s.free(s.treasury)
	s.Equal(id.Balance(16), ownerShare)
	s.Equal(id.Balance(6), poolShare)
	s.Equal(id.Balance(33), ownerShare+poolShare+treasuryShare)
}

func (s *FeeEngineSuite) TestCertificateFeeScalesWithIssuance() {
	s.fund(1_000)

	amount, err := s.engine.ChargeCertificateFee(s.ctx, s.payer, 7, s.owner)
	s.Require().NoError(err)
	s.Equal(id.Balance(35), amount)
	s.Equal(id.Balance(965), s.free(s.payer))
}

func (s *FeeEngineSuite) TestZeroAmountIsANoOp() {
	err := s.engine.ChargeLegalFee(s.ctx, s.payer, 0, models.LocTypeTransaction, s.owner)
	s.Require().NoError(err)
	s.Equal(id.Balance(0), s.free(s.owner))
}

func (s *FeeEngineSuite) TestInsufficientFundsAbortsWithoutDebit() {
	s.fund(10)

	err := s.engine.ChargeLegalFee(s.ctx, s.payer, 100, models.LocTypeIdentity, s.owner)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	s.Equal(id.Balance(10), s.free(s.payer))
	s.Equal(id.Balance(0), s.free(s.owner))
	s.Equal(id.Balance(0), s.free(s.treasury))
}

func (s *FeeEngineSuite) TestValueFeeReserveReleaseCycle() {
	s.fund(500)

	s.Require().NoError(s.engine.ReserveValueFee(s.ctx, s.payer, 200))
	s.Equal(id.Balance(300), s.free(s.payer))
	reserved, err := s.bank.Reserved(s.ctx, s.payer)
	s.Require().NoError(err)
	s.Equal(id.Balance(200), reserved)

	s.Require().NoError(s.engine.ReleaseValueFee(s.ctx, s.payer, 200, s.owner))
	reserved, err = s.bank.Reserved(s.ctx, s.payer)
	s.Require().NoError(err)
	s.Equal(id.Balance(0), reserved)

	// Value key splits 80/20 with no officers-pool share.
	s.Equal(id.Balance(160), s.free(s.owner))
	s.Equal(id.Balance(40), s.free(s.treasury))
	s.Equal(id.Balance(0), s.free(s.pool))
}

func (s *FeeEngineSuite) TestValueFeeUnreserveReturnsFunds() {
	s.fund(500)

	s.Require().NoError(s.engine.ReserveValueFee(s.ctx, s.payer, 200))
	s.Require().NoError(s.engine.UnreserveValueFee(s.ctx, s.payer, 200))
	s.Equal(id.Balance(500), s.free(s.payer))
}

func (s *FeeEngineSuite) TestReserveBeyondFreeBalanceFails() {
	s.fund(100)

	err := s.engine.ReserveValueFee(s.ctx, s.payer, 200)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	s.Equal(id.Balance(100), s.free(s.payer))
}
