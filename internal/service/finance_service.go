package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/repository"
)

// FinanceService covers the money flows around bookings: wallet deposits,
// balance lookup and prepaid package purchase.
type FinanceService struct {
	txm      TxManager
	wallets  repository.WalletRepository
	packages repository.PackageRepository
	cfg      Config
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(txm TxManager, wallets repository.WalletRepository, packages repository.PackageRepository, cfg Config) *FinanceService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	return &FinanceService{txm: txm, wallets: wallets, packages: packages, cfg: cfg}
}

// Deposit credits a user's wallet
func (s *FinanceService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, currency, actorID string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	var balance decimal.Decimal
	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		wr := s.wallets.WithTx(tx)
		err := wr.Record(ctx, &domain.WalletTransaction{
			ID:        uuid.New().String(),
			UserID:    userID,
			Amount:    amount,
			Currency:  currency,
			Type:      domain.TransactionTypeDeposit,
			Status:    "completed",
			CreatedBy: actorID,
			CreatedAt: time.Now(),
		}, true)
		if err != nil {
			return err
		}
		balance, err = wr.Balance(ctx, userID, currency)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Balance returns a user's wallet balance in a currency
func (s *FinanceService) Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	return s.wallets.Balance(ctx, userID, currency)
}

// PurchasePackageInput carries the fields for a package purchase
type PurchasePackageInput struct {
	UserID      string
	Name        string
	ServiceName string // empty = usable for any service
	TotalHours  decimal.Decimal
	Price       decimal.Decimal
	Currency    string
	ActorID     string
	ActorRole   string
}

// PurchasePackage creates a prepaid hour package and charges the wallet for
// its price in the same transaction.
func (s *FinanceService) PurchasePackage(ctx context.Context, input PurchasePackageInput) (*domain.CustomerPackage, error) {
	if !input.TotalHours.IsPositive() {
		return nil, domain.ErrInvalidHours
	}
	if input.Price.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if input.Currency == "" {
		input.Currency = s.cfg.DefaultCurrency
	}

	pkg := &domain.CustomerPackage{
		ID:             uuid.New().String(),
		UserID:         input.UserID,
		Name:           input.Name,
		ServiceName:    input.ServiceName,
		TotalHours:     input.TotalHours,
		UsedHours:      decimal.Zero,
		RemainingHours: input.TotalHours,
		PurchasePrice:  input.Price,
		Currency:       input.Currency,
		Status:         domain.PackageStatusActive,
		PurchasedAt:    time.Now(),
	}

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		if err := pr.Create(ctx, pkg); err != nil {
			return err
		}
		if input.Price.IsZero() {
			return nil
		}
		return wr.Record(ctx, &domain.WalletTransaction{
			ID:                uuid.New().String(),
			UserID:            input.UserID,
			Amount:            input.Price.Neg(),
			Currency:          input.Currency,
			Type:              domain.TransactionTypePackagePurchase,
			Status:            "completed",
			RelatedEntityType: domain.RelatedEntityPackage,
			RelatedEntityID:   pkg.ID,
			Description:       "purchase of package " + pkg.Name,
			CreatedBy:         input.ActorID,
			CreatedAt:         time.Now(),
		}, allowNegativeFor(input.ActorRole))
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}
