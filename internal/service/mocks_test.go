package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/repository"
)

// fakeTxManager runs the transactional function directly; repositories in
// tests are in-memory and WithTx returns the repository itself.
type fakeTxManager struct {
	beginErr  error
	commitErr error
}

func (m *fakeTxManager) RunInTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	if err := fn(nil); err != nil {
		return err
	}
	return m.commitErr
}

func (m *fakeTxManager) Savepoint(_ context.Context, tx pgx.Tx, fn func(tx pgx.Tx) error) error {
	return fn(tx)
}

type mockBookingRepo struct {
	CreateFunc                     func(ctx context.Context, b *domain.Booking) error
	GetByIDFunc                    func(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDForUpdateFunc           func(ctx context.Context, id string) (*domain.Booking, error)
	UpdateFunc                     func(ctx context.Context, b *domain.Booking) error
	UpdateSlotFunc                 func(ctx context.Context, id string, slot domain.Slot, updatedBy string) error
	SwapSlotsFunc                  func(ctx context.Context, idA, idB string, slotA, slotB domain.Slot, updatedBy string) error
	DeferOverlapConstraintFunc     func(ctx context.Context) error
	FindConflictFunc               func(ctx context.Context, instructorID string, date time.Time, start, duration decimal.Decimal, excludeIDs []string) (*domain.Booking, error)
	ListActiveByInstructorDateFunc func(ctx context.Context, instructorID string, date time.Time) ([]*domain.Booking, error)
	CountAtExactSlotFunc           func(ctx context.Context, slot domain.Slot) (int, error)
	SoftDeleteFunc                 func(ctx context.Context, id, deletedBy, reason string, at time.Time) error
	ClearDeletedFunc               func(ctx context.Context, id string, status domain.BookingStatus, updatedBy string) error
	LatestDeletedFunc              func(ctx context.Context) (*domain.Booking, error)
	ListFunc                       func(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error)
	CreateParticipantsFunc         func(ctx context.Context, participants []*domain.BookingParticipant) error
	ListParticipantsFunc           func(ctx context.Context, bookingID string) ([]*domain.BookingParticipant, error)
	RecordDeleteAuditFunc          func(ctx context.Context, audit *domain.DeleteAudit) error
	LatestDeleteAuditFunc          func(ctx context.Context, bookingID string) (*domain.DeleteAudit, error)
}

func (m *mockBookingRepo) WithTx(pgx.Tx) repository.BookingRepository { return m }

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	return nil
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *mockBookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *mockBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, b)
	}
	return nil
}

func (m *mockBookingRepo) UpdateSlot(ctx context.Context, id string, slot domain.Slot, updatedBy string) error {
	if m.UpdateSlotFunc != nil {
		return m.UpdateSlotFunc(ctx, id, slot, updatedBy)
	}
	return nil
}

func (m *mockBookingRepo) SwapSlots(ctx context.Context, idA, idB string, slotA, slotB domain.Slot, updatedBy string) error {
	if m.SwapSlotsFunc != nil {
		return m.SwapSlotsFunc(ctx, idA, idB, slotA, slotB, updatedBy)
	}
	return nil
}

func (m *mockBookingRepo) DeferOverlapConstraint(ctx context.Context) error {
	if m.DeferOverlapConstraintFunc != nil {
		return m.DeferOverlapConstraintFunc(ctx)
	}
	return nil
}

func (m *mockBookingRepo) FindConflict(ctx context.Context, instructorID string, date time.Time, start, duration decimal.Decimal, excludeIDs []string) (*domain.Booking, error) {
	if m.FindConflictFunc != nil {
		return m.FindConflictFunc(ctx, instructorID, date, start, duration, excludeIDs)
	}
	return nil, nil
}

func (m *mockBookingRepo) ListActiveByInstructorDate(ctx context.Context, instructorID string, date time.Time) ([]*domain.Booking, error) {
	if m.ListActiveByInstructorDateFunc != nil {
		return m.ListActiveByInstructorDateFunc(ctx, instructorID, date)
	}
	return nil, nil
}

func (m *mockBookingRepo) CountAtExactSlot(ctx context.Context, slot domain.Slot) (int, error) {
	if m.CountAtExactSlotFunc != nil {
		return m.CountAtExactSlotFunc(ctx, slot)
	}
	return 0, nil
}

func (m *mockBookingRepo) SoftDelete(ctx context.Context, id, deletedBy, reason string, at time.Time) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id, deletedBy, reason, at)
	}
	return nil
}

func (m *mockBookingRepo) ClearDeleted(ctx context.Context, id string, status domain.BookingStatus, updatedBy string) error {
	if m.ClearDeletedFunc != nil {
		return m.ClearDeletedFunc(ctx, id, status, updatedBy)
	}
	return nil
}

func (m *mockBookingRepo) LatestDeleted(ctx context.Context) (*domain.Booking, error) {
	if m.LatestDeletedFunc != nil {
		return m.LatestDeletedFunc(ctx)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *mockBookingRepo) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockBookingRepo) CreateParticipants(ctx context.Context, participants []*domain.BookingParticipant) error {
	if m.CreateParticipantsFunc != nil {
		return m.CreateParticipantsFunc(ctx, participants)
	}
	return nil
}

func (m *mockBookingRepo) ListParticipants(ctx context.Context, bookingID string) ([]*domain.BookingParticipant, error) {
	if m.ListParticipantsFunc != nil {
		return m.ListParticipantsFunc(ctx, bookingID)
	}
	return nil, nil
}

func (m *mockBookingRepo) RecordDeleteAudit(ctx context.Context, audit *domain.DeleteAudit) error {
	if m.RecordDeleteAuditFunc != nil {
		return m.RecordDeleteAuditFunc(ctx, audit)
	}
	return nil
}

func (m *mockBookingRepo) LatestDeleteAudit(ctx context.Context, bookingID string) (*domain.DeleteAudit, error) {
	if m.LatestDeleteAuditFunc != nil {
		return m.LatestDeleteAuditFunc(ctx, bookingID)
	}
	return nil, domain.ErrBookingNotDeleted
}

type mockPackageRepo struct {
	CreateFunc            func(ctx context.Context, pkg *domain.CustomerPackage) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.CustomerPackage, error)
	FindActiveForUserFunc func(ctx context.Context, userID, serviceName string) (*domain.CustomerPackage, error)
	ConsumeFunc           func(ctx context.Context, id string, requested decimal.Decimal) (decimal.Decimal, error)
	RestoreFunc           func(ctx context.Context, id string, hours decimal.Decimal) error
	TouchLastUsedFunc     func(ctx context.Context, id string, at time.Time) error
}

func (m *mockPackageRepo) WithTx(pgx.Tx) repository.PackageRepository { return m }

func (m *mockPackageRepo) Create(ctx context.Context, pkg *domain.CustomerPackage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pkg)
	}
	return nil
}

func (m *mockPackageRepo) GetByID(ctx context.Context, id string) (*domain.CustomerPackage, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrPackageNotFound
}

func (m *mockPackageRepo) FindActiveForUser(ctx context.Context, userID, serviceName string) (*domain.CustomerPackage, error) {
	if m.FindActiveForUserFunc != nil {
		return m.FindActiveForUserFunc(ctx, userID, serviceName)
	}
	return nil, domain.ErrNoMatchingPackage
}

func (m *mockPackageRepo) Consume(ctx context.Context, id string, requested decimal.Decimal) (decimal.Decimal, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, id, requested)
	}
	return decimal.Zero, domain.ErrPackageUnavailable
}

func (m *mockPackageRepo) Restore(ctx context.Context, id string, hours decimal.Decimal) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id, hours)
	}
	return nil
}

func (m *mockPackageRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastUsedFunc != nil {
		return m.TouchLastUsedFunc(ctx, id, at)
	}
	return nil
}

type mockWalletRepo struct {
	mu       sync.Mutex
	recorded []*domain.WalletTransaction

	RecordFunc  func(ctx context.Context, txn *domain.WalletTransaction, allowNegative bool) error
	BalanceFunc func(ctx context.Context, userID, currency string) (decimal.Decimal, error)
}

func (m *mockWalletRepo) WithTx(pgx.Tx) repository.WalletRepository { return m }

func (m *mockWalletRepo) Record(ctx context.Context, txn *domain.WalletTransaction, allowNegative bool) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, txn, allowNegative)
	}
	m.mu.Lock()
	m.recorded = append(m.recorded, txn)
	m.mu.Unlock()
	return nil
}

func (m *mockWalletRepo) Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, userID, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, t := range m.recorded {
		if t.UserID == userID && t.Currency == currency {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

type mockUserRepo struct {
	FindByEmailFunc   func(ctx context.Context, email string) (*domain.User, error)
	CreateStudentFunc func(ctx context.Context, user *domain.User) error
}

func (m *mockUserRepo) WithTx(pgx.Tx) repository.UserRepository { return m }

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) CreateStudent(ctx context.Context, user *domain.User) error {
	if m.CreateStudentFunc != nil {
		return m.CreateStudentFunc(ctx, user)
	}
	return nil
}

type mockCatalogRepo struct {
	GetServiceFunc func(ctx context.Context, id string) (*domain.Service, error)
	HourlyRateFunc func(ctx context.Context, serviceID, currency string) (decimal.Decimal, error)
}

func (m *mockCatalogRepo) GetService(ctx context.Context, id string) (*domain.Service, error) {
	if m.GetServiceFunc != nil {
		return m.GetServiceFunc(ctx, id)
	}
	return &domain.Service{ID: id, Name: "surf lesson", ServiceType: "lesson"}, nil
}

func (m *mockCatalogRepo) HourlyRate(ctx context.Context, serviceID, currency string) (decimal.Decimal, error) {
	if m.HourlyRateFunc != nil {
		return m.HourlyRateFunc(ctx, serviceID, currency)
	}
	return decimal.NewFromInt(50), nil
}

type publishedEvent struct {
	Type       domain.BookingEventType
	BookingIDs []string
	Metadata   map[string]string
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockEventPublisher) Publish(_ context.Context, t domain.BookingEventType, ids []string, _ string, md map[string]string) {
	m.mu.Lock()
	m.events = append(m.events, publishedEvent{Type: t, BookingIDs: ids, Metadata: md})
	m.mu.Unlock()
}

func (m *mockEventPublisher) Close() {}

func (m *mockEventPublisher) byType(t domain.BookingEventType) []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedEvent
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testDeps bundles a fully mocked service graph
type testDeps struct {
	txm      *fakeTxManager
	bookings *mockBookingRepo
	packages *mockPackageRepo
	wallets  *mockWalletRepo
	users    *mockUserRepo
	catalog  *mockCatalogRepo
	events   *mockEventPublisher
}

func newTestDeps() *testDeps {
	return &testDeps{
		txm:      &fakeTxManager{},
		bookings: &mockBookingRepo{},
		packages: &mockPackageRepo{},
		wallets:  &mockWalletRepo{},
		users:    &mockUserRepo{},
		catalog:  &mockCatalogRepo{},
		events:   &mockEventPublisher{},
	}
}

func (d *testDeps) bookingService() *BookingService {
	return NewBookingService(d.txm, d.bookings, d.packages, d.wallets, d.users, d.catalog, d.events, DefaultConfig())
}

func (d *testDeps) swapService() *SwapService {
	return NewSwapService(d.txm, d.bookings, d.events, DefaultConfig())
}
