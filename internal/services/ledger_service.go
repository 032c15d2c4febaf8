package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"rentledger/internal/amqp"
	"rentledger/internal/core"
	"rentledger/internal/storage"
)

// LedgerService orchestrates the property, revenue and expense collections:
// validation, referential checks, classification, event publishing and
// change notification for the backup scheduler.
type LedgerService struct {
	store    *storage.SQLiteRepository
	events   *amqp.Client
	onChange func()
}

func NewLedgerService(store *storage.SQLiteRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{store: store, events: events}
}

// SetOnChange registers a callback invoked after every successful mutation.
func (s *LedgerService) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *LedgerService) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *LedgerService) publish(ctx context.Context, event, entityID, propertyID string) {
	if err := s.events.PublishEvent(ctx, event, entityID, propertyID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event", event, "entity_id", entityID, "error", err)
	}
}

func (s *LedgerService) CreateProperty(ctx context.Context, p core.Property) (core.Property, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return core.Property{}, fmt.Errorf("validate property: %w", err)
	}
	if err := s.store.CreateProperty(ctx, p); err != nil {
		return core.Property{}, err
	}

	s.publish(ctx, amqp.EventRecordCreated, p.ID, p.ID)
	s.notifyChange()
	return p, nil
}

func (s *LedgerService) GetProperty(ctx context.Context, id string) (core.Property, error) {
	return s.store.GetProperty(ctx, id)
}

func (s *LedgerService) ListProperties(ctx context.Context) ([]core.Property, error) {
	return s.store.ListProperties(ctx)
}

func (s *LedgerService) UpdateProperty(ctx context.Context, p core.Property) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate property: %w", err)
	}
	if err := s.store.UpdateProperty(ctx, p); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

// DeleteProperty removes the property and all its dependent records.
func (s *LedgerService) DeleteProperty(ctx context.Context, id string) error {
	if err := s.store.DeleteProperty(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.EventPropertyDeleted, id, id)
	s.notifyChange()
	return nil
}

func (s *LedgerService) AddRevenue(ctx context.Context, rev core.Revenue) (core.Revenue, error) {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	if err := rev.Validate(); err != nil {
		return core.Revenue{}, fmt.Errorf("validate revenue: %w", err)
	}
	if _, err := s.store.GetProperty(ctx, rev.PropertyID); err != nil {
		return core.Revenue{}, err
	}
	if err := s.store.CreateRevenue(ctx, rev); err != nil {
		return core.Revenue{}, err
	}

	s.publish(ctx, amqp.EventRecordCreated, rev.ID, rev.PropertyID)
	s.notifyChange()
	return rev, nil
}

func (s *LedgerService) GetRevenue(ctx context.Context, id string) (core.Revenue, error) {
	return s.store.GetRevenue(ctx, id)
}

func (s *LedgerService) ListRevenues(ctx context.Context, propertyID string) ([]core.Revenue, error) {
	if propertyID != "" {
		return s.store.ListRevenuesByProperty(ctx, propertyID)
	}
	return s.store.ListRevenues(ctx)
}

func (s *LedgerService) UpdateRevenue(ctx context.Context, rev core.Revenue) error {
	if err := rev.Validate(); err != nil {
		return fmt.Errorf("validate revenue: %w", err)
	}
	if _, err := s.store.GetProperty(ctx, rev.PropertyID); err != nil {
		return err
	}
	if err := s.store.UpdateRevenue(ctx, rev); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *LedgerService) DeleteRevenue(ctx context.Context, id string) error {
	if err := s.store.DeleteRevenue(ctx, id); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

// AddExpense classifies the expense from its payer and category when no
// billing type is given, then stores it.
func (s *LedgerService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ExpenseType == "" {
		payer := core.PaidByLandlord
		if e.PaidByTenant != nil && *e.PaidByTenant {
			payer = core.PaidByTenant
		}
		e.ExpenseType = core.ClassifyExpense(payer, e.Category)
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}
	if _, err := s.store.GetProperty(ctx, e.PropertyID); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, amqp.EventRecordCreated, e.ID, e.PropertyID)
	s.notifyChange()
	return e, nil
}

func (s *LedgerService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *LedgerService) ListExpenses(ctx context.Context, propertyID string) ([]core.Expense, error) {
	if propertyID != "" {
		return s.store.ListExpensesByProperty(ctx, propertyID)
	}
	return s.store.ListExpenses(ctx)
}

func (s *LedgerService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}
	if _, err := s.store.GetProperty(ctx, e.PropertyID); err != nil {
		return err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

// Snapshot exposes the full ledger for analytics, backups and exports.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// Restore replaces the store content with the given snapshot.
func (s *LedgerService) Restore(ctx context.Context, snap core.Snapshot) error {
	if err := s.store.ReplaceAll(ctx, snap); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
