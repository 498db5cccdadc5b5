package simulation

import (
	"context"
	"errors"
	"fmt"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/models"

	"gorm.io/gorm"
)

// Default and maximum page sizes for List.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Recorder persists simulation attempts.
type Recorder interface {
	Insert(ctx context.Context, rec *models.TradeSimulation) error
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Username string
	Status   string
	Limit    int
}

// Store is the trade_simulations collection. Records are insert-only.
type Store struct {
	db *gorm.DB
}

// ensure Store implements the interface
var _ Recorder = (*Store)(nil)

// NewStore creates a Store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Insert writes one new record.
func (s *Store) Insert(ctx context.Context, rec *models.TradeSimulation) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to insert trade simulation: %w", err)
	}
	return nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.TradeSimulation, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := s.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.TradeSimulation
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list trade simulations: %w", err)
	}
	return out, nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*models.TradeSimulation, error) {
	var rec models.TradeSimulation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Newf(apperr.NotFound, "simulation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade simulation %s: %w", id, err)
	}
	return &rec, nil
}
