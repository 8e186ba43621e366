package community

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// Repo reads communities from the relational store.
type Repo struct {
	db             *gorm.DB
	candidateLimit int
}

// New creates a community repository. candidateLimit caps FilterByLocation.
func New(db *gorm.DB, candidateLimit int) *Repo {
	return &Repo{db: db, candidateLimit: candidateLimit}
}

// Migrate creates or updates the communities table.
func (r *Repo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&communityRow{}); err != nil {
		return fmt.Errorf("migrate communities: %w", err)
	}
	return nil
}

// FilterByLocation returns active communities in a city and timezone, largest first.
func (r *Repo) FilterByLocation(ctx context.Context, city, timezone string) ([]domain.Community, error) {
	var rows []communityRow
	err := r.db.WithContext(ctx).
		Where("city = ? AND timezone = ? AND is_active = ?", city, timezone, true).
		Order("member_count DESC").
		Order("community_id ASC").
		Limit(r.candidateLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("filter communities by location: %w", err)
	}
	return toDomainList(rows), nil
}

// Popular returns the most popular active communities regardless of location.
func (r *Repo) Popular(ctx context.Context, limit int) ([]domain.Community, error) {
	var rows []communityRow
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("member_count DESC").
		Order("recent_activity DESC").
		Order("community_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("popular communities: %w", err)
	}
	return toDomainList(rows), nil
}

// ListAll returns every active community, in id order.
func (r *Repo) ListAll(ctx context.Context) ([]domain.Community, error) {
	var rows []communityRow
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("community_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	return toDomainList(rows), nil
}
