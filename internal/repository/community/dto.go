package community

import (
	"time"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// communityRow is the gorm model of the communities table.
type communityRow struct {
	ID             string    `gorm:"column:community_id;primaryKey;size:64"`
	Name           string    `gorm:"column:community_name;size:255;not null"`
	Category       string    `gorm:"column:category;size:64;not null;index"`
	Description    string    `gorm:"column:description;type:text"`
	City           string    `gorm:"column:city;size:128;not null;index:idx_communities_location"`
	Timezone       string    `gorm:"column:timezone;size:64;not null;index:idx_communities_location"`
	MemberCount    int       `gorm:"column:member_count;not null;default:0"`
	RecentActivity int       `gorm:"column:recent_activity;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (communityRow) TableName() string { return "communities" }

func (r communityRow) toDomain() domain.Community {
	return domain.Community{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		MemberCount:    r.MemberCount,
		RecentActivity: r.RecentActivity,
		City:           r.City,
		Timezone:       r.Timezone,
		Description:    r.Description,
	}
}

func toDomainList(rows []communityRow) []domain.Community {
	out := make([]domain.Community, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out
}
