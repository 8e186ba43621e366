package match

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	"github.com/TanishqMishra12/VAYO/internal/logger"
)

func TestMerge_KeepsRankerOrder(t *testing.T) {
	byID := indexByID([]domain.Community{
		{ID: "a", Name: "Alpha", Category: "Tech", MemberCount: 10, RecentActivity: 3},
		{ID: "b", Name: "Beta", Category: "Art", MemberCount: 20, RecentActivity: 1},
	})
	hits := []domain.VectorMatch{{CommunityID: "b", Score: 0.9}, {CommunityID: "a", Score: 0.8}}

	got, err := merge(context.Background(), hits, byID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].CommunityID != "b" || got[1].CommunityID != "a" {
		t.Fatalf("unexpected order %+v", got)
	}
	want := domain.Match{CommunityID: "b", CommunityName: "Beta", Category: "Art", MatchScore: 0.9, MemberCount: 20, RecentActivity: 1}
	if got[0] != want {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}

func TestMerge_DropsUnknownAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	byID := indexByID([]domain.Community{{ID: "a", Category: "Tech"}})
	hits := []domain.VectorMatch{{CommunityID: "x", Score: 0.99}, {CommunityID: "a", Score: 0.5}}

	got, err := merge(ctx, hits, byID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].CommunityID != "a" {
		t.Fatalf("unexpected result %+v", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if logs.All()[0].ContextMap()["dropped"] != int64(1) {
		t.Errorf("expected dropped=1, got %v", logs.All()[0].ContextMap())
	}
}

func TestMerge_EmptyIsFatal(t *testing.T) {
	byID := indexByID([]domain.Community{{ID: "a", Category: "Tech"}})

	_, err := merge(context.Background(), []domain.VectorMatch{{CommunityID: "z", Score: 0.9}}, byID)
	if !errors.Is(err, domain.ErrEmptyMerge) {
		t.Fatalf("expected ErrEmptyMerge, got %v", err)
	}

	_, err = merge(context.Background(), nil, byID)
	if !errors.Is(err, domain.ErrEmptyMerge) {
		t.Fatalf("expected ErrEmptyMerge for no hits, got %v", err)
	}
}
