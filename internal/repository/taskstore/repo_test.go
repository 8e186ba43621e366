package taskstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TanishqMishra12/VAYO/internal/db"
	"github.com/TanishqMishra12/VAYO/internal/domain"
)

type memStore struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

func TestSaveGet_Success(t *testing.T) {
	ms := newMemStore()
	r := New(ms, 24*time.Hour)
	ctx := context.Background()

	p := domain.SuccessPayload(domain.MatchResult{
		TaskID: "t1", UserID: "u1", Tier: domain.TierExplorer,
		Matches: []domain.Match{{CommunityID: "c1", Category: "Tech", MatchScore: 0.7}},
	})
	if err := r.Save(ctx, domain.TaskRecord{TaskID: "t1", UserID: "u1", State: domain.TaskSuccess, Payload: &p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.ttl["vayo:task:t1"] != 24*time.Hour {
		t.Errorf("expected 24h ttl under vayo:task:t1, got %v", ms.ttl)
	}

	rec, err := r.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != domain.TaskSuccess || rec.Payload == nil || rec.Payload.Result == nil {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Payload.Result.Matches[0].CommunityID != "c1" {
		t.Errorf("unexpected matches %+v", rec.Payload.Result.Matches)
	}
}

func TestSaveGet_Failure(t *testing.T) {
	r := New(newMemStore(), time.Hour)
	ctx := context.Background()

	p := domain.FailurePayload("t2", domain.ErrTaskExpired)
	if err := r.Save(ctx, domain.TaskRecord{TaskID: "t2", State: domain.TaskFailure, Payload: &p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := r.Get(ctx, "t2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Payload == nil || !rec.Payload.Failed() || rec.Payload.Failure.Error != "task expired before start" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestSave_PendingWithoutPayload(t *testing.T) {
	ms := newMemStore()
	r := New(ms, time.Hour)

	if err := r.Save(context.Background(), domain.TaskRecord{TaskID: "t3", State: domain.TaskPending}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := r.Get(context.Background(), "t3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != domain.TaskPending || rec.Payload != nil {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestGet_NotFound(t *testing.T) {
	r := New(newMemStore(), time.Hour)

	if _, err := r.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := newMemStore()
	ms.err = errors.New("down")
	r := New(ms, time.Hour)

	_, err := r.Get(context.Background(), "t1")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected a store error, got %v", err)
	}
}
