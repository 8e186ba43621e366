package qdrantindex

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

type fakeClient struct {
	exists    bool
	created   *qdrant.CreateCollection
	deleted   bool
	upserts   []*qdrant.UpsertPoints
	lastQuery *qdrant.QueryPoints
	points    []*qdrant.ScoredPoint
	queryErr  error
}

func (f *fakeClient) CollectionExists(_ context.Context, _ string) (bool, error) {
	return f.exists, nil
}

func (f *fakeClient) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return nil
}

func (f *fakeClient) DeleteCollection(_ context.Context, _ string) error {
	f.deleted = true
	return nil
}

func (f *fakeClient) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.lastQuery = req
	return f.points, f.queryErr
}

func scored(id string, score float32) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{
		Score:   score,
		Payload: map[string]*qdrant.Value{"community_id": stringValue(id)},
	}
}

func TestEnsureIndex(t *testing.T) {
	fc := &fakeClient{}
	r := New(fc, "communities", 8)

	if err := r.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.created == nil || fc.created.GetCollectionName() != "communities" {
		t.Fatalf("expected collection creation, got %+v", fc.created)
	}
	params := fc.created.GetVectorsConfig().GetParams()
	if params.GetSize() != 8 || params.GetDistance() != qdrant.Distance_Cosine {
		t.Errorf("unexpected vector params %+v", params)
	}
}

func TestReset_DeletesExisting(t *testing.T) {
	fc := &fakeClient{exists: true}
	r := New(fc, "communities", 8)

	if err := r.Reset(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fc.deleted {
		t.Error("expected DeleteCollection")
	}
}

func TestUpsert(t *testing.T) {
	fc := &fakeClient{}
	r := New(fc, "communities", 2)

	c := domain.Community{ID: "c1", Category: "Art", City: "Austin", Timezone: "America/Chicago"}
	if err := r.Upsert(context.Background(), c, []float32{0.1, 0.2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := fc.upserts[0].GetPoints()[0]
	if p.GetId().GetUuid() != PointID("c1") {
		t.Errorf("unexpected point id %v", p.GetId())
	}
	if p.GetPayload()["city"].GetStringValue() != "Austin" {
		t.Errorf("unexpected payload %v", p.GetPayload())
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	r := New(&fakeClient{}, "communities", 3)
	if err := r.Upsert(context.Background(), domain.Community{ID: "c1"}, []float32{1}); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestSearch(t *testing.T) {
	fc := &fakeClient{points: []*qdrant.ScoredPoint{scored("c2", 0.93), scored("c1", 0.6)}}
	r := New(fc, "communities", 2)

	got, err := r.Search(context.Background(), []float32{1, 0}, []string{"c1", "c2"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.lastQuery.GetLimit() != 10 {
		t.Errorf("limit = %d, want 10", fc.lastQuery.GetLimit())
	}
	keywords := fc.lastQuery.GetFilter().GetMust()[0].GetField().GetMatch().GetKeywords().GetStrings()
	if len(keywords) != 2 {
		t.Errorf("expected id filter with 2 keywords, got %v", keywords)
	}
	if len(got) != 2 || got[0].CommunityID != "c2" || got[1].CommunityID != "c1" {
		t.Fatalf("unexpected matches %+v", got)
	}
}

func TestSearch_Error(t *testing.T) {
	fc := &fakeClient{queryErr: errors.New("unavailable")}
	r := New(fc, "communities", 2)

	if _, err := r.Search(context.Background(), []float32{1, 0}, []string{"c1"}, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestPointID_Stable(t *testing.T) {
	if PointID("c1") != PointID("c1") {
		t.Fatal("point id must be deterministic")
	}
	if PointID("c1") == PointID("c2") {
		t.Fatal("different communities must map to different points")
	}
}
