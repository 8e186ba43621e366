package qdrantindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// pointsClient is the subset of *qdrant.Client the repository uses.
type pointsClient interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// Config holds Qdrant connection settings.
type Config struct {
	URL        string // host:port or http(s)://host:port; gRPC port defaults to 6334
	APIKey     string
	Collection string
	Dimensions int
}

// Repo stores community vectors as Qdrant points.
type Repo struct {
	client     pointsClient
	collection string
	dim        int
}

// Dial connects to Qdrant over gRPC. The returned client must be closed by the caller.
func Dial(cfg Config) (*qdrant.Client, error) {
	raw := cfg.URL
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}

	port := 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return client, nil
}

// New creates a Qdrant vector index repository.
func New(c pointsClient, collection string, dim int) *Repo {
	return &Repo{client: c, collection: collection, dim: dim}
}

// EnsureIndex creates the collection when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", r.collection, err)
	}
	if exists {
		return nil
	}

	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(r.dim), //nolint:gosec // dimension validated by config
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}
	return nil
}

// Reset deletes and recreates the collection.
func (r *Repo) Reset(ctx context.Context) error {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", r.collection, err)
	}
	if exists {
		if err := r.client.DeleteCollection(ctx, r.collection); err != nil {
			return fmt.Errorf("delete collection %s: %w", r.collection, err)
		}
	}
	return r.EnsureIndex(ctx)
}

// Upsert writes one community point. Point ids are derived from community ids
// because Qdrant only accepts UUIDs or integers.
func (r *Repo) Upsert(ctx context.Context, c domain.Community, vec []float32) error {
	if len(vec) != r.dim {
		return fmt.Errorf("community %s: vector has %d dimensions, collection expects %d", c.ID, len(vec), r.dim)
	}

	_, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(PointID(c.ID)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: map[string]*qdrant.Value{
				"community_id": stringValue(c.ID),
				"category":     stringValue(c.Category),
				"city":         stringValue(c.City),
				"timezone":     stringValue(c.Timezone),
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert community %s: %w", c.ID, err)
	}
	return nil
}

// Search returns up to k communities among ids, best first.
func (r *Repo) Search(ctx context.Context, vec []float32, ids []string, k int) ([]domain.VectorMatch, error) {
	if len(ids) == 0 || k <= 0 {
		return nil, nil
	}

	limit := uint64(k) //nolint:gosec // k > 0
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		Filter: &qdrant.Filter{Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "community_id",
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keywords{
						Keywords: &qdrant.RepeatedStrings{Strings: ids},
					}},
				},
			},
		}}},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	matches := make([]domain.VectorMatch, 0, len(points))
	for _, p := range points {
		id := p.GetPayload()["community_id"].GetStringValue()
		if id == "" {
			continue
		}
		matches = append(matches, domain.VectorMatch{CommunityID: id, Score: float64(p.GetScore())})
	}
	return matches, nil
}

// PointID maps a community id to its stable point UUID.
func PointID(communityID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("vayo:community:"+communityID)).String()
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}
