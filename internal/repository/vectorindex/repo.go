package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/TanishqMishra12/VAYO/internal/db"
	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// IndexName is the FT index over community hashes.
const IndexName = domain.KeyPrefix + "communities:idx"

var docPrefix = domain.KeyPrefix + "community:"

// store is the consumer interface for the Redis vector index (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Options tune the HNSW graph.
type Options struct {
	Dimensions     int
	M              int
	EFConstruction int
}

// Repo stores community vectors in Redis hashes covered by an FT index.
type Repo struct {
	store store
	opts  Options
}

// New creates a Redis vector index repository.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// EnsureIndex creates the FT index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(IndexName).
		Prefix(docPrefix).
		Tag("community_id", "category", "city", "timezone").
		VectorHNSW("vector", r.opts.Dimensions, db.DistanceCosine, r.opts.M, r.opts.EFConstruction).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Reset drops the index (keeping the documents) and creates it again.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}
	return r.EnsureIndex(ctx)
}

// Upsert writes the vector and filterable metadata of one community.
func (r *Repo) Upsert(ctx context.Context, c domain.Community, vec []float32) error {
	if len(vec) != r.opts.Dimensions {
		return fmt.Errorf("community %s: vector has %d dimensions, index expects %d", c.ID, len(vec), r.opts.Dimensions)
	}

	fields := map[string]string{
		"community_id": c.ID,
		"category":     c.Category,
		"city":         c.City,
		"timezone":     c.Timezone,
		"vector":       rueidis.BinaryString(db.EncodeVector(vec)),
	}
	if err := r.store.HSet(ctx, docPrefix+c.ID, fields); err != nil {
		return fmt.Errorf("upsert community %s: %w", c.ID, err)
	}
	return nil
}

// Search returns up to k communities among ids, best first.
func (r *Repo) Search(ctx context.Context, vec []float32, ids []string, k int) ([]domain.VectorMatch, error) {
	if len(ids) == 0 || k <= 0 {
		return nil, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filters:      []db.TagFilter{{Field: "community_id", Values: ids}},
		Vector:       vec,
		K:            k,
		ReturnFields: []string{"community_id"},
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]domain.VectorMatch, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := e.Fields["community_id"]
		if id == "" {
			id = strings.TrimPrefix(e.Key, docPrefix)
		}
		matches = append(matches, domain.VectorMatch{CommunityID: id, Score: e.Score})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}
