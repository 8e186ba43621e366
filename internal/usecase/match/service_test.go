package match

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// --- Mocks ---

type mockEnricher struct {
	result domain.EnrichedProfile
}

func (m *mockEnricher) Enrich(_ context.Context, bio string, tags []string) domain.EnrichedProfile {
	if m.result.SanitizedBio != "" {
		return m.result
	}
	return domain.EnrichedProfile{SanitizedBio: bio, EnrichedTags: tags}
}

type mockEmbedder struct {
	vec      []float32
	err      error
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockPool struct {
	byLocation   []domain.Community
	popular      []domain.Community
	filterErr    error
	popularErr   error
	popularLimit int
	popularCalls int
}

func (m *mockPool) FilterByLocation(_ context.Context, _, _ string) ([]domain.Community, error) {
	return m.byLocation, m.filterErr
}

func (m *mockPool) Popular(_ context.Context, limit int) ([]domain.Community, error) {
	m.popularCalls++
	m.popularLimit = limit
	return m.popular, m.popularErr
}

type mockRanker struct {
	hits  []domain.VectorMatch
	err   error
	calls int
	ids   []string
	k     int
	panic bool
}

func (m *mockRanker) Search(_ context.Context, _ []float32, ids []string, k int) ([]domain.VectorMatch, error) {
	m.calls++
	m.ids = ids
	m.k = k
	if m.panic {
		panic("index corrupted")
	}
	return m.hits, m.err
}

type mockCache struct {
	err   error
	puts  int
	panic bool
}

func (m *mockCache) Put(_ context.Context, _ string, _ []float32) error {
	m.puts++
	if m.panic {
		panic("boom")
	}
	return m.err
}

type mockPublisher struct {
	err      error
	payloads []domain.Payload
}

func (m *mockPublisher) Publish(_ context.Context, _ string, p domain.Payload) error {
	m.payloads = append(m.payloads, p)
	return m.err
}

type fixture struct {
	enricher  *mockEnricher
	embedder  *mockEmbedder
	pool      *mockPool
	ranker    *mockRanker
	cache     *mockCache
	publisher *mockPublisher
}

func newFixture() *fixture {
	return &fixture{
		enricher:  &mockEnricher{},
		embedder:  &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}},
		pool:      &mockPool{},
		ranker:    &mockRanker{},
		cache:     &mockCache{},
		publisher: &mockPublisher{},
	}
}

func (f *fixture) service() *Service {
	return New(Deps{
		Enricher:  f.enricher,
		Embedder:  f.embedder,
		Pool:      f.pool,
		Ranker:    f.ranker,
		Cache:     f.cache,
		Publisher: f.publisher,
	}, 10)
}

func testProfile() domain.UserProfile {
	return domain.UserProfile{
		UserID:       "u1",
		Bio:          "I build robots",
		InterestTags: []string{"robotics", "ai"},
		City:         "Austin",
		Timezone:     "America/Chicago",
	}
}

func community(id, category string) domain.Community {
	return domain.Community{ID: id, Name: "Community " + id, Category: category, MemberCount: 100, RecentActivity: 5}
}

// sixCandidates matches scenario b: categories A A A B C D.
func sixCandidates() ([]domain.Community, []domain.VectorMatch) {
	cs := []domain.Community{
		community("c1", "A"), community("c2", "A"), community("c3", "A"),
		community("c4", "B"), community("c5", "C"), community("c6", "D"),
	}
	hits := []domain.VectorMatch{
		{CommunityID: "c1", Score: 0.91}, {CommunityID: "c2", Score: 0.80},
		{CommunityID: "c3", Score: 0.78}, {CommunityID: "c4", Score: 0.70},
		{CommunityID: "c5", Score: 0.60}, {CommunityID: "c6", Score: 0.50},
	}
	return cs, hits
}

// --- Tests ---

func TestRun_PopularFallback(t *testing.T) {
	f := newFixture()
	f.pool.popular = []domain.Community{
		community("p1", "Tech"), community("p2", "Art"), community("p3", "Music"),
		community("p4", "Tech"), community("p5", "Food"), community("p6", "Sport"),
	}

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Failed() {
		t.Fatalf("unexpected failure: %+v", p.Failure)
	}
	r := p.Result
	if r.Tier != domain.TierFallback {
		t.Errorf("expected fallback tier, got %q", r.Tier)
	}
	if len(r.Matches) != domain.MaxMatches {
		t.Errorf("expected %d matches, got %d", domain.MaxMatches, len(r.Matches))
	}
	for _, m := range r.Matches {
		if m.MatchScore != 0.0 {
			t.Errorf("expected score 0.0, got %v for %s", m.MatchScore, m.CommunityID)
		}
	}
	if f.ranker.calls != 0 {
		t.Error("expected vector ranking to be skipped")
	}
	if f.pool.popularLimit != 10 {
		t.Errorf("expected popular limit 10, got %d", f.pool.popularLimit)
	}
	if len(f.publisher.payloads) != 1 {
		t.Errorf("expected one publish, got %d", len(f.publisher.payloads))
	}
}

func TestRun_PopularFallbackIgnoresHighSimilarity(t *testing.T) {
	f := newFixture()
	f.pool.popular = []domain.Community{community("p1", "Tech")}
	f.ranker.hits = []domain.VectorMatch{{CommunityID: "p1", Score: 0.99}}

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Result == nil || p.Result.Tier != domain.TierFallback || p.Result.Matches[0].MatchScore != 0.0 {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestRun_PopularEmpty(t *testing.T) {
	f := newFixture()

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Failed() {
		t.Fatalf("unexpected failure: %+v", p.Failure)
	}
	if p.Result.Tier != domain.TierFallback || len(p.Result.Matches) != 0 {
		t.Errorf("unexpected result %+v", p.Result)
	}
}

func TestRun_PopularError(t *testing.T) {
	f := newFixture()
	f.pool.popularErr = errors.New("mysql gone")

	p := f.service().Run(context.Background(), "t1", testProfile())

	if !p.Failed() || p.Failure.TaskID != "t1" {
		t.Fatalf("expected failure payload, got %+v", p)
	}
}

func TestRun_DiversityAndTier(t *testing.T) {
	f := newFixture()
	f.pool.byLocation, f.ranker.hits = sixCandidates()

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Failed() {
		t.Fatalf("unexpected failure: %+v", p.Failure)
	}
	r := p.Result
	if r.Tier != domain.TierSoulmate {
		t.Errorf("expected soulmate tier, got %q", r.Tier)
	}
	if len(r.Matches) != 5 {
		t.Fatalf("expected 5 matches, got %d", len(r.Matches))
	}
	gotCats := []string{r.Matches[0].Category, r.Matches[1].Category, r.Matches[2].Category}
	if !reflect.DeepEqual(gotCats, []string{"A", "A", "B"}) {
		t.Errorf("expected top categories [A A B], got %v", gotCats)
	}
	if r.Matches[2].MatchScore != 0.70 {
		t.Errorf("expected the 0.70 entry at position 2, got %v", r.Matches[2].MatchScore)
	}
	if r.Matches[3].CommunityID != "c3" {
		t.Errorf("expected displaced c3 at position 3, got %s", r.Matches[3].CommunityID)
	}
	if r.TaskID != "t1" || r.UserID != "u1" {
		t.Errorf("unexpected ids %q %q", r.TaskID, r.UserID)
	}
	if f.ranker.k != domain.MaxRanked {
		t.Errorf("expected top_k %d, got %d", domain.MaxRanked, f.ranker.k)
	}
	if len(f.ranker.ids) != 6 {
		t.Errorf("expected ranking restricted to 6 candidate ids, got %v", f.ranker.ids)
	}
}

func TestRun_EmptyMerge(t *testing.T) {
	f := newFixture()
	f.pool.byLocation = []domain.Community{community("c1", "A")}
	f.ranker.hits = []domain.VectorMatch{{CommunityID: "zz", Score: 0.9}}

	p := f.service().Run(context.Background(), "t1", testProfile())

	if !p.Failed() {
		t.Fatalf("expected failure, got %+v", p.Result)
	}
	if p.Failure.Status != "failed" || p.Failure.Error != "No matching communities after merge" {
		t.Errorf("unexpected failure %+v", p.Failure)
	}
	if len(f.publisher.payloads) != 0 {
		t.Error("expected no publish on failure")
	}
}

func TestRun_TierBoundary(t *testing.T) {
	f := newFixture()
	f.pool.byLocation = []domain.Community{community("c1", "A"), community("c2", "B")}
	f.ranker.hits = []domain.VectorMatch{{CommunityID: "c1", Score: 0.55}, {CommunityID: "c2", Score: 0.40}}

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Failed() || p.Result.Tier != domain.TierExplorer {
		t.Fatalf("expected explorer tier, got %+v", p)
	}
}

func TestRun_EmbeddingError(t *testing.T) {
	f := newFixture()
	f.embedder.err = domain.ErrEmbeddingProviderError

	p := f.service().Run(context.Background(), "task-42", testProfile())

	if !p.Failed() {
		t.Fatalf("expected failure, got %+v", p.Result)
	}
	if p.Failure.TaskID != "task-42" || p.Failure.Error == "" {
		t.Errorf("unexpected failure %+v", p.Failure)
	}
	if p.Result != nil {
		t.Error("expected no partial result")
	}
	if f.cache.puts != 0 || len(f.publisher.payloads) != 0 {
		t.Error("expected no side effects after embedding failure")
	}
}

func TestRun_FilterError(t *testing.T) {
	f := newFixture()
	f.pool.filterErr = errors.New("timeout")

	p := f.service().Run(context.Background(), "t1", testProfile())

	if !p.Failed() {
		t.Fatal("expected failure")
	}
	if f.pool.popularCalls != 0 {
		t.Error("a store error must not trigger the popular fallback")
	}
}

func TestRun_RankerError(t *testing.T) {
	f := newFixture()
	f.pool.byLocation = []domain.Community{community("c1", "A")}
	f.ranker.err = errors.New("index missing")

	p := f.service().Run(context.Background(), "t1", testProfile())

	if !p.Failed() {
		t.Fatal("expected failure")
	}
}

func TestRun_RankerPanicBecomesFailure(t *testing.T) {
	f := newFixture()
	f.pool.byLocation = []domain.Community{community("c1", "A")}
	f.ranker.panic = true

	p := f.service().Run(context.Background(), "t1", testProfile())

	if !p.Failed() || p.Failure.TaskID != "t1" || p.Failure.Error == "" {
		t.Fatalf("expected failure payload, got %+v", p)
	}
}

func TestRun_BestEffortFailuresDoNotAbort(t *testing.T) {
	f := newFixture()
	f.cache.panic = true
	f.publisher.err = errors.New("redis down")
	f.pool.byLocation, f.ranker.hits = sixCandidates()

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Failed() {
		t.Fatalf("unexpected failure: %+v", p.Failure)
	}
	if f.cache.puts != 1 || len(f.publisher.payloads) != 1 {
		t.Errorf("expected both side effects attempted, got puts=%d publishes=%d", f.cache.puts, len(f.publisher.payloads))
	}
}

func TestRun_RankerOverflowCapped(t *testing.T) {
	f := newFixture()
	var hits []domain.VectorMatch
	for i := range 15 {
		id := string(rune('a' + i))
		f.pool.byLocation = append(f.pool.byLocation, community(id, id))
		hits = append(hits, domain.VectorMatch{CommunityID: id, Score: 0.9 - float64(i)*0.01})
	}
	f.ranker.hits = hits

	p := f.service().Run(context.Background(), "t1", testProfile())

	if p.Failed() || len(p.Result.Matches) != domain.MaxMatches {
		t.Fatalf("expected %d matches, got %+v", domain.MaxMatches, p)
	}
}

func TestRun_EmbeddingText(t *testing.T) {
	f := newFixture()
	f.enricher.result = domain.EnrichedProfile{SanitizedBio: "clean bio", EnrichedTags: []string{"go", "rust"}}

	f.service().Run(context.Background(), "t1", testProfile())

	if f.embedder.lastText != "Bio: clean bio\nInterests: go, rust" {
		t.Errorf("unexpected embedding text %q", f.embedder.lastText)
	}
}

func TestRun_Deterministic(t *testing.T) {
	f := newFixture()
	f.pool.byLocation, f.ranker.hits = sixCandidates()
	svc := f.service()

	first := svc.Run(context.Background(), "t1", testProfile())
	second := svc.Run(context.Background(), "t1", testProfile())

	if first.Result.Tier != second.Result.Tier {
		t.Errorf("tier differs: %q vs %q", first.Result.Tier, second.Result.Tier)
	}
	if !reflect.DeepEqual(first.Result.Matches, second.Result.Matches) {
		t.Error("matches differ between runs")
	}
}

func TestRun_ProcessingTime(t *testing.T) {
	f := newFixture()
	f.pool.byLocation, f.ranker.hits = sixCandidates()
	svc := f.service()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(250 * time.Millisecond)
	}

	p := svc.Run(context.Background(), "t1", testProfile())

	if p.Result.ProcessingTimeMS != 250 {
		t.Errorf("expected 250ms, got %d", p.Result.ProcessingTimeMS)
	}
}
