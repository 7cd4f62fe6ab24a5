package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"peertutor/internal/cache"
	"peertutor/internal/featureflags"
	"peertutor/internal/models"
	"peertutor/internal/observability"
	"peertutor/internal/search"
	"peertutor/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type SearchService struct {
	store      *store.Store
	flags      *featureflags.Manager
	kv         cache.KV
	handoffTTL time.Duration
}

// SearchResult pairs the parsed query with the tutors it matched.
type SearchResult struct {
	Query  models.SearchQuery    `json:"query"`
	Tutors []models.TutorProfile `json:"tutors"`
}

// Handoff is a parsed query stored under a token so another page can
// resume the search.
type Handoff struct {
	Token     string             `json:"token"`
	Query     models.SearchQuery `json:"query"`
	ExpiresAt time.Time          `json:"expires_at"`
}

func NewSearchService(s *store.Store, flags *featureflags.Manager, kv cache.KV, handoffTTL time.Duration) *SearchService {
	return &SearchService{store: s, flags: flags, kv: kv, handoffTTL: handoffTTL}
}

func (s *SearchService) Parse(text string) models.SearchQuery {
	return search.Parse(text, s.store.GetAllSubjects())
}

// Search parses text and filters tutors. userID selects the feature flag
// rollout bucket and may be empty.
func (s *SearchService) Search(ctx context.Context, text, userID string) SearchResult {
	span, _ := observability.NewSpan(ctx, "search.tutors", attribute.Int("query.length", len(text)))
	defer span.End()

	q := s.Parse(text)
	return s.run(q, userID, span)
}

func (s *SearchService) run(q models.SearchQuery, userID string, span *observability.Span) SearchResult {
	opts := search.Options{FilterMode: s.flags.Enabled(featureflags.SearchModeFilter, userID)}
	tutors := s.store.SearchTutors(q, opts)

	label := observability.SearchFieldsLabel(q.Subject != "", q.Level != "", q.Mode != "",
		q.Availability.Day != "", q.Availability.Time != "")
	observability.SearchQueriesTotal.WithLabelValues(label).Inc()
	observability.SearchResults.Observe(float64(len(tutors)))
	span.AddAttributes(attribute.String("query.fields", label), attribute.Int("results", len(tutors)))

	return SearchResult{Query: q, Tutors: tutors}
}

func (s *SearchService) CreateHandoff(ctx context.Context, text string) (Handoff, error) {
	q := s.Parse(text)
	raw, err := json.Marshal(q)
	if err != nil {
		return Handoff{}, models.NewInternalError(err)
	}

	token := uuid.NewString()
	if err := s.kv.Set(ctx, cache.HandoffKey(token), string(raw), s.handoffTTL); err != nil {
		return Handoff{}, models.NewInternalError(fmt.Errorf("store handoff: %w", err))
	}
	return Handoff{Token: token, Query: q, ExpiresAt: time.Now().Add(s.handoffTTL)}, nil
}

// ResolveHandoff loads a stored query and runs it against current data.
func (s *SearchService) ResolveHandoff(ctx context.Context, token, userID string) (SearchResult, error) {
	raw, err := s.kv.Get(ctx, cache.HandoffKey(token))
	if errors.Is(err, cache.ErrMiss) {
		return SearchResult{}, models.NewNotFoundError("Search handoff", token)
	}
	if err != nil {
		return SearchResult{}, models.NewInternalError(err)
	}

	var q models.SearchQuery
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return SearchResult{}, models.NewInternalError(fmt.Errorf("decode handoff: %w", err))
	}

	span, _ := observability.NewSpan(ctx, "search.handoff")
	defer span.End()
	return s.run(q, userID, span), nil
}

func (s *SearchService) TimePeriods() []search.TimePeriod {
	return search.TimePeriods()
}
