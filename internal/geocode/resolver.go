// Package geocode resolves free-form location strings to coordinates through
// three tiers: a persistent cache, a local gazetteer, and the remote
// geocoding API as last resort.
package geocode

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/observability"
	"github.com/wallcal/walldash/internal/store"
)

// Localizer answers place queries from a local table without network access.
type Localizer interface {
	Lookup(raw string) (domain.GeoResult, bool)
}

// Searcher runs one remote geocoding query.
type Searcher interface {
	Search(ctx context.Context, name string, lang domain.Language, countryCode string) ([]domain.GeoResult, error)
}

// Resolver is the three-tier location resolver. Cheap tiers are consulted
// first; the remote tier is reached only when both cache and gazetteer miss.
type Resolver struct {
	store     *store.Store
	gazetteer Localizer
	client    Searcher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewResolver wires a Resolver from its collaborators.
func NewResolver(st *store.Store, gaz Localizer, client Searcher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		store:     st,
		gazetteer: gaz,
		client:    client,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve maps the session's raw location to coordinates.
//
// Tier order: cache, gazetteer, remote. A gazetteer or remote hit is written
// back to the cache under the session's original raw string, so the exact
// query the user typed hits the cache next time. A remote transport error
// aborts resolution; an empty remote result set moves on to the next
// candidate. Returns domain.ErrNoGeocodingResult when every tier misses.
func (r *Resolver) Resolve(ctx context.Context, session domain.Session) (domain.GeoResult, error) {
	key := domain.GeoCacheKey(session.Lang, session.RawLocation)

	var cached domain.GeoEnvelope
	if r.store.Get(key, &cached) && !cached.Expired(r.clock.Now()) && cached.HasFiniteCoords() {
		r.metrics.GeocodeLookups.WithLabelValues("cache", "hit").Inc()
		return cached.GeoResult, nil
	}
	r.metrics.GeocodeLookups.WithLabelValues("cache", "miss").Inc()

	if result, ok := r.gazetteer.Lookup(session.RawLocation); ok {
		r.metrics.GeocodeLookups.WithLabelValues("gazetteer", "hit").Inc()
		r.cache(key, result)
		return result, nil
	}
	r.metrics.GeocodeLookups.WithLabelValues("gazetteer", "miss").Inc()

	return r.resolveRemote(ctx, session, key)
}

// resolveRemote tries every candidate in two passes: first constrained to
// Taiwan, then unconstrained. The first result with finite coordinates wins.
func (r *Resolver) resolveRemote(ctx context.Context, session domain.Session, key string) (domain.GeoResult, error) {
	candidates := BuildCandidates(session.RawLocation, session.Lang)

	tried := 0
	for _, countryCode := range []string{"TW", ""} {
		for _, name := range candidates {
			tried++
			results, err := r.client.Search(ctx, name, session.Lang, countryCode)
			if err != nil {
				r.metrics.GeocodeLookups.WithLabelValues("remote", "miss").Inc()
				r.metrics.GeocodeCandidates.Observe(float64(tried))
				return domain.GeoResult{}, err
			}
			if len(results) == 0 || !results[0].HasFiniteCoords() {
				continue
			}

			result := results[0]
			result.MatchedName = name
			r.metrics.GeocodeLookups.WithLabelValues("remote", "hit").Inc()
			r.metrics.GeocodeCandidates.Observe(float64(tried))
			r.logger.Info("location resolved remotely",
				"query", session.RawLocation, "matched", name, "country_pass", countryCode)
			r.cache(key, result)
			return result, nil
		}
	}

	r.metrics.GeocodeLookups.WithLabelValues("remote", "miss").Inc()
	r.metrics.GeocodeCandidates.Observe(float64(tried))
	return domain.GeoResult{}, domain.ErrNoGeocodingResult
}

func (r *Resolver) cache(key string, result domain.GeoResult) {
	r.store.Set(key, domain.GeoEnvelope{
		GeoResult: result,
		SavedAtMs: r.clock.Now().UnixMilli(),
	})
}
