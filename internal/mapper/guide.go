package mapper

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/model"
)

// Guide composes the entity mappers for operations spanning several tables
// that no single mapper should own: eager-loading a restaurant's full
// evaluation set, searching with that eager load applied, and tearing a
// restaurant down without tripping foreign keys.
type Guide struct {
	m   *Mappers
	log zerolog.Logger
}

// NewGuide wraps an existing mapper set.
func NewGuide(m *Mappers, log zerolog.Logger) *Guide {
	return &Guide{m: m, log: log.With().Str("component", "guide").Logger()}
}

// RestaurantWithEvaluations loads one restaurant and eagerly attaches its
// full evaluation set. The two evaluation kinds live in different tables;
// the union happens here, not in the restaurant mapper.
func (g *Guide) RestaurantWithEvaluations(ctx context.Context, id int) (*model.Restaurant, error) {
	r, err := g.m.Restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.loadEvaluations(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// AllRestaurantsWithEvaluations loads every restaurant with its evaluation
// set attached.
func (g *Guide) AllRestaurantsWithEvaluations(ctx context.Context) ([]*model.Restaurant, error) {
	restaurants, err := g.m.Restaurants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.loadEvaluationsForAll(ctx, restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// SearchByName returns restaurants whose name contains the given substring,
// case-insensitive, each with its evaluation set attached.
func (g *Guide) SearchByName(ctx context.Context, name string) ([]*model.Restaurant, error) {
	restaurants, err := g.m.Restaurants.FindByNameContains(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := g.loadEvaluationsForAll(ctx, restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// SearchByCity returns restaurants whose city name contains the given
// substring, case-insensitive. The filter runs client-side over a full
// load: one broad query plus mapper reuse, traded against a pushed-down
// join.
func (g *Guide) SearchByCity(ctx context.Context, cityName string) ([]*model.Restaurant, error) {
	restaurants, err := g.m.Restaurants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToUpper(cityName)
	var matched []*model.Restaurant
	for _, r := range restaurants {
		if strings.Contains(strings.ToUpper(r.City.Name), needle) {
			if err := g.loadEvaluations(ctx, r); err != nil {
				return nil, err
			}
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// SearchByType returns restaurants of an exact type, each with its
// evaluation set attached.
func (g *Guide) SearchByType(ctx context.Context, t *model.RestaurantType) ([]*model.Restaurant, error) {
	restaurants, err := g.m.Restaurants.FindByType(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := g.loadEvaluationsForAll(ctx, restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (g *Guide) loadEvaluationsForAll(ctx context.Context, restaurants []*model.Restaurant) error {
	for _, r := range restaurants {
		if err := g.loadEvaluations(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// loadEvaluations unions both evaluation kinds into the restaurant's
// collection, replacing whatever was attached before.
func (g *Guide) loadEvaluations(ctx context.Context, r *model.Restaurant) error {
	basics, err := g.m.Basic.FindByRestaurantID(ctx, r.ID)
	if err != nil {
		return err
	}
	completes, err := g.m.Complete.FindByRestaurantID(ctx, r.ID)
	if err != nil {
		return err
	}
	evaluations := make([]model.Evaluation, 0, len(basics)+len(completes))
	for _, e := range basics {
		evaluations = append(evaluations, e)
	}
	for _, e := range completes {
		evaluations = append(evaluations, e)
	}
	r.Evaluations = evaluations
	return nil
}

// DeleteRestaurantCompletely removes the restaurant and everything that
// references it, dependents first: complete evaluations (each cascading to
// its own grades), then basic evaluations, then the restaurant row. No
// intermediate step violates a foreign key. Partial progress on failure is
// rolled back by the caller's transaction, not here.
func (g *Guide) DeleteRestaurantCompletely(ctx context.Context, r *model.Restaurant) error {
	if r == nil {
		return ErrNilEntity
	}
	if r.ID == 0 {
		return ErrNoID
	}
	completes, err := g.m.Complete.FindByRestaurantID(ctx, r.ID)
	if err != nil {
		return err
	}
	for _, e := range completes {
		if err := g.m.Complete.Delete(ctx, e); err != nil {
			return err
		}
	}
	basics, err := g.m.Basic.FindByRestaurantID(ctx, r.ID)
	if err != nil {
		return err
	}
	for _, e := range basics {
		if err := g.m.Basic.Delete(ctx, e); err != nil {
			return err
		}
	}
	if err := g.m.Restaurants.Delete(ctx, r); err != nil {
		return err
	}
	g.log.Info().Int("id", r.ID).Str("name", r.Name).
		Int("complete_evaluations", len(completes)).Int("basic_evaluations", len(basics)).
		Msg("restaurant deleted completely")
	return nil
}

// AllCities lists the cities, ordered by name.
func (g *Guide) AllCities(ctx context.Context) ([]*model.City, error) {
	return g.m.Cities.FindAll(ctx)
}

// AllTypes lists the restaurant types, ordered by label.
func (g *Guide) AllTypes(ctx context.Context) ([]*model.RestaurantType, error) {
	return g.m.Types.FindAll(ctx)
}

// AllCriteria lists the evaluation criteria, ordered by name.
func (g *Guide) AllCriteria(ctx context.Context) ([]*model.EvaluationCriteria, error) {
	return g.m.Criteria.FindAll(ctx)
}
