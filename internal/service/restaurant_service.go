// Package service owns the unit-of-work boundary: every write groups its
// mapper calls in one transaction through Session.WithinTx and commits or
// rolls back as a whole. Reads pass through without a transaction.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/mapper"
	"github.com/guideresto/guideresto/internal/model"
)

// ErrEmptySearch is returned when a search is attempted with a blank term.
var ErrEmptySearch = errors.New("search term must not be empty")

// RestaurantService exposes the restaurant use cases to the presentation
// layer and owns their transaction boundaries.
type RestaurantService struct {
	session *database.Session
	guide   *mapper.Guide
	mappers *mapper.Mappers
	log     zerolog.Logger
}

// NewRestaurantService wires the service onto an existing session and
// mapper set.
func NewRestaurantService(session *database.Session, guide *mapper.Guide, mappers *mapper.Mappers, log zerolog.Logger) *RestaurantService {
	return &RestaurantService{
		session: session,
		guide:   guide,
		mappers: mappers,
		log:     log.With().Str("service", "restaurant").Logger(),
	}
}

// AllRestaurants returns every restaurant with its evaluations eagerly
// loaded.
func (s *RestaurantService) AllRestaurants(ctx context.Context) ([]*model.Restaurant, error) {
	return s.guide.AllRestaurantsWithEvaluations(ctx)
}

// RestaurantWithEvaluations loads one restaurant with its full evaluation
// set.
func (s *RestaurantService) RestaurantWithEvaluations(ctx context.Context, id int) (*model.Restaurant, error) {
	return s.guide.RestaurantWithEvaluations(ctx, id)
}

// SearchByName finds restaurants by name substring, case-insensitive.
func (s *RestaurantService) SearchByName(ctx context.Context, name string) ([]*model.Restaurant, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptySearch
	}
	return s.guide.SearchByName(ctx, name)
}

// SearchByCity finds restaurants whose city name contains the given
// substring, case-insensitive.
func (s *RestaurantService) SearchByCity(ctx context.Context, cityName string) ([]*model.Restaurant, error) {
	if strings.TrimSpace(cityName) == "" {
		return nil, ErrEmptySearch
	}
	return s.guide.SearchByCity(ctx, cityName)
}

// SearchByType finds restaurants of an exact type.
func (s *RestaurantService) SearchByType(ctx context.Context, t *model.RestaurantType) ([]*model.Restaurant, error) {
	if t == nil {
		return nil, mapper.ErrNilEntity
	}
	return s.guide.SearchByType(ctx, t)
}

// Create persists a new restaurant in its own transaction.
func (s *RestaurantService) Create(ctx context.Context, r *model.Restaurant) error {
	if r == nil {
		return mapper.ErrNilEntity
	}
	s.log.Info().Str("name", r.Name).Msg("creating restaurant")
	return s.session.WithinTx(ctx, func(ctx context.Context) error {
		return s.mappers.Restaurants.Create(ctx, r)
	})
}

// Update persists changes to an existing restaurant in its own transaction.
func (s *RestaurantService) Update(ctx context.Context, r *model.Restaurant) error {
	if r == nil {
		return mapper.ErrNilEntity
	}
	if r.ID == 0 {
		return mapper.ErrNoID
	}
	s.log.Info().Int("id", r.ID).Msg("updating restaurant")
	return s.session.WithinTx(ctx, func(ctx context.Context) error {
		return s.mappers.Restaurants.Update(ctx, r)
	})
}

// Delete removes a restaurant together with all its evaluations and grades
// as one unit of work: either the whole cascade commits or none of it does.
func (s *RestaurantService) Delete(ctx context.Context, r *model.Restaurant) error {
	if r == nil {
		return mapper.ErrNilEntity
	}
	if r.ID == 0 {
		return mapper.ErrNoID
	}
	s.log.Info().Int("id", r.ID).Str("name", r.Name).Msg("deleting restaurant")
	return s.session.WithinTx(ctx, func(ctx context.Context) error {
		return s.guide.DeleteRestaurantCompletely(ctx, r)
	})
}

// Cities lists all cities for pickers.
func (s *RestaurantService) Cities(ctx context.Context) ([]*model.City, error) {
	return s.guide.AllCities(ctx)
}

// CreateCity persists a new city in its own transaction.
func (s *RestaurantService) CreateCity(ctx context.Context, c *model.City) error {
	if c == nil {
		return mapper.ErrNilEntity
	}
	return s.session.WithinTx(ctx, func(ctx context.Context) error {
		return s.mappers.Cities.Create(ctx, c)
	})
}

// Types lists all restaurant types for pickers.
func (s *RestaurantService) Types(ctx context.Context) ([]*model.RestaurantType, error) {
	return s.guide.AllTypes(ctx)
}
