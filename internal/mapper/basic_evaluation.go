package mapper

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/model"
)

const (
	basicEvalFindByID   = "SELECT id, liked, visit_date, ip_address, restaurant_id FROM basic_evaluations WHERE id = ?"
	basicEvalFindAll    = "SELECT id, liked, visit_date, ip_address, restaurant_id FROM basic_evaluations ORDER BY visit_date DESC"
	basicEvalFindByRest = "SELECT id, liked, visit_date, ip_address, restaurant_id FROM basic_evaluations WHERE restaurant_id = ? ORDER BY visit_date DESC"
	basicEvalInsert     = "INSERT INTO basic_evaluations (liked, visit_date, ip_address, restaurant_id) VALUES (?, ?, ?, ?)"
	basicEvalUpdate     = "UPDATE basic_evaluations SET liked = ?, visit_date = ?, ip_address = ?, restaurant_id = ? WHERE id = ?"
	basicEvalDelete     = "DELETE FROM basic_evaluations WHERE id = ?"
	basicEvalExists     = "SELECT 1 FROM basic_evaluations WHERE id = ?"
	basicEvalCount      = "SELECT COUNT(*) FROM basic_evaluations"
)

// The like flag is stored as a single-character discriminator.
const (
	likedTrue  = "T"
	likedFalse = "F"
)

func likedFlag(liked bool) string {
	if liked {
		return likedTrue
	}
	return likedFalse
}

type basicEvalRow struct {
	id           int
	liked        string
	visitedAt    time.Time
	ip           string
	restaurantID int
}

// BasicEvaluationMapper persists the anonymous like/dislike votes. The
// owning restaurant is resolved through the restaurant mapper on read.
type BasicEvaluationMapper struct {
	base[*model.BasicEvaluation]
	restaurants *RestaurantMapper
}

// NewBasicEvaluationMapper composes the restaurant mapper for foreign-key
// resolution.
func NewBasicEvaluationMapper(session *database.Session, log zerolog.Logger, restaurants *RestaurantMapper) *BasicEvaluationMapper {
	m := &BasicEvaluationMapper{
		base:        newBase[*model.BasicEvaluation]("BasicEvaluation", session, log),
		restaurants: restaurants,
	}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = basicEvalExists
	m.countQuery = basicEvalCount
	return m
}

func (m *BasicEvaluationMapper) findByIDFromDB(ctx context.Context, id int) (*model.BasicEvaluation, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND BasicEvaluation", err)
	}
	var er basicEvalRow
	err = ex.QueryRowContext(ctx, basicEvalFindByID, id).
		Scan(&er.id, &er.liked, &er.visitedAt, &er.ip, &er.restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("BasicEvaluation", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND BasicEvaluation", err)
	}
	return m.fromRow(ctx, er)
}

func (m *BasicEvaluationMapper) fromRow(ctx context.Context, er basicEvalRow) (*model.BasicEvaluation, error) {
	restaurant, err := m.restaurants.FindByID(ctx, er.restaurantID)
	if err != nil {
		return nil, err
	}
	return &model.BasicEvaluation{
		EvaluationBase: model.EvaluationBase{ID: er.id, VisitedAt: er.visitedAt, Restaurant: restaurant},
		Liked:          er.liked == likedTrue,
		IPAddress:      er.ip,
	}, nil
}

func (m *BasicEvaluationMapper) queryEvaluations(ctx context.Context, op, query string, args ...any) ([]*model.BasicEvaluation, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, opError(op, err)
	}

	// Drain before resolving the restaurant: one connection, one query at a
	// time.
	var raw []basicEvalRow
	for rows.Next() {
		var er basicEvalRow
		if err := rows.Scan(&er.id, &er.liked, &er.visitedAt, &er.ip, &er.restaurantID); err != nil {
			rows.Close()
			return nil, opError(op, err)
		}
		raw = append(raw, er)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, opError(op, err)
	}
	rows.Close()

	evaluations := make([]*model.BasicEvaluation, 0, len(raw))
	for _, er := range raw {
		e, err := m.fromRow(ctx, er)
		if err != nil {
			return nil, err
		}
		m.store(e)
		evaluations = append(evaluations, e)
	}
	return evaluations, nil
}

// FindAll loads every basic evaluation, newest first, refreshing the
// identity map with each row.
func (m *BasicEvaluationMapper) FindAll(ctx context.Context) ([]*model.BasicEvaluation, error) {
	return m.queryEvaluations(ctx, "FIND ALL BasicEvaluations", basicEvalFindAll)
}

// FindByRestaurantID returns the votes cast for one restaurant, newest
// first.
func (m *BasicEvaluationMapper) FindByRestaurantID(ctx context.Context, restaurantID int) ([]*model.BasicEvaluation, error) {
	return m.queryEvaluations(ctx, "FIND BasicEvaluations by restaurant", basicEvalFindByRest, restaurantID)
}

// Create inserts the vote and assigns its generated identifier.
func (m *BasicEvaluationMapper) Create(ctx context.Context, e *model.BasicEvaluation) error {
	const op = "CREATE BasicEvaluation"
	if e == nil {
		return ErrNilEntity
	}
	if e.Restaurant == nil || e.Restaurant.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, op, basicEvalInsert,
		likedFlag(e.Liked), e.VisitedAt, e.IPAddress, e.Restaurant.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return opError(op, errNoRowsAffected)
	}
	id, err := m.generatedID(ctx)
	if err != nil {
		return err
	}
	e.ID = id
	m.store(e)
	m.log.Info().Int("id", id).Bool("liked", e.Liked).Msg("basic evaluation created")
	return nil
}

// Update rewrites the row by identifier and refreshes the cache entry.
func (m *BasicEvaluationMapper) Update(ctx context.Context, e *model.BasicEvaluation) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.ID == 0 {
		return ErrNoID
	}
	if e.Restaurant == nil || e.Restaurant.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, "UPDATE BasicEvaluation", basicEvalUpdate,
		likedFlag(e.Liked), e.VisitedAt, e.IPAddress, e.Restaurant.ID, e.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("BasicEvaluation", e.ID)
	}
	m.store(e)
	m.log.Info().Int("id", e.ID).Msg("basic evaluation updated")
	return nil
}

// Delete removes the entity's row and evicts it from the identity map.
func (m *BasicEvaluationMapper) Delete(ctx context.Context, e *model.BasicEvaluation) error {
	if e == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, e.ID)
}

// DeleteByID removes the row with the given identifier and evicts it from
// the identity map on success.
func (m *BasicEvaluationMapper) DeleteByID(ctx context.Context, id int) error {
	n, err := m.exec(ctx, "DELETE BasicEvaluation", basicEvalDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("BasicEvaluation", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("basic evaluation deleted")
	return nil
}
