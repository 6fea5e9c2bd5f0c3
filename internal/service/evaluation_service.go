package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/mapper"
	"github.com/guideresto/guideresto/internal/model"
)

// ErrUsernameRequired is returned when a complete evaluation is submitted
// without a username.
var ErrUsernameRequired = errors.New("username is required")

// EvaluationService records votes and reviews. All validation happens here,
// before anything reaches the database.
type EvaluationService struct {
	session *database.Session
	mappers *mapper.Mappers
	log     zerolog.Logger
}

// NewEvaluationService wires the service onto an existing session and
// mapper set.
func NewEvaluationService(session *database.Session, mappers *mapper.Mappers, log zerolog.Logger) *EvaluationService {
	return &EvaluationService{
		session: session,
		mappers: mappers,
		log:     log.With().Str("service", "evaluation").Logger(),
	}
}

// AddBasicEvaluation records a like or dislike vote for a restaurant, dated
// now. An empty IP address is stored as the unavailable marker.
func (s *EvaluationService) AddBasicEvaluation(ctx context.Context, r *model.Restaurant, liked bool, ipAddress string) (*model.BasicEvaluation, error) {
	if r == nil || r.ID == 0 {
		return nil, mapper.ErrUnsavedReference
	}
	if ipAddress == "" {
		ipAddress = model.IPUnavailable
	}
	s.log.Info().Int("restaurant_id", r.ID).Bool("liked", liked).Msg("recording vote")

	eval := &model.BasicEvaluation{
		EvaluationBase: model.EvaluationBase{VisitedAt: time.Now(), Restaurant: r},
		Liked:          liked,
		IPAddress:      ipAddress,
	}
	err := s.session.WithinTx(ctx, func(ctx context.Context) error {
		return s.mappers.Basic.Create(ctx, eval)
	})
	if err != nil {
		return nil, err
	}
	return eval, nil
}

// AddCompleteEvaluation records a signed review with one grade per supplied
// criterion, all in one transaction. Grade values outside the allowed range
// and blank usernames are rejected before any statement runs.
func (s *EvaluationService) AddCompleteEvaluation(ctx context.Context, r *model.Restaurant, username, comment string, grades map[*model.EvaluationCriteria]int) (*model.CompleteEvaluation, error) {
	if r == nil || r.ID == 0 {
		return nil, mapper.ErrUnsavedReference
	}
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	for criterion, value := range grades {
		if criterion == nil || criterion.ID == 0 {
			return nil, mapper.ErrUnsavedReference
		}
		if value < model.MinGrade || value > model.MaxGrade {
			return nil, fmt.Errorf("grade %d for %q out of range %d..%d",
				value, criterion.Name, model.MinGrade, model.MaxGrade)
		}
	}
	s.log.Info().Int("restaurant_id", r.ID).Str("username", username).
		Int("grades", len(grades)).Msg("recording evaluation")

	eval := &model.CompleteEvaluation{
		EvaluationBase: model.EvaluationBase{VisitedAt: time.Now(), Restaurant: r},
		Comment:        model.OptionalString(comment),
		Username:       username,
	}
	for criterion, value := range grades {
		eval.Grades = append(eval.Grades, &model.Grade{Value: value, Criteria: criterion})
	}
	err := s.session.WithinTx(ctx, func(ctx context.Context) error {
		return s.mappers.Complete.Create(ctx, eval)
	})
	if err != nil {
		return nil, err
	}
	return eval, nil
}

// Criteria lists the evaluation criteria, ordered by name.
func (s *EvaluationService) Criteria(ctx context.Context) ([]*model.EvaluationCriteria, error) {
	return s.mappers.Criteria.FindAll(ctx)
}
