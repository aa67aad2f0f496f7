// Package services coordinates the goal store with event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"goals/internal/amqp"
	"goals/internal/core"
	"goals/internal/log"
	"goals/internal/store"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishGoalEvent(ctx context.Context, goalID string, kind amqp.EventKind) error
}

// GoalService saves through the repository first and then publishes an
// event. A publish failure is logged and never fails the call.
type GoalService struct {
	repo      store.Repository
	publisher EventPublisher
	logger    *log.Logger
	closers   []io.Closer
}

type Option func(*GoalService)

// WithPublisher enables events. A nil publisher leaves them disabled.
func WithPublisher(p EventPublisher) Option {
	return func(s *GoalService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *GoalService) { s.logger = l.WithComponent(log.ComponentGoal) }
}

// WithClosers registers resources released by Close, in order.
func WithClosers(c ...io.Closer) Option {
	return func(s *GoalService) { s.closers = append(s.closers, c...) }
}

func NewGoalService(repo store.Repository, opts ...Option) *GoalService {
	s := &GoalService{
		repo:   repo,
		logger: log.Default(log.ComponentGoal),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GoalService) Create(ctx context.Context, f core.GoalFields) (core.Goal, error) {
	g, err := s.repo.Create(ctx, f)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}

	fields := log.NewFields().
		WithOperation(log.OpCreate).
		WithGoal(g.ID, g.Name, g.TargetAmount.String(), g.Balance.String())
	s.logger.InfoContext(ctx, "Goal created", fields.ToSlice()...)

	s.publish(ctx, g.ID, amqp.GoalCreated)
	return g, nil
}

func (s *GoalService) Update(ctx context.Context, p core.GoalPatch) (core.Goal, error) {
	g, err := s.repo.Update(ctx, p)
	if err != nil {
		return core.Goal{}, err
	}

	fields := log.NewFields().
		WithOperation(log.OpUpdate).
		WithGoal(g.ID, g.Name, g.TargetAmount.String(), g.Balance.String())
	s.logger.InfoContext(ctx, "Goal updated", fields.ToSlice()...)

	s.publish(ctx, g.ID, amqp.GoalUpdated)
	return g, nil
}

func (s *GoalService) GetByID(ctx context.Context, id string) (core.Goal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *GoalService) List(ctx context.Context) ([]core.Goal, error) {
	return s.repo.List(ctx)
}

func (s *GoalService) GoalsMap(ctx context.Context) (map[string]core.Goal, error) {
	return s.repo.GoalsMap(ctx)
}

func (s *GoalService) GoalsList(ctx context.Context) ([]string, error) {
	return s.repo.GoalsList(ctx)
}

func (s *GoalService) publish(ctx context.Context, goalID string, kind amqp.EventKind) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Events disabled, skipping goal event",
			log.FieldGoalID, goalID, log.FieldEventKind, kind)
		return
	}
	if err := s.publisher.PublishGoalEvent(ctx, goalID, kind); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpPublish).
			WithGoal(goalID, "", "", "").
			WithError(err, log.ErrorTypeNetwork)
		fields[log.FieldEventKind] = kind
		s.logger.ErrorContext(ctx, "Failed to publish goal event", fields.ToSlice()...)
	}
}

// Close releases every registered resource and reports all failures.
func (s *GoalService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close goal service: %w", err)
	}
	return nil
}

var _ store.Repository = (*GoalService)(nil)
