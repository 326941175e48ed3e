package persons

import (
	"context"
	"iter"
	"slices"

	"github.com/cwkr/personsd/internal/background"
)

// Service composes store operations for the HTTP handlers. Writes are
// fire-and-forget: they are detached onto the runner and their outcome is only
// logged.
type Service struct {
	store  Store
	runner *background.Runner
}

func NewService(store Store, runner *background.Runner) *Service {
	return &Service{store: store, runner: runner}
}

func (s *Service) FindAll(ctx context.Context) iter.Seq2[Person, error] {
	return s.store.FindAll(ctx)
}

func (s *Service) FindByFirstName(ctx context.Context, firstName string) iter.Seq2[Person, error] {
	return s.store.FindByField(ctx, FieldFirstName, firstName)
}

func (s *Service) SaveAll(persons []Person) {
	persons = slices.Clone(persons)
	s.runner.Go("saveAll", func(ctx context.Context) error {
		_, err := s.store.SaveAll(ctx, slices.Values(persons))
		return err
	})
}

func (s *Service) DeleteAll() {
	s.runner.Go("deleteAll", s.store.DeleteAll)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Wait drains detached writes.
func (s *Service) Wait(ctx context.Context) error {
	return s.runner.Wait(ctx)
}
