package barbers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/ttlcache"
	"github.com/md-rashed-zaman/barberbook/services/barber-service/internal/model"
)

const RequiredFieldsMessage = "Please fill out required fields"

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Store interface {
	List(ctx context.Context) ([]model.Barber, error)
	Get(ctx context.Context, id string) (model.Barber, error)
	Create(ctx context.Context, b *model.Barber) error
	Update(ctx context.Context, b *model.Barber) error
	Delete(ctx context.Context, id string) error
	SeedIfEmpty(ctx context.Context, seed []model.Barber) ([]model.Barber, error)
}

// Input is the editable part of a barber. A nil Availability keeps the
// current template on update and uses the default one on create.
type Input struct {
	Name         string              `json:"name"`
	Specialty    string              `json:"specialty"`
	Bio          string              `json:"bio"`
	Phone        string              `json:"phone"`
	Email        string              `json:"email"`
	Image        string              `json:"image"`
	Availability *model.Availability `json:"availability"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Specialty) == "" {
		return &ValidationError{Message: RequiredFieldsMessage}
	}
	return nil
}

type Service struct {
	store       Store
	cache       *ttlcache.Cache[[]model.Barber]
	logger      *slog.Logger
	seedOnEmpty bool
}

func NewService(store Store, cache *ttlcache.Cache[[]model.Barber], logger *slog.Logger, seedOnEmpty bool) *Service {
	return &Service{store: store, cache: cache, logger: logger, seedOnEmpty: seedOnEmpty}
}

func listKey() string {
	return ttlcache.Key("barbers", "")
}

// List serves the public barber list from the cache when fresh. An empty
// table is seeded with the default barbers.
func (s *Service) List(ctx context.Context) ([]model.Barber, error) {
	if cached, ok := s.cache.Get(ctx, listKey()); ok {
		return cached, nil
	}

	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 && s.seedOnEmpty {
		list, err = s.store.SeedIfEmpty(ctx, model.Defaults())
		if err != nil {
			return nil, err
		}
		s.logger.Info("seeded default barbers", "count", len(list))
	}
	if list == nil {
		list = []model.Barber{}
	}
	if err := s.cache.Set(ctx, listKey(), list); err != nil {
		s.logger.Warn("barber cache write failed", "err", err)
	}
	return list, nil
}

// AdminList always reads the table.
func (s *Service) AdminList(ctx context.Context) ([]model.Barber, error) {
	list, err := s.store.List(ctx)
	if list == nil && err == nil {
		list = []model.Barber{}
	}
	return list, err
}

func (s *Service) Get(ctx context.Context, id string) (model.Barber, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (model.Barber, error) {
	if err := in.validate(); err != nil {
		return model.Barber{}, err
	}
	b := model.Barber{Availability: model.DefaultAvailability()}
	apply(&b, in)
	if err := s.store.Create(ctx, &b); err != nil {
		return model.Barber{}, err
	}
	s.invalidate(ctx)
	return b, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (model.Barber, error) {
	if err := in.validate(); err != nil {
		return model.Barber{}, err
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Barber{}, err
	}
	apply(&b, in)
	if err := s.store.Update(ctx, &b); err != nil {
		return model.Barber{}, err
	}
	s.invalidate(ctx)
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Clear(ctx, listKey()); err != nil {
		s.logger.Warn("barber cache clear failed", "err", err)
	}
}

func apply(b *model.Barber, in Input) {
	b.Name = strings.TrimSpace(in.Name)
	b.Specialty = strings.TrimSpace(in.Specialty)
	b.Bio = in.Bio
	b.Phone = strings.TrimSpace(in.Phone)
	b.Email = strings.TrimSpace(in.Email)
	b.Image = in.Image
	if b.Image == "" {
		b.Image = model.DefaultImage
	}
	if in.Availability != nil {
		b.Availability = *in.Availability
	}
}
