package service

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultsCache is the optional read-through cache in front of the store.
type DefaultsCache interface {
	Get(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error)
	Set(ctx context.Context, d *domain.Defaults) error
	Invalidate(ctx context.Context, kind domain.DefaultsKind, language string) error
}

type DefaultsService interface {
	Load(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error)
	// Save verifies the admin password before touching the store.
	Save(ctx context.Context, kind domain.DefaultsKind, language string, data json.RawMessage, password string) error
}

type defaultsService struct {
	repo     repository.DefaultsRepository
	verifier CredentialVerifier
	cache    DefaultsCache // nil when disabled
	logger   *zap.Logger
}

// NewDefaultsService creates the defaults service. cache may be nil.
func NewDefaultsService(repo repository.DefaultsRepository, verifier CredentialVerifier, cache DefaultsCache, logger *zap.Logger) DefaultsService {
	return &defaultsService{
		repo:     repo,
		verifier: verifier,
		cache:    cache,
		logger:   logger.Named("defaults"),
	}
}

func (s *defaultsService) Load(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error) {
	if language == "" {
		return nil, ErrLanguageRequired
	}

	if s.cache != nil {
		if d, err := s.cache.Get(ctx, kind, language); err == nil {
			return d, nil
		}
	}

	d, err := s.repo.Get(ctx, kind, language)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDefaultsNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		s.fillCache(ctx, d)
	}
	return d, nil
}

// fillCache stores d, then re-reads the row. A save that committed after our
// read invalidates before or after our Set; in the "before" case the re-read
// sees the newer row and the stale entry is dropped here.
func (s *defaultsService) fillCache(ctx context.Context, d *domain.Defaults) {
	fields := []zap.Field{zap.String("kind", string(d.Kind)), zap.String("language", d.Language)}
	if err := s.cache.Set(ctx, d); err != nil {
		s.logger.Warn("failed to cache defaults", append(fields, zap.Error(err))...)
		return
	}

	current, err := s.repo.Get(ctx, d.Kind, d.Language)
	if err == nil && bytes.Equal(current.Data, d.Data) && current.UpdatedAt.Equal(d.UpdatedAt) {
		return
	}
	if err := s.cache.Invalidate(ctx, d.Kind, d.Language); err != nil {
		s.logger.Warn("failed to drop stale cached defaults", append(fields, zap.Error(err))...)
	}
}

func (s *defaultsService) Save(ctx context.Context, kind domain.DefaultsKind, language string, data json.RawMessage, password string) error {
	if language == "" {
		return ErrLanguageRequired
	}
	if len(data) == 0 || !json.Valid(data) {
		return ErrInvalidDefaultsData
	}

	if err := s.verifier.Verify(ctx, password); err != nil {
		if !errors.Is(err, ErrInvalidCredential) {
			s.logger.Error("admin credential check failed", zap.Error(err))
		}
		return err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return ErrInvalidDefaultsData
	}

	d := &domain.Defaults{Kind: kind, Language: language, Data: compact.Bytes()}
	if err := s.repo.Upsert(ctx, d); err != nil {
		return fmt.Errorf("save defaults: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, kind, language); err != nil {
			s.logger.Warn("failed to invalidate cached defaults", zap.String("kind", string(kind)), zap.String("language", language), zap.Error(err))
		}
	}
	return nil
}
