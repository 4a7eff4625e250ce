package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/coaching-platform/internal/cache"
	"alcyxob/coaching-platform/internal/config"
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"alcyxob/coaching-platform/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDefaultsService(t *testing.T, verifier CredentialVerifier, c DefaultsCache) (DefaultsService, repository.DefaultsRepository) {
	t.Helper()
	repo := testutil.SetupTestDB(t).Defaults()
	return NewDefaultsService(repo, verifier, c, zap.NewNop()), repo
}

func TestDefaultsSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDefaultsService(t, staticVerifier{password: "admin"}, nil)

	blob := json.RawMessage(`{ "tools": [ "timer", "metronome" ], "nested": {"a": null} }`)
	require.NoError(t, svc.Save(ctx, domain.DefaultsTools, "en-GB", blob, "admin"))

	got, err := svc.Load(ctx, domain.DefaultsTools, "en-GB")
	require.NoError(t, err)
	assert.JSONEq(t, string(blob), string(got.Data))
	assert.Equal(t, `{"tools":["timer","metronome"],"nested":{"a":null}}`, string(got.Data))
	assert.Equal(t, "en-GB", got.Language)
}

func TestDefaultsLoadNeverSeeded(t *testing.T) {
	svc, _ := newDefaultsService(t, staticVerifier{password: "admin"}, nil)

	_, err := svc.Load(context.Background(), domain.DefaultsColors, "xx")
	assert.ErrorIs(t, err, ErrDefaultsNotFound)

	_, err = svc.Load(context.Background(), domain.DefaultsColors, "")
	assert.ErrorIs(t, err, ErrLanguageRequired)
}

func TestDefaultsSaveVerifiesBeforeWrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		verifier CredentialVerifier
		password string
		wantErr  error
	}{
		{name: "wrong password", verifier: staticVerifier{password: "admin"}, password: "guess", wantErr: ErrInvalidCredential},
		{name: "verifier failure", verifier: staticVerifier{err: ErrCredentialCheckFailed}, password: "admin", wantErr: ErrCredentialCheckFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newDefaultsService(t, tt.verifier, nil)

			err := svc.Save(ctx, domain.DefaultsColors, "en", json.RawMessage(`{"a":1}`), tt.password)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = repo.Get(ctx, domain.DefaultsColors, "en")
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestDefaultsSaveRejectsInvalidJSON(t *testing.T) {
	svc, _ := newDefaultsService(t, staticVerifier{password: "admin"}, nil)

	err := svc.Save(context.Background(), domain.DefaultsColors, "en", json.RawMessage(`{"a":`), "admin")
	assert.ErrorIs(t, err, ErrInvalidDefaultsData)
	err = svc.Save(context.Background(), domain.DefaultsColors, "en", nil, "admin")
	assert.ErrorIs(t, err, ErrInvalidDefaultsData)
	err = svc.Save(context.Background(), domain.DefaultsColors, "", json.RawMessage(`{}`), "admin")
	assert.ErrorIs(t, err, ErrLanguageRequired)
}

func TestDefaultsCacheIsInvalidatedOnSave(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewDefaultsCache(config.CacheConfig{Type: config.CacheMemory, TTL: time.Minute})
	require.NoError(t, err)
	svc, _ := newDefaultsService(t, staticVerifier{password: "admin"}, c)

	require.NoError(t, svc.Save(ctx, domain.DefaultsFavourites, "de", json.RawMessage(`["a"]`), "admin"))
	got, err := svc.Load(ctx, domain.DefaultsFavourites, "de")
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, string(got.Data))

	cached, err := c.Get(ctx, domain.DefaultsFavourites, "de")
	require.NoError(t, err, "load populates the cache")
	assert.JSONEq(t, `["a"]`, string(cached.Data))

	require.NoError(t, svc.Save(ctx, domain.DefaultsFavourites, "de", json.RawMessage(`["b"]`), "admin"))
	got, err = svc.Load(ctx, domain.DefaultsFavourites, "de")
	require.NoError(t, err)
	assert.JSONEq(t, `["b"]`, string(got.Data))
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, domain.DefaultsKind, string) (*domain.Defaults, error) {
	return nil, errors.New("cache down")
}
func (brokenCache) Set(context.Context, *domain.Defaults) error { return errors.New("cache down") }
func (brokenCache) Invalidate(context.Context, domain.DefaultsKind, string) error {
	return errors.New("cache down")
}

func TestDefaultsCacheFailuresFallBackToStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDefaultsService(t, staticVerifier{password: "admin"}, brokenCache{})

	require.NoError(t, svc.Save(ctx, domain.DefaultsColors, "en", json.RawMessage(`{"x":true}`), "admin"))
	got, err := svc.Load(ctx, domain.DefaultsColors, "en")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":true}`, string(got.Data))
}

// gatedRepo parks the first Get after it has read from the store until
// release is closed.
type gatedRepo struct {
	repository.DefaultsRepository
	calls   atomic.Int32
	paused  chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Get(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error) {
	d, err := g.DefaultsRepository.Get(ctx, kind, language)
	if g.calls.Add(1) == 1 {
		close(g.paused)
		<-g.release
	}
	return d, err
}

func TestDefaultsLoadRacingSaveDoesNotCacheStaleBlob(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewDefaultsCache(config.CacheConfig{Type: config.CacheMemory, TTL: time.Minute})
	require.NoError(t, err)

	store := testutil.SetupTestDB(t).Defaults()
	require.NoError(t, store.Upsert(ctx, &domain.Defaults{Kind: domain.DefaultsColors, Language: "en", Data: json.RawMessage(`"old"`)}))

	repo := &gatedRepo{DefaultsRepository: store, paused: make(chan struct{}), release: make(chan struct{})}
	svc := NewDefaultsService(repo, staticVerifier{password: "admin"}, c, zap.NewNop())

	loaded := make(chan error, 1)
	go func() {
		_, err := svc.Load(ctx, domain.DefaultsColors, "en")
		loaded <- err
	}()

	<-repo.paused
	require.NoError(t, svc.Save(ctx, domain.DefaultsColors, "en", json.RawMessage(`"new"`), "admin"))
	close(repo.release)
	require.NoError(t, <-loaded)

	got, err := svc.Load(ctx, domain.DefaultsColors, "en")
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(got.Data))
}
