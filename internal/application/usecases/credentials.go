package usecases

import (
	"context"
	"fmt"

	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/profile"
	"github.com/example/court-scheduler/internal/infrastructure/postgres"
)

type CredentialStore interface {
	Put(ctx context.Context, name, sealed string) error
	Get(ctx context.Context, name string) (postgres.SealedRecord, error)
	Delete(ctx context.Context, name string) error
}

type Sealer interface {
	Seal(name string, v any) (string, error)
	Open(name, sealed string, dst any) error
}

// CredentialsService keeps portal credentials sealed at rest, one record per profile.
type CredentialsService struct {
	Store  CredentialStore
	Sealer Sealer
}

type sealedCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s CredentialsService) Get(ctx context.Context, name string) (profile.Profile, error) {
	if err := profile.ValidateName(name); err != nil {
		return profile.Profile{}, err
	}
	rec, err := s.Store.Get(ctx, name)
	if err != nil {
		return profile.Profile{}, err
	}
	var c sealedCredentials
	if err := s.Sealer.Open(name, rec.Sealed, &c); err != nil {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", name, err)
	}
	return profile.Profile{
		Name:        name,
		Credentials: portal.Credentials{Username: c.Username, Password: c.Password},
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func (s CredentialsService) Put(ctx context.Context, name string, creds portal.Credentials) error {
	if err := profile.ValidateName(name); err != nil {
		return err
	}
	if creds.Empty() {
		return ErrMissingCredentials
	}
	sealed, err := s.Sealer.Seal(name, sealedCredentials{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return err
	}
	return s.Store.Put(ctx, name, sealed)
}

func (s CredentialsService) Delete(ctx context.Context, name string) error {
	if err := profile.ValidateName(name); err != nil {
		return err
	}
	return s.Store.Delete(ctx, name)
}
