package usecases

import (
	"context"
	"fmt"

	"github.com/example/court-scheduler/internal/domain/portal"
)

type LoginSession interface {
	Login(ctx context.Context, creds portal.Credentials) error
}

// CheckLogin signs in and stops, to verify credentials ahead of a release.
type CheckLogin struct {
	Session LoginSession
}

func (u CheckLogin) Execute(ctx context.Context, creds portal.Credentials) error {
	if u.Session == nil {
		return fmt.Errorf("session is nil")
	}
	if creds.Empty() {
		return ErrMissingCredentials
	}
	return u.Session.Login(ctx, creds)
}
