package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/example/court-scheduler/internal/application/usecases"
	"github.com/example/court-scheduler/internal/infrastructure/chromedp"
	"github.com/example/court-scheduler/internal/infrastructure/config"
	"github.com/example/court-scheduler/internal/infrastructure/crypto"
	"github.com/example/court-scheduler/internal/infrastructure/logger"
	"github.com/example/court-scheduler/internal/infrastructure/postgres"
)

// now is replaced in tests.
var now = time.Now

type app struct {
	cfg config.Config
	log *zap.Logger
	loc *time.Location
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log.Named("scheduler"), loc: loc}, nil
}

func (a *app) close() { _ = a.log.Sync() }

func (a *app) now() time.Time { return now().In(a.loc) }

// openVault connects to the credential store. The returned func closes it.
func (a *app) openVault(ctx context.Context) (usecases.CredentialsService, func(), error) {
	if a.cfg.Vault.DatabaseURL == "" {
		return usecases.CredentialsService{}, nil, fmt.Errorf("DATABASE_URL is required for stored profiles")
	}
	key, err := crypto.ParseKey(a.cfg.Vault.CredEncKey)
	if err != nil {
		return usecases.CredentialsService{}, nil, fmt.Errorf("CRED_ENC_KEY: %w", err)
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return usecases.CredentialsService{}, nil, fmt.Errorf("CRED_ENC_KEY: %w", err)
	}
	pool, err := postgres.Open(ctx, a.cfg.Vault.DatabaseURL)
	if err != nil {
		return usecases.CredentialsService{}, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return usecases.CredentialsService{}, nil, fmt.Errorf("migrate: %w", err)
	}
	svc := usecases.CredentialsService{Store: postgres.NewCredentialRepo(pool), Sealer: sealer}
	return svc, pool.Close, nil
}

func (a *app) openBrowser(ctx context.Context) (*chromedp.Driver, error) {
	return chromedp.New(ctx, chromedp.Options{
		Headless:        a.cfg.Browser.Headless,
		ExecPath:        a.cfg.Browser.ExecPath,
		RemoteURL:       a.cfg.Browser.RemoteURL,
		NavigateTimeout: a.cfg.Timeouts().PageLoad,
		ActionTimeout:   a.cfg.Timeouts().Element,
		Log:             a.log.Named("browser"),
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password given and stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
