package authctl

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/loginchat/authserver/internal/common"
	"github.com/loginchat/authserver/internal/server/auth"
	"github.com/loginchat/authserver/internal/server/config"
	"github.com/loginchat/authserver/internal/server/repositories/repomanager"
	"github.com/loginchat/authserver/internal/server/services"
)

// ErrUnknownCommand is returned by Run for anything not in Usage.
var ErrUnknownCommand = errors.New("unknown command")

const Usage = `usage: authctl <command> [config flags]

commands:
  migrate        apply database migrations
  hash-password  print a bcrypt hash for a password read from the terminal
  create-user    create a user interactively`

// OpenDBFunc opens the database pool.
type OpenDBFunc func(ctx context.Context, dsn string, maxOpen, maxIdle int, recycle time.Duration) (*sql.DB, error)

type App struct {
	config      *config.Config
	repomanager repomanager.RepositoryManager
	openDB      OpenDBFunc
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		config:      c,
		repomanager: repomanager.NewPostgresRepositoryManager(),
		openDB:      repomanager.Open,
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

func (a *App) Run(ctx context.Context, command string) error {
	switch command {
	case "migrate":
		return a.Migrate(ctx)
	case "hash-password":
		return a.HashPassword()
	case "create-user":
		return a.CreateUser(ctx)
	default:
		return fmt.Errorf("%w %q\n%s", ErrUnknownCommand, command, Usage)
	}
}

func (a *App) open(ctx context.Context) (*sql.DB, error) {
	c := a.config
	db, err := a.openDB(ctx, c.DatabaseDSN, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBPoolRecycle)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return db, nil
}

func (a *App) Migrate(ctx context.Context) error {
	db, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := a.repomanager.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

func (a *App) HashPassword() error {
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	hash, err := auth.NewPasswordHasher(a.config.BcryptCost).Hash(string(password))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, hash)
	return nil
}

func (a *App) CreateUser(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	phone, err := GetSimpleText(a.reader, "Enter phone number (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	in := services.RegisterInput{Email: email, Password: string(password)}
	if name != "" {
		in.Name = &name
	}
	if phone != "" {
		in.PhoneNumber = &phone
	}

	db, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	c := a.config
	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, c.CookieCSRFProtect)
	us := services.NewUserService(db, a.repomanager, auth.NewPasswordHasher(c.BcryptCost), issuer)

	user, _, err := us.Register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (%s)\n", user.Email, user.ID)
	return nil
}
