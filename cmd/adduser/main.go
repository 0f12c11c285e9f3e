package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ValerioMC/smart-ledger-be/internal/auth"
	"github.com/ValerioMC/smart-ledger-be/internal/config"
	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	"github.com/ValerioMC/smart-ledger-be/internal/persistence"
	"github.com/ValerioMC/smart-ledger-be/internal/repository"
	"github.com/ValerioMC/smart-ledger-be/internal/service"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

// openStoreFunc returns a user store for dsn and a function releasing it.
type openStoreFunc func(ctx context.Context, dsn string) (repository.UserRepository, func(), error)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, openPostgresStore); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, openStore openStoreFunc) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	rolesFlag := fs.String("roles", string(domain.RoleUser), "Comma separated roles (USER, ADMIN)")
	dsn := fs.String("dsn", "", "Postgres DSN (defaults to POSTGRES_DSN)")
	cost := fs.Int("cost", 12, "bcrypt cost")
	hashOnly := fs.Bool("hash-only", false, "Print a bcrypt hash of the password and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" && !*hashOnly {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-roles USER,ADMIN] [-dsn <dsn>] [-hash-only]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	roles, err := domain.ParseRoles(*rolesFlag)
	if err != nil {
		return err
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if *hashOnly {
		hash, err := auth.HashPassword(password, *cost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Fprintln(stdout, hash)
		return nil
	}

	if *dsn == "" {
		*dsn = os.Getenv("POSTGRES_DSN")
	}
	if *dsn == "" {
		return fmt.Errorf("no database configured: pass -dsn or set POSTGRES_DSN")
	}

	ctx := context.Background()
	users, closeStore, err := openStore(ctx, *dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStore()

	authService, err := service.NewAuthService(config.AuthConfig{BcryptCost: *cost}, service.AuthDependencies{UserRepo: users})
	if err != nil {
		return err
	}

	user, err := authService.Register(ctx, *username, password, roles)
	if err != nil {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			switch de.Code {
			case apperrors.CodeConflict:
				return fmt.Errorf("user %s already exists", *username)
			case apperrors.CodeValidationFailed:
				return fmt.Errorf("invalid user: %v", de.Details)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func openPostgresStore(ctx context.Context, dsn string) (repository.UserRepository, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := persistence.RunMigrations(ctx, pool, zap.NewNop()); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewUserRepository(pool), pool.Close, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
