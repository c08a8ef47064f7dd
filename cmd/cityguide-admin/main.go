// Package main is the entry point for the City Guide admin CLI.
// It manages user accounts directly against the configured database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/prn-tf/cityguide/internal/app"
	"github.com/prn-tf/cityguide/internal/config"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/logging"
	"github.com/prn-tf/cityguide/internal/repository"
	"github.com/prn-tf/cityguide/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("City Guide Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(args)

	case "seed":
		err = runSeed(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is an opened database with the user service on top.
type env struct {
	backend *repository.Backend
	users   *service.UserService
	cfg     *config.Config
}

func (e *env) Close() {
	_ = e.backend.Database.Close()
}

func open(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	// Keep CLI output readable; only problems are logged.
	logger = logger.Level(zerolog.WarnLevel)

	backend, err := app.OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &env{
		backend: backend,
		users:   service.NewUserService(backend.Repos.User, cfg.Auth.BcryptCost, logger),
		cfg:     cfg,
	}, nil
}

func runUser(args []string) error {
	if len(args) == 0 {
		return errors.New("user requires a subcommand: create, list-count")
	}

	switch args[0] {
	case "create":
		return runUserCreate(args[1:])
	case "list-count", "count":
		return runUserCount(args[1:])
	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

func runUserCreate(args []string) error {
	fs := pflag.NewFlagSet("user create", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config file")
	username := fs.String("username", "", "username (required)")
	password := fs.String("password", "", "password (required)")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	hometown := fs.String("hometown", "", "hometown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e, err := open(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	user, err := e.users.Signup(ctx, service.SignupInput{
		Username:  *username,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
		Hometown:  *hometown,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return fmt.Errorf("user %q already exists", *username)
		}
		return err
	}

	fmt.Printf("Created user %s (id %s)\n", user.Username, user.ID)
	if user.Username == e.cfg.Auth.AdminUsername {
		fmt.Println("This account has administrator rights.")
	}
	return nil
}

func runUserCount(args []string) error {
	fs := pflag.NewFlagSet("user list-count", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e, err := open(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	n, err := e.users.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d users\n", n)
	return nil
}

func runSeed(args []string) error {
	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e, err := open(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	seeds := e.cfg.Auth.SeedUsers()
	if len(seeds) == 0 {
		fmt.Println("No users configured (set auth.admin_password or auth.seed)")
		return nil
	}

	inputs := make([]service.SignupInput, 0, len(seeds))
	for _, s := range seeds {
		inputs = append(inputs, service.SignupInput{
			Username:  s.Username,
			Password:  s.Password,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Hometown:  s.Hometown,
		})
	}

	created, err := e.users.Seed(ctx, inputs)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d of %d configured users\n", created, len(inputs))
	return nil
}

func printUsage() {
	fmt.Println(`City Guide Admin CLI

Usage:
  cityguide-admin <command> [arguments]

Commands:
  user create      Create a user account
  user list-count  Print the number of registered users
  seed             Create the configured admin and seed users if missing
  version          Print version information
  help             Show this help message

Flags (all commands that touch the database):
  -c, --config     Path to config file (default: ./config.yaml)

Examples:
  cityguide-admin user create --username ann --password s3cret --first-name Ann --hometown Springfield
  cityguide-admin user list-count
  CITYGUIDE_AUTH_ADMIN_PASSWORD=adminpass cityguide-admin seed`)
}
