// Package control is the administrative command line: it provisions
// families, users and the signing key, and resets passwords, directly
// against the credential store.
package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/config"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/familyrecipe/internal/server/services"
)

var ErrUsage = errors.New("usage")

// CommandTimeout bounds the store work of one invocation. Waiting for a typed
// password does not count against it.
const CommandTimeout = 30 * time.Second

const usage = `usage: control [server flags] <command> [flags]

commands:
  create-family  -name <name>
  create-user    -username <name> -family-id <id>   (password read from stdin)
  create-secret  [-force]
  update-password -username <name>                  (password read from stdin)
  apply          -event <file.json>
`

var commands = []string{"create-family", "create-user", "create-secret", "update-password", "apply"}

// Executor runs one administrative command.
type Executor interface {
	Execute(ctx context.Context, cmd services.Command) (*services.ControlResult, error)
}

type App struct {
	exec    Executor
	reader  *bufio.Reader
	out     io.Writer
	closer  io.Closer
	timeout time.Duration
}

// NewApp opens the configured store and migrates it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)

	manager, err := repomanager.Open(c, nil)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	migrateCtx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()
	if err := manager.RunMigrations(migrateCtx); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("store migration error: %w", err)
	}

	keys := services.NewKeyService(manager, c.KeyPassphrase, logger)
	users := services.NewUserService(manager, keys, logger, nil)
	families := services.NewFamilyService(manager, logger)

	app := NewAppWithExecutor(services.NewControl(families, users, keys, logger), os.Stdin, os.Stdout)
	app.closer = manager
	return app, nil
}

func NewAppWithExecutor(exec Executor, in io.Reader, out io.Writer) *App {
	return &App{exec: exec, reader: bufio.NewReader(in), out: out, timeout: CommandTimeout}
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// splitCommand finds the subcommand among args; everything before it
// belongs to the server config flags.
func splitCommand(args []string) (string, []string, error) {
	for i, arg := range args {
		if slices.Contains(commands, arg) {
			return arg, args[i+1:], nil
		}
	}
	return "", nil, ErrUsage
}

// Run parses args into a command, executes it and prints the result as JSON.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, err := a.parse(args)
	if err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprint(a.out, usage)
		}
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.exec.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (a *App) parse(args []string) (services.Command, error) {
	name, rest, err := splitCommand(args)
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		familyName = fs.String("name", "", "family name")
		username   = fs.String("username", "", "username")
		familyID   = fs.String("family-id", "", "family id")
		force      = fs.Bool("force", false, "replace an existing signing key")
		event      = fs.String("event", "", "path to a JSON control event")
	)
	if err := fs.Parse(rest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch name {
	case "create-family":
		return services.CreateFamily{Name: *familyName}, nil
	case "create-secret":
		return services.CreateSecret{Force: *force}, nil
	case "create-user":
		pw, err := a.password()
		if err != nil {
			return nil, err
		}
		return services.CreateUser{Username: *username, Password: pw, FamilyID: *familyID}, nil
	case "update-password":
		pw, err := a.password()
		if err != nil {
			return nil, err
		}
		return services.UpdatePassword{Username: *username, Password: pw}, nil
	case "apply":
		if *event == "" {
			return nil, fmt.Errorf("%w: -event is required", ErrUsage)
		}
		data, err := os.ReadFile(*event)
		if err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		return services.DecodeCommand(data)
	}
	return nil, ErrUsage
}

func (a *App) password() (string, error) {
	pw, err := GetPassword(a.reader, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return "", fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return string(pw), nil
}
