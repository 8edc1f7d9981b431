// Command repairctl drives the repair-shop console from a terminal. It uses
// the same controllers, query cache and invalidation as any other front end.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-repair-console/internal/config"
	"github.com/goliatone/go-repair-console/internal/logging/gologger"
	"github.com/goliatone/go-repair-console/pkg/di"
)

// CLI is the repairctl command tree.
type CLI struct {
	Config   string `help:"YAML config file." type:"path" env:"REPAIR_CONSOLE_CONFIG" placeholder:"FILE"`
	BaseURL  string `help:"Override the API base URL." name:"base-url"`
	Token    string `help:"Override the API bearer token."`
	Role     string `help:"Role used for client-side permission checks (admin, manager, technician, receptionist)."`
	LogLevel string `help:"Override the log level." name:"log-level"`
	JSON     bool   `help:"Print JSON instead of tables." name:"json"`

	List      ListCmd      `cmd:"" help:"List records of an entity group."`
	Show      ShowCmd      `cmd:"" help:"Show one record."`
	Create    CreateCmd    `cmd:"" help:"Create a record."`
	Update    UpdateCmd    `cmd:"" help:"Update a record."`
	Delete    DeleteCmd    `cmd:"" help:"Delete a record."`
	Search    SearchCmd    `cmd:"" help:"Search every entity group."`
	Dashboard DashboardCmd `cmd:"" help:"Show the dashboard counts."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("repairctl"),
		kong.Description("Repair-shop admin console."),
		kong.UsageOnError(),
	)

	app, err := newApp(&cli, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "repairctl:", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	app.ctx = ctx

	err = kctx.Run(app)
	stop()
	app.Close()
	kctx.FatalIfErrorf(err)
}

// App carries what every command needs.
type App struct {
	Container *di.Container
	Out       io.Writer
	Err       io.Writer
	JSON      bool
	ctx       context.Context
}

func (a *App) Context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) Close() {
	if a.Container != nil {
		_ = a.Container.Close()
	}
}

// newApp loads the config, applies flag overrides and builds the container.
func newApp(cli *CLI, out, errOut io.Writer, opts ...di.Option) (*App, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	applyOverrides(cli, cfg)

	loggers, err := gologger.NewProvider(cfg.Log)
	if err != nil {
		return nil, err
	}

	options := []di.Option{
		di.WithLoggerProvider(loggers),
		di.WithFeedback(&notifier{w: errOut}, navigator{}, messages),
	}
	container, err := di.NewContainer(*cfg, append(options, opts...)...)
	if err != nil {
		return nil, err
	}
	return &App{Container: container, Out: out, Err: errOut, JSON: cli.JSON}, nil
}

func applyOverrides(cli *CLI, cfg *config.Config) {
	if cli.BaseURL != "" {
		cfg.API.BaseURL = cli.BaseURL
	}
	if cli.Token != "" {
		cfg.API.Token = cli.Token
	}
	if cli.Role != "" {
		cfg.API.Role = cli.Role
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	// a one-shot command never needs the background refresher
	cfg.Cache.RefetchInterval = 0
}
