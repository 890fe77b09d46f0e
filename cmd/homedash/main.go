package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/internal/browser"
	"github.com/naveenspark/homedash/internal/config"
	"github.com/naveenspark/homedash/internal/logging"
	"github.com/naveenspark/homedash/internal/tui"
	"github.com/naveenspark/homedash/pkg/client"
	"github.com/naveenspark/homedash/pkg/notify"
	"github.com/naveenspark/homedash/pkg/session"
	"github.com/naveenspark/homedash/pkg/store"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "homedash %s\n", version)
		return nil
	case "help", "--help", "-h":
		printHelp(stdout)
		return nil
	case "", "tasks", "shopping", "open":
	default:
		return fmt.Errorf("unknown command %q (see homedash help)", cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch cmd {
	case "open":
		fmt.Fprintf(stdout, "Opening %s\n", cfg.API.WebURL)
		return browser.Open(cfg.API.WebURL)
	case "tasks":
		all, err := parseTasksArgs(args[1:])
		if err != nil {
			return err
		}
		return withSession(cfg, func(ctx context.Context, s *services) error {
			return printTasks(ctx, stdout, s, all)
		})
	case "shopping":
		if len(args) > 1 {
			return fmt.Errorf("shopping takes no arguments")
		}
		return withSession(cfg, func(ctx context.Context, s *services) error {
			return printShopping(ctx, stdout, s)
		})
	}
	return runTUI(cfg)
}

// services is everything one process talks to the API through.
type services struct {
	guard    *session.Guard
	tasks    *store.TaskStore
	users    *store.UserStore
	shopping *store.ShoppingStore
	recipes  *store.RecipeStore
	notify   *notify.Subscriber
}

func newServices(cfg config.Config, logger *slog.Logger) (*services, error) {
	c, err := client.New(cfg.API.URL, client.Options{
		IncludeCredentials: cfg.IncludeCredentials(),
		Timeout:            cfg.API.Timeout.Duration(),
		UserAgent:          "homedash/" + version,
	})
	if err != nil {
		return nil, err
	}
	g := session.New(c, logger)
	shopping := store.NewShoppingStore(g)
	s := &services{
		guard:    g,
		tasks:    store.NewTaskStore(g),
		users:    store.NewUserStore(g),
		shopping: shopping,
		recipes:  store.NewRecipeStore(g, shopping),
	}
	if cfg.Notify.Enabled {
		s.notify = notify.New(g, notify.StaticPermission(true), notify.FileTokenSource{Path: cfg.Notify.TokenFile}, logger)
	}
	return s, nil
}

func runTUI(cfg config.Config) error {
	logger, closeLog, err := logging.SetupFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck // best-effort on exit

	s, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("starting", "version", version, "api", cfg.API.URL, "env", cfg.API.Env)

	app := tui.NewApp(tui.Deps{
		Guard:    s.guard,
		Tasks:    s.tasks,
		Users:    s.users,
		Shopping: s.shopping,
		Recipes:  s.recipes,
		Notify:   s.notify,
		WebURL:   cfg.API.WebURL,
	}, version)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// withSession logs in with the configured credentials, runs fn and logs out.
func withSession(cfg config.Config, fn func(ctx context.Context, s *services) error) error {
	if !cfg.HasCredentials() {
		return errors.New("set HOMEDASH_USERNAME and HOMEDASH_PASSWORD to use this command")
	}
	logger := logging.Setup(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	if _, err := s.guard.Login(ctx, cfg.Auth.Username, cfg.Auth.Password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return err
		}
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := s.guard.Logout(context.Background()); err != nil {
			logger.Warn("logout failed", "error", err)
		}
	}()
	return fn(ctx, s)
}

func parseTasksArgs(args []string) (all bool, err error) {
	for _, a := range args {
		switch a {
		case "--all", "-a":
			all = true
		default:
			return false, fmt.Errorf("tasks: unknown flag %q (usage: homedash tasks [--all])", a)
		}
	}
	return all, nil
}
