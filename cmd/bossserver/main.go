package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/config"
	"github.com/udisondev/bossai/internal/db"
	"github.com/udisondev/bossai/internal/journal"
	"github.com/udisondev/bossai/internal/observer"
	"github.com/udisondev/bossai/internal/raid"
	"github.com/udisondev/bossai/internal/world"
)

// flushInterval is how often queued transitions reach the journal and store.
const flushInterval = time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (overrides "+config.EnvConfigPath+")")
	hashPassword := flag.Bool("hash-password", false, "read an admin password from stdin, print its bcrypt hash and exit")
	flag.Parse()

	if *hashPassword {
		if err := printPasswordHash(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, config.ResolvePath(*configPath)); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.LoadBossServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("boss server starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"bosses", len(cfg.Bosses))

	var store raid.BossStore
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		store = &bossStoreAdapter{repo: db.NewBossRepository(database.Pool())}
	} else {
		slog.Warn("database disabled, boss state lives in memory only")
		store = newMemoryBossStore()
	}

	bossMgr := raid.NewBossManager(store, cfg.Journal.Buffer)
	if err := bossMgr.Init(ctx); err != nil {
		return fmt.Errorf("initializing boss manager: %w", err)
	}

	arena := world.NewArena(cfg.Arena)
	for _, p := range cfg.Players {
		if _, err := arena.AddPlayer(0, p.Name, p.Position); err != nil {
			return fmt.Errorf("adding player %q: %w", p.Name, err)
		}
	}

	sinks := ai.MultiSink{ai.LogSink{}, bossMgr}

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		jrnl = journal.New(cfg.Journal.Dir, cfg.Journal.Buffer)
		sinks = append(sinks, jrnl)
	}

	var hub *observer.Hub
	if cfg.Observer.Enabled {
		hub = observer.NewHub()
		sinks = append(sinks, hub)
	}

	ticks := ai.NewTickManager()
	enc := &encounter{
		cfg:    cfg,
		arena:  arena,
		ticks:  ticks,
		bosses: bossMgr,
		sink:   sinks,
	}
	ticks.OnTick(enc.step)

	for _, entry := range cfg.Bosses {
		if _, err := enc.spawn(entry); err != nil {
			return err
		}
	}

	slog.Info("arena initialized",
		"players", len(arena.Players()),
		"bosses", ticks.Count(),
		"tracked", bossMgr.EntryCount())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting AI tick manager", "tps", 20)
		if err := ticks.Start(gctx); err != nil {
			return fmt.Errorf("AI tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting boss save loop", "interval", cfg.SaveInterval)
		if err := bossMgr.RunSaveLoop(gctx, cfg.SaveInterval); err != nil {
			return fmt.Errorf("boss save loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := bossMgr.RunTransitionLoop(gctx, flushInterval); err != nil {
			return fmt.Errorf("boss transition loop: %w", err)
		}
		return nil
	})

	if jrnl != nil {
		g.Go(func() error {
			slog.Info("starting transition journal", "dir", cfg.Journal.Dir)
			if err := jrnl.Run(gctx, flushInterval); err != nil {
				return fmt.Errorf("transition journal: %w", err)
			}
			return nil
		})
	}

	if hub != nil {
		srv := observer.NewServer(hub, bossMgr, ticks, cfg.Observer.AllowRemote)
		srv.EnableDamage(arena)
		if cfg.Observer.AdminPasswordHash != "" {
			if err := srv.RequireAdmin(cfg.Observer.AdminUser, cfg.Observer.AdminPasswordHash); err != nil {
				return fmt.Errorf("observer: %w", err)
			}
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(gctx, cfg.Observer.Addr); err != nil {
				return fmt.Errorf("observer: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("boss server stopped",
		"ticks", ticks.Ticks(),
		"droppedTransitions", bossMgr.Dropped())
	return nil
}

// printPasswordHash reads one line from r and writes its bcrypt hash to w.
func printPasswordHash(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}
	hash, err := observer.HashAdminPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
