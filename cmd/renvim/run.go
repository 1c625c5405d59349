package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"renvim/client"
	"renvim/config"
	"renvim/launcher"
	"renvim/logging"
	"renvim/middleware"
	"renvim/registry"
	"renvim/transport"
)

const configEnvVar = "RENVIM_CONFIG"

// app carries the process collaborators so tests can swap them.
type app struct {
	stdin     *os.File
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	exec      launcher.ExecFunc // nil means unix.Exec
}

func newApp() *app {
	return &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
	}
}

// optOnly reports whether every argument is a "--" option.
func optOnly(args []string) bool {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			return false
		}
	}
	return true
}

func (a *app) run(ctx context.Context, args []string) error {
	configPath, _ := a.lookupEnv(configEnvVar)
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, a.stderr)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run", uuid.NewString()))
	defer logger.Sync()

	inst := a.discover(ctx, cfg, logger)
	if inst == nil || (len(args) > 0 && optOnly(args)) {
		a.printVersion(args)
		logger.Debug("starting editor", zap.String("binary", cfg.Editor.Binary), zap.Strings("args", args))
		return launcher.Exec(cfg.Editor.Binary, args, a.exec)
	}

	logger.Debug("editor found", zap.String("addr", inst.Addr), zap.String("source", inst.Source))

	conn, err := transport.Dial(ctx, inst.Addr, cfg.Client.DialTimeout())
	if err != nil {
		return err
	}
	defer conn.Close()

	mws := []middleware.Middleware{middleware.LoggingMiddleware(logger)}
	if cfg.Client.RoundsPerSecond > 0 {
		mws = append(mws, middleware.RateLimitMiddleware(cfg.Client.RoundsPerSecond, cfg.Client.Burst))
	}
	if d := cfg.Client.RoundTimeout(); d > 0 {
		mws = append(mws, middleware.TimeOutMiddleware(d))
	}

	cl := client.NewClient(conn,
		client.WithStrict(cfg.Client.Strict),
		client.WithLogger(logger),
		client.WithMiddleware(mws...),
	)
	return a.dispatch(ctx, cl, cfg, logger, args)
}

// discover returns nil when no source knows a running editor.
func (a *app) discover(ctx context.Context, cfg *config.Config, logger *zap.Logger) *registry.Instance {
	chain := registry.Chain{registry.NewEnvRegistry(a.lookupEnv)}

	if len(cfg.Registry.EtcdEndpoints) > 0 {
		etcdReg, err := registry.NewEtcdRegistry(cfg.Registry.EtcdEndpoints, cfg.Registry.EtcdName, cfg.Registry.EtcdTimeout(), logger.Named("etcd"))
		if err != nil {
			logger.Warn("etcd registry unavailable", zap.Error(err))
		} else {
			defer etcdReg.Close()
			chain = append(chain, etcdReg)
		}
	}
	chain = append(chain, registry.StaticRegistry{Addr: cfg.Editor.Address})

	inst, err := chain.Discover(ctx)
	if err != nil {
		if err != registry.ErrNotFound { // Joined with the failures of unreachable sources
			logger.Warn("editor lookup failed", zap.Error(err))
		}
		return nil
	}
	return inst
}

func (a *app) printVersion(args []string) {
	for _, arg := range args {
		if arg == "--version" {
			fmt.Fprintf(a.stdout, "renvim %s -- Neovim wrapper.\n\n", version)
		}
	}
}

// dispatch sends the file arguments in order. Consecutive paths go out as
// one Open batch; "-" flushes the batch and opens stdin.
func (a *app) dispatch(ctx context.Context, cl *client.Client, cfg *config.Config, logger *zap.Logger, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := cl.Open(ctx, batch)
		batch = nil
		return err
	}

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--"):
			logger.Warn("ignoring option", zap.String("option", arg))
		case arg == "-":
			if err := flush(); err != nil {
				return err
			}
			if err := a.openStdin(ctx, cl, logger); err != nil {
				return err
			}
		default:
			batch = append(batch, a.resolve(arg, cfg.Client.ResolvePaths, logger))
		}
	}
	return flush()
}

// openStdin opens piped input through its /proc descriptor path. A terminal,
// or a system without /proc, gets an empty tab instead.
func (a *app) openStdin(ctx context.Context, cl *client.Client, logger *zap.Logger) error {
	if a.stdin == nil || isatty.IsTerminal(a.stdin.Fd()) || isatty.IsCygwinTerminal(a.stdin.Fd()) {
		return cl.Open(ctx, nil)
	}

	fdPath := filepath.Join("/proc", strconv.Itoa(os.Getpid()), "fd", strconv.FormatUint(uint64(a.stdin.Fd()), 10))
	if _, err := os.Stat(fdPath); err != nil {
		logger.Debug("stdin has no /proc path", zap.Error(err))
		return cl.Open(ctx, nil)
	}
	return cl.OpenStdin(ctx, fdPath)
}

func (a *app) resolve(path string, abs bool, logger *zap.Logger) string {
	if !abs {
		return path
	}
	p, err := filepath.Abs(path)
	if err != nil {
		logger.Warn("failed to resolve path", zap.String("path", path), zap.Error(err))
		return path
	}
	return p
}
