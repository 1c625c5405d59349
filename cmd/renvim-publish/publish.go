package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"renvim/config"
	"renvim/logging"
	"renvim/registry"
)

const configEnvVar = "RENVIM_CONFIG"

type publisher struct {
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	published func(registry.Instance) // Called once the address is in etcd
}

func newPublisher() *publisher {
	return &publisher{
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
	}
}

// run publishes the address and withdraws it once ctx ends.
func (p *publisher) run(ctx context.Context, args []string, name string, ttl int64) error {
	configPath, _ := p.lookupEnv(configEnvVar)
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Registry.EtcdEndpoints) == 0 {
		return errors.New("registry.etcd_endpoints is not set")
	}
	if name == "" {
		name = cfg.Registry.EtcdName
	}
	if ttl < 1 {
		return fmt.Errorf("ttl must be >= 1, got %d", ttl)
	}

	addr, err := p.address(ctx, args)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, p.stderr)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run", uuid.NewString()))
	defer logger.Sync()

	reg, err := registry.NewEtcdRegistry(cfg.Registry.EtcdEndpoints, name, cfg.Registry.EtcdTimeout(), logger.Named("etcd"))
	if err != nil {
		return err
	}
	defer reg.Close()

	inst := registry.Instance{Addr: addr}
	if err := reg.Register(ctx, inst, ttl); err != nil {
		return fmt.Errorf("publish %s as %s: %w", addr, name, err)
	}
	logger.Info("address published", zap.String("name", name), zap.String("addr", addr), zap.Int64("ttl", ttl))
	if p.published != nil {
		p.published(inst)
	}

	<-ctx.Done()

	wctx := context.Background()
	if d := cfg.Registry.EtcdTimeout(); d > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(wctx, d)
		defer cancel()
	}
	if err := reg.Deregister(wctx); err != nil {
		return fmt.Errorf("withdraw %s: %w", name, err)
	}
	logger.Info("address withdrawn", zap.String("name", name))
	return nil
}

func (p *publisher) address(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	inst, err := registry.NewEnvRegistry(p.lookupEnv).Discover(ctx)
	if err != nil {
		return "", errors.New("no address to publish: pass one, or run inside nvim")
	}
	return inst.Addr, nil
}
