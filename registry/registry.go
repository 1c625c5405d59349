// Package registry finds the address of the running editor.
//
// Sources are tried in order and the first one that knows an address wins:
//
//	$NVIM → $NVIM_LISTEN_ADDRESS → etcd /renvim/{name} → config editor.address
//
// When none of them knows one, Discover returns ErrNotFound and the caller
// starts a fresh editor instead.
package registry

import (
	"context"
	"errors"
)

// ErrNotFound means no source knows an editor address.
var ErrNotFound = errors.New("no editor address found")

// Instance is a reachable editor.
type Instance struct {
	Addr   string `json:"addr"`
	Source string `json:"-"` // Where the address came from, for logging
}

type Registry interface {
	Discover(ctx context.Context) (*Instance, error)
}

// Chain tries each registry in order.
type Chain []Registry

// Discover returns the first address found. Sources that fail for other
// reasons than ErrNotFound are skipped; their errors are joined onto
// ErrNotFound when nothing is found.
func (c Chain) Discover(ctx context.Context) (*Instance, error) {
	errs := []error{ErrNotFound}
	for _, reg := range c {
		inst, err := reg.Discover(ctx)
		if err == nil {
			return inst, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return nil, ErrNotFound
	}
	return nil, errors.Join(errs...)
}

// StaticRegistry returns a fixed address, typically from the config file.
type StaticRegistry struct {
	Addr string
}

func (r StaticRegistry) Discover(ctx context.Context) (*Instance, error) {
	if r.Addr == "" {
		return nil, ErrNotFound
	}
	return &Instance{Addr: r.Addr, Source: "config"}, nil
}
