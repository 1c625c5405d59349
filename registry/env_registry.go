package registry

import (
	"context"
	"os"
)

// DefaultEnvVars are the variables an editor exports to its child processes.
// NVIM is current; NVIM_LISTEN_ADDRESS is what older releases set.
var DefaultEnvVars = []string{"NVIM", "NVIM_LISTEN_ADDRESS"}

// EnvRegistry reads the address from the environment.
type EnvRegistry struct {
	Vars      []string
	LookupEnv func(string) (string, bool)
}

// NewEnvRegistry reads DefaultEnvVars through lookupEnv, or os.LookupEnv when
// lookupEnv is nil.
func NewEnvRegistry(lookupEnv func(string) (string, bool)) *EnvRegistry {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &EnvRegistry{Vars: DefaultEnvVars, LookupEnv: lookupEnv}
}

// Discover returns the first variable that is set and non-empty.
func (r *EnvRegistry) Discover(ctx context.Context) (*Instance, error) {
	for _, name := range r.Vars {
		val, ok := r.LookupEnv(name)
		if ok && val != "" {
			return &Instance{Addr: val, Source: "$" + name}, nil
		}
	}
	return nil, ErrNotFound
}
