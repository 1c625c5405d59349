// Package launcher replaces the current process with a fresh editor.
package launcher

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// ExecFunc has the signature of execve(2). On success it does not return.
type ExecFunc func(argv0 string, argv []string, envv []string) error

// Exec looks bin up in PATH and executes it with args and the current
// environment. fn defaults to unix.Exec, so a successful call never returns.
func Exec(bin string, args []string, fn ExecFunc) error {
	if fn == nil {
		fn = unix.Exec
	}

	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("no %s found: %w", bin, err)
	}

	argv := make([]string, len(args)+1)
	argv[0] = path
	copy(argv[1:], args)

	if err := fn(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("failed to exec %s: %w", bin, err)
	}
	return nil
}
