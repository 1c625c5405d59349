package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "v0.0.0"

func newRootCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "renvim [nvim options] [files...]",
		Short: "Open files in the running Neovim, or start one",
		Long: `renvim opens each file in a new tab of the Neovim instance named by $NVIM
(or $NVIM_LISTEN_ADDRESS). Without a reachable instance, or when only
"--" options are given, it replaces itself with nvim and passes every
argument through.

"-" opens standard input. Piped input costs two requests: "tabnew
/proc/<pid>/fd/<n>" and then "silent! 0file", so the tab is not named after
the descriptor. A terminal on stdin gets a single plain tabnew. Running
without arguments is the same as "-".

Other "--" options are ignored while talking to a running instance.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true, // Every argument belongs to nvim or to the file list
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args)
		},
	}
}
