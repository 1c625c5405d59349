package main

import (
	"github.com/spf13/cobra"
)

const defaultTTL = 10

func newRootCommand(p *publisher) *cobra.Command {
	var name string
	var ttl int64

	cmd := &cobra.Command{
		Use:   "renvim-publish [address]",
		Short: "Publish an editor address in etcd for renvim",
		Long: `renvim-publish stores the address of a running Neovim under /renvim/{name}
in the etcd cluster named by registry.etcd_endpoints, and keeps it there
until it is interrupted. renvim on any host sharing that cluster then opens
files in this editor.

The address defaults to $NVIM, so the command can be started from inside the
editor, e.g. :call jobstart(['renvim-publish']). Only TCP addresses are
useful to other hosts.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return p.run(cmd.Context(), args, name, ttl)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name to publish under (default registry.etcd_name)")
	cmd.Flags().Int64Var(&ttl, "ttl", defaultTTL, "Lease TTL in seconds")
	return cmd
}
