package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gateway",
		Short: "Authorization and traffic-control gateway",
		Long: `gateway serves user registration, login and bearer-token protected routes,
applies a per-client fixed-window rate limit to every request and hosts a
WebSocket broadcast room.

Configuration is read from environment variables (PORT, JWT_SECRET,
RATE_LIMIT_REQUESTS, STORE_DRIVER, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newHashPasswordCmd())
	return root
}
