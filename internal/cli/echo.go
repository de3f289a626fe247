package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/minigun/internal/echo"
)

func newEchoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run a local server that reflects requests back",
		Long: `Run a local HTTP server for trying out requests and scripts.

Endpoints:
  /echo           reflects method, path, headers and body as JSON
  /status/{code}  responds with the given status code
  /bytes/{n}      responds with n bytes of binary data
  /health         responds "healthy"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("error listening on %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Echo server listening on http://%s\n", ln.Addr())
			return echo.NewServer(addr, a.logger).Serve(cmd.Context(), ln)
		},
	}

	cmd.Flags().String("addr", "127.0.0.1:8080", "Address to listen on")

	return cmd
}
