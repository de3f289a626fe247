package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/minigun/script"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a JavaScript file with the minigun module available",
		Long: `Run a JavaScript file. The global minigun object exposes get, post, put,
delete, patch and request. Each call blocks until the response arrives:

  const r = minigun.get("http://localhost:8080/echo", {headers: {Accept: "application/json"}});
  console.log(r.status_code, r.headers["content-type"]);

Failures throw errors whose name is the error kind, e.g. RequestFailed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			requestTimeout, _ := cmd.Flags().GetDuration("request-timeout")
			printResult, _ := cmd.Flags().GetBool("print")

			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("error reading script: %w", err)
			}

			rt := script.New(a.newClient(requestTimeout),
				script.WithStdout(cmd.OutOrStdout()),
				script.WithLogger(a.logger),
				script.WithTimeout(timeout),
			)
			result, err := rt.Run(cmd.Context(), filepath.Base(path), string(src))
			if err != nil {
				return err
			}
			if printResult && result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), result)
			}
			return nil
		},
	}

	cmd.Flags().Duration("timeout", 0, "Abort the script after this long (0 for no limit)")
	cmd.Flags().Duration("request-timeout", 30*time.Second, "Timeout for each request the script makes (0 for none)")
	cmd.Flags().BoolP("print", "p", false, "Print the script's completion value")

	return cmd
}
