package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tasklync-cli/internal/devserver"
)

func newDevserverCmd(app *App) *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory TaskLync backend for local use",
		Long: strings.TrimSpace(`
Run the TaskLync REST API from memory. Nothing is persisted: every restart
starts empty (or with the demo data when --seed is set).

Point the client at it with --api or ` + "`tasklync config set api <url>`" + `.
`),
		Example: strings.TrimSpace(`
tasklync devserver --addr 127.0.0.1:3005 --seed
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(app.Format) == "" {
				app.Format = "json"
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("devserver: missing --addr"))
			}

			srv := devserver.New()
			data := map[string]any{}
			if seed {
				demo := srv.SeedDemo()
				data["demo"] = map[string]any{
					"password": devserver.DemoPassword,
					"users":    []string{"ada@example.com (admin)", "milo@example.com (member)", "pat@example.com (pending)"},
					"project":  demo.ProjectID,
					"joinCode": demo.JoinCode,
				}
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			url := "http://" + ln.Addr().String()
			data["addr"] = ln.Addr().String()
			data["url"] = url
			data["startedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
			_ = writeOut(cmd, app, map[string]any{
				"data":   data,
				"_hints": []string{"tasklync --api " + url + " login --email ada@example.com --password " + devserver.DemoPassword},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "TaskLync devserver running at %s\n", url)

			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(sctx)
			}()
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3005", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load demo users, a project and tasks")
	return cmd
}
