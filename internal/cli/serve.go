package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/api"
	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/store"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		dbPath string
		listen string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results over HTTP",
		Long:  "Serve the results JSON API under /api/ and the tsweb debug index with a tailsql console at /debug/tailsql/.",
		Args:  cobra.NoArgs,
		RunE: withStore(&dbPath, func(cmd *cobra.Command, s *store.Store, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			mux := http.NewServeMux()
			api.NewServer(s, cfg).Register(mux)
			if err := s.AttachAdminRoutes(mux, filepath.Base(dbPath)); err != nil {
				return err
			}
			srv := &http.Server{Addr: listen, Handler: api.LoggingMiddleware(mux), ReadHeaderTimeout: 10 * time.Second}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			monitoring.Opsf("serve: results browser on http://%s/debug/", listen)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s/debug/\n", listen)

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		}),
	}

	cmd.Flags().StringVar(&dbPath, "db", DefaultDBPath, "results database")
	cmd.Flags().StringVar(&listen, "listen", "localhost:8080", "address to listen on")
	return cmd
}
