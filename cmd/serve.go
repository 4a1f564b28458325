package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ripple/api"
	"ripple/debug"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, localhost:8090)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the saved recordings over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		addr := firstNonEmpty(serveAddr, cfg.API.Addr)
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.New(lib, cfg.Channel()).Handler(cfg.API.AllowedOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signalContext()
		defer stop()
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "serving %d recordings on http://%s\n", lib.Len(), addr)
		debug.L().Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
