package wordsift

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/config"
	"github.com/wordsift/wordsift/internal/server"
)

const defaultAddr = ":8080"

var (
	flagAddr  string
	flagWatch bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detector over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default "+defaultAddr+")")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "reload dictionaries when their files change")
	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(".")
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, release, err := buildGuard(ctx, s)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	if pickFlagBool(cmd, "watch", flagWatch, s.local.Watch, s.global.Watch) {
		if paths := s.dictionaries(); len(paths) > 0 {
			w, err := g.Watch(ctx, paths)
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()
			slog.Info("watching dictionaries", "paths", paths)
		}
	}

	var local, global config.ServerConfig
	if s.local.Server != nil {
		local = *s.local.Server
	}
	if s.global.Server != nil {
		global = *s.global.Server
	}
	addr := pickString(flagAddr, local.Addr, global.Addr)
	if addr == "" {
		addr = defaultAddr
	}
	srv := server.New(g, server.Options{
		MaxBodyBytes: pickInt64(0, local.MaxBodyBytes, global.MaxBodyBytes),
		Logger:       slog.Default(),
	})
	return srv.Run(ctx, addr)
}
