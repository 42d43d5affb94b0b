// Command mockapi serves an in-memory restaurant dashboard API for local
// development of the restodash client.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/restodash/internal/backendtest"
	"github.com/dmitrijs2005/restodash/internal/logging"
)

func main() {
	fs := pflag.NewFlagSet("mockapi", pflag.ExitOnError)
	addr := fs.StringP("addr", "a", ":3000", "listen address")
	email := fs.String("seed-email", "admin@example.com", "email of the seeded demo account")
	password := fs.String("seed-password", "admin123", "password of the seeded demo account")
	tokenTTL := fs.Duration("token-ttl", time.Hour, "lifetime of issued tokens")
	_ = fs.Parse(os.Args[1:])

	log := logging.New(os.Stderr, "text", "info")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	backend := backendtest.NewServer(backendtest.WithTokenTTL(*tokenTTL))
	id := backend.AddUser("Demo Admin", *email, *password, "admin")
	log.Info(ctx, "seeded demo account", "id", id, "email", *email)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           backend,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server failed", "error", err)
		os.Exit(1)
	}
}
