package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"talent-pipeline/internal/events"
	"talent-pipeline/internal/httpapi"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/scheduler"
)

const tokenFile = ".talentpipe.token"

func (a *app) serve(ctx context.Context, args []string, stderr io.Writer) error {
	cfg := a.cfg()
	log := logger.Component("serve")

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", fmt.Sprintf("127.0.0.1:%d", cfg.App.Port), "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hub := events.NewHub()
	runner, db, err := a.runner(hub)
	if err != nil {
		return err
	}
	defer db.Close()
	runner.Source = a.cfg

	mux := httpapi.NewMux(httpapi.Deps{
		Store:       db,
		Hub:         hub,
		Runner:      runner,
		CfgVal:      &a.cfgVal,
		UserCfgPath: a.cfgPath,
		LoadCfg:     a.loadCfg,
		Log:         logger.Component("http"),
	})

	token, err := randomToken(16)
	if err != nil {
		return err
	}
	tokenPath := filepath.Join(a.dataDir, tokenFile)
	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		return err
	}
	defer os.Remove(tokenPath)

	srv := &http.Server{ReadHeaderTimeout: 5 * time.Second}
	mux.HandleFunc("/shutdown", shutdownHandler(token, srv))
	srv.Handler = httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover(logger.Component("http")),
		httpapi.AccessLog(logger.Component("http")),
		httpapi.Cors,
	)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	log.WithField("addr", ln.Addr().String()).WithField("db", cfg.Resolve(cfg.App.DBPath)).Info("listening")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if secs := cfg.Schedule.RunSeconds; secs > 0 {
		go scheduler.Every(ctx, time.Duration(secs)*time.Second, "pipeline", func(ctx context.Context) error {
			_, err := runner.Run(ctx)
			return err
		})
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("stopped")
	return nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownHandler stops the server for a local caller holding the token
// written to the data directory.
func shutdownHandler(token string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
