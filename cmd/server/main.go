package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Resteral/DiscordActivity/internal/httpapi"
	"github.com/Resteral/DiscordActivity/internal/hub"
	"github.com/Resteral/DiscordActivity/internal/player"
	"github.com/Resteral/DiscordActivity/internal/store"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	addr := envOr("ADDR", ":8080")
	st, err := pickStore(log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := player.NewRegistry()
	snap, err := st.Load(ctx)
	if err != nil {
		log.Fatal("snapshot load failed", zap.Error(err))
	}
	registry.Restore(snap)
	log.Info("players restored", zap.Int("count", len(snap.Players)))

	h := hub.NewHub(ctx, registry, log)

	srv := &http.Server{
		Addr:    addr,
		Handler: httpapi.SetupRoutes(h, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", zap.Error(err))
	}

	h.Inbox() <- hub.ShutdownHub{}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Save(saveCtx, registry.Snapshot()); err != nil {
		log.Error("snapshot save failed", zap.Error(err))
	} else {
		log.Info("snapshot saved")
	}
}

// pickStore uses Postgres when DATABASE_URL is set, a JSON file
// otherwise.
func pickStore(log *zap.Logger) (store.Store, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		log.Info("using postgres store")
		return store.OpenGorm(dsn)
	}
	path := envOr("SNAPSHOT_PATH", "players.json")
	log.Info("using file store", zap.String("path", path))
	return store.NewFileStore(path), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
