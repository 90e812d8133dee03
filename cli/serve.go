package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tcgp-draft-server/api"
	"tcgp-draft-server/auth"
	"tcgp-draft-server/catalog"
	"tcgp-draft-server/config"
	"tcgp-draft-server/poolgen"
	"tcgp-draft-server/room"
	"tcgp-draft-server/storage"
	"tcgp-draft-server/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lobby and draft server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a.cfg)
		},
	}
}

// Server is the wired application: lobby routes, WebSocket hub and room registry.
type Server struct {
	Config  *config.Config
	Rooms   *room.Registry
	Hub     *ws.Hub
	Handler http.Handler
	History storage.ResultStore
}

// NewServer loads the catalog and wires every component. The caller owns History.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	secret := []byte(cfg.TicketSecret)
	if len(secret) == 0 {
		key, err := auth.RandomKey(32)
		if err != nil {
			return nil, err
		}
		secret = key
		slog.Warn("TICKET_SECRET not set; seat tickets will not survive a restart", "tag", "cli")
	}
	tickets, err := auth.NewTickets(secret, cfg.TicketTTL())
	if err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("catalog loaded", "tag", "cli", "path", cfg.CatalogPath, "items", cat.Len())

	history, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	gen := poolgen.New(
		poolgen.WithCreatureShare(cfg.Generator.CreatureShare),
		poolgen.WithMaxAttempts(cfg.Generator.MaxAttempts),
	)
	rooms := room.NewRegistry(cfg, cat, gen)
	if history != nil {
		rooms.OnDraftComplete = archive(history)
	}

	hub := ws.NewHub(cfg, rooms, tickets)
	h := api.NewHandler(cfg, rooms, tickets, history)

	return &Server{
		Config:  cfg,
		Rooms:   rooms,
		Hub:     hub,
		Handler: h.Routes(hub.ServeWS),
		History: history,
	}, nil
}

// Run starts the hub and the idle-room reaper. Both stop when ctx is cancelled.
func (s *Server) Run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		s.Hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.Rooms.RunReaper(ctx, s.Config.ReapInterval())
		return nil
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	srv, err := NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	if srv.History != nil {
		defer srv.History.Close()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           srv.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	srv.Run(gctx, g)
	g.Go(func() error {
		slog.Info("draft server listening", "tag", "cli", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// archive stores each finished draft. Failures are logged and never reach the room.
func archive(store storage.ResultStore) func(room.Result) {
	return func(res room.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rec := storage.NewRecord(res.RoomID, res.Host, res.CompletedAt, res.Order, res.Hands)
		if err := store.Insert(ctx, rec); err != nil {
			slog.Error("archive draft failed", "tag", "storage", "room", res.RoomID, "err", err)
			return
		}
		slog.Info("draft archived", "tag", "storage", "room", res.RoomID, "record", rec.ID)
	}
}
