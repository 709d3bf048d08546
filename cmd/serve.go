package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/desertthunder/boardsync/internal/server"
	"github.com/desertthunder/boardsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve loads every task, optionally reconciles webhooks, then runs the webhook receiver until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.Engine()
	if err != nil {
		return err
	}

	err = r.withProgress(false, func(progress chan<- tasks.ProgressUpdate) error {
		if _, err := engine.LoadAll(ctx, progress); err != nil {
			return err
		}
		engine.Registry().ResetDirty()

		if cmd.Bool("webhooks") {
			result, err := engine.SyncWebhooks(ctx, progress)
			if err != nil {
				return err
			}
			r.logger.Info("webhooks reconciled", "created", len(result.Created), "deleted", len(result.Deleted), "kept", result.Kept)
		}
		return nil
	})
	if err != nil {
		return err
	}

	addr := r.listenAddr(cmd.String("host"), cmd.Int("port"))
	r.writePlain("\n✓ Loaded %d tasks, listening on %s\n", engine.Registry().Len(), addr)
	return server.Serve(ctx, addr, r.webhookRouter(engine), r.logger)
}

// webhookRouter builds the receiver's router: request logging and panic recovery around the board webhook handler.
func (r *Runner) webhookRouter(events server.EventHandler) *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(server.NewBoardWebhookHandler(events, server.BoardWebhookOpts{
		Secret:      r.config.Board.Secret,
		CallbackURL: r.config.Server.CallbackURL,
		Logger:      r.logger,
	}))
	router.Handle(http.MethodGet, "/healthz", healthHandler(r.runID))
	return router
}

func (r *Runner) listenAddr(host string, port int) string {
	if host == "" && port == 0 {
		return r.config.Server.Addr()
	}
	if host == "" {
		host = r.config.Server.Host
	}
	if port == 0 {
		port = r.config.Server.Port
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func healthHandler(runID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","run":%q}`+"\n", runID)
	})
}
