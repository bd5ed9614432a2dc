package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipforge/broll-cli/internal/model"
)

var servePort int

// shutdownGrace is how long in-flight requests get to finish after a
// termination signal.
const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for scene ranking requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Set up routes
		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /webhook/rank", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Scene         model.SceneRequest        `json:"scene"`
				Candidates    []model.CandidateMetadata `json:"candidates"`
				RequiredClips int                       `json:"required_clips"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}

			if req.Scene.SceneNumber <= 0 {
				http.Error(w, `{"error":"scene.scene_number is required"}`, http.StatusBadRequest)
				return
			}

			// Rank asynchronously; the run store holds the result.
			go func() {
				selection, err := env.Orchestrator.RankAndSelect(ctx, req.Scene, req.Candidates, req.RequiredClips)
				if err != nil {
					zap.L().Error("webhook ranking failed",
						zap.Int("scene", req.Scene.SceneNumber),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("webhook ranking complete",
					zap.Int("scene", req.Scene.SceneNumber),
					zap.Int("selected", len(selection.Selected)),
					zap.Float64("top_score", selection.TopScore()),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]any{
				"status": "accepted",
				"scene":  req.Scene.SceneNumber,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownServer drains in-flight requests under a fresh timeout. The signal
// context is already cancelled by the time shutdown starts, so it cannot be
// used as the drain deadline.
func shutdownServer(srv *http.Server) {
	zap.L().Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("server shutdown incomplete", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
