package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clipforge/broll-cli/internal/discovery"
	"github.com/clipforge/broll-cli/internal/store"
	"github.com/clipforge/broll-cli/internal/verify"
	"github.com/clipforge/broll-cli/pkg/captions"
	"github.com/clipforge/broll-cli/pkg/embedder"
	"github.com/clipforge/broll-cli/pkg/frames"
	"github.com/clipforge/broll-cli/pkg/stockapi"
)

// pipelineEnv bundles the long-lived collaborators a command needs.
type pipelineEnv struct {
	Store        *store.SQLiteStore
	Orchestrator *verify.Orchestrator
	Discoverer   *discovery.Discoverer
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	captionsClient := captions.NewClient(cfg.Captions.BaseURL,
		captions.WithLanguage(cfg.Captions.Language),
		captions.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Captions.TimeoutSecs) * time.Second}),
	)
	framesClient := frames.NewClient(cfg.Frames.BaseURL,
		frames.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Frames.TimeoutSecs) * time.Second}),
	)
	oracle := embedder.NewClient(cfg.Embedder.BaseURL,
		embedder.WithModel(cfg.Embedder.Model),
		embedder.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second}),
	)

	orch, err := verify.New(verify.Options{
		Verify:    cfg.Verify,
		Scorer:    cfg.Scorer,
		Lexical:   cfg.Lexical,
		Localizer: cfg.Localizer,
		MaxFrames: cfg.Frames.MaxFrames,
	}, captionsClient, framesClient, oracle, st)
	if err != nil {
		st.Close()
		return nil, eris.Wrap(err, "init orchestrator")
	}

	stockClient := stockapi.NewClient(cfg.Stock.Key,
		stockapi.WithBaseURL(cfg.Stock.BaseURL),
		stockapi.WithRateLimit(cfg.Stock.RatePerSec),
		stockapi.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Stock.TimeoutSecs) * time.Second}),
	)

	return &pipelineEnv{
		Store:        st,
		Orchestrator: orch,
		Discoverer:   discovery.New(stockClient, cfg.Stock.PerQuery),
	}, nil
}
