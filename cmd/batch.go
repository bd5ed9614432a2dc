package main

import (
	"context"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clipforge/broll-cli/internal/model"
)

var (
	batchPlanPath    string
	batchOut         string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Rank and select clips for every scene in a plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		plan, err := loadPlan(batchPlanPath)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ranked, err := processPlan(ctx, env, plan, batchConcurrency)
		if err != nil {
			return err
		}

		return writeJSON(batchOut, ranked)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchPlanPath, "plan", "", "production plan JSON file (required)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "output file (default stdout)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "scenes processed in parallel")
	_ = batchCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(batchCmd)
}

// processPlan ranks every scene concurrently. A failed scene is logged and
// skipped so one bad scene never sinks the whole plan.
func processPlan(ctx context.Context, env *pipelineEnv, plan *model.Plan, concurrency int) (*model.RankedPlan, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing plan",
		zap.String("title", plan.Title),
		zap.Int("scenes", len(plan.Scenes)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var selections []model.RankedSelection
	var succeeded, failed atomic.Int64

	for _, scene := range plan.Scenes {
		scene := scene
		g.Go(func() error {
			log := zap.L().With(zap.Int("scene", scene.SceneNumber))

			candidates, required := candidatesFor(plan, scene.SceneNumber)
			selection, err := env.Orchestrator.RankAndSelect(gctx, scene, candidates, required)
			if err != nil {
				failed.Add(1)
				log.Error("scene ranking failed", zap.Error(err))
				return nil // don't abort the plan on individual failure
			}

			succeeded.Add(1)
			mu.Lock()
			selections = append(selections, *selection)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "plan processing")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(selections, func(i, j int) bool {
		return selections[i].SceneNumber < selections[j].SceneNumber
	})

	zap.L().Info("plan complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	return &model.RankedPlan{Plan: *plan, Selections: selections}, nil
}
