package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rankPlanPath string
	rankScene    int
	rankRequired int
	rankOut      string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank and select clips for a single scene",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		plan, err := loadPlan(rankPlanPath)
		if err != nil {
			return err
		}
		scene, ok := plan.SceneByNumber(rankScene)
		if !ok {
			return eris.Errorf("scene %d not in plan", rankScene)
		}
		candidates, required := candidatesFor(plan, rankScene)
		if rankRequired > 0 {
			required = rankRequired
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		selection, err := env.Orchestrator.RankAndSelect(ctx, scene, candidates, required)
		if err != nil {
			return eris.Wrap(err, "rank scene")
		}

		zap.L().Info("scene selection complete",
			zap.Int("scene", scene.SceneNumber),
			zap.Int("ranked", len(selection.Ranked)),
			zap.Int("selected", len(selection.Selected)),
			zap.Float64("top_score", selection.TopScore()),
		)

		return writeJSON(rankOut, selection)
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankPlanPath, "plan", "", "production plan JSON file (required)")
	rankCmd.Flags().IntVar(&rankScene, "scene", 1, "scene number to rank")
	rankCmd.Flags().IntVar(&rankRequired, "required", 0, "required clip count (default from plan)")
	rankCmd.Flags().StringVar(&rankOut, "out", "", "output file (default stdout)")
	_ = rankCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(rankCmd)
}
