package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipforge/broll-cli/internal/model"
)

var (
	discoverPlanPath string
	discoverOut      string
	discoverRequired int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the footage API for candidates for every scene",
	Long:  "Fills the plan's search_results with deduplicated candidate pools. Scenes that already have candidates are left untouched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		plan, err := loadPlan(discoverPlanPath)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		existing := make(map[int]bool)
		for _, sc := range plan.SearchResults {
			if len(sc.Candidates) > 0 {
				existing[sc.SceneNumber] = true
			}
		}

		for _, scene := range plan.Scenes {
			if existing[scene.SceneNumber] {
				continue
			}
			pool, err := env.Discoverer.Discover(ctx, scene)
			if err != nil {
				return err
			}
			plan.SearchResults = append(plan.SearchResults, model.SceneCandidates{
				SceneNumber:   scene.SceneNumber,
				RequiredClips: discoverRequired,
				Candidates:    pool,
			})
			zap.L().Info("scene pool filled",
				zap.Int("scene", scene.SceneNumber),
				zap.Int("candidates", len(pool)),
			)
		}

		return writeJSON(discoverOut, plan)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverPlanPath, "plan", "", "production plan JSON file (required)")
	discoverCmd.Flags().StringVar(&discoverOut, "out", "", "output file (default stdout)")
	discoverCmd.Flags().IntVar(&discoverRequired, "required", 1, "required clips per filled scene")
	_ = discoverCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(discoverCmd)
}
