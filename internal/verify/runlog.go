package verify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clipforge/broll-cli/internal/model"
)

// Run persistence is best-effort: a broken store never fails a scene, it
// only loses the audit trail.

func (o *Orchestrator) recordStart(ctx context.Context, scene model.SceneRequest) *model.Run {
	if o.store == nil {
		return nil
	}
	run, err := o.store.CreateRun(ctx, scene)
	if err != nil {
		zap.L().Warn("run create failed", zap.Int("scene", scene.SceneNumber), zap.Error(err))
		return nil
	}
	return run
}

func (o *Orchestrator) recordStatus(ctx context.Context, run *model.Run, status model.RunStatus) {
	if run == nil {
		return
	}
	if err := o.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
		zap.L().Warn("run status update failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, run *model.Run, selection *model.RankedSelection, candidates int, started time.Time, runErr error) {
	if run == nil {
		return
	}

	result := &model.RunResult{
		Candidates: candidates,
		DurationMS: time.Since(started).Milliseconds(),
	}
	status := model.RunStatusComplete
	if runErr != nil {
		status = model.RunStatusFailed
		result.Error = runErr.Error()
	} else if selection != nil {
		result.Verified = countVerified(selection.Ranked)
		result.Selected = len(selection.Selected)
		result.TopScore = selection.TopScore()
		result.Selection = selection
	}

	if err := o.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		zap.L().Warn("run result update failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	o.recordStatus(ctx, run, status)
}
