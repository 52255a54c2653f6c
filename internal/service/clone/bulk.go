package clone

import (
	"context"

	"snowclone/internal/domain"
)

// BulkClone runs every operation in the set, databases first, then schemas,
// then tables, in declaration order within each level. A failed operation is
// recorded in its outcome and the run continues; the report is always
// complete.
func (e *Engine) BulkClone(ctx context.Context, set domain.CloneSet) *domain.BulkRunReport {
	start := e.now().UTC()
	report := &domain.BulkRunReport{
		OperationID: domain.NewOperationID("bulk_clone", start),
		StartTime:   start,
		Outcomes:    make([]domain.CloneOutcome, 0, set.Size()),
	}

	e.log.Info("bulk clone started", "operation_id", report.OperationID, "operations", set.Size())

	e.runLevel(ctx, report, domain.LevelDatabase, set.Databases)
	e.runLevel(ctx, report, domain.LevelSchema, set.Schemas)
	e.runLevel(ctx, report, domain.LevelTable, set.Tables)

	report.EndTime = e.now().UTC()
	for _, o := range report.Outcomes {
		report.Summary.Total++
		if o.Succeeded {
			report.Summary.Successful++
		} else {
			report.Summary.Failed++
		}
	}

	e.log.Info("bulk clone finished",
		"operation_id", report.OperationID,
		"total", report.Summary.Total,
		"successful", report.Summary.Successful,
		"failed", report.Summary.Failed)
	return report
}

func (e *Engine) runLevel(ctx context.Context, report *domain.BulkRunReport, level domain.ObjectLevel, reqs []domain.CloneRequest) {
	for _, req := range reqs {
		req.Level = level

		// Report the resolved target when resolution succeeds; the raw
		// target otherwise, so the outcome still names what was asked for.
		target := req.Target.String()
		if resolved, err := domain.ResolveTarget(level, req.Source, req.Target); err == nil {
			target = resolved.String()
		}

		outcome := domain.CloneOutcome{
			Seq:    len(report.Outcomes),
			Level:  level,
			Source: req.Source.String(),
			Target: target,
		}
		if err := e.Clone(ctx, req); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Succeeded = true
		}
		outcome.Timestamp = e.now().UTC()
		report.Outcomes = append(report.Outcomes, outcome)
	}
}
