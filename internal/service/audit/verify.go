package audit

import (
	"context"

	"snowclone/internal/domain"
	"snowclone/internal/warehouse"
)

// CloneHistory lists recorded clone lineage, optionally filtered by object
// name. Lineage is informational; any failure is logged and yields an empty
// list rather than an error.
func (a *Auditor) CloneHistory(ctx context.Context, like string) []domain.CloneRecord {
	stmt, err := warehouse.ShowClones(like)
	if err != nil {
		a.log.Warn("clone history filter rejected", "filter", like, "error", err)
		return nil
	}
	rows, err := a.exec.Execute(ctx, stmt)
	if err != nil {
		a.log.Warn("clone history listing failed", "error", err)
		return nil
	}
	records := make([]domain.CloneRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.CloneRecord{
			SourceObject: row["source_object"],
			CloneObject:  row["clone_object"],
			CreatedOn:    row["created_on"],
			CloneType:    row["clone_type"],
		})
	}
	return records
}

// ValidateClone runs the three independent checks on a source/target pair:
// the source is describable, the target exists, and the warehouse's lineage
// records the target as a clone of the source. Each check degrades to false
// on failure; the others still run.
func (a *Auditor) ValidateClone(ctx context.Context, source, target string) *domain.CloneValidation {
	v := &domain.CloneValidation{
		Source:    source,
		Target:    target,
		CheckedAt: a.now().UTC(),
	}

	v.Checks.SourceAccessible = a.describable(ctx, source)
	v.Checks.TargetExists = a.describable(ctx, target)

	leaf := domain.ParseObjectPath(target).Object()
	for _, rec := range a.CloneHistory(ctx, leaf) {
		if rec.SourceObject == source && rec.CloneObject == target {
			v.Checks.CloneRelationship = true
			break
		}
	}

	if v.Checks.SourceAccessible && v.Checks.TargetExists && v.Checks.CloneRelationship {
		v.Status = domain.ValidationSuccess
	} else {
		v.Status = domain.ValidationFailed
	}

	a.log.Info("clone validation finished",
		"source", source, "target", target, "status", string(v.Status))
	return v
}

// describable reports whether the object answers a DESCRIBE at its level.
func (a *Auditor) describable(ctx context.Context, name string) bool {
	stmt, err := warehouse.DescribeObject(name)
	if err != nil {
		a.log.Warn("describe rejected", "object", name, "error", err)
		return false
	}
	if _, err := a.exec.Execute(ctx, stmt); err != nil {
		a.log.Debug("describe failed", "object", name, "error", err)
		return false
	}
	return true
}
