package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// RECORD TRANSFER
// =============================================================================

// Runner copies records from a source to a target instance.
type Runner struct {
	Source *odoo.Client
	Target *odoo.Client

	// Snapshots, when set, archives the source records of every transfer
	// before any write to the target.
	Snapshots *Snapshotter

	Log *zap.Logger
}

// NewRunner builds a transfer runner. logger may be nil.
func NewRunner(source, target *odoo.Client, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Source: source, Target: target, Log: logger}
}

// Transfer copies all source records of the model matching sourceDomain
// into the target instance. Records already present on the target, matched
// per record by the templated matchDomain, are not duplicated. The returned IDMap
// maps every source id to its target counterpart, created or found, and
// can serve as the relation map of later transfers.
func (r *Runner) Transfer(ctx context.Context, model string, rules Rules, matchDomain, sourceDomain odoo.Domain) (IDMap, error) {
	sourceModel := r.Source.Model(model)
	targetModel := r.Target.Model(model)

	sourceIDs, err := sourceModel.Search(ctx, sourceDomain, nil)
	if err != nil {
		return nil, fmt.Errorf("search source %s: %w", model, err)
	}
	r.Log.Info("transferring records",
		zap.String("model", model),
		zap.Int("records", len(sourceIDs)))

	if r.Snapshots != nil && len(sourceIDs) > 0 {
		if err := r.Snapshots.Snapshot(ctx, r.Source, model, sourceIDs); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", model, err)
		}
	}

	mapping := make(IDMap, len(sourceIDs))
	for idx, sourceID := range sourceIDs {
		targetID, created, err := r.transferOne(ctx, model, sourceID, rules, matchDomain, targetModel)
		if err != nil {
			return nil, err
		}
		if created {
			r.Log.Info("created record",
				zap.Int("record", idx+1),
				zap.Int("records", len(sourceIDs)),
				zap.String("model", model),
				zap.Int64("source_id", sourceID),
				zap.Int64("target_id", targetID))
		}
		mapping[sourceID] = targetID
	}
	return mapping, nil
}

// transferOne matches or creates one record on the target.
func (r *Runner) transferOne(ctx context.Context, model string, sourceID int64, rules Rules, matchDomain odoo.Domain, targetModel *odoo.Model) (int64, bool, error) {
	equality, err := TemplateDomain(ctx, r.Source, model, sourceID, matchDomain, rules)
	if err != nil {
		return 0, false, fmt.Errorf("template match domain for %s(%d): %w", model, sourceID, err)
	}

	targetIDs, err := targetModel.Search(ctx, equality, &odoo.SearchOptions{Limit: 1})
	if err != nil {
		return 0, false, fmt.Errorf("search target %s: %w", model, err)
	}
	if len(targetIDs) > 0 {
		return targetIDs[0], false, nil
	}

	values, err := MapRecordValues(ctx, r.Source, model, sourceID, rules, false)
	if err != nil {
		return 0, false, err
	}
	for field, rule := range rules {
		if rule.HTML && isEmptyValue(values[field]) {
			values[field] = "<p><br></p>"
		}
	}

	targetID, err := targetModel.Create(ctx, values)
	if err != nil {
		return 0, false, fmt.Errorf("create target %s for source id %d: %w", model, sourceID, err)
	}
	return targetID, true, nil
}
