package dedupe

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cohen-center/survey-cli/internal/model"
)

// leadershipOrder fixes the order of the promotion passes. Later passes must
// observe the statuses left by earlier ones within the same identity group.
var leadershipOrder = []model.RoleCategory{
	model.RoleLeadClergy,
	model.RolePresident,
	model.RoleExecutive,
}

// Resolver applies the duplicate-resolution pipeline to a record set.
type Resolver struct {
	reg    *Registry
	shards int
}

// NewResolver creates a resolver backed by the given override registry.
// shards controls how many identity-key groups are resolved concurrently;
// values below 1 mean single-threaded.
func NewResolver(reg *Registry, shards int) *Resolver {
	if shards < 1 {
		shards = 1
	}
	return &Resolver{reg: reg, shards: shards}
}

// Resolve derives the identity key, role classification, duplicate status,
// and analysis weight for every record. Output order matches input order and
// is deterministic for identical inputs and tables.
func (r *Resolver) Resolve(ctx context.Context, records []model.SurveyRecord) ([]model.ResolvedRecord, error) {
	out := make([]model.ResolvedRecord, len(records))

	// Attach derived attributes; every record starts at Keep.
	groups := make(map[int64][]int)
	for i, rec := range records {
		cat, rank := Classify(rec.RawRoleCode)
		out[i] = model.ResolvedRecord{
			SurveyRecord: rec,
			Resolution: model.Resolution{
				RoleCategory: cat,
				RoleRank:     rank,
				Status:       model.StatusKeep,
			},
		}
		if rec.PostalCode == nil || rec.OrgBucket == nil {
			// No identity, no deduplication: the record stays at Keep.
			continue
		}
		key := IdentityKey(*rec.PostalCode, *rec.OrgBucket)
		out[i].IdentityKey = &key
		groups[key] = append(groups[key], i)
	}

	if err := r.resolveGroups(ctx, out, groups); err != nil {
		return nil, err
	}

	var kept, dup, dropped int
	for i := range out {
		out[i].Weight = WeightFor(out[i].Status)
		switch out[i].Status {
		case model.StatusKeep:
			kept++
		case model.StatusDuplicate:
			dup++
		case model.StatusDrop:
			dropped++
		}
	}
	zap.L().Info("resolution complete",
		zap.Int("records", len(records)),
		zap.Int("groups", len(groups)),
		zap.Int("kept", kept),
		zap.Int("duplicates", dup),
		zap.Int("dropped", dropped),
		zap.String("overrides_version", r.reg.Version),
	)

	return out, nil
}

// resolveGroups runs the pass pipeline over every multi-record group.
// Groups are independent, so they are fanned out across shards; each
// goroutine writes only to its own groups' index positions.
func (r *Resolver) resolveGroups(ctx context.Context, out []model.ResolvedRecord, groups map[int64][]int) error {
	var multi [][]int
	for _, idxs := range groups {
		if len(idxs) > 1 {
			multi = append(multi, idxs)
		}
	}
	if len(multi) == 0 {
		return nil
	}

	if r.shards == 1 {
		for _, idxs := range multi {
			r.resolveGroup(out, idxs)
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.shards)
	for _, idxs := range multi {
		g.Go(func() error {
			r.resolveGroup(out, idxs)
			return nil
		})
	}
	return g.Wait()
}

// resolveGroup applies the ordered passes to one identity-key group: seed,
// one promotion pass per leadership category, then the rank-based override
// pass over whatever is still Duplicate.
func (r *Resolver) resolveGroup(out []model.ResolvedRecord, idxs []int) {
	for _, i := range idxs {
		out[i].Status = model.StatusDuplicate
	}

	for _, cat := range leadershipOrder {
		for _, i := range idxs {
			if out[i].RoleCategory != cat {
				continue
			}
			out[i].Status = promoteLeadership(out[i].Status, cat, *out[i].IdentityKey, r.reg)
		}
	}

	for _, i := range idxs {
		rk := RankKey(out[i].RoleRank, *out[i].IdentityKey)
		out[i].Status = applyRankOverride(out[i].Status, rk, r.reg)
	}
}

// promoteLeadership is the per-category promotion rule: a still-tentative
// duplicate in the pass's category is presumed authoritative and returns to
// Keep, unless the category's drop table names its organization. Records
// already finalized by an earlier pass are returned unchanged.
func promoteLeadership(status model.DuplicateStatus, cat model.RoleCategory, identityKey int64, reg *Registry) model.DuplicateStatus {
	if status != model.StatusDuplicate {
		return status
	}
	if reg.CategoryDrop(cat, identityKey) {
		return model.StatusDrop
	}
	return model.StatusKeep
}

// applyRankOverride consults the rank-keyed force tables for records that
// survived the category passes still marked Duplicate. A rank key absent
// from both tables leaves the record at its terminal Duplicate status.
func applyRankOverride(status model.DuplicateStatus, rankKey int64, reg *Registry) model.DuplicateStatus {
	if status != model.StatusDuplicate {
		return status
	}
	if reg.ForceKeep(rankKey) {
		return model.StatusKeep
	}
	if reg.ForceDrop(rankKey) {
		return model.StatusDrop
	}
	return status
}
