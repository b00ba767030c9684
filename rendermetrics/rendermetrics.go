// Package rendermetrics exports counters describing a render through
// OpenCensus.
package rendermetrics

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyOutcome = tag.MustNewKey("outcome")
	KeyPhase   = tag.MustNewKey("phase")
)

// Outcomes of a primary ray.
const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
)

// Render phases.
const (
	PhasePrecompute  = "precompute"
	PhaseReconstruct = "reconstruct"
)

type Recorder struct {
	primaryRays       *stats.Int64Measure
	cloudPoints       *stats.Int64Measure
	clampedKernels    *stats.Int64Measure
	rowsReconstructed *stats.Int64Measure

	Views []*view.View
}

// New creates the measures and their views.  Names are prefixed with prefix
// so several recorders (tests, for instance) do not collide.
func New(prefix string) *Recorder {
	r := &Recorder{}

	r.primaryRays = stats.Int64(prefix+"primary_rays", "Primary rays traced", stats.UnitDimensionless)
	r.cloudPoints = stats.Int64(prefix+"cloud_points", "Reference cloud points by validity", stats.UnitDimensionless)
	r.clampedKernels = stats.Int64(prefix+"clamped_kernels", "Kernel evaluations replaced by zero because they were not finite", stats.UnitDimensionless)
	r.rowsReconstructed = stats.Int64(prefix+"rows", "Image rows reconstructed", stats.UnitDimensionless)

	r.Views = []*view.View{
		{
			Name:        prefix + "primary_rays",
			Description: "Count of primary rays by outcome",
			TagKeys:     []tag.Key{KeyOutcome},
			Measure:     r.primaryRays,
			Aggregation: view.Sum(),
		},
		{
			Name:        prefix + "cloud_points",
			Description: "Count of reference cloud points by outcome",
			TagKeys:     []tag.Key{KeyOutcome},
			Measure:     r.cloudPoints,
			Aggregation: view.Sum(),
		},
		{
			Name:        prefix + "clamped_kernels",
			Description: "Count of non-finite kernel evaluations by phase",
			TagKeys:     []tag.Key{KeyPhase},
			Measure:     r.clampedKernels,
			Aggregation: view.Sum(),
		},
		{
			Name:        prefix + "rows",
			Description: "Count of reconstructed image rows",
			Measure:     r.rowsReconstructed,
			Aggregation: view.Count(),
		},
	}

	return r
}

func (r *Recorder) RegisterMetrics() error {
	return view.Register(r.Views...)
}

func (r *Recorder) UnregisterMetrics() {
	view.Unregister(r.Views...)
}

func record(ctx context.Context, m stats.Measurement, mutators ...tag.Mutator) {
	// Recording only fails on a bad tag, and ours are constants.
	_ = stats.RecordWithOptions(
		ctx,
		stats.WithTags(mutators...),
		stats.WithMeasurements(m))
}

func (r *Recorder) PrimaryRays(ctx context.Context, hits, misses int64) {
	if r == nil {
		return
	}
	record(ctx, r.primaryRays.M(hits), tag.Upsert(KeyOutcome, OutcomeHit))
	record(ctx, r.primaryRays.M(misses), tag.Upsert(KeyOutcome, OutcomeMiss))
}

func (r *Recorder) CloudPoints(ctx context.Context, valid, invalid int64) {
	if r == nil {
		return
	}
	record(ctx, r.cloudPoints.M(valid), tag.Upsert(KeyOutcome, OutcomeHit))
	record(ctx, r.cloudPoints.M(invalid), tag.Upsert(KeyOutcome, OutcomeMiss))
}

func (r *Recorder) ClampedKernels(ctx context.Context, phase string, n int64) {
	if r == nil || n == 0 {
		return
	}
	record(ctx, r.clampedKernels.M(n), tag.Upsert(KeyPhase, phase))
}

func (r *Recorder) RowReconstructed(ctx context.Context) {
	if r == nil {
		return
	}
	record(ctx, r.rowsReconstructed.M(1))
}
