package rendermetrics

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opencensus.io/stats/view"
)

// sumsByTag collects a Sum view's rows keyed by their single tag value.
func sumsByTag(t *testing.T, name string) map[string]float64 {
	t.Helper()

	rows, err := view.RetrieveData(name)
	if err != nil {
		t.Fatalf("Error while retrieving %s: %v", name, err)
	}

	got := map[string]float64{}
	for _, row := range rows {
		key := ""
		if len(row.Tags) > 0 {
			key = row.Tags[0].Value
		}
		got[key] = row.Data.(*view.SumData).Value
	}
	return got
}

func TestRecorder(t *testing.T) {
	prefix := "rendermetrics_test/"
	r := New(prefix)
	if err := r.RegisterMetrics(); err != nil {
		t.Fatalf("Error while registering views: %v", err)
	}
	defer r.UnregisterMetrics()

	ctx := context.Background()
	r.PrimaryRays(ctx, 10, 2)
	r.PrimaryRays(ctx, 5, 1)
	r.CloudPoints(ctx, 3, 1)
	r.ClampedKernels(ctx, PhaseReconstruct, 4)
	r.ClampedKernels(ctx, PhasePrecompute, 0)
	r.RowReconstructed(ctx)
	r.RowReconstructed(ctx)

	if diff := cmp.Diff(sumsByTag(t, prefix+"primary_rays"), map[string]float64{OutcomeHit: 15, OutcomeMiss: 3}); diff != "" {
		t.Errorf("Unexpected primary ray counts; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(sumsByTag(t, prefix+"cloud_points"), map[string]float64{OutcomeHit: 3, OutcomeMiss: 1}); diff != "" {
		t.Errorf("Unexpected cloud point counts; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(sumsByTag(t, prefix+"clamped_kernels"), map[string]float64{PhaseReconstruct: 4}); diff != "" {
		t.Errorf("Unexpected clamped kernel counts; diff (-got +want)\n%s", diff)
	}

	rows, err := view.RetrieveData(prefix + "rows")
	if err != nil {
		t.Fatalf("Error while retrieving rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Data.(*view.CountData).Value != 2 {
		t.Errorf("Unexpected row count data: %v", rows)
	}
}

func TestNilRecorderIsANoop(t *testing.T) {
	var r *Recorder
	ctx := context.Background()
	r.PrimaryRays(ctx, 1, 1)
	r.CloudPoints(ctx, 1, 1)
	r.ClampedKernels(ctx, PhaseReconstruct, 1)
	r.RowReconstructed(ctx)
}
