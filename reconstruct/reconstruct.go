// Package reconstruct fuses a path-sampled point cloud and a propagated
// covariance, both taken at one reference pixel, into an image.
package reconstruct

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"covtrace/camera"
	"covtrace/covariance"
	"covtrace/covtracer"
	"covtrace/pathsampler"
	"covtrace/ray"
	"covtrace/rendermetrics"
	"covtrace/rgbimage"
	"covtrace/scene"
	"covtrace/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const tracerName = "covtrace/reconstruct"

// initialVariance stands in for an unbounded spread at the eye.
const initialVariance = 1e5

// Channel weights of the final color.
var (
	DensityColor   = vec3.T{1, 0, 0}
	FootprintColor = vec3.T{0, 0, 1}
	ReferenceColor = vec3.T{0, 1, 0}
)

const (
	densityScale   = 0.25
	footprintScale = 0.25

	// depthFalloff discriminates hits off the reference tangent plane.
	depthFalloff = 10.0
)

// ProgressFunction receives the number of finished rows and the total.  It
// may be called from several goroutines, but never concurrently.
type ProgressFunction func(int, int)

type Reconstructor struct {
	scene   *scene.Scene
	camera  *camera.PinholeCamera
	options Options

	sampler    *pathsampler.Sampler
	propagator *covtracer.Propagator

	metrics  *rendermetrics.Recorder
	progress ProgressFunction

	// Filled by Precompute and read-only afterwards.
	Cloud       []pathsampler.PosFilter
	Reference   covtracer.PosCov
	precomputed bool
}

type ReconstructorOpt func(*Reconstructor)

func WithMetrics(m *rendermetrics.Recorder) ReconstructorOpt {
	return func(r *Reconstructor) {
		r.metrics = m
	}
}

func WithProgress(p ProgressFunction) ReconstructorOpt {
	return func(r *Reconstructor) {
		r.progress = p
	}
}

func New(s *scene.Scene, cam *camera.PinholeCamera, options Options, opts ...ReconstructorOpt) (*Reconstructor, error) {
	if err := options.validate(cam.Cols, cam.Rows); err != nil {
		return nil, fmt.Errorf("while validating options: %w", err)
	}

	r := &Reconstructor{
		scene:      s,
		camera:     cam,
		options:    options,
		sampler:    pathsampler.New(s, options.MaxDepth),
		propagator: covtracer.New(s, options.MaxDepth),
		progress:   func(int, int) {},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Precompute builds the reference cloud and covariance.  It runs on the
// calling goroutine and is the only consumer of rng.
func (r *Reconstructor) Precompute(ctx context.Context, rng *rand.Rand) error {
	tracer := otel.Tracer(tracerName)
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Reconstructor.Precompute")
	defer span.End()

	col, row := r.options.ReferenceCol, r.options.ReferenceRow
	perStratum := r.options.SamplesPerStratum()

	cloud := make([]pathsampler.PosFilter, 0, 4*perStratum)
	for _, s := range camera.Strata() {
		primary := r.camera.ImageToRay(col, row, s)
		for i := 0; i < perStratum; i++ {
			cloud = append(cloud, r.sampler.Sample(primary, 0, rng))
		}
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return fmt.Errorf("while sampling the reference cloud: %w", err)
	}

	valid := 0
	for _, p := range cloud {
		if p.Valid() {
			valid++
		}
	}
	r.metrics.CloudPoints(ctx, int64(valid), int64(len(cloud)-valid))
	glog.V(1).Infof("Reference cloud: %d points, %d valid", len(cloud), valid)

	u, v, t := r.camera.PixelFrame(col, row)
	v = vec3.Normalize(vec3.Reject(u, v))
	pixelCov := covariance.Diagonal(initialVariance, u, v, t)
	r.Reference = r.propagator.Propagate(ray.Ray{Point: r.camera.Center, Slope: t}, pixelCov, 0)

	if r.Reference.Hit {
		xx, xy, yy := r.Reference.Covariance.Spatial()
		glog.V(1).Infof("Hit point for covariance %v: %v, %v, %v", r.Reference.Position, xx, xy, yy)
		if !vec3.IsFinite(vec3.T{xx, xy, yy}) {
			glog.Warningf("Reference covariance is not finite; the footprint channel will be empty")
			r.metrics.ClampedKernels(ctx, rendermetrics.PhasePrecompute, 1)
			r.Reference = covtracer.PosCov{Covariance: covariance.Empty()}
		}
	} else {
		glog.V(1).Infof("Reference covariance left the scene")
	}

	r.Cloud = cloud
	r.precomputed = true

	span.SetAttributes(
		attribute.Int("cloud.points", len(cloud)),
		attribute.Int("cloud.valid", valid),
		attribute.Bool("reference.hit", r.Reference.Hit),
	)
	return nil
}

// Render reconstructs every pixel.  Rows are distributed over at most
// Options.Workers goroutines; each writes only its own row.
func (r *Reconstructor) Render(ctx context.Context) (*rgbimage.RGBImage, error) {
	if !r.precomputed {
		return nil, fmt.Errorf("render requested before the reference pixel was precomputed")
	}

	tracer := otel.Tracer(tracerName)
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Reconstructor.Render")
	defer span.End()

	rows, cols := r.camera.Rows, r.camera.Cols
	im := rgbimage.New(rows, cols)

	workers := r.options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	span.SetAttributes(
		attribute.Int("image.rows", rows),
		attribute.Int("image.cols", cols),
		attribute.Int("workers", workers),
	)

	// progressMutex serializes calls to the progress function.
	progressMutex := sync.Mutex{}
	rowsDone := 0

	// Use errgroup and semaphore to limit concurrency.
	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	for row := 0; row < rows; row++ {
		row := row

		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}

		eg.Go(func() error {
			defer sem.Release(1)
			if err := egCtx.Err(); err != nil {
				return err
			}

			r.renderRow(egCtx, im, row)

			progressMutex.Lock()
			defer progressMutex.Unlock()
			rowsDone++
			r.progress(rowsDone, rows)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}
	// A cancellation seen only by Acquire leaves rows unrendered without
	// failing the group.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("while reconstructing rows: %w", err)
	}

	if r.options.MarkReference {
		im.Set(r.camera.ImageRow(r.options.ReferenceRow), r.options.ReferenceCol, ReferenceColor)
	}

	span.SetStatus(codes.Ok, "")
	return im, nil
}

func (r *Reconstructor) renderRow(ctx context.Context, im *rgbimage.RGBImage, row int) {
	var hits, misses, clamped int64
	dst := im.Row(r.camera.ImageRow(row))
	for col := 0; col < r.camera.Cols; col++ {
		px := r.Pixel(col, row)
		hits += int64(px.Hits)
		misses += int64(4 - px.Hits)
		clamped += int64(px.Clamped)

		dst[col*3+0] = float32(px.Color[0])
		dst[col*3+1] = float32(px.Color[1])
		dst[col*3+2] = float32(px.Color[2])
	}

	r.metrics.PrimaryRays(ctx, hits, misses)
	r.metrics.ClampedKernels(ctx, rendermetrics.PhaseReconstruct, clamped)
	r.metrics.RowReconstructed(ctx)
}

// PixelResult is the reconstruction of one pixel.
type PixelResult struct {
	Color vec3.T

	// Hits counts the strata whose primary ray struck the scene.
	Hits int

	// Clamped counts kernel evaluations replaced by zero.
	Clamped int
}

// Pixel reconstructs pixel (col, row), row counted from the bottom.  It
// only reads shared state.
func (r *Reconstructor) Pixel(col, row int) PixelResult {
	var res PixelResult
	for _, s := range camera.Strata() {
		primary := r.camera.ImageToRay(col, row, s)
		_, t, ok := r.scene.Intersect(primary)
		if !ok {
			continue
		}
		res.Hits++
		hitp := primary.Eval(t)

		density, ok := finiteOrZero(r.density(hitp))
		if !ok {
			res.Clamped++
		}
		footprint, ok := finiteOrZero(r.footprint(hitp))
		if !ok {
			res.Clamped++
		}

		res.Color = vec3.AddVV(res.Color, vec3.AddVV(
			vec3.MulVS(DensityColor, density),
			vec3.MulVS(FootprintColor, footprint)))
	}
	return res
}

// density is a Gaussian kernel estimate of the reference cloud at p,
// normalized by the per-stratum sample count.  Every hit counts regardless of
// its throughput; only misses are skipped.
func (r *Reconstructor) density(p vec3.T) float64 {
	sigma := r.options.Sigma
	weight := densityScale / sigma
	falloff := 0.5 / (sigma * sigma)

	sum := 0.0
	for _, elem := range r.Cloud {
		if !elem.Valid() {
			continue
		}
		d := vec3.SubVV(p, elem.Position).Norm()
		sum += weight * math.Exp(-falloff*d*d)
	}
	return sum / float64(r.options.SamplesPerStratum())
}

// footprint evaluates the reference covariance's footprint at p.
func (r *Reconstructor) footprint(p vec3.T) float64 {
	if !r.Reference.Hit {
		return 0
	}
	cov := r.Reference.Covariance

	dx := vec3.SubVV(r.Reference.Position, p)
	du := vec3.IProd(dx, cov.X)
	dv := vec3.IProd(dx, cov.Y)
	dt := vec3.IProd(dx, cov.Z)

	det := 1.0
	bf := du*du + dv*dv
	if r.options.Footprint == FootprintCovariance {
		xx, xy, yy := cov.Spatial()
		det = xx*yy - xy*xy
		if !(det > 0) {
			return 0
		}
		bf = du*du*yy + dv*dv*xx - 2*du*dv*xy
	}

	return footprintScale * math.Exp(-depthFalloff*dt*dt) * math.Exp(-0.5*bf/det)
}

// finiteOrZero substitutes zero for NaN, infinities and negative values.  The
// bool is false when a substitution happened.
func finiteOrZero(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
