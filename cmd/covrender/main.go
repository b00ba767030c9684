// covrender renders the Cornell sphere scene as a visualization of one
// reference pixel: the density of its path-sampled hit points and the
// footprint of its propagated covariance.
//
// Usage:
//
//	covrender [flags] [samples]
//
// samples is the number of path samples drawn at the reference pixel
// (default 4, at least one per sub-pixel stratum).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"covtrace/camera"
	"covtrace/reconstruct"
	"covtrace/rendermetrics"
	"covtrace/rgbimage"
	"covtrace/scene"

	"github.com/golang/glog"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

var (
	outputFile = flag.String("output-file", "image.exr", "Output image; .exr writes OpenEXR, anything else the float container")
	outputRows = flag.Int("output-rows", 512, "Output image rows")
	outputCols = flag.Int("output-cols", 512, "Output image columns")

	maxDepth     = flag.Int("max-depth", 2, "Bounce depth at which paths and covariances terminate")
	referenceCol = flag.Int("reference-col", 200, "Column of the reference pixel")
	referenceRow = flag.Int("reference-row", 210, "Row of the reference pixel, counted from the bottom")
	sigma        = flag.Float64("sigma", 0.5, "Bandwidth of the density kernel")
	footprint    = flag.String("footprint", "isotropic", "Footprint kernel: isotropic or covariance")
	seed         = flag.Int64("seed", 0, "Seed for the path sampler")
	workers      = flag.Int("workers", 0, "Rows reconstructed concurrently; 0 means one per CPU")
	markRef      = flag.Bool("mark-reference", true, "Paint the reference pixel green")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [samples]\n", os.Args[0])
	flag.PrintDefaults()
}

// parseSamples interprets the optional positional argument.
func parseSamples(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 4, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("samples must be an integer: %w", err)
		}
		if n < 0 {
			return 0, fmt.Errorf("samples must not be negative, got %d", n)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected at most one positional argument, got %d", len(args))
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	samples, err := parseSamples(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	mode, err := reconstruct.ParseFootprintMode(*footprint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	glog.Infof("flags:")
	glog.Infof("output-file: %q", *outputFile)
	glog.Infof("output: %dx%d", *outputCols, *outputRows)
	glog.Infof("samples: %d", samples)
	glog.Infof("max-depth: %d", *maxDepth)
	glog.Infof("reference: (%d, %d)", *referenceCol, *referenceRow)
	glog.Infof("footprint: %v", mode)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	options := reconstruct.DefaultOptions()
	options.SamplesPerPixel = samples
	options.MaxDepth = *maxDepth
	options.ReferenceCol = *referenceCol
	options.ReferenceRow = *referenceRow
	options.Sigma = *sigma
	options.Footprint = mode
	options.Workers = *workers
	options.MarkReference = *markRef

	if err := do(context.Background(), options); err != nil {
		glog.Errorf("Error: %v", err)
		pprof.StopCPUProfile()
		glog.Flush()
		os.Exit(1)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Fatalf("could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Fatalf("could not write memory profile: %v", err)
		}
	}
}

// newProgress returns a progress function that redraws a single status line
// on stderr, at most a few times a second.  It prints nothing when stderr is
// not a terminal.
func newProgress() reconstruct.ProgressFunction {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func(cur, tot int) {
			if cur == tot {
				glog.Infof("Reconstructed %d rows", tot)
			}
		}
	}

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	return func(cur, tot int) {
		if cur != tot && !limiter.Allow() {
			return
		}
		fmt.Fprintf(os.Stderr, "\r%d/%d %d%%", cur, tot, 100*cur/tot)
		if cur == tot {
			fmt.Fprintf(os.Stderr, "\n")
		}
	}
}

func do(ctx context.Context, options reconstruct.Options) error {
	s := scene.New(scene.CornellSpheres())
	cam := camera.CornellCamera(*outputCols, *outputRows)

	metrics := rendermetrics.New("covtrace/")
	if err := metrics.RegisterMetrics(); err != nil {
		return fmt.Errorf("while registering metrics: %w", err)
	}
	defer metrics.UnregisterMetrics()

	rec, err := reconstruct.New(s, cam, options,
		reconstruct.WithMetrics(metrics),
		reconstruct.WithProgress(newProgress()))
	if err != nil {
		return fmt.Errorf("while creating reconstructor: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	if err := rec.Precompute(ctx, rng); err != nil {
		return fmt.Errorf("while precomputing reference pixel: %w", err)
	}

	im, err := rec.Render(ctx)
	if err != nil {
		return fmt.Errorf("while reconstructing image: %w", err)
	}

	if err := rgbimage.WriteFile(im, *outputFile); err != nil {
		return err
	}
	glog.Infof("Wrote %s", *outputFile)

	return nil
}
