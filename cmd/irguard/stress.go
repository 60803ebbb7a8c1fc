package main

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"irguard/internal/ir"
	"irguard/internal/pass"
	"irguard/internal/types"
	"irguard/internal/ui"
)

var stressCmd = &cobra.Command{
	Use:   "stress [flags]",
	Short: "Hammer the uniquing store and run the pass pipeline over a synthetic module",
	Long: `Stress interns the same type descriptors from many goroutines inside a
parallel region and checks that every goroutine got identical handles, then
builds a module with many root operations and runs the pass pipeline over it.`,
	Args: cobra.NoArgs,
	RunE: stressExecution,
}

func init() {
	stressCmd.Flags().Int("roots", 64, "number of root operations in the module")
	stressCmd.Flags().Int("leaves", 8, "operations nested in every root")
	stressCmd.Flags().Int("workers", 8, "goroutines creating uniqued objects")
	stressCmd.Flags().Int("types", 256, "types interned by every worker")
	stressCmd.Flags().Int("jobs", 0, "parallel pass jobs (0 = [context].jobs or GOMAXPROCS)")
	stressCmd.Flags().String("passes", "count-ops,annotate,count-ops", "comma separated pass pipeline")
	stressCmd.Flags().Bool("sequential", false, "keep the threading policy disabled")
	mode := progressAuto
	stressCmd.Flags().Var(&mode, "ui", "progress view (auto|on|off)")
}

type stressOptions struct {
	roots, leaves  int
	workers, types int
	jobs           int
	passes         string
	sequential     bool
	ui             progressMode
}

func readStressOptions(cmd *cobra.Command) (stressOptions, error) {
	var opts stressOptions
	var err error
	flags := cmd.Flags()
	for name, dst := range map[string]*int{
		"roots": &opts.roots, "leaves": &opts.leaves, "workers": &opts.workers,
		"types": &opts.types, "jobs": &opts.jobs,
	} {
		if *dst, err = flags.GetInt(name); err != nil {
			return opts, err
		}
		if *dst < 0 {
			return opts, fmt.Errorf("--%s must be >= 0", name)
		}
	}
	if opts.passes, err = flags.GetString("passes"); err != nil {
		return opts, err
	}
	if opts.sequential, err = flags.GetBool("sequential"); err != nil {
		return opts, err
	}
	mode, ok := flags.Lookup("ui").Value.(*progressMode)
	if !ok {
		return opts, fmt.Errorf("--ui is not a progress mode flag")
	}
	opts.ui = *mode
	if opts.jobs == 0 {
		opts.jobs = app.cfg.Context.Jobs
	}
	if opts.jobs == 0 {
		opts.jobs = runtime.GOMAXPROCS(0)
	}
	return opts, nil
}

func stressExecution(cmd *cobra.Command, _ []string) error {
	opts, err := readStressOptions(cmd)
	if err != nil {
		return err
	}
	stats := pass.NewOpStats()
	pipeline, err := pass.Lookup(opts.passes, stats)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)
	rep, bag := newReporter()
	c := ir.NewContext(append(contextOptions(rep), ir.WithMultithreading(!opts.sequential))...)
	out := cmd.OutOrStdout()

	if !opts.sequential {
		idx := app.timer.Begin("uniquing")
		err := stressUniquing(c, opts.workers, opts.types)
		app.timer.End(idx, fmt.Sprintf("%d workers x %d types", opts.workers, opts.types))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "uniquing: %d workers agreed on %d types, store holds %d objects\n",
			opts.workers, opts.types, c.Uniquer().Len()-1)
	}

	idx := app.timer.Begin("build")
	m, err := buildSyntheticModule(c, opts.roots, opts.leaves)
	app.timer.End(idx, fmt.Sprintf("%d roots", opts.roots))
	if err != nil {
		return err
	}
	log.V(1).Info("module built", "roots", opts.roots, "leaves", opts.leaves, "live", c.LiveObjects())

	names := make([]string, len(pipeline))
	for i, d := range pipeline {
		names[i] = d.Name
	}
	build := func(sink pass.Sink) *pass.Manager {
		return pass.NewManager(c, pipeline,
			pass.WithJobs(opts.jobs),
			pass.WithMetrics(app.metrics),
			pass.WithTimer(app.timer),
			pass.WithSink(sink),
		)
	}
	var report *pass.Report
	if opts.ui.draws(out) {
		report, err = runPassesWithUI(ctx, out, "passes", names, m, build)
	} else {
		report, err = build(nil).Run(ctx, m)
	}
	if report != nil {
		fmt.Fprintln(out)
		fmt.Fprint(out, ui.PassTable(report).Render())
		fmt.Fprintln(out)
		fmt.Fprint(out, ui.OpCountTable(stats.Counts()).Render())
	}
	printDiagnostics(cmd.ErrOrStderr(), bag)
	if err != nil {
		return err
	}

	if err := m.Destroy(); err != nil {
		return err
	}
	return c.Destroy()
}

// stressUniquing interns the same sequence of descriptors from every worker
// inside one parallel region and checks that all workers got the same IDs.
func stressUniquing(c *ir.Context, workers, count int) error {
	if workers == 0 || count == 0 {
		return nil
	}
	results := make([][]ir.Type, workers)
	err := c.Parallel(func(*ir.ParallelRegion) error {
		g, gctx := errgroup.WithContext(context.Background())
		for w := range workers {
			g.Go(func() error {
				out := make([]ir.Type, 0, count)
				for i := range count {
					if err := gctx.Err(); err != nil {
						return err
					}
					ty, err := stressType(c, i)
					if err != nil {
						return err
					}
					out = append(out, ty)
				}
				results[w] = out
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return err
	}
	for w := 1; w < workers; w++ {
		if !slices.Equal(results[0], results[w]) {
			return fmt.Errorf("worker %d interned different objects than worker 0", w)
		}
	}
	return nil
}

// stressType derives a type from i; descriptors repeat across i so the store
// sees both fresh and existing entries.
func stressType(c *ir.Context, i int) (ir.Type, error) {
	width := uint32(i%64) + 1
	elem, err := c.IntegerType(width, types.Signedness(i%3))
	if err != nil {
		return ir.Type{}, err
	}
	if i%4 != 0 {
		return elem, nil
	}
	f32, err := c.FloatType(types.F32)
	if err != nil {
		return ir.Type{}, err
	}
	return c.FunctionType([]ir.Type{elem, elem}, []ir.Type{f32})
}

// buildSyntheticModule creates roots operations "stress.root", each holding
// one block with leaves "stress.leaf" operations.
func buildSyntheticModule(c *ir.Context, roots, leaves int) (ir.Module, error) {
	m, err := c.CreateModule(ir.Location{})
	if err != nil {
		return ir.Module{}, err
	}
	body, err := m.Body()
	if err != nil {
		return ir.Module{}, err
	}
	for r := range roots {
		block, err := c.CreateBlock(nil, nil)
		if err != nil {
			return ir.Module{}, err
		}
		for range leaves {
			leaf, err := c.CreateOperation(ir.NewOperationState("stress.leaf", ir.Location{}))
			if err != nil {
				return ir.Module{}, err
			}
			if err := block.AppendOwnedOperation(leaf); err != nil {
				return ir.Module{}, err
			}
		}
		region, err := c.CreateRegion()
		if err != nil {
			return ir.Module{}, err
		}
		if err := region.AppendOwnedBlock(block); err != nil {
			return ir.Module{}, err
		}
		loc, err := c.FileLineColLoc("stress.mlir", uint32(r+1), 1)
		if err != nil {
			return ir.Module{}, err
		}
		root, err := c.CreateOperation(ir.NewOperationState("stress.root", loc).AddOwnedRegions(region))
		if err != nil {
			return ir.Module{}, err
		}
		if err := body.AppendOwnedOperation(root); err != nil {
			return ir.Module{}, err
		}
	}
	return m, nil
}
