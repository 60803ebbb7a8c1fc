package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"irguard/internal/diag"
	"irguard/internal/ir"
	"irguard/internal/trace"
	"irguard/internal/types"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int
	Step   Step
	Got    string
	Err    error
	Passed bool
}

// Result collects step outcomes and the diagnostics the context reported.
type Result struct {
	Name        string
	Steps       []StepResult
	Diagnostics map[diag.Code]int
	// Store is the uniquing store of the scenario's context.
	Store *types.Interner
}

// Failed counts steps whose outcome differed from the expectation.
func (r *Result) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Passed {
			n++
		}
	}
	return n
}

// Outcome classifies err as ok, error or a violation name.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := ir.CodeOf(err); code != diag.UnknownCode {
		return code.Name()
	}
	return OutcomeError
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	reporter diag.Reporter
	context  []ir.Option
}

// WithReporter additionally sends every reported diagnostic to rep.
func WithReporter(rep diag.Reporter) Option {
	return func(c *runConfig) { c.reporter = rep }
}

// WithContextOptions passes options to the scenario's context.
func WithContextOptions(opts ...ir.Option) Option {
	return func(c *runConfig) { c.context = append(c.context, opts...) }
}

// Run executes s on a fresh context. The logger and tracer carried by ctx
// are handed to the context. The returned error is a script error (unbound
// names, wrong object kinds); contract outcomes are recorded in the result.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	bag := diag.NewBag(len(s.Steps))
	ctxOpts := append([]ir.Option{
		ir.WithLogger(logr.FromContextOrDiscard(ctx).WithValues("scenario", s.Name)),
		ir.WithTracer(trace.FromContext(ctx)),
		ir.WithMultithreading(s.Multithreading),
	}, cfg.context...)
	ctxOpts = append(ctxOpts, ir.WithReporter(diag.MultiReporter{diag.BagReporter{Bag: bag}, cfg.reporter}))
	r := &runner{
		c:        ir.NewContext(ctxOpts...),
		bindings: make(map[string]any),
	}
	defer r.endRegions()

	res := &Result{Name: s.Name, Store: r.c.Uniquer()}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := r.step(st)
		var se *scriptError
		if errors.As(err, &se) {
			return res, fmt.Errorf("steps[%d] %s: %w", i, st.Do, se.err)
		}
		got := Outcome(err)
		res.Steps = append(res.Steps, StepResult{
			Index:  i + 1,
			Step:   st,
			Got:    got,
			Err:    err,
			Passed: got == st.Expect,
		})
	}
	res.Diagnostics = bag.CountByCode()
	return res, nil
}

type scriptError struct{ err error }

func (e *scriptError) Error() string { return e.err.Error() }

func scriptErrorf(format string, args ...any) error {
	return &scriptError{fmt.Errorf(format, args...)}
}

type runner struct {
	c        *ir.Context
	bindings map[string]any
	regions  []*ir.ParallelRegion
}

func (r *runner) endRegions() {
	for _, pr := range r.regions {
		pr.End()
	}
}

func (r *runner) step(st Step) error {
	if !st.Go {
		return r.exec(st)
	}
	var g errgroup.Group
	g.Go(func() error { return r.exec(st) })
	return g.Wait()
}

func (r *runner) bind(name string, v any) {
	if name != "" {
		r.bindings[name] = v
	}
}

func lookup[T any](r *runner, name string) (T, error) {
	var zero T
	v, ok := r.bindings[name]
	if !ok {
		return zero, scriptErrorf("%q is not bound", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, scriptErrorf("%q is a %s, want %s", name, kindOf(v), kindOf(zero))
	}
	return t, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case ir.Module:
		return "module"
	case ir.Operation:
		return "operation"
	case ir.Region:
		return "region"
	case ir.Block:
		return "block"
	case ir.Attribute:
		return "attribute"
	case *ir.ParallelRegion:
		return "parallel region"
	case *ir.Claim:
		return "claim"
	case *ir.Lease:
		return "lease"
	case ir.Handle:
		return "handle"
	}
	return fmt.Sprintf("%T", v)
}

func (r *runner) exec(st Step) error {
	switch st.Do {
	case ActModule:
		m, err := r.c.CreateModule(ir.Location{})
		r.bind(st.As, m)
		return err
	case ActBody:
		m, err := lookup[ir.Module](r, st.On)
		if err != nil {
			return err
		}
		body, err := m.Body()
		r.bind(st.As, body)
		return err
	case ActRegion:
		region, err := r.c.CreateRegion()
		r.bind(st.As, region)
		return err
	case ActBlock:
		b, err := r.c.CreateBlock(nil, nil)
		r.bind(st.As, b)
		return err
	case ActOperation:
		state := ir.NewOperationState(st.Name, ir.Location{})
		for _, name := range st.Regions {
			region, err := lookup[ir.Region](r, name)
			if err != nil {
				return err
			}
			state.AddOwnedRegions(region)
		}
		op, err := r.c.CreateOperation(state)
		r.bind(st.As, op)
		return err
	case ActAppend:
		return r.attach(st)
	case ActErase:
		return r.erase(st)
	case ActRemove:
		op, err := lookup[ir.Operation](r, st.On)
		if err != nil {
			return err
		}
		detached, err := op.RemoveFromParent()
		if err == nil {
			r.bind(st.As, detached)
		}
		return err
	case ActDetach:
		b, err := lookup[ir.Block](r, st.On)
		if err != nil {
			return err
		}
		detached, err := b.Detach()
		if err == nil {
			r.bind(st.As, detached)
		}
		return err
	case ActDestroy:
		return r.destroy(st)
	case ActTakeBody:
		dst, err := lookup[ir.Region](r, st.On)
		if err != nil {
			return err
		}
		src, err := lookup[ir.Region](r, st.Arg)
		if err != nil {
			return err
		}
		return dst.TakeBody(src)
	case ActFirst:
		return r.first(st)
	case ActRead:
		return r.read(st)
	case ActClone:
		op, err := lookup[ir.Operation](r, st.On)
		if err != nil {
			return err
		}
		dup, err := op.Clone()
		r.bind(st.As, dup)
		return err
	case ActStringAttr:
		attr, err := r.c.StringAttr(st.Value)
		r.bind(st.As, attr)
		return err
	case ActSame:
		a, err := lookup[ir.Attribute](r, st.On)
		if err != nil {
			return err
		}
		b, err := lookup[ir.Attribute](r, st.Arg)
		if err != nil {
			return err
		}
		if !a.Equal(b.UniquedObject) {
			return fmt.Errorf("%s and %s are different objects", a, b)
		}
		return nil
	case ActSetAttr:
		op, err := lookup[ir.Operation](r, st.On)
		if err != nil {
			return err
		}
		attr, err := lookup[ir.Attribute](r, st.Arg)
		if err != nil {
			return err
		}
		return op.SetAttribute(st.Name, attr)
	case ActMutate:
		return r.mutate(st)
	case ActLease:
		op, err := lookup[ir.Operation](r, st.On)
		if err != nil {
			return err
		}
		leased, lease := r.c.Lease(op)
		r.bind(st.As, leased)
		r.bind(st.As+".lease", lease)
		return nil
	case ActRevoke:
		lease, err := lookup[*ir.Lease](r, st.On+".lease")
		if err != nil {
			return err
		}
		lease.Revoke()
		return nil
	case ActMultithreading:
		return r.c.EnableMultithreading(st.Value == "on")
	case ActBeginRegion:
		pr, err := r.c.BeginParallelRegion()
		if err == nil {
			r.regions = append(r.regions, pr)
			r.bind(st.As, pr)
		}
		return err
	case ActEndRegion:
		pr, err := lookup[*ir.ParallelRegion](r, st.On)
		if err != nil {
			return err
		}
		pr.End()
		return nil
	case ActClaim:
		pr, err := lookup[*ir.ParallelRegion](r, st.On)
		if err != nil {
			return err
		}
		op, err := lookup[ir.Operation](r, st.Arg)
		if err != nil {
			return err
		}
		cl, err := pr.Claim(op)
		if err == nil {
			r.bind(st.As, cl)
		}
		return err
	case ActRelease:
		cl, err := lookup[*ir.Claim](r, st.On)
		if err != nil {
			return err
		}
		cl.Release()
		return nil
	case ActDestroyContext:
		return r.c.Destroy()
	}
	return scriptErrorf("unknown action %q", st.Do)
}

func (r *runner) attach(st Step) error {
	switch parent := r.bindings[st.On].(type) {
	case ir.Block:
		op, err := lookup[ir.Operation](r, st.Arg)
		if err != nil {
			return err
		}
		return parent.AppendOwnedOperation(op)
	case ir.Region:
		b, err := lookup[ir.Block](r, st.Arg)
		if err != nil {
			return err
		}
		return parent.AppendOwnedBlock(b)
	case nil:
		return scriptErrorf("%q is not bound", st.On)
	default:
		return scriptErrorf("cannot append to a %s", kindOf(parent))
	}
}

func (r *runner) erase(st Step) error {
	switch parent := r.bindings[st.On].(type) {
	case ir.Block:
		op, err := lookup[ir.Operation](r, st.Arg)
		if err != nil {
			return err
		}
		return parent.EraseOperation(op)
	case ir.Region:
		b, err := lookup[ir.Block](r, st.Arg)
		if err != nil {
			return err
		}
		return parent.EraseBlock(b)
	case nil:
		return scriptErrorf("%q is not bound", st.On)
	default:
		return scriptErrorf("cannot erase from a %s", kindOf(parent))
	}
}

func (r *runner) destroy(st Step) error {
	switch h := r.bindings[st.On].(type) {
	case ir.Module:
		return h.Destroy()
	case ir.Operation:
		return h.Destroy()
	case ir.Region:
		return h.Destroy()
	case ir.Block:
		return h.Destroy()
	case nil:
		return scriptErrorf("%q is not bound", st.On)
	default:
		return scriptErrorf("cannot destroy a %s", kindOf(h))
	}
}

func (r *runner) first(st Step) error {
	switch h := r.bindings[st.On].(type) {
	case ir.Block:
		op, err := h.FirstOperation()
		r.bind(st.As, op)
		return err
	case ir.Region:
		b, err := h.FirstBlock()
		r.bind(st.As, b)
		return err
	case nil:
		return scriptErrorf("%q is not bound", st.On)
	default:
		return scriptErrorf("a %s has no children", kindOf(h))
	}
}

// read performs the cheapest inspection call the object supports.
func (r *runner) read(st Step) error {
	var err error
	switch h := r.bindings[st.On].(type) {
	case ir.Module:
		_, err = h.Body()
	case ir.Operation:
		_, err = h.Name()
	case ir.Region:
		_, err = h.NumBlocks()
	case ir.Block:
		_, err = h.NumOperations()
	case ir.Attribute:
		_, err = h.Descriptor()
	case nil:
		return scriptErrorf("%q is not bound", st.On)
	default:
		return scriptErrorf("cannot read a %s", kindOf(h))
	}
	return err
}

// mutate routes a no-op native call through the guard pipeline on the
// object, classified as the named call.
func (r *runner) mutate(st Step) error {
	name := st.Name
	if name == "" {
		name = ir.CallOperationSetAttributeByName.Name
	}
	call, ok := ir.LookupCall(name)
	if !ok {
		return scriptErrorf("unknown call %q", name)
	}
	h, ok := r.bindings[st.On].(ir.Handle)
	if !ok {
		return scriptErrorf("%q is not a handle", st.On)
	}
	if call.Category != ir.CategoryMutation {
		return scriptErrorf("%s is a %s call, not a mutation", call.Name, call.Category)
	}
	return r.c.Apply(call, h, func() error { return nil })
}
