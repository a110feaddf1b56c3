package librbn

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rbnsystems/gorbn"
)

const (
	DefaultMaxParents = 3
	DefaultOutDir     = "BN_data"
	DefaultReport     = "report.txt"
)

// Plan declares one experiment sweep: every axis to vary plus everything
// needed to reproduce the sweep bit for bit.
//
// A sweep varies one axis at a time.  While the steps list is walked, stride
// and trajectory count hold at their Base values, and so on for the other two
// axes.
type Plan struct {
	Nodes       []int    `yaml:"nodes"`       // network sizes to run
	Steps       []int    `yaml:"steps"`       // states kept per trajectory
	Sample      []int    `yaml:"sample"`      // raw steps between kept states
	NTraj       []int    `yaml:"ntraj"`       // trajectories per config
	Disciplines []string `yaml:"disciplines"` // subset of {sync, async}; empty = both
	MaxParents  int      `yaml:"max_parents"` // clamped to n-1 per network; 0 = DefaultMaxParents
	Relaxed     bool     `yaml:"relaxed"`     // allow parentless nodes and self-parents
	Seed        int64    `yaml:"seed"`
	OutDir      string   `yaml:"out_dir"` // BNFinder2 exports land here; "" = DefaultOutDir
	Report      string   `yaml:"report"`  // report path, for drivers; Run writes to RunDeps.Report
	Solver      []string `yaml:"solver"`  // external solver argv, for drivers; empty = native

	BaseSteps  int `yaml:"base_steps"`  // 0 = middle steps entry
	BaseSample int `yaml:"base_sample"` // 0 = first sample entry
	BaseNTraj  int `yaml:"base_ntraj"`  // 0 = middle ntraj entry
}

// DefaultPlan returns the stock three-axis sweep.
func DefaultPlan() *Plan {
	return &Plan{
		Nodes:  []int{5, 8, 16},
		Steps:  []int{10, 20, 30},
		Sample: []int{1, 2, 3},
		NTraj:  []int{16, 32, 64},
		Seed:   1,
	}
}

// PlanFromYAML unmarshals and validates a sweep plan.
func PlanFromYAML(src []byte) (*Plan, error) {
	plan := &Plan{}
	if err := yaml.Unmarshal(src, plan); err != nil {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "plan yaml: %v", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate fills defaulted fields in place and rejects a plan no sweep could run.
func (plan *Plan) Validate() error {
	if plan.MaxParents == 0 {
		plan.MaxParents = DefaultMaxParents
	}
	if plan.OutDir == "" {
		plan.OutDir = DefaultOutDir
	}
	if plan.Report == "" {
		plan.Report = DefaultReport
	}
	if len(plan.Disciplines) == 0 {
		plan.Disciplines = []string{"sync", "async"}
	}

	if len(plan.Nodes) == 0 || len(plan.Steps) == 0 || len(plan.Sample) == 0 || len(plan.NTraj) == 0 {
		return errors.Wrap(gorbn.ErrBadParam, "plan: every axis needs at least one entry")
	}
	for _, n := range plan.Nodes {
		if err := plan.genOpts(n).Validate(); err != nil {
			return err
		}
	}
	for _, s := range plan.Steps {
		if s < 1 {
			return errors.Wrapf(gorbn.ErrBadParam, "plan: steps entry %d", s)
		}
	}
	for _, r := range plan.Sample {
		if r < 1 {
			return errors.Wrapf(gorbn.ErrBadParam, "plan: sample entry %d", r)
		}
	}
	for _, nt := range plan.NTraj {
		if nt < 1 {
			return errors.Wrapf(gorbn.ErrBadParam, "plan: ntraj entry %d", nt)
		}
	}
	for _, d := range plan.Disciplines {
		if d != gorbn.SyncUpdate.String() && d != gorbn.AsyncUpdate.String() {
			return errors.Wrapf(gorbn.ErrBadParam, "plan: unknown discipline %q", d)
		}
	}

	if plan.BaseSteps == 0 {
		plan.BaseSteps = plan.Steps[len(plan.Steps)/2]
	}
	if plan.BaseSample == 0 {
		plan.BaseSample = plan.Sample[0]
	}
	if plan.BaseNTraj == 0 {
		plan.BaseNTraj = plan.NTraj[len(plan.NTraj)/2]
	}
	if plan.BaseSteps < 1 || plan.BaseSample < 1 || plan.BaseNTraj < 1 {
		return errors.Wrap(gorbn.ErrBadParam, "plan: base values must be >= 1")
	}
	return nil
}

func (plan *Plan) genOpts(nodes int) GenOpts {
	return GenOpts{
		Nodes:      nodes,
		MaxParents: min(plan.MaxParents, nodes-1),
		Relaxed:    plan.Relaxed,
	}
}

// trajTotal is the number of trajectories the whole sweep will sample per discipline.
func (plan *Plan) trajTotal() int64 {
	perNet := int64(len(plan.Steps)+len(plan.Sample)) * int64(plan.BaseNTraj)
	for _, nt := range plan.NTraj {
		perNet += int64(nt)
	}
	return perNet * int64(len(plan.Nodes))
}

// RunDeps carries the collaborators a sweep run needs.
type RunDeps struct {
	Report io.Writer        // receives the text report
	Solver gorbn.TrapSolver // resolves async attractors; required when async is selected
	Limits gorbn.Limits     // zero fields take gorbn.DefaultLimits
}

// Run executes the plan: one generated network per node count, both attractor
// sets computed once, then the three axis sweeps.  The report goes to
// deps.Report and each config's trajectories land under plan.OutDir as
// BNFinder2 .data files, one per discipline.
func Run(ctx context.Context, plan *Plan, deps RunDeps) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if deps.Report == nil {
		return errors.Wrap(gorbn.ErrBadParam, "run: missing report writer")
	}

	run := &sweepRun{
		plan: plan,
		deps: deps,
		rng:  rand.New(rand.NewSource(plan.Seed)),
	}
	for _, d := range plan.Disciplines {
		switch d {
		case gorbn.SyncUpdate.String():
			run.wantSync = true
		case gorbn.AsyncUpdate.String():
			run.wantAsync = true
		}
	}
	if run.wantAsync && deps.Solver == nil {
		return errors.Wrap(gorbn.ErrBadParam, "run: async selected without a solver")
	}

	if err := os.MkdirAll(plan.OutDir, 0755); err != nil {
		return errors.Wrapf(err, "run %q", plan.OutDir)
	}

	run.sigs = NewSigSet(plan.trajTotal())
	defer run.sigs.Close()

	for _, n := range plan.Nodes {
		if err := run.runNet(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// sweepRun is the state shared by every config of one Run call.
type sweepRun struct {
	plan      *Plan
	deps      RunDeps
	rng       *rand.Rand
	sigs      SigSet
	wantSync  bool
	wantAsync bool

	// per network
	net        *Net
	nodes      int
	syncAttrs  []gorbn.Attractor
	asyncAttrs []gorbn.Attractor
}

func (run *sweepRun) runNet(ctx context.Context, nodes int) error {
	net, err := GenNet(run.rng, run.plan.genOpts(nodes))
	if err != nil {
		return err
	}
	run.net = net
	run.nodes = nodes

	report := run.deps.Report
	fmt.Fprintf(report, "BOOLEAN NETWORK (nodes = %d)\n\n", nodes)
	net.WriteStructure(report)

	run.syncAttrs, run.asyncAttrs = nil, nil
	if run.wantSync {
		if run.syncAttrs, err = SyncAttractors(ctx, net, run.deps.Limits); err != nil {
			return err
		}
	}
	if run.wantAsync {
		if run.asyncAttrs, err = AsyncAttractors(ctx, net, run.deps.Solver, run.deps.Limits); err != nil {
			return err
		}
	}

	plan := run.plan
	for _, s := range plan.Steps {
		if err := run.runConfig(ctx, s, plan.BaseSample, plan.BaseNTraj); err != nil {
			return err
		}
	}
	for _, r := range plan.Sample {
		if err := run.runConfig(ctx, plan.BaseSteps, r, plan.BaseNTraj); err != nil {
			return err
		}
	}
	for _, nt := range plan.NTraj {
		if err := run.runConfig(ctx, plan.BaseSteps, plan.BaseSample, nt); err != nil {
			return err
		}
	}

	fmt.Fprint(report, "\n======================\n\n")
	return nil
}

// runConfig samples, exports, and reports one (steps, stride, ntraj) config.
func (run *sweepRun) runConfig(ctx context.Context, steps, stride, ntraj int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	report := run.deps.Report
	fmt.Fprintf(report, "\n[Attractors | nodes=%d, steps=%d, sample=%d, ntraj=%d]\n",
		run.nodes, steps, stride, ntraj)
	if run.wantSync {
		fmt.Fprintf(report, "  sync  attractors : %d\n", len(run.syncAttrs))
	}
	if run.wantAsync {
		fmt.Fprintf(report, "  async attractors : %d\n", len(run.asyncAttrs))
	}

	type tap struct {
		label  string
		scored *ScoredStream
	}
	var taps []tap

	openTap := func(d gorbn.Discipline, attrs []gorbn.Attractor) error {
		name := fmt.Sprintf("nodes%d_steps%d_sample%d_ntraj%d_%s.data",
			run.nodes, steps, stride, ntraj, d)
		f, err := os.Create(filepath.Join(run.plan.OutDir, name))
		if err != nil {
			return errors.Wrapf(err, "config %q", name)
		}
		stream, err := GenTrajs(run.rng, run.net, steps, stride, ntraj, d)
		if err != nil {
			f.Close()
			return err
		}
		taps = append(taps, tap{
			label:  d.String(),
			scored: stream.WriteBNF(f, run.net).Score(attrs),
		})
		return nil
	}
	if run.wantSync {
		if err := openTap(gorbn.SyncUpdate, run.syncAttrs); err != nil {
			return err
		}
	}
	if run.wantAsync {
		if err := openTap(gorbn.AsyncUpdate, run.asyncAttrs); err != nil {
			return err
		}
	}

	var (
		sigBuf [64]byte
		parts  []string
	)
	for i := 0; i < ntraj; i++ {
		parts = parts[:0]
		sig := sigBuf[:0]
		for _, tp := range taps {
			scored := tp.scored.PullScored()
			parts = append(parts, fmt.Sprintf("%s=%.3f, %.3f", tp.label, scored.Transient, scored.InAttr))
			sig = AppendPropSig(sig, scored.InAttr)
		}
		fmt.Fprintf(report, "  traj %02d | %s\n", i+1, strings.Join(parts, " | "))
		run.sigs.TryAdd(sig)
	}
	fmt.Fprintf(report, "  distinct props   : %d\n", run.sigs.Count())

	// Draining waits for the export stages to close their files.
	for _, tp := range taps {
		for range tp.scored.Outlet {
		}
	}
	return nil
}
