package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/plan-systems/klog"

	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
	"github.com/rbnsystems/gorbn/librbn/models"
	"github.com/rbnsystems/gorbn/librbn/trapsolve"
)

// runPlan executes the sweep declared in a YAML plan file.  The report goes
// to stdout and to the plan's report path; -solver (or the plan's solver
// list) swaps the native SAT solver for an external tool.
func runPlan(planPath, solverArgs string) error {
	doc, err := os.ReadFile(planPath)
	if err != nil {
		return err
	}
	plan, err := librbn.PlanFromYAML(doc)
	if err != nil {
		return err
	}

	argv := plan.Solver
	if solverArgs != "" {
		argv = strings.Fields(solverArgs)
	}
	var solver gorbn.TrapSolver = &trapsolve.SatSolver{}
	if len(argv) > 0 {
		solver = &trapsolve.ExecSolver{Args: argv}
	}

	report, err := os.Create(plan.Report)
	if err != nil {
		return err
	}
	defer report.Close()

	klog.V(2).Infof("plan %s: report to %s, exports to %s", planPath, plan.Report, plan.OutDir)

	deps := librbn.RunDeps{
		Report: io.MultiWriter(os.Stdout, report),
		Solver: solver,
		Limits: gorbn.DefaultLimits,
	}
	return librbn.Run(context.Background(), plan, deps)
}

// Starter-model export: one BNFinder2 file per model and discipline.
const (
	kModelTrajs = 10
	kModelSteps = 50
)

// runModels opens (seeding as needed) the model repo at cacheDir and writes
// each fetched model's trajectories under the stock data dir.
func runModels(cacheDir string) error {
	ctx := context.Background()

	catCtx := gorbn.NewCatalogContext()
	defer func() {
		catCtx.Close()
		<-catCtx.Done()
	}()

	opts := models.RepoOpts{}
	opts.DbPathName = cacheDir
	repo, err := models.OpenRepo(catCtx, opts)
	if err != nil {
		return err
	}
	defer repo.Close()

	ids, err := repo.EnsureDefaults(ctx)
	if err != nil {
		return err
	}

	names := make(map[string]string)
	for _, info := range repo.Models() {
		names[info.ID] = info.Name
	}

	if err = os.MkdirAll(librbn.DefaultOutDir, 0755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	for _, id := range ids {
		net, err := repo.Load(id)
		if err != nil {
			klog.Warningf("skipping model %s: %v", id, err)
			continue
		}
		tag := id
		if name := names[id]; name != "" {
			tag = id + "_" + name
		}
		klog.V(2).Infof("model %s: %d nodes", tag, net.NodeCount())

		for _, d := range []gorbn.Discipline{gorbn.SyncUpdate, gorbn.AsyncUpdate} {
			pathname := filepath.Join(librbn.DefaultOutDir, fmt.Sprintf("%s_%s.data", tag, d))
			f, err := os.Create(pathname)
			if err != nil {
				return err
			}
			stream, err := librbn.GenTrajs(rng, net, kModelSteps+1, 1, kModelTrajs, d)
			if err != nil {
				f.Close()
				return err
			}
			stream.WriteBNF(f, net).PullAll()
		}
	}
	return nil
}
