package main

import (
	"flag"

	"github.com/plan-systems/klog"
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	planPath := flag.String("plan", "", "run the sweep plan in the given YAML file")
	cacheDir := flag.String("cache", "", "model repo dir; fetch starter models and export their trajectories")
	solverArgs := flag.String("solver", "", "external trap space solver command for async analysis")

	flag.Parse()

	ran := false
	if *planPath != "" {
		if err := runPlan(*planPath, *solverArgs); err != nil {
			klog.Fatalf("plan failed: %v", err)
		}
		ran = true
	}
	if *cacheDir != "" {
		if err := runModels(*cacheDir); err != nil {
			klog.Fatalf("model export failed: %v", err)
		}
		ran = true
	}

	// With no work flags, the arg is a Python script to run (or a REPL).
	if !ran {
		pathname := flag.Arg(0)
		go_gpython(pathname)
	}

	klog.Flush()
}
