package pyrbn

import (
	"context"
	"math/rand"
	"strings"

	"github.com/go-python/gpython/py"
	"github.com/pkg/errors"

	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
	"github.com/rbnsystems/gorbn/librbn/models"
	"github.com/rbnsystems/gorbn/librbn/trapsolve"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyNetType       = py.NewType("Net", "a Boolean network with one update rule per node")
	pyRepoType      = py.NewType("Repo", "models.Repo")
	pyWorkspaceType = py.NewType("Workspace", "collects active session resources and repos")
)

// Bare calls stay reproducible: every rng-taking function defaults its seed.
const kDefaultSeed = int64(1)

func pyErr(err error) error {
	if errors.Is(err, gorbn.ErrBadParam) {
		return py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.ExceptionNewf(py.RuntimeError, "%v", err)
}

func pyBool(obj py.Object) (bool, error) {
	if b, ok := obj.(py.Bool); ok {
		return bool(b), nil
	}
	return false, py.ExceptionNewf(py.TypeError, "expected bool (got %v)", obj.Type().Name)
}

func pyStr(obj py.Object) (string, error) {
	if str, ok := obj.(py.String); ok {
		return string(str), nil
	}
	return "", py.ExceptionNewf(py.TypeError, "expected str (got %v)", obj.Type().Name)
}

func disciplineArg(obj py.Object) (gorbn.Discipline, error) {
	mode, err := pyStr(obj)
	if err != nil {
		return 0, err
	}
	switch mode {
	case "sync":
		return gorbn.SyncUpdate, nil
	case "async":
		return gorbn.AsyncUpdate, nil
	}
	return 0, py.ExceptionNewf(py.ValueError, "mode %q is not 'sync' or 'async'", mode)
}

func sequenceItems(obj py.Object) ([]py.Object, bool) {
	switch seq := obj.(type) {
	case py.Tuple:
		return seq, true
	case *py.List:
		return seq.Items, true
	}
	return nil, false
}

// States cross into Python as bit strings, node 0 first ("011" sets nodes
// 1 and 2). Trajectories and attractors are tuples of such strings.
func trajToPy(traj librbn.Traj, nodeCount int) py.Tuple {
	states := make(py.Tuple, len(traj))
	for i, s := range traj {
		states[i] = py.String(s.Format(nodeCount))
	}
	return states
}

func attrsToPy(attrs []gorbn.Attractor, nodeCount int) py.Tuple {
	out := make(py.Tuple, len(attrs))
	for i, attr := range attrs {
		states := make(py.Tuple, len(attr))
		for j, s := range attr {
			states[j] = py.String(s.Format(nodeCount))
		}
		out[i] = states
	}
	return out
}

func pyToTraj(obj py.Object, nodeCount int) (librbn.Traj, error) {
	items, ok := sequenceItems(obj)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected a sequence of state strings (got %v)", obj.Type().Name)
	}
	traj := make(librbn.Traj, len(items))
	for i, item := range items {
		str, err := pyStr(item)
		if err != nil {
			return nil, err
		}
		if len(str) != nodeCount {
			return nil, py.ExceptionNewf(py.ValueError, "state %d has %d bits, net has %d nodes", i, len(str), nodeCount)
		}
		s, err := gorbn.ParseState(str)
		if err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "state %d: %v", i, err)
		}
		traj[i] = s
	}
	return traj, nil
}

type pyNet struct {
	*librbn.Net
}

func (net pyNet) Type() *py.Type {
	return pyNetType
}

func (net pyNet) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	net.WriteStructure(&writer)
	return py.String(writer.String()), nil
}

func (net pyNet) M__repr__() (py.Object, error) {
	return net.M__str__()
}

// Arg 1 (int): node count
// Arg 2 (int): max parents per node
// Arg 3 (bool, optional): relaxed generator variant
// Arg 4 (int, optional): rng seed
func py_GenNet(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 2 {
		return nil, py.ExceptionNewf(py.TypeError, "gen_net() takes at least 2 arguments (%d given)", len(args))
	}
	nodes, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}
	maxParents, err := py.GetInt(args[1])
	if err != nil {
		return nil, err
	}
	opts := librbn.GenOpts{
		Nodes:      int(nodes),
		MaxParents: int(maxParents),
	}
	seed := kDefaultSeed
	if len(args) > 2 {
		if opts.Relaxed, err = pyBool(args[2]); err != nil {
			return nil, err
		}
	}
	if len(args) > 3 {
		v, err := py.GetInt(args[3])
		if err != nil {
			return nil, err
		}
		seed = int64(v)
	}

	net, err := librbn.GenNet(rand.New(rand.NewSource(seed)), opts)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Object(pyNet{net}), nil
}

func py_ParseRules(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "parse_rules() takes 1 argument (%d given)", len(args))
	}
	text, err := pyStr(args[0])
	if err != nil {
		return nil, err
	}
	net, err := librbn.ParseRules([]byte(text))
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Object(pyNet{net}), nil
}

func py_LoadBNet(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "load_bnet() takes 1 argument (%d given)", len(args))
	}
	pathname, err := pyStr(args[0])
	if err != nil {
		return nil, err
	}
	net, err := librbn.LoadBNet(pathname)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Object(pyNet{net}), nil
}

func py_Net_Rules(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	return py.String(net.AppendRules(nil)), nil
}

func py_Net_NodeNames(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	names := make(py.Tuple, net.NodeCount())
	for i := range names {
		names[i] = py.String(net.NodeName(i))
	}
	return names, nil
}

// Arg 1 (int): sampled state count
// Arg 2 (int): stride between samples
// Arg 3 (str): "sync" or "async"
// Arg 4 (int, optional): rng seed
func py_Net_Sim(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	if len(args) < 3 {
		return nil, py.ExceptionNewf(py.TypeError, "sim() takes at least 3 arguments (%d given)", len(args))
	}
	count, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}
	stride, err := py.GetInt(args[1])
	if err != nil {
		return nil, err
	}
	d, err := disciplineArg(args[2])
	if err != nil {
		return nil, err
	}
	seed := kDefaultSeed
	if len(args) > 3 {
		v, err := py.GetInt(args[3])
		if err != nil {
			return nil, err
		}
		seed = int64(v)
	}

	traj, err := librbn.SampleTraj(rand.New(rand.NewSource(seed)), net.Net, int(count), int(stride), d)
	if err != nil {
		return nil, pyErr(err)
	}
	return trajToPy(traj, net.NodeCount()), nil
}

func (net pyNet) attractors(d gorbn.Discipline) ([]gorbn.Attractor, error) {
	switch d {
	case gorbn.SyncUpdate:
		return librbn.SyncAttractors(context.Background(), net.Net, gorbn.DefaultLimits)
	default:
		return librbn.AsyncAttractors(context.Background(), net.Net, &trapsolve.SatSolver{}, gorbn.DefaultLimits)
	}
}

func py_Net_SyncAttractors(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	attrs, err := net.attractors(gorbn.SyncUpdate)
	if err != nil {
		return nil, pyErr(err)
	}
	return attrsToPy(attrs, net.NodeCount()), nil
}

func py_Net_AsyncAttractors(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	attrs, err := net.attractors(gorbn.AsyncUpdate)
	if err != nil {
		return nil, pyErr(err)
	}
	return attrsToPy(attrs, net.NodeCount()), nil
}

// Arg 1 (sequence of str): trajectory
// Arg 2 (str): "sync" or "async"
func py_Net_Proportions(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	if len(args) < 2 {
		return nil, py.ExceptionNewf(py.TypeError, "proportions() takes 2 arguments (%d given)", len(args))
	}
	traj, err := pyToTraj(args[0], net.NodeCount())
	if err != nil {
		return nil, err
	}
	d, err := disciplineArg(args[1])
	if err != nil {
		return nil, err
	}
	attrs, err := net.attractors(d)
	if err != nil {
		return nil, pyErr(err)
	}
	transient, inAttr := librbn.Proportions(traj, attrs)
	return py.Tuple{py.Float(transient), py.Float(inAttr)}, nil
}

// Arg 1 (str): output pathname
// Arg 2 (sequence of trajectories): each a sequence of state strings
func py_Net_SaveBNF(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNet)
	if len(args) < 2 {
		return nil, py.ExceptionNewf(py.TypeError, "save_bnf() takes 2 arguments (%d given)", len(args))
	}
	pathname, err := pyStr(args[0])
	if err != nil {
		return nil, err
	}
	items, ok := sequenceItems(args[1])
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected a sequence of trajectories (got %v)", args[1].Type().Name)
	}
	trajs := make([]librbn.Traj, len(items))
	for i, item := range items {
		if trajs[i], err = pyToTraj(item, net.NodeCount()); err != nil {
			return nil, err
		}
	}
	if err = librbn.SaveBNF(pathname, net.Net, trajs); err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.None, nil
}

const kWorkspaceAttr = "_Workspace"

// Workspace collects the repos a script session opens so the module can
// close them when the interpreter context closes.
type Workspace struct {
	CatalogCtx gorbn.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func getWorkspace(module py.Object) *Workspace {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: gorbn.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj.(*Workspace)
}

type pyRepo struct {
	*models.Repo
}

func (repo pyRepo) Type() *py.Type {
	return pyRepoType
}

// Arg 1 (str, optional): repo dir; "" opens an in-memory repo
// Arg 2 (bool, optional): read-only
func py_OpenRepo(module py.Object, args py.Tuple) (py.Object, error) {
	opts := models.RepoOpts{}
	var err error
	if len(args) > 0 {
		if opts.DbPathName, err = pyStr(args[0]); err != nil {
			return nil, err
		}
	}
	if len(args) > 1 {
		if opts.ReadOnly, err = pyBool(args[1]); err != nil {
			return nil, err
		}
	}

	ws := getWorkspace(module)
	repo, err := models.OpenRepo(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Object(pyRepo{repo}), nil
}

func py_Repo_Ensure(self py.Object, args py.Tuple) (py.Object, error) {
	repo := self.(pyRepo)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "ensure() takes 1 argument (%d given)", len(args))
	}
	modelID, err := pyStr(args[0])
	if err != nil {
		return nil, err
	}
	src, err := repo.Ensure(context.Background(), modelID)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.String(src), nil
}

func py_Repo_EnsureDefaults(self py.Object, args py.Tuple) (py.Object, error) {
	repo := self.(pyRepo)
	ids, err := repo.EnsureDefaults(context.Background())
	if err != nil {
		return nil, pyErr(err)
	}
	out := make(py.Tuple, len(ids))
	for i, id := range ids {
		out[i] = py.String(id)
	}
	return out, nil
}

func py_Repo_Load(self py.Object, args py.Tuple) (py.Object, error) {
	repo := self.(pyRepo)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "load() takes 1 argument (%d given)", len(args))
	}
	modelID, err := pyStr(args[0])
	if err != nil {
		return nil, err
	}
	net, err := repo.Load(modelID)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Object(pyNet{net}), nil
}

// Each hit surfaces as an (id, name, node_count) tuple, in ID order.
func py_Repo_Models(self py.Object, args py.Tuple) (py.Object, error) {
	repo := self.(pyRepo)
	infos := repo.Models()
	out := make(py.Tuple, len(infos))
	for i, info := range infos {
		out[i] = py.Tuple{
			py.String(info.ID),
			py.String(info.Name),
			py.Int(info.NodeCount),
		}
	}
	return out, nil
}

func py_Repo_Close(self py.Object, args py.Tuple) (py.Object, error) {
	repo := self.(pyRepo)
	if repo.Repo != nil {
		repo.Close()
	}
	return py.None, nil
}

func init() {

	/////////////////////////////////
	// Net
	{
		pyNetType.Dict["rules"] = py.MustNewMethod("rules", py_Net_Rules, 0, "returns this net's rule lines as one string")
		pyNetType.Dict["node_names"] = py.MustNewMethod("node_names", py_Net_NodeNames, 0, "")
		pyNetType.Dict["sim"] = py.MustNewMethod("sim", py_Net_Sim, 0, "samples one random-start trajectory")
		pyNetType.Dict["sync_attractors"] = py.MustNewMethod("sync_attractors", py_Net_SyncAttractors, 0, "")
		pyNetType.Dict["async_attractors"] = py.MustNewMethod("async_attractors", py_Net_AsyncAttractors, 0, "")
		pyNetType.Dict["proportions"] = py.MustNewMethod("proportions", py_Net_Proportions, 0, "splits a trajectory into transient and in-attractor shares")
		pyNetType.Dict["save_bnf"] = py.MustNewMethod("save_bnf", py_Net_SaveBNF, 0, "writes trajectories as BNFinder2 blocks")
	}

	/////////////////////////////////
	// Repo
	{
		pyRepoType.Dict["ensure"] = py.MustNewMethod("ensure", py_Repo_Ensure, 0, "returns a model's rule text, downloading it on first use")
		pyRepoType.Dict["ensure_defaults"] = py.MustNewMethod("ensure_defaults", py_Repo_EnsureDefaults, 0, "")
		pyRepoType.Dict["load"] = py.MustNewMethod("load", py_Repo_Load, 0, "")
		pyRepoType.Dict["models"] = py.MustNewMethod("models", py_Repo_Models, 0, "")
		pyRepoType.Dict["close"] = py.MustNewMethod("close", py_Repo_Close, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("gen_net", py_GenNet, 0, ""),
			py.MustNewMethod("parse_rules", py_ParseRules, 0, ""),
			py.MustNewMethod("load_bnet", py_LoadBNet, 0, ""),
			py.MustNewMethod("open_repo", py_OpenRepo, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"PY_VERSION":  py.String("v3.4.0"),
			"MAX_NODES":   py.Int(gorbn.MaxNodes),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "pyrbn",
				Doc:  "random Boolean network gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
