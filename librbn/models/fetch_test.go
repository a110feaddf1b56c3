package models_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"

	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn/models"
)

// Index rows: 99 is over the node filter, 7 is short, 5 has unparsable
// variables, and 8 has no folder on the tree page.
const summaryCSV = `ID, name, variables, inputs
3, cortical area, 5, 2
11, toy net, 3, 0
99, giant, 44, 1
7, short
8, ghost, 4, 0
5, mystery, xx, 0
`

const treePage = `{"payload":{"tree":{"items":[` +
	`{"name":"003-cortical","path":"models/003-cortical","contentType":"directory"},` +
	`{"name":"011-toy-net","path":"models/011-toy-net","contentType":"directory"}]}}}`

const corticalSrc = `CycD, CycD
Rb, !CycD & !CycB
E2F, !Rb & !CycB
CycA, E2F & !Rb
CycB, !CycA
`

func newModelServer(hits *int32) *httptest.Server {
	model := func(src string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if hits != nil {
				atomic.AddInt32(hits, 1)
			}
			io.WriteString(w, src)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/summary.csv", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, summaryCSV)
	})
	mux.HandleFunc("/tree", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, treePage)
	})
	mux.Handle("/models/003-cortical/model.bnet", model(corticalSrc))
	mux.Handle("/models/011-toy-net/model.bnet", model(toySrc))
	return httptest.NewServer(mux)
}

func testFetcher(srv *httptest.Server) *models.Fetcher {
	return &models.Fetcher{
		IndexURL: srv.URL + "/summary.csv",
		TreeURL:  srv.URL + "/tree",
		RawBase:  srv.URL + "/models",
		Client:   srv.Client(),
	}
}

func TestFetchIndex(t *testing.T) {
	srv := newModelServer(nil)
	defer srv.Close()

	recs, err := testFetcher(srv).FetchIndex(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d index rows", len(recs))
	}

	want := []models.ModelRecord{
		{ID: "3", Name: "cortical area", NodeCount: 5, Folder: "003-cortical"},
		{ID: "11", Name: "toy net", NodeCount: 3, Folder: "011-toy-net"},
		{ID: "8", Name: "ghost", NodeCount: 4, Folder: ""},
	}
	for i, rec := range recs {
		if rec.ID != want[i].ID || rec.Name != want[i].Name ||
			rec.NodeCount != want[i].NodeCount || rec.Folder != want[i].Folder {
			t.Fatalf("row %d: %v", i, rec.String())
		}
	}
}

func TestFetchModel(t *testing.T) {
	srv := newModelServer(nil)
	defer srv.Close()
	f := testFetcher(srv)
	ctx := context.Background()

	src, err := f.FetchModel(ctx, "011-toy-net")
	if err != nil {
		t.Fatal(err)
	}
	if string(src) != toySrc {
		t.Fatal("source mismatch")
	}

	if _, err = f.FetchModel(ctx, "no-such-folder"); !errors.Is(err, gorbn.ErrModelNotFound) {
		t.Fatalf("missing folder: %v", err)
	}
	if _, err = f.FetchModel(ctx, ""); !errors.Is(err, gorbn.ErrModelNotFound) {
		t.Fatalf("empty folder: %v", err)
	}
}

func TestRepoSync(t *testing.T) {
	gT = t
	var hits int32
	srv := newModelServer(&hits)
	defer srv.Close()

	catCtx := gorbn.NewCatalogContext()
	defer catCtx.Close()

	repo, err := models.OpenRepo(catCtx, models.RepoOpts{Fetcher: testFetcher(srv)})
	if err != nil {
		gT.Fatal(err)
	}
	defer repo.Close()
	ctx := context.Background()

	n, err := repo.SyncIndex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || repo.NumModels() != 0 {
		t.Fatal("SyncIndex")
	}
	if infos := repo.Models(); len(infos) != 3 {
		t.Fatalf("Models: %+v", infos)
	}

	src, err := repo.Ensure(ctx, "11")
	if err != nil {
		t.Fatal(err)
	}
	if string(src) != toySrc || atomic.LoadInt32(&hits) != 1 {
		t.Fatal("Ensure")
	}

	// A second Ensure serves the stored copy.
	if _, err = repo.Ensure(ctx, "11"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 1 || repo.NumModels() != 1 {
		t.Fatal("Ensure refetched")
	}

	if _, err = repo.Ensure(ctx, "8"); !errors.Is(err, gorbn.ErrModelNotFound) {
		t.Fatalf("folderless model: %v", err)
	}
	if _, err = repo.Ensure(ctx, "777"); !errors.Is(err, gorbn.ErrModelNotFound) {
		t.Fatalf("unindexed model: %v", err)
	}

	// Resyncing the index keeps fetched rule text.
	if _, err = repo.SyncIndex(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err = repo.LoadSource("11"); err != nil {
		t.Fatal(err)
	}
	if repo.NumModels() != 1 {
		t.Fatal("resync dropped a fetched model")
	}
}

func TestEnsureDefaults(t *testing.T) {
	gT = t
	var hits int32
	srv := newModelServer(&hits)
	defer srv.Close()

	catCtx := gorbn.NewCatalogContext()
	defer catCtx.Close()

	repo, err := models.OpenRepo(catCtx, models.RepoOpts{Fetcher: testFetcher(srv)})
	if err != nil {
		gT.Fatal(err)
	}
	defer repo.Close()
	ctx := context.Background()

	// Starter pair: the smallest and largest indexed models.
	ids, err := repo.EnsureDefaults(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "11" || ids[1] != "3" {
		t.Fatalf("EnsureDefaults: %v", ids)
	}
	if repo.NumModels() != 2 || atomic.LoadInt32(&hits) != 2 {
		t.Fatal("EnsureDefaults fetch count")
	}

	net, err := repo.Load("3")
	if err != nil {
		t.Fatal(err)
	}
	if net.NodeCount() != 5 {
		t.Fatal("Load")
	}

	// With models on hand the call lists them without touching the network.
	ids, err = repo.EnsureDefaults(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "11" || ids[1] != "3" {
		t.Fatalf("EnsureDefaults rerun: %v", ids)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatal("EnsureDefaults refetched")
	}
}
