package models

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rbnsystems/gorbn"
)

// Published index and sources, as laid out by biodivine-boolean-models.
const (
	DefaultIndexURL = "https://raw.githubusercontent.com/sybila/biodivine-boolean-models/main/models/summary.csv"
	DefaultTreeURL  = "https://github.com/sybila/biodivine-boolean-models/tree/main/models"
	DefaultRawBase  = "https://raw.githubusercontent.com/sybila/biodivine-boolean-models/main/models"

	// DefaultFetchMaxNodes drops indexed models too large for exhaustive analysis.
	DefaultFetchMaxNodes = 16

	DefaultFetchTimeout = 30 * time.Second
)

// Fetcher downloads the published-model index and model sources.
// Zero fields take the defaults above; tests point the URLs at a local server.
type Fetcher struct {
	IndexURL string
	TreeURL  string
	RawBase  string
	MaxNodes int32        // index filter: keep models with at most this many nodes
	Client   *http.Client // nil denotes a client with DefaultFetchTimeout
}

func DefaultFetcher() *Fetcher {
	return &Fetcher{
		IndexURL: DefaultIndexURL,
		TreeURL:  DefaultTreeURL,
		RawBase:  DefaultRawBase,
		MaxNodes: DefaultFetchMaxNodes,
	}
}

var defaultClient = &http.Client{
	Timeout: DefaultFetchTimeout,
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "fetch %q: %v", rawURL, err)
	}

	client := f.Client
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %q", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(gorbn.ErrModelNotFound, "fetch %q: %s", rawURL, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %q: %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %q", rawURL)
	}
	return body, nil
}

// FetchIndex downloads the model index and resolves each entry's repository
// folder from the tree page.  Entries over the node filter or with unparsable
// rows are dropped; entries whose folder the tree page doesn't list keep an
// empty Folder.
func (f *Fetcher) FetchIndex(ctx context.Context) ([]*ModelRecord, error) {
	indexURL, treeURL := f.IndexURL, f.TreeURL
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	if treeURL == "" {
		treeURL = DefaultTreeURL
	}
	maxNodes := f.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultFetchMaxNodes
	}

	summary, err := f.get(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	rd := csv.NewReader(strings.NewReader(string(summary)))
	rd.TrimLeadingSpace = true
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if err != nil {
		return nil, errors.Wrap(err, "summary.csv")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	idCol, ok1 := cols["ID"]
	nameCol, ok2 := cols["name"]
	varsCol, ok3 := cols["variables"]
	if !ok1 || !ok2 || !ok3 {
		return nil, errors.Errorf("summary.csv: unexpected header %v", header)
	}

	var recs []*ModelRecord
	for {
		row, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "summary.csv")
		}
		if idCol >= len(row) || nameCol >= len(row) || varsCol >= len(row) {
			continue
		}
		vars, err := strconv.Atoi(strings.TrimSpace(row[varsCol]))
		if err != nil || int32(vars) > maxNodes {
			continue
		}
		recs = append(recs, &ModelRecord{
			ID:        strings.TrimSpace(row[idCol]),
			Name:      strings.TrimSpace(row[nameCol]),
			NodeCount: int32(vars),
		})
	}

	// One tree-page fetch resolves every folder.
	tree, err := f.get(ctx, treeURL)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		rec.Folder = folderFromTreePage(tree, rec.ID)
	}
	return recs, nil
}

// folderFromTreePage scans the repository tree page for a
// "path":"models/<folder>" entry matching the model ID.
func folderFromTreePage(page []byte, modelID string) string {
	pattern := `"path":"models/([^"]*` + regexp.QuoteMeta(modelID) + `[^"]*)"`
	m := regexp.MustCompile(pattern).FindSubmatch(page)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// FetchModel downloads one model's rule text from its repository folder.
func (f *Fetcher) FetchModel(ctx context.Context, folder string) ([]byte, error) {
	if folder == "" {
		return nil, errors.Wrap(gorbn.ErrModelNotFound, "model has no repository folder")
	}
	rawBase := f.RawBase
	if rawBase == "" {
		rawBase = DefaultRawBase
	}
	return f.get(ctx, rawBase+"/"+escapePath(folder)+"/model.bnet")
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
