package models

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

/***

Repo database format:

	gRepoStateKey => RepoState
	'm' + model ID => ModelRecord

Records are keyed by model ID, so iteration enumerates models in ID order.

***/

var (
	gRepoStateKey = []byte{0x00, 0x00, 0x01}
	gModelPrefix  = []byte{'m'}
)

const (
	gMajorVers = 2026
	gMinorVers = 1
)

// RepoOpts specifies how OpenRepo() opens a model repo.
type RepoOpts struct {
	gorbn.CatalogOpts
	Fetcher *Fetcher // nil denotes DefaultFetcher()
}

// Repo is a locally stored cache of published Boolean network models.
//
// Index rows arrive via SyncIndex(), rule text arrives lazily via Ensure(),
// and hand-made models arrive via TryAddModel().
type Repo struct {
	ctx        gorbn.CatalogContext
	readOnly   bool
	stateDirty bool
	state      RepoState
	db         *badger.DB
	fetcher    *Fetcher
}

// OpenRepo opens the model repo at the given path, creating it as needed.
// An empty CatalogOpts.DbPathName opens a repo residing in memory.
func OpenRepo(ctx gorbn.CatalogContext, opts RepoOpts) (*Repo, error) {
	repo := &Repo{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
		fetcher:  opts.Fetcher,
	}
	if repo.fetcher == nil {
		repo.fetcher = DefaultFetcher()
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode  :/
	if dbOpts.ReadOnly && runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(gorbn.ErrBadParam, "a read-only repo requires DbPathName")
		}
		dbOpts.InMemory = true
	}

	var err error
	repo.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	ctx.AttachCatalog(repo)

	err = repo.loadState()
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = nil
		repo.state = RepoState{
			MajorVers: gMajorVers,
			MinorVers: gMinorVers,
		}
		repo.stateDirty = true
	}
	if err == nil && repo.state.MajorVers != gMajorVers {
		err = errors.Errorf("repo version is %d.%d, expected %d.%d",
			repo.state.MajorVers, repo.state.MinorVers, gMajorVers, gMinorVers)
	}
	if err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func (repo *Repo) loadState() error {
	return repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gRepoStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return repo.state.Unmarshal(val)
		})
	})
}

func (repo *Repo) flushState() {
	if !repo.stateDirty || repo.db == nil || repo.readOnly {
		return
	}
	err := repo.db.Update(func(txn *badger.Txn) error {
		stateBuf, err := repo.state.Marshal()
		if err != nil {
			return err
		}
		return txn.Set(gRepoStateKey, stateBuf)
	})
	if err != nil {
		panic(err)
	}
	repo.stateDirty = false
}

// Close flushes pending repo state and closes the underlying db.
func (repo *Repo) Close() error {
	repo.flushState()
	if repo.db != nil {
		repo.db.Close()
		repo.db = nil
		repo.ctx.DetachCatalog(repo)
		repo.ctx = nil
	}
	return nil
}

func (repo *Repo) IsReadOnly() bool {
	return repo.readOnly
}

// NumModels returns the number of models whose rule text is stored locally.
// Index-only rows do not count until Ensure() fetches them.
func (repo *Repo) NumModels() int64 {
	return repo.state.ModelCount
}

// Keys passed to badger must be heap allocated since commits retain them.
func modelKey(modelID string) []byte {
	key := make([]byte, 0, 1+len(modelID))
	key = append(key, gModelPrefix...)
	return append(key, modelID...)
}

func (repo *Repo) loadRecord(modelID string) (*ModelRecord, error) {
	if repo.db == nil {
		return nil, gorbn.ErrRepoClosed
	}
	rec := &ModelRecord{}
	err := repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(modelID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(gorbn.ErrModelNotFound, "model %q", modelID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return rec.Unmarshal(val)
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (repo *Repo) storeRecord(rec *ModelRecord) error {
	if repo.db == nil {
		return gorbn.ErrRepoClosed
	}
	if repo.readOnly {
		return errors.Wrap(gorbn.ErrBadParam, "repo is read-only")
	}
	val, err := rec.Marshal()
	if err != nil {
		return err
	}
	return repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modelKey(rec.ID), val)
	})
}

// TryAddModel stores the given rule text under info.ID.
// If true is returned, no rule text was stored for that ID and src was added.
//
// src must parse as a complete rule file.
func (repo *Repo) TryAddModel(info gorbn.ModelInfo, src []byte) (bool, error) {
	if repo.db == nil {
		return false, gorbn.ErrRepoClosed
	}
	if repo.readOnly {
		return false, errors.Wrap(gorbn.ErrBadParam, "repo is read-only")
	}
	if info.ID == "" {
		return false, errors.Wrap(gorbn.ErrBadParam, "model ID missing")
	}
	net, err := librbn.ParseRules(src)
	if err != nil {
		return false, err
	}
	if info.NodeCount == 0 {
		info.NodeCount = int32(net.NodeCount())
	}

	added := false
	key := modelKey(info.ID)
	err = repo.db.Update(func(txn *badger.Txn) error {
		rec := &ModelRecord{
			ID:        info.ID,
			Name:      info.Name,
			NodeCount: info.NodeCount,
		}
		item, err := txn.Get(key)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return rec.Unmarshal(val)
			})
			if err != nil {
				return err
			}
			if len(rec.Source) > 0 {
				return nil
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		rec.Source = append(rec.Source[:0], src...)
		rec.FetchedAt = time.Now().Unix()
		val, err := rec.Marshal()
		if err != nil {
			return err
		}
		if err = txn.Set(key, val); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if added {
		repo.state.ModelCount++
		repo.stateDirty = true
	}
	return added, nil
}

// Select sends a ModelInfo to onHit for each stored model that sel admits,
// enumerating in ID order.  The caller owns onHit and typically runs Select
// in its own goroutine, closing onHit when it returns.
func (repo *Repo) Select(sel gorbn.ModelSelector, onHit gorbn.OnModelHit) {
	if repo.db == nil {
		return
	}
	txn := repo.db.NewTransaction(false)
	defer txn.Discard()

	itr := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         gModelPrefix,
	})
	defer itr.Close()

	rec := &ModelRecord{}
	for itr.Rewind(); itr.Valid(); itr.Next() {
		err := itr.Item().Value(func(val []byte) error {
			rec.Reset()
			return rec.Unmarshal(val)
		})
		if err != nil {
			panic(err)
		}
		info := gorbn.ModelInfo{
			ID:        rec.ID,
			Name:      rec.Name,
			NodeCount: rec.NodeCount,
		}
		if sel.Admits(info) {
			onHit <- info
		}
	}
}

// Models lists every indexed model in ID order.
func (repo *Repo) Models() []gorbn.ModelInfo {
	onHit := make(chan gorbn.ModelInfo, 4)
	go func() {
		repo.Select(gorbn.ModelSelector{}, onHit)
		close(onHit)
	}()

	var infos []gorbn.ModelInfo
	for info := range onHit {
		infos = append(infos, info)
	}
	return infos
}

// LoadSource returns the stored rule text of the given model.
func (repo *Repo) LoadSource(modelID string) ([]byte, error) {
	rec, err := repo.loadRecord(modelID)
	if err != nil {
		return nil, err
	}
	if len(rec.Source) == 0 {
		return nil, errors.Wrapf(gorbn.ErrModelNotFound, "model %q is indexed but not fetched", modelID)
	}
	return rec.Source, nil
}

// Load parses the stored rule text of the given model into a Net.
func (repo *Repo) Load(modelID string) (*librbn.Net, error) {
	src, err := repo.LoadSource(modelID)
	if err != nil {
		return nil, err
	}
	return librbn.ParseRules(src)
}

// SyncIndex refreshes the stored index rows from the published model summary,
// retaining already-fetched rule text.  It returns the number of index rows.
func (repo *Repo) SyncIndex(ctx context.Context) (int, error) {
	if repo.db == nil {
		return 0, gorbn.ErrRepoClosed
	}
	if repo.readOnly {
		return 0, errors.Wrap(gorbn.ErrBadParam, "repo is read-only")
	}

	recs, err := repo.fetcher.FetchIndex(ctx)
	if err != nil {
		return 0, err
	}

	for _, rec := range recs {
		exist, err := repo.loadRecord(rec.ID)
		if err == nil && len(exist.Source) > 0 {
			rec.Source = exist.Source
			rec.FetchedAt = exist.FetchedAt
		} else if err != nil && !errors.Is(err, gorbn.ErrModelNotFound) {
			return 0, err
		}
		if err = repo.storeRecord(rec); err != nil {
			return 0, err
		}
	}

	repo.state.LastSync = time.Now().Unix()
	repo.stateDirty = true
	repo.flushState()
	return len(recs), nil
}

// Ensure returns the given model's rule text, downloading and storing it on
// first use.
func (repo *Repo) Ensure(ctx context.Context, modelID string) ([]byte, error) {
	rec, err := repo.loadRecord(modelID)
	if err != nil {
		return nil, err
	}
	if len(rec.Source) > 0 {
		return rec.Source, nil
	}
	if repo.readOnly {
		return nil, errors.Wrapf(gorbn.ErrModelNotFound, "model %q is not fetched and the repo is read-only", modelID)
	}

	src, err := repo.fetcher.FetchModel(ctx, rec.Folder)
	if err != nil {
		return nil, errors.Wrapf(err, "model %q", modelID)
	}
	if _, err = librbn.ParseRules(src); err != nil {
		return nil, errors.Wrapf(err, "model %q", modelID)
	}

	rec.Source = src
	rec.FetchedAt = time.Now().Unix()
	if err = repo.storeRecord(rec); err != nil {
		return nil, err
	}
	repo.state.ModelCount++
	repo.stateDirty = true
	repo.flushState()
	return src, nil
}

// EnsureDefaults seeds an empty repo with a starter pair: the smallest and
// the largest indexed models, syncing the index first when needed.  When the
// repo already holds fetched models, their IDs are returned unchanged.
func (repo *Repo) EnsureDefaults(ctx context.Context) ([]string, error) {
	if repo.db == nil {
		return nil, gorbn.ErrRepoClosed
	}
	if repo.state.ModelCount > 0 {
		return repo.fetchedIDs()
	}
	if repo.state.LastSync == 0 {
		if _, err := repo.SyncIndex(ctx); err != nil {
			return nil, err
		}
	}

	models := repo.Models()
	usable := models[:0]
	for _, info := range models {
		if info.NodeCount > 0 {
			usable = append(usable, info)
		}
	}
	if len(usable) == 0 {
		return nil, errors.Wrap(gorbn.ErrModelNotFound, "index holds no usable models")
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].NodeCount < usable[j].NodeCount
	})

	picks := []gorbn.ModelInfo{usable[0]}
	if last := usable[len(usable)-1]; last.ID != picks[0].ID {
		picks = append(picks, last)
	}

	ids := make([]string, 0, len(picks))
	for _, info := range picks {
		if _, err := repo.Ensure(ctx, info.ID); err != nil {
			return nil, err
		}
		ids = append(ids, info.ID)
	}
	return ids, nil
}

func (repo *Repo) fetchedIDs() ([]string, error) {
	var ids []string
	err := repo.db.View(func(txn *badger.Txn) error {
		itr := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         gModelPrefix,
		})
		defer itr.Close()

		rec := &ModelRecord{}
		for itr.Rewind(); itr.Valid(); itr.Next() {
			err := itr.Item().Value(func(val []byte) error {
				rec.Reset()
				return rec.Unmarshal(val)
			})
			if err != nil {
				return err
			}
			if len(rec.Source) > 0 {
				ids = append(ids, rec.ID)
			}
		}
		return nil
	})
	return ids, err
}
