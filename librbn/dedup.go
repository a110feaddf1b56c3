package librbn

import (
	"bytes"
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/dgraph-io/badger/v3"
)

// AppendSig appends the canonical byte signature of this trajectory.
// Two trajectories have equal signatures iff they visit the same states in the same order.
func (traj Traj) AppendSig(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scrap[:], uint64(len(traj)))
	out = append(out, scrap[:n]...)
	for _, s := range traj {
		n = binary.PutUvarint(scrap[:], uint64(s))
		out = append(out, scrap[:n]...)
	}
	return out
}

// AppendPropSig appends a signature of the given proportion values, each
// rounded to three decimals.  Runs whose proportions agree to that precision
// collide, which is what screening for "novel" runs wants.
func AppendPropSig(out []byte, props ...float64) []byte {
	var scrap [binary.MaxVarintLen64]byte
	for _, p := range props {
		milli := int64(math.Round(p * 1000))
		n := binary.PutVarint(scrap[:], milli)
		out = append(out, scrap[:n]...)
	}
	return out
}

const DefaultPoolSz = 32 * 1024

type SetOpts struct {
	PoolSz int // 0 denotes DefaultPoolSz (32k)
}

// NewMapSet returns an in-heap SigSet backed by open hash addressing.
// Suited for sets that comfortably fit in memory.
func NewMapSet(opts SetOpts) SigSet {
	if opts.PoolSz <= 0 {
		opts.PoolSz = DefaultPoolSz
	}
	return &mapSet{
		hashMap: make(map[uint64][]byte),
		opts:    opts,
	}
}

// NewLsmSet returns a SigSet backed by an in-memory LSM store.
// Slower per add than a mapSet but holds signature counts that would
// strain the Go heap.
func NewLsmSet() SigSet {
	return &lsmSet{}
}

// NewSigSet picks a SigSet implementation for the expected number of
// signatures to be added.
func NewSigSet(expected int64) SigSet {
	if expected > 1<<16 {
		return NewLsmSet()
	}
	return NewMapSet(SetOpts{})
}

type mapSet struct {
	hashMap   map[uint64][]byte
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	count     int64
	opts      SetOpts
}

func (set *mapSet) TryAdd(sig []byte) bool {
	set.hasher.Reset()
	set.hasher.Write(sig)
	hash := set.hasher.Sum64()

	existing, found := set.hashMap[hash]
	for found {
		if bytes.Equal(existing, sig) {
			return false
		}
		hash++
		existing, found = set.hashMap[hash]
	}

	// If we've gotten here, it means this is a new entry.
	// Place a copy of sig in our backing buf (in the heap).
	// If we run out of space in our pool, we start a new pool
	pos := set.bufPoolSz
	itemLen := len(sig)
	if pos+itemLen > cap(set.bufPool) {
		allocSz := max(set.opts.PoolSz, itemLen)
		set.bufPool = make([]byte, allocSz)
		set.bufPoolSz = 0
		pos = 0
	}

	// Place the backed copy of the signature at the open hash spot
	set.hashMap[hash] = append(set.bufPool[pos:pos], sig...)
	set.bufPoolSz += itemLen
	set.count++
	return true
}

func (set *mapSet) Count() int64 {
	return set.count
}

func (set *mapSet) Close() {
	set.bufPoolSz = 0
	set.count = 0
	set.hashMap = nil
}

type lsmSet struct {
	db    *badger.DB
	count int64
}

func (set *lsmSet) autoOpen() {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			panic(err)
		}
	}
}

func (set *lsmSet) TryAdd(sig []byte) bool {
	set.autoOpen()

	txn := set.db.NewTransaction(true)
	defer txn.Commit()

	added := false
	_, err := txn.Get(sig)
	if err == nil {
		// no-op since the key is already in the db
	} else if err == badger.ErrKeyNotFound {
		// The commit retains the key, so give badger its own copy.
		err = txn.Set(append([]byte{}, sig...), nil)
		added = true
	}

	if err != nil {
		panic(err)
	}

	if added {
		set.count++
	}
	return added
}

func (set *lsmSet) Count() int64 {
	return set.count
}

func (set *lsmSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
	set.count = 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
