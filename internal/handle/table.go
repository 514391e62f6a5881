// Package handle implements the type-tagged resource registry behind every
// boundary capability. A handle packs a 32-bit slot index and a 32-bit
// generation; lookups fail uniformly with the invalid-handle error whether
// the id never existed, was closed, or names a resource of the wrong kind,
// so guests cannot probe the table's internals.
package handle

import (
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/plugin-crypto/api"
)

// Kind tags the resource class a handle refers to. The tag is fixed at
// allocation and checked on every access.
type Kind uint8

const (
	KindArrayOutput Kind = iota
	KindOp
	KindKeypairBuilder
	KindKeypair
	KindPublicKey
	KindSignature
	KindSignState
	KindVerifyState

	kindCount
)

var kindNames = [...]string{
	"array_output",
	"op",
	"keypair_builder",
	"keypair",
	"public_key",
	"signature",
	"sign_state",
	"verify_state",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds lists every resource kind, for metric registration.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// Resource is anything the table can own. Destroy runs exactly once, after
// the mapping has been removed and outside the table's shard locks; key
// bearing resources wipe their material there.
type Resource interface {
	Destroy()
}

type entry struct {
	kind Kind
	res  Resource
}

// Table maps live handles to resources. Sharded for concurrent
// allocate/lookup/retire from multiple guest execution contexts.
type Table struct {
	entries cmap.ConcurrentMap[uint64, *entry]
	free    *freeList
	nextIdx atomic.Uint32
	live    atomic.Int64
	byKind  [kindCount]atomic.Int64
	max     int64
}

// fmix64 finalizer, spreads sequential slot indexes across shards.
func shardOf(key uint64) uint32 {
	key ^= key >> 33
	key *= 0xff51afd7ed558ccd
	key ^= key >> 33
	return uint32(key)
}

// NewTable builds a table refusing to allocate beyond maxHandles live ids.
func NewTable(maxHandles int) *Table {
	return &Table{
		entries: cmap.NewWithCustomShardingFunction[uint64, *entry](shardOf),
		free:    newFreeList(64),
		max:     int64(maxHandles),
	}
}

func pack(idx, gen uint32) api.Handle {
	return api.Handle(uint64(gen)<<32 | uint64(idx))
}

// Allocate registers res under a fresh handle. The id is never one that is
// currently live: fresh indexes come from a monotonic counter, recycled
// indexes from the free list with a bumped generation.
func (t *Table) Allocate(kind Kind, res Resource) (api.Handle, error) {
	if t.live.Load() >= t.max {
		return 0, api.ErrOverflow
	}
	var idx, gen uint32
	if s, ok := t.free.pop(); ok {
		idx, gen = s.idx, s.gen+1
	} else {
		idx, gen = t.nextIdx.Add(1), 1
	}
	h := pack(idx, gen)
	t.entries.Set(uint64(h), &entry{kind: kind, res: res})
	t.live.Add(1)
	t.byKind[kind].Add(1)
	return h, nil
}

// Get returns the resource behind h iff it is live and of the expected kind.
func (t *Table) Get(h api.Handle, kind Kind) (Resource, error) {
	e, ok := t.entries.Get(uint64(h))
	if !ok || e.kind != kind {
		return nil, api.ErrInvalidHandle
	}
	return e.res, nil
}

// Close retires h: exactly one concurrent closer wins the removal, the
// resource is destroyed outside the shard lock, and only then does the slot
// index become reusable. Closing an unknown or already closed handle fails
// with the invalid-handle error.
func (t *Table) Close(h api.Handle) error {
	var victim *entry
	t.entries.RemoveCb(uint64(h), func(key uint64, e *entry, exists bool) bool {
		if !exists {
			return false
		}
		victim = e
		return true
	})
	if victim == nil {
		return api.ErrInvalidHandle
	}
	t.live.Add(-1)
	t.byKind[victim.kind].Add(-1)
	victim.res.Destroy()
	t.free.put(freeSlot{idx: uint32(h), gen: uint32(h >> 32)})
	return nil
}

// CloseAll retires every outstanding handle; the process teardown path.
func (t *Table) CloseAll() {
	for tuple := range t.entries.IterBuffered() {
		_ = t.Close(api.Handle(tuple.Key))
	}
}

// Len is the number of currently live handles.
func (t *Table) Len() int {
	return int(t.live.Load())
}

// KindLen is the number of live handles of one kind.
func (t *Table) KindLen(k Kind) int {
	return int(t.byKind[k].Load())
}
