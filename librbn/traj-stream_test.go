package librbn_test

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

func pullTrajs(stream *librbn.TrajStream, count int) []librbn.Traj {
	trajs := make([]librbn.Traj, 0, count)
	for traj := range stream.Outlet {
		trajs = append(trajs, traj)
	}
	return trajs
}

func TestStreamTrajsPullAll(t *testing.T) {
	trajs := []librbn.Traj{{0}, {1, 2}, {3, 4, 5}}
	if count := librbn.StreamTrajs(trajs).PullAll(); count != 3 {
		t.Fatalf("PullAll() = %d, want 3", count)
	}
}

func TestGenTrajs(t *testing.T) {
	net := chainNet(t)

	stream, err := librbn.GenTrajs(rand.New(rand.NewSource(7)), net, 5, 2, 4, gorbn.SyncUpdate)
	if err != nil {
		t.Fatal(err)
	}
	got := pullTrajs(stream, 4)
	if len(got) != 4 {
		t.Fatalf("streamed %d trajectories, want 4", len(got))
	}
	for i, traj := range got {
		if len(traj) != 5 {
			t.Fatalf("traj %d: %d states, want 5", i, len(traj))
		}
	}

	// Same source rng state, same stream.
	again, err := librbn.GenTrajs(rand.New(rand.NewSource(7)), net, 5, 2, 4, gorbn.SyncUpdate)
	if err != nil {
		t.Fatal(err)
	}
	for i, traj := range pullTrajs(again, 4) {
		for j, s := range traj {
			if got[i][j] != s {
				t.Fatalf("traj %d state %d: reseeded stream diverged", i, j)
			}
		}
	}
}

func TestGenTrajsRejects(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := chainNet(t)

	if _, err := librbn.GenTrajs(rng, nil, 5, 1, 1, gorbn.SyncUpdate); !errors.Is(err, gorbn.ErrNilNet) {
		t.Fatalf("nil net: %v", err)
	}
	for _, tc := range []struct {
		count, stride, ntraj int
		d                    gorbn.Discipline
	}{
		{0, 1, 1, gorbn.SyncUpdate},
		{5, 0, 1, gorbn.SyncUpdate},
		{5, 1, -1, gorbn.SyncUpdate},
		{5, 1, 1, gorbn.Discipline(0)},
	} {
		if _, err := librbn.GenTrajs(rng, net, tc.count, tc.stride, tc.ntraj, tc.d); !errors.Is(err, gorbn.ErrBadParam) {
			t.Fatalf("%+v: %v", tc, err)
		}
	}

	// Zero trajectories is a valid empty stream.
	stream, err := librbn.GenTrajs(rng, net, 5, 1, 0, gorbn.AsyncUpdate)
	if err != nil {
		t.Fatal(err)
	}
	if count := stream.PullAll(); count != 0 {
		t.Fatalf("empty stream PullAll() = %d", count)
	}
}

func TestDropDupes(t *testing.T) {
	trajs := []librbn.Traj{
		{0b001, 0b011},
		{0b010, 0b101},
		{0b001, 0b011},
		{0b010, 0b101},
		{0b111, 0b111},
	}

	set := librbn.NewMapSet(librbn.SetOpts{})
	passed := librbn.StreamTrajs(trajs).DropDupes(set, librbn.AddSigOpts{}).PullAll()
	if passed != 3 {
		t.Fatalf("%d trajectories passed, want 3", passed)
	}
	if count := set.Count(); count != 3 {
		t.Fatalf("set.Count() = %d, want 3", count)
	}
	set.Close()

	// AutoCloseSet hands set ownership to the stage.
	passed = librbn.StreamTrajs(trajs).
		DropDupes(librbn.NewLsmSet(), librbn.AddSigOpts{AutoCloseSet: true}).
		PullAll()
	if passed != 3 {
		t.Fatalf("%d trajectories passed, want 3", passed)
	}
}

func TestScoreStage(t *testing.T) {
	attrs := []gorbn.Attractor{{0b111}}
	trajs := []librbn.Traj{
		{0b000, 0b001, 0b011, 0b111},
		{0b111, 0b111},
	}

	scored := librbn.StreamTrajs(trajs).Score(attrs)
	for i, want := range []librbn.ScoredTraj{
		{Traj: trajs[0], Transient: 0.75, InAttr: 0.25},
		{Traj: trajs[1], Transient: 0, InAttr: 1},
	} {
		got := scored.PullScored()
		if got.Transient != want.Transient || got.InAttr != want.InAttr {
			t.Fatalf("traj %d: got (%v, %v), want (%v, %v)",
				i, got.Transient, got.InAttr, want.Transient, want.InAttr)
		}
		if len(got.Traj) != len(want.Traj) {
			t.Fatalf("traj %d: trajectory did not ride along", i)
		}
	}
	if _, open := <-scored.Outlet; open {
		t.Fatal("stream should be exhausted")
	}
}
