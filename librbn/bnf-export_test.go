package librbn_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

func TestWriteBNFBlock(t *testing.T) {
	net := chainNet(t)
	traj := librbn.Traj{0b001, 0b011, 0b111}

	var buf bytes.Buffer
	if err := librbn.WriteBNFBlock(&buf, net, traj); err != nil {
		t.Fatal(err)
	}

	want := "Gene\tS0\tS1\tS2\n" +
		"v0\t1\t1\t1\n" +
		"v1\t0\t1\t1\n" +
		"v2\t0\t0\t1\n" +
		"\n"
	if got := buf.String(); got != want {
		t.Fatalf("block:\n%q\nwant:\n%q", got, want)
	}
}

func TestSaveBNFAndReshape(t *testing.T) {
	net := chainNet(t)
	trajs := []librbn.Traj{
		{0b001, 0b110},
		{0b010, 0b101},
	}

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "run_sync.data")
	if err := librbn.SaveBNF(dataPath, net, trajs); err != nil {
		t.Fatal(err)
	}

	outPath, err := librbn.ReshapeWide(dataPath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "concat_run_sync.data"); outPath != want {
		t.Fatalf("outPath %q, want %q", outPath, want)
	}

	wide, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "net\ts1:t1\ts1:t2\ts2:t1\ts2:t2\n" +
		"v0\t1\t0\t0\t1\n" +
		"v1\t0\t1\t1\t0\n" +
		"v2\t0\t1\t0\t1\n"
	if got := string(wide); got != want {
		t.Fatalf("wide table:\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteBNFStage(t *testing.T) {
	net := chainNet(t)
	trajs := []librbn.Traj{
		{0b001, 0b110},
		{0b010, 0b101},
	}

	dir := t.TempDir()
	stagePath := filepath.Join(dir, "staged.data")
	f, err := os.Create(stagePath)
	if err != nil {
		t.Fatal(err)
	}
	if count := librbn.StreamTrajs(trajs).WriteBNF(f, net).PullAll(); count != 2 {
		t.Fatalf("%d trajectories forwarded, want 2", count)
	}

	// PullAll returns only after the stage closed the file.
	staged, err := os.ReadFile(stagePath)
	if err != nil {
		t.Fatal(err)
	}

	savePath := filepath.Join(dir, "saved.data")
	if err := librbn.SaveBNF(savePath, net, trajs); err != nil {
		t.Fatal(err)
	}
	saved, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(staged, saved) {
		t.Fatal("stage output differs from SaveBNF output")
	}
}

func TestReshapeWideFaults(t *testing.T) {
	dir := t.TempDir()

	for _, tc := range []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no_header", "v0\t1\t0\n"},
		{"header_no_columns", "Gene\nv0\n"},
		{"ragged_row", "Gene\tS0\tS1\nv0\t1\n"},
		{"unequal_blocks", "Gene\tS0\tS1\nv0\t1\t0\n\nGene\tS0\nv0\t1\n"},
		{"short_block", "Gene\tS0\nv0\t1\nv1\t0\n\nGene\tS0\nv0\t1\n"},
		{"reordered", "Gene\tS0\nv0\t1\nv1\t0\n\nGene\tS0\nv1\t0\nv0\t1\n"},
		{"dup_row", "Gene\tS0\nv0\t1\nv0\t0\n"},
	} {
		path := filepath.Join(dir, tc.name+".data")
		if err := os.WriteFile(path, []byte(tc.src), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := librbn.ReshapeWide(path, dir); !errors.Is(err, gorbn.ErrBadParam) {
			t.Fatalf("%s: %v", tc.name, err)
		}
	}

	if _, err := librbn.ReshapeWide(filepath.Join(dir, "missing.data"), dir); !errors.Is(err, gorbn.ErrBadParam) {
		t.Fatalf("missing input: %v", err)
	}
}
