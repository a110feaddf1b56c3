package main

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/go-python/gpython/py"
)

// TestGold runs every learn/ script and compares its stdout with the gold
// copy, writing the gold copy when the script has none yet.
func TestGold(t *testing.T) {
	scriptDir := "learn/"
	files, err := os.ReadDir(scriptDir)
	if err != nil {
		t.Fatal(err)
	}

	goldDir := path.Join(scriptDir, "gold")
	os.MkdirAll(goldDir, 0700)

	for _, fi := range files {
		pyFile := path.Join(scriptDir, fi.Name())
		ext := filepath.Ext(pyFile)
		if ext != ".py" {
			continue
		}

		goldPathname := path.Join(goldDir, fi.Name()[:len(fi.Name())-len(ext)]+".txt")
		gold, _ := os.ReadFile(goldPathname)

		output := runScript(t, pyFile)

		if gold == nil {
			if err = os.WriteFile(goldPathname, output, 0644); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if !bytes.Equal(output, gold) {
			t.Fatalf("%s: output diverges from %s", pyFile, goldPathname)
		}
	}
}

func runScript(t *testing.T, pyFile string) []byte {
	tmp, err := os.CreateTemp("", "gold*")
	if err != nil {
		t.Fatal(err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	ctx := py.NewContext(py.DefaultContextOpts())
	redirect, err := RedirectToFile(tmpName, ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, err = py.RunFile(ctx, pyFile, py.CompileOpts{}, nil)
	ctx.Close()
	<-ctx.Done()

	if cerr := redirect.Close(); cerr != nil {
		t.Fatal(cerr)
	}
	if err != nil {
		py.TracebackDump(err)
		t.Fatal(err)
	}

	output, err := os.ReadFile(tmpName)
	if err != nil {
		t.Fatal(err)
	}
	return output
}

type pyRedirect struct {
	file       *os.File
	prevStdout *os.File
}

// RedirectToFile points both the interpreter's sys.stdout and the process
// stdout at the given file until Close.
func RedirectToFile(outputPathname string, ctx py.Context) (io.Closer, error) {
	ofile, err := os.OpenFile(outputPathname, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	sys := ctx.Store().MustGetModule("sys")
	sys.Globals["stdout"] = &py.File{
		File:     ofile,
		FileMode: py.FileWrite,
	}

	redir := &pyRedirect{
		file:       ofile,
		prevStdout: os.Stdout,
	}

	os.Stdout = ofile
	return redir, nil
}

func (redir *pyRedirect) Close() error {
	if redir.prevStdout == nil {
		return nil
	}

	os.Stdout = redir.prevStdout
	err := redir.file.Close()
	redir.file = nil
	return err
}
