package librbn

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/rbnsystems/gorbn"
)

// WriteBNFBlock writes one trajectory as a BNFinder2 block: a "Gene" header
// row labeling the sampled states S0..S{T-1}, one row of bits per node, and a
// trailing blank line.
func WriteBNFBlock(out io.Writer, net *Net, traj Traj) error {
	var buf bytes.Buffer
	buf.Grow(32 + net.NodeCount()*(2*len(traj)+8))

	buf.WriteString("Gene")
	for t := range traj {
		fmt.Fprintf(&buf, "\tS%d", t)
	}
	buf.WriteByte('\n')

	for g := 0; g < net.NodeCount(); g++ {
		buf.WriteString(net.NodeName(g))
		for _, s := range traj {
			buf.WriteByte('\t')
			buf.WriteByte('0' + s.Bit(g))
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	_, err := out.Write(buf.Bytes())
	return err
}

// SaveBNF writes a trajectory set to pathname, one block per trajectory.
func SaveBNF(pathname string, net *Net, trajs []Traj) error {
	f, err := os.Create(pathname)
	if err != nil {
		return errors.Wrapf(err, "SaveBNF %q", pathname)
	}
	for _, traj := range trajs {
		if err = WriteBNFBlock(f, net, traj); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// WriteBNF writes each passing trajectory to out as a BNFinder2 block and
// forwards it.  out is closed when the stream ends.
func (stream *TrajStream) WriteBNF(out io.WriteCloser, net *Net) *TrajStream {
	next := &TrajStream{
		Outlet: make(chan Traj, 1),
	}

	go func() {
		for traj := range stream.Outlet {
			WriteBNFBlock(out, net, traj)
			next.Outlet <- traj
		}
		out.Close()
		next.Close()
	}()

	return next
}

// ReshapeWide reads a BNFinder2 .data file and rewrites it as one wide
// tab-separated table: a row per node, an s<series>:t<time> column for every
// sampled value, series and time both counted from 1.  The output lands in
// outDir under "concat_" plus the input's base name, and its path is returned.
//
// Every block must list the same nodes in the same order and carry the same
// sample count; the table shape comes from the file content alone.
func ReshapeWide(inPath string, outDir string) (string, error) {
	src, err := os.Open(inPath)
	if err != nil {
		return "", errors.Wrapf(gorbn.ErrBadParam, "ReshapeWide: %v", err)
	}
	defer src.Close()

	var (
		genes  []string
		rows   = make(map[string][]string)
		width  = 0
		blocks = 0
		cur    = 0
	)

	lineNum := 0
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells := strings.Split(line, "\t")
		if cells[0] == "Gene" {
			if blocks > 0 && cur != len(genes) {
				return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: block is missing node rows", inPath, lineNum)
			}
			if blocks == 0 {
				width = len(cells) - 1
				if width < 1 {
					return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: header has no sample columns", inPath, lineNum)
				}
			} else if len(cells)-1 != width {
				return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: blocks have unequal sample counts", inPath, lineNum)
			}
			blocks++
			cur = 0
			continue
		}

		if blocks == 0 {
			return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: node row before Gene header", inPath, lineNum)
		}
		if len(cells)-1 != width {
			return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: ragged node row", inPath, lineNum)
		}

		name := cells[0]
		if blocks == 1 {
			if _, dup := rows[name]; dup {
				return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: node %q repeats within a block", inPath, lineNum, name)
			}
			genes = append(genes, name)
		} else {
			if cur >= len(genes) || genes[cur] != name {
				return "", errors.Wrapf(gorbn.ErrBadParam, "%s:%d: node rows out of order", inPath, lineNum)
			}
		}
		rows[name] = append(rows[name], cells[1:]...)
		cur++
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(gorbn.ErrBadParam, "ReshapeWide %q: %v", inPath, err)
	}
	if blocks == 0 {
		return "", errors.Wrapf(gorbn.ErrBadParam, "%s: no trajectory blocks", inPath)
	}
	if cur != len(genes) {
		return "", errors.Wrapf(gorbn.ErrBadParam, "%s: last block is missing node rows", inPath)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", errors.Wrapf(err, "ReshapeWide %q", outDir)
	}
	outPath := filepath.Join(outDir, "concat_"+filepath.Base(inPath))
	dst, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrapf(err, "ReshapeWide %q", outPath)
	}

	w := bufio.NewWriter(dst)
	w.WriteString("net")
	for j := 1; j <= blocks; j++ {
		for i := 1; i <= width; i++ {
			fmt.Fprintf(w, "\ts%d:t%d", j, i)
		}
	}
	w.WriteByte('\n')
	for _, g := range genes {
		w.WriteString(g)
		for _, v := range rows[g] {
			w.WriteByte('\t')
			w.WriteString(v)
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		dst.Close()
		return "", errors.Wrapf(err, "ReshapeWide %q", outPath)
	}
	return outPath, dst.Close()
}
