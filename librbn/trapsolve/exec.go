package trapsolve

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
)

// ExecSolver adapts an external trap space tool to the TrapSolver
// interface. The rule text is piped to the tool's stdin, and its stdout
// must carry one JSON object per minimal trap space, one per line, keyed
// by node name with 0/1 values for the fixed nodes:
//
//	{"v0":1,"v3":0}
//	{}
//
// An empty object is the whole state space. Anything else, a non-zero
// exit included, is a solver fault.
type ExecSolver struct {
	Args []string // command line; Args[0] is the binary
}

func (xs *ExecSolver) MinTrapSpaces(ctx context.Context, ruleText []byte) ([]gorbn.TrapSpace, error) {
	if len(xs.Args) == 0 {
		return nil, errors.Wrap(gorbn.ErrBadParam, "no solver command")
	}

	indexOf, err := ruleTargets(ruleText)
	if err != nil {
		return nil, err
	}
	n := len(indexOf)

	cmd := exec.CommandContext(ctx, xs.Args[0], xs.Args[1:]...)
	cmd.Stdin = bytes.NewReader(ruleText)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if trail := strings.TrimSpace(stderr.String()); trail != "" {
			return nil, errors.Wrapf(gorbn.ErrSolver, "%s: %v: %s", xs.Args[0], err, trail)
		}
		return nil, errors.Wrapf(gorbn.ErrSolver, "%s: %v", xs.Args[0], err)
	}

	var spaces []gorbn.TrapSpace
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var fixed map[string]int
		if err := json.Unmarshal([]byte(line), &fixed); err != nil {
			return nil, errors.Wrapf(gorbn.ErrSolver, "undecodable solver line %q", line)
		}

		ts := make(gorbn.TrapSpace, n)
		for i := range ts {
			ts[i] = gorbn.FreeVar
		}
		for name, val := range fixed {
			idx, ok := indexOf[name]
			if !ok {
				return nil, errors.Wrapf(gorbn.ErrSolver, "solver fixed unknown node %q", name)
			}
			if val != 0 && val != 1 {
				return nil, errors.Wrapf(gorbn.ErrSolver, "solver fixed %q to %d", name, val)
			}
			ts[idx] = int8(val)
		}
		spaces = append(spaces, ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(gorbn.ErrSolver, "%v", err)
	}

	return spaces, nil
}

// ruleTargets maps each rule line's target name to its node index.
func ruleTargets(ruleText []byte) (map[string]int, error) {
	indexOf := make(map[string]int)

	scanner := bufio.NewScanner(bytes.NewReader(ruleText))
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if hash := strings.IndexByte(line, '#'); hash >= 0 {
			line = line[:hash]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, errors.Wrapf(gorbn.ErrTranslate, "rule line %q has no target", line)
		}
		target := strings.TrimSpace(line[:comma])
		if strings.EqualFold(target, "targets") &&
			strings.EqualFold(strings.TrimSpace(line[comma+1:]), "factors") {
			continue
		}
		if _, dup := indexOf[target]; dup {
			return nil, errors.Wrapf(gorbn.ErrTranslate, "duplicate rule target %q", target)
		}
		indexOf[target] = len(indexOf)
	}
	if len(indexOf) == 0 {
		return nil, errors.Wrap(gorbn.ErrTranslate, "no rules")
	}

	return indexOf, nil
}
