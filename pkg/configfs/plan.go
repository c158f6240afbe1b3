package configfs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/observability"
)

// Op is a single kind of control-tree operation.
type Op string

const (
	OpMkdir     Op = "mkdir"      // create a directory that must not exist
	OpEnsureDir Op = "ensure-dir" // create a directory unless configfs already did
	OpWrite     Op = "write"      // write an attribute token
	OpLink      Op = "link"       // create a link to an entity

	OpRemove         Op = "remove"          // remove an entry; failure aborts
	OpRemoveOptional Op = "remove-optional" // remove a kernel-owned entry if allowed
)

// Step is one instruction of a [Plan]. Paths are tree-relative.
type Step struct {
	Op     Op
	Path   string
	Value  string // token for OpWrite, link target for OpLink
	Revert string // token written back before an OpWrite is undone
	Entity string // e.g. `plane "p0"`, for messages
}

// String formats the step as a single line.
func (s Step) String() string {
	switch s.Op {
	case OpWrite:
		return fmt.Sprintf("%-15s %s = %s", s.Op, s.Path, s.Value)
	case OpLink:
		return fmt.Sprintf("%-15s %s -> %s", s.Op, s.Path, s.Value)
	}
	return fmt.Sprintf("%-15s %s", s.Op, s.Path)
}

// Plan is an ordered list of steps against one device. Creation plans are
// undone in reverse order when a step fails; removal plans never are.
type Plan struct {
	ID     uuid.UUID
	Device string
	Steps  []Step
}

// NewPlan creates an empty plan with a fresh ID.
func NewPlan(device string) *Plan {
	return &Plan{ID: uuid.New(), Device: device}
}

// Add appends steps to the plan.
func (p *Plan) Add(steps ...Step) {
	p.Steps = append(p.Steps, steps...)
}

// txn returns the short plan ID used in log lines.
func (p *Plan) txn() string {
	return p.ID.String()[:8]
}

// applied records an executed step and whether it created something new.
type applied struct {
	step    Step
	created bool
}

// Apply executes a creation plan. If a step fails, or ctx is cancelled
// between two steps, every step already executed is undone in reverse
// order and a MATERIALIZE_FAILED error naming the failing step is returned.
// Rollback failures are logged and attached to the error as details; they
// never replace the original cause. A single step is never interrupted.
func (t *Tree) Apply(ctx context.Context, p *Plan) error {
	hooks := observability.Tree()
	id := p.ID.String()
	done := make([]applied, 0, len(p.Steps))

	for i, s := range p.Steps {
		if err := ctx.Err(); err != nil {
			failures := t.rollback(ctx, p, done)
			return errors.Wrap(errors.ErrCodeMaterializeFailed, err,
				"create %q cancelled before step %d/%d (%s %s)", p.Device, i+1, len(p.Steps), s.Op, s.Entity).
				WithPath(t.Layout.Abs(s.Path)).
				WithDetails(failures...)
		}

		created, err := t.exec(s)
		hooks.OnStep(ctx, id, string(s.Op), s.Path, i, len(p.Steps), err)
		if err != nil {
			t.Logger.Debug("step failed", "txn", p.txn(), "op", s.Op, "path", s.Path, "err", err)
			if s.Op == OpWrite {
				// The file may exist half-written.
				done = append(done, applied{step: s, created: true})
			}
			failures := t.rollback(ctx, p, done)
			msg := fmt.Sprintf("create %q: step %d/%d (%s %s) failed", p.Device, i+1, len(p.Steps), s.Op, s.Entity)
			if hint := describe(err); hint != "" {
				msg += ": " + hint
			}
			return errors.Wrap(errors.ErrCodeMaterializeFailed, err, "%s", msg).
				WithPath(t.Layout.Abs(s.Path)).
				WithDetails(failures...)
		}
		t.Logger.Debug("step", "txn", p.txn(), "op", s.Op, "path", s.Path)
		done = append(done, applied{step: s, created: created})
	}
	return nil
}

// exec runs a creation step.
func (t *Tree) exec(s Step) (bool, error) {
	switch s.Op {
	case OpMkdir:
		return true, t.Mkdir(s.Path)
	case OpEnsureDir:
		return t.EnsureDir(s.Path)
	case OpWrite:
		return true, t.WriteAttr(s.Path, s.Value)
	case OpLink:
		return true, t.Symlink(s.Value, s.Path)
	case OpRemove, OpRemoveOptional:
		return false, t.Remove(s.Path)
	}
	return false, fmt.Errorf("unknown step %q", s.Op)
}

// rollback undoes executed steps in reverse order and returns a description
// of every compensating action that failed.
func (t *Tree) rollback(ctx context.Context, p *Plan, done []applied) []string {
	if len(done) == 0 {
		return nil
	}
	hooks := observability.Tree()
	id := p.ID.String()
	start := time.Now()

	var failures []string
	fail := func(op, path string, err error) {
		line := stepError(op, t.Layout.Abs(path), err)
		t.Logger.Warn("rollback step failed", "txn", p.txn(), "op", op, "path", path, "err", err)
		failures = append(failures, line)
	}

	for i := len(done) - 1; i >= 0; i-- {
		a := done[i]
		s := a.step
		var err error
		op := "remove"

		switch s.Op {
		case OpMkdir, OpLink:
			if err = t.Remove(s.Path); stderrors.Is(err, fs.ErrNotExist) {
				err = nil
			}
		case OpEnsureDir:
			if !a.created {
				continue
			}
			if err = t.Remove(s.Path); stderrors.Is(err, fs.ErrNotExist) {
				err = nil
			}
		case OpWrite:
			if s.Revert != "" {
				if werr := t.WriteAttr(s.Path, s.Revert); werr != nil {
					hooks.OnRollback(ctx, id, "write", s.Path, werr)
					fail("write", s.Path, werr)
				}
			}
			if err = t.Remove(s.Path); tolerated(err) {
				err = nil
			}
		default:
			continue
		}

		hooks.OnRollback(ctx, id, op, s.Path, err)
		if err != nil {
			fail(op, s.Path, err)
			continue
		}
		t.Logger.Debug("rolled back", "txn", p.txn(), "op", s.Op, "path", s.Path)
	}

	if len(failures) > 0 {
		t.Logger.Warn("rollback incomplete", "txn", p.txn(), "device", p.Device, "failures", len(failures))
	} else {
		t.Logger.Info("rolled back", "device", p.Device, "steps", len(done), "duration", time.Since(start))
	}
	return failures
}

// Teardown executes a removal plan in order. Failures of OpRemoveOptional
// steps that configfs is expected to produce are ignored. The first other
// failure, or a cancellation of ctx, stops the plan: nothing is restored and
// a DEVICE_BUSY error lists the paths still present under the device.
func (t *Tree) Teardown(ctx context.Context, p *Plan) error {
	hooks := observability.Tree()
	id := p.ID.String()
	devicePath := t.Layout.DevicePath(p.Device)

	for i, s := range p.Steps {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeDeviceBusy, err,
				"remove %q interrupted before step %d/%d", p.Device, i+1, len(p.Steps)).
				WithPath(t.Layout.Abs(s.Path)).
				WithDetails(t.residual(devicePath)...)
		}

		_, err := t.exec(s)
		hooks.OnStep(ctx, id, string(s.Op), s.Path, i, len(p.Steps), err)
		switch {
		case err == nil:
			t.Logger.Debug("step", "txn", p.txn(), "op", s.Op, "path", s.Path)
		case stderrors.Is(err, fs.ErrNotExist):
			t.Logger.Debug("already gone", "txn", p.txn(), "path", s.Path)
		case s.Op == OpRemoveOptional && tolerated(err):
			t.Logger.Debug("kept kernel-owned entry", "txn", p.txn(), "path", s.Path)
		default:
			msg := fmt.Sprintf("remove %q: %s rejected", p.Device, s.Entity)
			if hint := describe(err); hint != "" {
				msg += ": " + hint
			}
			return errors.Wrap(errors.ErrCodeDeviceBusy, err, "%s", msg).
				WithPath(t.Layout.Abs(s.Path)).
				WithDetails(t.residual(devicePath)...)
		}
	}
	return nil
}

// residual lists the host paths still present under p.
func (t *Tree) residual(p string) []string {
	paths := t.Walk(p)
	out := make([]string, len(paths))
	for i, rel := range paths {
		out[i] = t.Layout.Abs(rel)
	}
	return out
}
