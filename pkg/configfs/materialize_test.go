package configfs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/observability"
	"github.com/matzehuels/vkmsctl/pkg/topology"
)

func TestCreateThenList(t *testing.T) {
	tree, _ := newTestTree(t)
	in := scenarioDevice()
	mustCreate(t, tree, in)

	devices, err := NewReader(tree, nil).List(t.Context())
	require.NoError(t, err)
	require.Len(t, devices, 1)

	got := devices[0]
	assert.Equal(t, "dev1", got.Name)
	assert.True(t, got.Enabled)
	require.Len(t, got.Planes, 1)
	assert.Equal(t, "p0", got.Planes[0].Name)
	assert.Equal(t, []string{"c0"}, got.Planes[0].PossibleCrtcs)
	assert.True(t, topology.Equal(in, got))
}

func TestCreateWritesKernelTokens(t *testing.T) {
	tree, _ := newTestTree(t)
	mustCreate(t, tree, scenarioDevice())

	tests := []struct {
		path string
		want string
	}{
		{"vkms/dev1/enabled", "1"},
		{"vkms/dev1/planes/p0/type", "1"},
		{"vkms/dev1/crtcs/c0/writeback", "0"},
	}
	for _, tt := range tests {
		got, err := tree.ReadAttr(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	target, err := tree.Readlink("vkms/dev1/planes/p0/possible_crtcs/c0")
	require.NoError(t, err)
	assert.Equal(t, "/vkms/dev1/crtcs/c0", target)
}

func TestCreateRoundTrip(t *testing.T) {
	for _, codec := range []Codec{KernelCodec{}, TextCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			tree, _ := newTestTree(t)
			in := fullDevice("full")
			require.NoError(t, NewMaterializer(tree, codec, nil).Create(t.Context(), in))

			got, err := NewReader(tree, codec).Read(t.Context(), "full")
			require.NoError(t, err)
			assert.True(t, topology.Equal(in, got), "round trip mismatch: %+v", got)
		})
	}
}

func TestCreateDanglingReferenceTouchesNothing(t *testing.T) {
	tree, ffs := newTestTree(t)
	d := scenarioDevice()
	d.Planes[0].PossibleCrtcs = []string{"missing"}

	err := NewMaterializer(tree, nil, nil).Create(t.Context(), d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTopology))

	var verr *errors.ValidationError
	require.True(t, stderrors.As(err, &verr))
	require.Len(t, verr.Violations, 1)
	assert.Contains(t, verr.Violations[0].Entity, `"p0"`)
	assert.Equal(t, "missing", verr.Violations[0].Value)

	assert.Empty(t, ffs.Ops())
	assert.Empty(t, tree.Walk(DevicesDir))
}

func TestCreateTwiceAlreadyExists(t *testing.T) {
	tree, ffs := newTestTree(t)
	first := scenarioDevice()
	mustCreate(t, tree, first)
	before := len(ffs.Ops())

	second := scenarioDevice()
	second.Enabled = false
	second.Crtcs = append(second.Crtcs, &topology.Crtc{Name: "c1"})
	err := NewMaterializer(tree, nil, nil).Create(t.Context(), second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAlreadyExists))
	assert.Len(t, ffs.Ops(), before, "no mutation after the existence check")

	got, err := NewReader(tree, nil).Read(t.Context(), "dev1")
	require.NoError(t, err)
	assert.True(t, topology.Equal(first, got))
}

func TestPlanOrder(t *testing.T) {
	tree, ffs := newTestTree(t)
	plan, err := NewMaterializer(tree, nil, nil).Plan(fullDevice("dev1"))
	require.NoError(t, err)
	assert.Empty(t, ffs.Ops(), "planning must not touch the tree")

	last := plan.Steps[len(plan.Steps)-1]
	assert.Equal(t, OpWrite, last.Op)
	assert.Equal(t, "vkms/dev1/enabled", last.Path)
	assert.Equal(t, "1", last.Value)
	assert.Equal(t, "0", last.Revert)

	// dirs < attributes < links < enabled
	rank := map[Op]int{OpEnsureDir: 0, OpMkdir: 0, OpWrite: 1, OpLink: 2}
	prev := 0
	for _, s := range plan.Steps[:len(plan.Steps)-1] {
		r := rank[s.Op]
		assert.GreaterOrEqual(t, r, prev, "step %s out of order", s)
		prev = r
	}
	assert.Equal(t, "mkdir", string(plan.Steps[1].Op))
	assert.Equal(t, "vkms/dev1", plan.Steps[1].Path)
}

func TestPlanRejectsInvalid(t *testing.T) {
	tree, _ := newTestTree(t)
	d := scenarioDevice()
	d.Crtcs = append(d.Crtcs, &topology.Crtc{Name: "c0"})

	_, err := NewMaterializer(tree, nil, nil).Plan(d)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTopology))
}

func TestCreateRollsBackOnEveryStep(t *testing.T) {
	scratch, _ := newTestTree(t)
	plan, err := NewMaterializer(scratch, nil, nil).Plan(fullDevice("dev1"))
	require.NoError(t, err)

	faultOp := map[Op]string{OpMkdir: "mkdir", OpEnsureDir: "mkdir", OpWrite: "write", OpLink: "link"}
	injected := &fs.PathError{Op: "inject", Path: "x", Err: syscall.EIO}

	for i, step := range plan.Steps {
		t.Run(fmt.Sprintf("%02d %s %s", i, step.Op, step.Path), func(t *testing.T) {
			tree, ffs := newTestTree(t)
			ffs.fail = func(op, p string) error {
				if op == faultOp[step.Op] && p == step.Path {
					return injected
				}
				return nil
			}

			err := NewMaterializer(tree, nil, nil).Create(t.Context(), fullDevice("dev1"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeMaterializeFailed))
			assert.True(t, stderrors.Is(err, injected), "original cause preserved")

			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, tree.Layout.Abs(step.Path), e.Path)

			assert.Empty(t, tree.Walk(DevicesDir), "rollback left entries behind")
			names, err := NewReader(tree, nil).Names(t.Context())
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestRollbackFailureDoesNotMaskCause(t *testing.T) {
	tree, ffs := newTestTree(t)
	cause := &fs.PathError{Op: "write", Path: "enabled", Err: syscall.EINVAL}
	busy := &fs.PathError{Op: "remove", Path: "crtc", Err: syscall.EBUSY}
	ffs.fail = func(op, p string) error {
		switch {
		case op == "write" && p == "vkms/dev1/enabled":
			return cause
		case op == "remove" && p == "vkms/dev1/crtcs/c0":
			return busy
		}
		return nil
	}

	err := NewMaterializer(tree, nil, nil).Create(t.Context(), scenarioDevice())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeMaterializeFailed))
	assert.True(t, stderrors.Is(err, cause))
	assert.False(t, stderrors.Is(err, busy))

	details := errors.DetailLines(err)
	assert.NotEmpty(t, details)
	assert.Contains(t, fmt.Sprint(details), "crtcs/c0")

	// The device was never left enabled.
	exists, _ := tree.Exists("vkms/dev1/enabled")
	assert.False(t, exists)
}

func TestCreateCancelledRollsBack(t *testing.T) {
	tree, ffs := newTestTree(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	ffs.fail = func(op, p string) error {
		if op == "link" {
			cancel()
		}
		return nil
	}

	err := NewMaterializer(tree, nil, nil).Create(ctx, fullDevice("dev1"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, errors.ErrCodeMaterializeFailed))
	assert.Empty(t, tree.Walk(DevicesDir))
}

func TestCreateEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetTreeHooks(hooks)
	observability.SetDeviceHooks(hooks)
	defer observability.Reset()

	tree, _ := newTestTree(t)
	mustCreate(t, tree, scenarioDevice())

	assert.Equal(t, []string{"start create dev1", "complete create dev1"}, hooks.devices)
	assert.NotZero(t, hooks.steps)
	assert.Zero(t, hooks.rollbacks)
}

type recordingHooks struct {
	observability.NoopTreeHooks
	observability.NoopDeviceHooks
	steps     int
	rollbacks int
	devices   []string
}

func (h *recordingHooks) OnStep(context.Context, string, string, string, int, int, error) {
	h.steps++
}

func (h *recordingHooks) OnRollback(context.Context, string, string, string, error) {
	h.rollbacks++
}

func (h *recordingHooks) OnOperationStart(_ context.Context, op, device string) {
	h.devices = append(h.devices, "start "+op+" "+device)
}

func (h *recordingHooks) OnOperationComplete(_ context.Context, op, device string, _ time.Duration, _ error) {
	h.devices = append(h.devices, "complete "+op+" "+device)
}
