package configfs

import (
	"io"
	"os"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/vkmsctl/pkg/topology"
)

// faultFS wraps a filesystem and consults fail before every mutation.
// A non-nil result is returned instead of performing the call.
type faultFS struct {
	billy.Filesystem

	mu   sync.Mutex
	ops  []string
	fail func(op, path string) error
}

func (f *faultFS) check(op, p string) error {
	f.mu.Lock()
	f.ops = append(f.ops, op+" "+p)
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		return fail(op, p)
	}
	return nil
}

func (f *faultFS) MkdirAll(p string, perm os.FileMode) error {
	if err := f.check("mkdir", p); err != nil {
		return err
	}
	return f.Filesystem.MkdirAll(p, perm)
}

func (f *faultFS) OpenFile(p string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if err := f.check("write", p); err != nil {
			return nil, err
		}
	}
	return f.Filesystem.OpenFile(p, flag, perm)
}

func (f *faultFS) Symlink(target, link string) error {
	if err := f.check("link", link); err != nil {
		return err
	}
	return f.Filesystem.Symlink(target, link)
}

func (f *faultFS) Remove(p string) error {
	if err := f.check("remove", p); err != nil {
		return err
	}
	return f.Filesystem.Remove(p)
}

// Ops returns the mutations seen so far.
func (f *faultFS) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestTree(t *testing.T) (*Tree, *faultFS) {
	t.Helper()
	ffs := &faultFS{Filesystem: memfs.New()}
	return NewTree(ffs, quietLogger()), ffs
}

// scenarioDevice is the single-pipeline device used throughout the tests.
func scenarioDevice() *topology.Device {
	return &topology.Device{
		Name:    "dev1",
		Enabled: true,
		Planes: []*topology.Plane{
			{Name: "p0", Type: topology.PlanePrimary, PossibleCrtcs: []string{"c0"}},
		},
		Crtcs:      []*topology.Crtc{{Name: "c0", IsWritebackEnabled: false}},
		Encoders:   []*topology.Encoder{},
		Connectors: []*topology.Connector{},
	}
}

// fullDevice exercises every collection, attribute and link kind.
func fullDevice(name string) *topology.Device {
	return &topology.Device{
		Name:    name,
		Enabled: true,
		Planes: []*topology.Plane{
			{Name: "primary", Type: topology.PlanePrimary, PossibleCrtcs: []string{"crtc0", "crtc1"}},
			{Name: "cursor", Type: topology.PlaneCursor, PossibleCrtcs: []string{"crtc0"}},
			{Name: "overlay", Type: topology.PlaneOverlay, PossibleCrtcs: []string{}},
		},
		Crtcs: []*topology.Crtc{
			{Name: "crtc0", IsWritebackEnabled: true},
			{Name: "crtc1"},
		},
		Encoders: []*topology.Encoder{
			{Name: "enc0", PossibleCrtcs: []string{"crtc0", "crtc1"}},
		},
		Connectors: []*topology.Connector{
			{Name: "hdmi", Status: topology.StatusConnected, PossibleEncoders: []string{"enc0"}},
			{Name: "dp", Status: topology.StatusDisconnected, PossibleEncoders: []string{"enc0"}},
			{Name: "virtual", Status: topology.StatusUnknown, PossibleEncoders: []string{}},
		},
	}
}

func mustCreate(t *testing.T, tree *Tree, d *topology.Device) {
	t.Helper()
	require.NoError(t, NewMaterializer(tree, nil, nil).Create(t.Context(), d))
}
