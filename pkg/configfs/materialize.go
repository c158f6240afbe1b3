package configfs

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/observability"
	"github.com/matzehuels/vkmsctl/pkg/topology"
)

// Materializer creates devices in the control tree.
type Materializer struct {
	Tree   *Tree
	Codec  Codec
	Logger *log.Logger
}

// NewMaterializer creates a materializer writing through tree.
// If codec is nil, [KernelCodec] is used; if logger is nil, the tree's
// logger is used.
func NewMaterializer(tree *Tree, codec Codec, logger *log.Logger) *Materializer {
	if codec == nil {
		codec = KernelCodec{}
	}
	if logger == nil {
		logger = tree.Logger
	}
	return &Materializer{Tree: tree, Codec: codec, Logger: logger}
}

// Create validates d and materializes it.
//
// Nothing is written when d is invalid or a device with the same name
// already exists. The enabled attribute is written last, so the driver only
// sees a complete device. On any failure the partial device is rolled back.
func (m *Materializer) Create(ctx context.Context, d *topology.Device) (err error) {
	start := time.Now()
	name := ""
	if d != nil {
		name = d.Name
	}
	observability.Device().OnOperationStart(ctx, "create", name)
	defer func() {
		observability.Device().OnOperationComplete(ctx, "create", name, time.Since(start), err)
	}()

	plan, err := m.Plan(d)
	if err != nil {
		return err
	}

	root := m.Tree.Layout.DevicePath(d.Name)
	exists, err := m.Tree.Exists(root)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMaterializeFailed, err, "check device %q", d.Name).WithPath(m.Tree.Layout.Abs(root))
	}
	if exists {
		return errors.New(errors.ErrCodeAlreadyExists, "device %q already exists", d.Name).WithPath(m.Tree.Layout.Abs(root))
	}

	m.Logger.Debug("applying plan", "txn", plan.txn(), "device", d.Name, "steps", len(plan.Steps))
	if err := m.Tree.Apply(ctx, plan); err != nil {
		return err
	}

	m.Logger.Info("created device",
		"device", d.Name,
		"entities", d.EntityCount(),
		"links", d.LinkCount(),
		"enabled", d.Enabled,
		"duration", time.Since(start))
	return nil
}

// Plan validates d and returns the steps that would materialize it,
// without touching the control tree.
//
// Steps are ordered: the device root, then collections and entity
// directories, then scalar attributes, then links, and finally the device's
// enabled attribute.
func (m *Materializer) Plan(d *topology.Device) (*Plan, error) {
	if _, err := topology.Validate(d); err != nil {
		return nil, err
	}
	l := m.Tree.Layout
	p := NewPlan(d.Name)
	dev := fmt.Sprintf("device %q", d.Name)

	p.Add(
		Step{Op: OpEnsureDir, Path: DevicesDir, Entity: "vkms"},
		Step{Op: OpMkdir, Path: l.DevicePath(d.Name), Entity: dev},
	)

	// Directories
	for _, kind := range Kinds {
		p.Add(Step{Op: OpEnsureDir, Path: l.CollectionPath(d.Name, kind), Entity: string(kind)})
		for _, name := range entityNames(d, kind) {
			entity := fmt.Sprintf("%s %q", kind.Singular(), name)
			p.Add(Step{Op: OpMkdir, Path: l.EntityPath(d.Name, kind, name), Entity: entity})
			for _, ld := range kind.LinkDirs() {
				p.Add(Step{Op: OpEnsureDir, Path: l.LinkDirPath(d.Name, kind, name, ld.Name), Entity: entity})
			}
		}
	}

	// Attributes
	for _, pl := range d.Planes {
		tok, err := m.Codec.EncodePlaneKind(pl.Type)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTopology, err, "plane %q", pl.Name)
		}
		p.Add(Step{Op: OpWrite, Path: l.AttrPath(d.Name, KindPlane, pl.Name, AttrType), Value: tok, Entity: fmt.Sprintf("plane %q", pl.Name)})
	}
	for _, c := range d.Crtcs {
		p.Add(Step{Op: OpWrite, Path: l.AttrPath(d.Name, KindCrtc, c.Name, AttrWriteback), Value: m.Codec.EncodeBool(c.IsWritebackEnabled), Entity: fmt.Sprintf("crtc %q", c.Name)})
	}
	for _, c := range d.Connectors {
		tok, err := m.Codec.EncodeStatus(c.Status)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTopology, err, "connector %q", c.Name)
		}
		p.Add(Step{Op: OpWrite, Path: l.AttrPath(d.Name, KindConnector, c.Name, AttrStatus), Value: tok, Entity: fmt.Sprintf("connector %q", c.Name)})
	}

	// Links
	for _, pl := range d.Planes {
		p.Add(linkSteps(l, d.Name, KindPlane, pl.Name, LinkPossibleCrtcs, KindCrtc, pl.PossibleCrtcs)...)
	}
	for _, e := range d.Encoders {
		p.Add(linkSteps(l, d.Name, KindEncoder, e.Name, LinkPossibleCrtcs, KindCrtc, e.PossibleCrtcs)...)
	}
	for _, c := range d.Connectors {
		p.Add(linkSteps(l, d.Name, KindConnector, c.Name, LinkPossibleEncoders, KindEncoder, c.PossibleEncoders)...)
	}

	p.Add(Step{
		Op:     OpWrite,
		Path:   l.DeviceAttrPath(d.Name, AttrEnabled),
		Value:  m.Codec.EncodeBool(d.Enabled),
		Revert: m.Codec.EncodeBool(false),
		Entity: dev,
	})
	return p, nil
}

func linkSteps(l Layout, device string, kind Kind, name, dir string, target Kind, refs []string) []Step {
	steps := make([]Step, 0, len(refs))
	entity := fmt.Sprintf("%s %q", kind.Singular(), name)
	for _, ref := range refs {
		steps = append(steps, Step{
			Op:     OpLink,
			Path:   l.LinkPath(device, kind, name, dir, ref),
			Value:  l.LinkTarget(device, target, ref),
			Entity: entity,
		})
	}
	return steps
}

func entityNames(d *topology.Device, kind Kind) []string {
	var names []string
	switch kind {
	case KindPlane:
		for _, p := range d.Planes {
			names = append(names, p.Name)
		}
	case KindCrtc:
		for _, c := range d.Crtcs {
			names = append(names, c.Name)
		}
	case KindEncoder:
		for _, e := range d.Encoders {
			names = append(names, e.Name)
		}
	case KindConnector:
		for _, c := range d.Connectors {
			names = append(names, c.Name)
		}
	}
	return names
}
