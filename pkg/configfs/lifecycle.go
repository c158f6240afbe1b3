package configfs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/observability"
)

// Lifecycle switches devices on and off and removes them.
type Lifecycle struct {
	Tree   *Tree
	Codec  Codec
	Logger *log.Logger
	reader *Reader
}

// NewLifecycle creates a lifecycle manager over tree.
// If codec is nil, [KernelCodec] is used; if logger is nil, the tree's
// logger is used.
func NewLifecycle(tree *Tree, codec Codec, logger *log.Logger) *Lifecycle {
	if codec == nil {
		codec = KernelCodec{}
	}
	if logger == nil {
		logger = tree.Logger
	}
	return &Lifecycle{Tree: tree, Codec: codec, Logger: logger, reader: NewReader(tree, codec)}
}

// Disable writes the disabled token to the device's enabled attribute.
// Disabling a disabled device succeeds and changes nothing.
func (lc *Lifecycle) Disable(ctx context.Context, name string) (err error) {
	start := time.Now()
	observability.Device().OnOperationStart(ctx, "disable", name)
	defer func() {
		observability.Device().OnOperationComplete(ctx, "disable", name, time.Since(start), err)
	}()

	if err := lc.requireDevice(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := lc.setEnabled(name, false); err != nil {
		return errors.Wrap(errors.ErrCodeDeviceBusy, err, "disable %q", name).
			WithPath(lc.Tree.Layout.Abs(lc.Tree.Layout.DeviceAttrPath(name, AttrEnabled)))
	}
	lc.Logger.Info("disabled device", "device", name)
	return nil
}

// Enable reads and validates the device, then writes the enabled token.
// A corrupt device is never enabled. Enabling an enabled device succeeds.
func (lc *Lifecycle) Enable(ctx context.Context, name string) (err error) {
	start := time.Now()
	observability.Device().OnOperationStart(ctx, "enable", name)
	defer func() {
		observability.Device().OnOperationComplete(ctx, "enable", name, time.Since(start), err)
	}()

	d, err := lc.reader.Read(ctx, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := lc.setEnabled(name, true); err != nil {
		msg := fmt.Sprintf("enable %q", name)
		if hint := describe(err); hint != "" {
			msg += ": " + hint
		}
		return errors.Wrap(errors.ErrCodeMaterializeFailed, err, "%s", msg).
			WithPath(lc.Tree.Layout.Abs(lc.Tree.Layout.DeviceAttrPath(name, AttrEnabled)))
	}
	lc.Logger.Info("enabled device", "device", name, "entities", d.EntityCount())
	return nil
}

// Remove disables the device if needed and removes its subtree.
//
// Removal follows what is actually present in the tree rather than the
// decoded device, so a device with corrupt attributes can still be removed.
// Links go first, then every entity, then the collections and the device
// root. Kernel-owned entries are removed when the filesystem allows it. A
// rejected step stops the removal with DEVICE_BUSY listing the paths that
// remain; nothing is restored.
func (lc *Lifecycle) Remove(ctx context.Context, name string) (err error) {
	start := time.Now()
	observability.Device().OnOperationStart(ctx, "remove", name)
	defer func() {
		observability.Device().OnOperationComplete(ctx, "remove", name, time.Since(start), err)
	}()

	if err := lc.requireDevice(name); err != nil {
		return err
	}
	l := lc.Tree.Layout
	root := l.DevicePath(name)

	// An undecodable token is treated as enabled.
	enabledPath := l.DeviceAttrPath(name, AttrEnabled)
	if raw, err := lc.Tree.ReadAttr(enabledPath); err == nil {
		if on, derr := lc.Codec.DecodeBool(raw); derr != nil || on {
			if err := lc.setEnabled(name, false); err != nil {
				return errors.Wrap(errors.ErrCodeDeviceBusy, err, "remove %q: disable rejected", name).
					WithPath(l.Abs(enabledPath)).
					WithDetails(lc.Tree.residual(root)...)
			}
			lc.Logger.Debug("disabled before removal", "device", name)
		}
	}

	plan, err := lc.removalPlan(name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDeviceBusy, err, "remove %q: scan subtree", name).WithPath(l.Abs(root))
	}
	lc.Logger.Debug("applying removal plan", "txn", plan.txn(), "device", name, "steps", len(plan.Steps))
	if err := lc.Tree.Teardown(ctx, plan); err != nil {
		return err
	}

	lc.Logger.Info("removed device", "device", name, "duration", time.Since(start))
	return nil
}

// removalPlan builds the removal steps for the subtree as found on disk.
func (lc *Lifecycle) removalPlan(name string) (*Plan, error) {
	l := lc.Tree.Layout
	root := l.DevicePath(name)
	p := NewPlan(name)
	dev := fmt.Sprintf("device %q", name)

	type entity struct {
		kind Kind
		name string
		path string
	}
	var entities []entity
	for _, kind := range Kinds {
		names, err := lc.reader.entities(l.CollectionPath(name, kind))
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			entities = append(entities, entity{kind, n, l.EntityPath(name, kind, n)})
		}
	}

	// Links, across every entity, before any entity goes away.
	var inner []Step
	for _, e := range entities {
		label := fmt.Sprintf("%s %q", e.kind.Singular(), e.name)
		entries, err := lc.Tree.ReadDir(e.path)
		if err != nil {
			return nil, err
		}
		for _, fi := range entries {
			child := path.Join(e.path, fi.Name())
			switch {
			case isLink(fi):
				p.Add(Step{Op: OpRemove, Path: child, Entity: label})
			case fi.IsDir():
				sub, err := lc.Tree.ReadDir(child)
				if err != nil {
					return nil, err
				}
				for _, s := range sub {
					sp := path.Join(child, s.Name())
					if isLink(s) {
						p.Add(Step{Op: OpRemove, Path: sp, Entity: label})
					} else {
						inner = append(inner, Step{Op: OpRemoveOptional, Path: sp, Entity: label})
					}
				}
				inner = append(inner, Step{Op: OpRemoveOptional, Path: child, Entity: label})
			default:
				inner = append(inner, Step{Op: OpRemoveOptional, Path: child, Entity: label})
			}
		}
	}

	// Entities, in reverse materialization order.
	for _, kind := range slices.Backward(Kinds) {
		for _, e := range entities {
			if e.kind != kind {
				continue
			}
			for _, s := range inner {
				if path.Dir(s.Path) == e.path || path.Dir(path.Dir(s.Path)) == e.path {
					p.Add(s)
				}
			}
			p.Add(Step{Op: OpRemove, Path: e.path, Entity: fmt.Sprintf("%s %q", kind.Singular(), e.name)})
		}
	}

	// Collections and device attributes, then the root.
	entries, err := lc.Tree.ReadDir(root)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, fi := range entries {
		p.Add(Step{Op: OpRemoveOptional, Path: path.Join(root, fi.Name()), Entity: dev})
	}
	p.Add(Step{Op: OpRemove, Path: root, Entity: dev})
	return p, nil
}

func (lc *Lifecycle) requireDevice(name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	root := lc.Tree.Layout.DevicePath(name)
	ok, err := lc.Tree.Exists(root)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCorruptState, err, "stat device %q", name).WithPath(lc.Tree.Layout.Abs(root))
	}
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "device %q does not exist", name).WithPath(lc.Tree.Layout.Abs(root))
	}
	return nil
}

func (lc *Lifecycle) setEnabled(name string, on bool) error {
	return lc.Tree.WriteAttr(lc.Tree.Layout.DeviceAttrPath(name, AttrEnabled), lc.Codec.EncodeBool(on))
}
