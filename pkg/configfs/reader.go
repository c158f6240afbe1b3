package configfs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/topology"
)

// Reader reconstructs devices from the control tree. It never mutates it.
type Reader struct {
	Tree  *Tree
	Codec Codec
}

// NewReader creates a reader over tree. If codec is nil, [KernelCodec] is used.
func NewReader(tree *Tree, codec Codec) *Reader {
	if codec == nil {
		codec = KernelCodec{}
	}
	return &Reader{Tree: tree, Codec: codec}
}

// Read returns the device called name.
//
// Entries the reader does not recognize are ignored. A recognized attribute
// that is missing or holds an undecodable token, a link that does not point
// at an entity of the expected kind, or a reconstructed device that fails
// validation makes the whole device CORRUPT_STATE: a partial model is never
// returned. Collections and references are sorted by name.
func (r *Reader) Read(ctx context.Context, name string) (*topology.Device, error) {
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	l := r.Tree.Layout
	root := l.DevicePath(name)

	fi, err := r.Tree.fs.Lstat(root)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.ErrCodeNotFound, "device %q does not exist", name).WithPath(l.Abs(root))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptState, err, "stat device %q", name).WithPath(l.Abs(root))
	}
	if !fi.IsDir() {
		return nil, errors.New(errors.ErrCodeCorruptState, "device %q is not a directory", name).WithPath(l.Abs(root))
	}

	d := topology.New(name)
	if d.Enabled, err = r.readBool(l.DeviceAttrPath(name, AttrEnabled)); err != nil {
		return nil, r.corrupt(name, err)
	}

	for _, kind := range Kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := r.entities(l.CollectionPath(name, kind))
		if err != nil {
			return nil, r.corrupt(name, err)
		}
		for _, entity := range names {
			if err := r.readEntity(d, kind, entity); err != nil {
				return nil, r.corrupt(name, err)
			}
		}
	}

	d = topology.Normalize(d)
	if _, err := topology.Validate(d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptState, err, "device %q is inconsistent", name).WithPath(l.Abs(root))
	}
	return d, nil
}

// List returns every device under the vkms directory, sorted by name.
// A missing vkms directory yields an empty list. Any unreadable device
// fails the whole listing with CORRUPT_STATE. Directories skipped by
// [Reader.Names] are not listed.
func (r *Reader) List(ctx context.Context) ([]*topology.Device, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]*topology.Device, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := r.Read(ctx, name)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Names returns the names of every device directory, sorted, without
// decoding them.
//
// A directory whose name this tool could never have created (see
// [errors.ValidateName]) is skipped with a warning, since no command can
// address it.
func (r *Reader) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := r.entities(DevicesDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptState, err, "list devices").WithPath(r.Tree.Layout.Abs(DevicesDir))
	}
	names := make([]string, 0, len(entries))
	for _, name := range entries {
		if err := errors.ValidateName(name); err != nil {
			r.Tree.Logger.Warn("skipping device directory", "path", r.Tree.Layout.Abs(r.Tree.Layout.DevicePath(name)), "err", err)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// entities returns the names of the subdirectories of p.
// A missing directory holds no entities.
func (r *Reader) entities(p string) ([]string, error) {
	entries, err := r.Tree.ReadDir(p)
	if stderrors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !isLink(e) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (r *Reader) readEntity(d *topology.Device, kind Kind, name string) error {
	l := r.Tree.Layout
	attr := l.AttrPath(d.Name, kind, name, kind.Attr())

	switch kind {
	case KindPlane:
		raw, err := r.Tree.ReadAttr(attr)
		if err != nil {
			return err
		}
		typ, err := r.Codec.DecodePlaneKind(raw)
		if err != nil {
			return &fs.PathError{Op: "decode", Path: attr, Err: err}
		}
		refs, err := r.links(d.Name, kind, name, LinkPossibleCrtcs, KindCrtc)
		if err != nil {
			return err
		}
		d.Planes = append(d.Planes, &topology.Plane{Name: name, Type: typ, PossibleCrtcs: refs})

	case KindCrtc:
		wb, err := r.readBool(attr)
		if err != nil {
			return err
		}
		d.Crtcs = append(d.Crtcs, &topology.Crtc{Name: name, IsWritebackEnabled: wb})

	case KindEncoder:
		refs, err := r.links(d.Name, kind, name, LinkPossibleCrtcs, KindCrtc)
		if err != nil {
			return err
		}
		d.Encoders = append(d.Encoders, &topology.Encoder{Name: name, PossibleCrtcs: refs})

	case KindConnector:
		raw, err := r.Tree.ReadAttr(attr)
		if err != nil {
			return err
		}
		st, err := r.Codec.DecodeStatus(raw)
		if err != nil {
			return &fs.PathError{Op: "decode", Path: attr, Err: err}
		}
		refs, err := r.links(d.Name, kind, name, LinkPossibleEncoders, KindEncoder)
		if err != nil {
			return err
		}
		d.Connectors = append(d.Connectors, &topology.Connector{Name: name, Status: st, PossibleEncoders: refs})
	}
	return nil
}

// links returns the names of the entities linked from a link directory.
// Entries that are not links are ignored.
func (r *Reader) links(device string, kind Kind, name, dir string, target Kind) ([]string, error) {
	p := r.Tree.Layout.LinkDirPath(device, kind, name, dir)
	entries, err := r.Tree.ReadDir(p)
	if stderrors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !isLink(e) {
			continue
		}
		lp := path.Join(p, e.Name())
		dest, err := r.Tree.Readlink(lp)
		if err != nil {
			return nil, err
		}
		ref, err := ParseEntity(dest)
		if err != nil {
			return nil, &fs.PathError{Op: "readlink", Path: lp, Err: err}
		}
		if ref.Kind != target {
			return nil, &fs.PathError{Op: "readlink", Path: lp, Err: fmt.Errorf("points at %s %q, want a %s", ref.Kind.Singular(), ref.Name, target.Singular())}
		}
		if ref.Device != "" && ref.Device != device {
			return nil, &fs.PathError{Op: "readlink", Path: lp, Err: fmt.Errorf("points into device %q", ref.Device)}
		}
		refs = append(refs, ref.Name)
	}
	sort.Strings(refs)
	return refs, nil
}

func (r *Reader) readBool(p string) (bool, error) {
	raw, err := r.Tree.ReadAttr(p)
	if err != nil {
		return false, err
	}
	b, err := r.Codec.DecodeBool(raw)
	if err != nil {
		return false, &fs.PathError{Op: "decode", Path: p, Err: err}
	}
	return b, nil
}

func (r *Reader) corrupt(device string, err error) error {
	e := errors.Wrap(errors.ErrCodeCorruptState, err, "device %q is corrupt", device)
	var pe *fs.PathError
	if stderrors.As(err, &pe) {
		e.WithPath(r.Tree.Layout.Abs(pe.Path))
	}
	return e
}
