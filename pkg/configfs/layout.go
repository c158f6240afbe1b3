package configfs

import (
	"fmt"
	"path"
	"strings"
)

// DefaultRoot is where configfs is mounted on most systems.
const DefaultRoot = "/sys/kernel/config"

// DevicesDir is the directory of the vkms subsystem under the configfs root.
const DevicesDir = "vkms"

// Device attribute.
const AttrEnabled = "enabled"

// Entity attributes.
const (
	AttrType      = "type"
	AttrWriteback = "writeback"
	AttrStatus    = "status"
)

// Link directories.
const (
	LinkPossibleCrtcs    = "possible_crtcs"
	LinkPossibleEncoders = "possible_encoders"
)

// Kind identifies an entity collection. Its value is the name of the
// collection directory under a device.
type Kind string

const (
	KindPlane     Kind = "planes"
	KindCrtc      Kind = "crtcs"
	KindEncoder   Kind = "encoders"
	KindConnector Kind = "connectors"
)

// Kinds lists the entity collections in materialization order.
var Kinds = []Kind{KindPlane, KindCrtc, KindEncoder, KindConnector}

// ParseKind returns the Kind whose collection directory is named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Singular returns the entity name used in messages ("plane", "crtc", ...).
func (k Kind) Singular() string {
	return strings.TrimSuffix(string(k), "s")
}

// Attr returns the scalar attribute held by entities of this kind, or "".
func (k Kind) Attr() string {
	switch k {
	case KindPlane:
		return AttrType
	case KindCrtc:
		return AttrWriteback
	case KindConnector:
		return AttrStatus
	}
	return ""
}

// LinkDir describes a directory of links held by an entity.
type LinkDir struct {
	Name   string // directory name under the entity
	Target Kind   // kind of entity the links point to
}

// LinkDirs returns the link directories held by entities of this kind.
func (k Kind) LinkDirs() []LinkDir {
	switch k {
	case KindPlane, KindEncoder:
		return []LinkDir{{Name: LinkPossibleCrtcs, Target: KindCrtc}}
	case KindConnector:
		return []LinkDir{{Name: LinkPossibleEncoders, Target: KindEncoder}}
	}
	return nil
}

// Layout maps device and entity identities to control-tree paths.
//
// All paths returned by Layout are relative to Root, the configfs mount
// point, because the control tree handle is rooted there. Use [Layout.Abs]
// to turn one into a host path for messages.
type Layout struct {
	Root string
}

// Abs returns the host path of a tree-relative path.
func (l Layout) Abs(p string) string {
	root := l.Root
	if root == "" {
		root = "/"
	}
	return path.Join(root, p)
}

// DevicePath returns the root directory of a device.
func (Layout) DevicePath(device string) string {
	return path.Join(DevicesDir, device)
}

// DeviceAttrPath returns the path of a device attribute.
func (l Layout) DeviceAttrPath(device, attr string) string {
	return path.Join(l.DevicePath(device), attr)
}

// CollectionPath returns the directory holding all entities of a kind.
func (l Layout) CollectionPath(device string, kind Kind) string {
	return path.Join(l.DevicePath(device), string(kind))
}

// EntityPath returns the directory of an entity.
func (l Layout) EntityPath(device string, kind Kind, name string) string {
	return path.Join(l.CollectionPath(device, kind), name)
}

// AttrPath returns the path of an entity attribute.
func (l Layout) AttrPath(device string, kind Kind, name, attr string) string {
	return path.Join(l.EntityPath(device, kind, name), attr)
}

// LinkDirPath returns the path of a link directory of an entity.
func (l Layout) LinkDirPath(device string, kind Kind, name, dir string) string {
	return path.Join(l.EntityPath(device, kind, name), dir)
}

// LinkPath returns the path of the link from an entity to target.
func (l Layout) LinkPath(device string, kind Kind, name, dir, target string) string {
	return path.Join(l.LinkDirPath(device, kind, name, dir), target)
}

// LinkTarget returns the value stored in a link pointing at an entity.
// Targets are absolute within the tree: configfs resolves relative targets
// against the caller's working directory, not the link's.
func (l Layout) LinkTarget(device string, kind Kind, name string) string {
	return "/" + l.EntityPath(device, kind, name)
}

// EntityRef identifies an entity by its position in the control tree.
type EntityRef struct {
	Device string // empty when the path does not carry it
	Kind   Kind
	Name   string
}

// ParseEntity resolves an entity path back to its identity. It accepts
// paths produced by [Layout.EntityPath], absolute link targets, and the
// relative targets configfs reports for links (for example
// "../../../../crtcs/c0").
func ParseEntity(p string) (EntityRef, error) {
	clean := path.Clean(strings.TrimSpace(p))
	parts := strings.Split(strings.Trim(clean, "/"), "/")
	if len(parts) < 2 {
		return EntityRef{}, fmt.Errorf("path %q does not name an entity", p)
	}

	n := len(parts)
	kind, ok := ParseKind(parts[n-2])
	if !ok {
		return EntityRef{}, fmt.Errorf("path %q does not name an entity: %q is not a collection", p, parts[n-2])
	}
	name := parts[n-1]
	if name == "" || name == "." || name == ".." {
		return EntityRef{}, fmt.Errorf("path %q does not name an entity", p)
	}

	ref := EntityRef{Kind: kind, Name: name}
	if n >= 4 && parts[n-4] == DevicesDir {
		ref.Device = parts[n-3]
	}
	return ref, nil
}
