package topology

import (
	"cmp"
	"slices"
)

// Normalize returns a deep copy of d with every collection and reference
// list sorted by name. Nil collections become empty. Two devices describe the
// same topology exactly when their normalized forms are equal.
func Normalize(d *Device) *Device {
	if d == nil {
		return nil
	}
	out := New(d.Name)
	out.Enabled = d.Enabled

	for _, p := range d.Planes {
		if p != nil {
			out.Planes = append(out.Planes, &Plane{Name: p.Name, Type: p.Type, PossibleCrtcs: sortedCopy(p.PossibleCrtcs)})
		}
	}
	for _, c := range d.Crtcs {
		if c != nil {
			out.Crtcs = append(out.Crtcs, &Crtc{Name: c.Name, IsWritebackEnabled: c.IsWritebackEnabled})
		}
	}
	for _, e := range d.Encoders {
		if e != nil {
			out.Encoders = append(out.Encoders, &Encoder{Name: e.Name, PossibleCrtcs: sortedCopy(e.PossibleCrtcs)})
		}
	}
	for _, c := range d.Connectors {
		if c != nil {
			out.Connectors = append(out.Connectors, &Connector{Name: c.Name, Status: c.Status, PossibleEncoders: sortedCopy(c.PossibleEncoders)})
		}
	}

	slices.SortFunc(out.Planes, func(a, b *Plane) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(out.Crtcs, func(a, b *Crtc) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(out.Encoders, func(a, b *Encoder) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(out.Connectors, func(a, b *Connector) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Equal reports whether a and b describe the same topology, ignoring the
// order of collections and reference lists.
func Equal(a, b *Device) bool {
	if a == nil || b == nil {
		return a == b
	}
	na, nb := Normalize(a), Normalize(b)
	if na.Name != nb.Name || na.Enabled != nb.Enabled {
		return false
	}
	return slices.EqualFunc(na.Planes, nb.Planes, func(x, y *Plane) bool {
		return x.Name == y.Name && x.Type == y.Type && slices.Equal(x.PossibleCrtcs, y.PossibleCrtcs)
	}) && slices.EqualFunc(na.Crtcs, nb.Crtcs, func(x, y *Crtc) bool {
		return *x == *y
	}) && slices.EqualFunc(na.Encoders, nb.Encoders, func(x, y *Encoder) bool {
		return x.Name == y.Name && slices.Equal(x.PossibleCrtcs, y.PossibleCrtcs)
	}) && slices.EqualFunc(na.Connectors, nb.Connectors, func(x, y *Connector) bool {
		return x.Name == y.Name && x.Status == y.Status && slices.Equal(x.PossibleEncoders, y.PossibleEncoders)
	})
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	slices.Sort(out)
	return out
}
