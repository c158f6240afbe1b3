package topology

import "testing"

func TestNormalizeSorts(t *testing.T) {
	d := &Device{
		Name:   "dev1",
		Planes: []*Plane{{Name: "p1", PossibleCrtcs: []string{"c1", "c0"}}, {Name: "p0"}},
		Crtcs:  []*Crtc{{Name: "c1"}, {Name: "c0"}},
	}

	n := Normalize(d)
	if n.Planes[0].Name != "p0" || n.Crtcs[0].Name != "c0" {
		t.Errorf("collections not sorted: planes[0]=%s crtcs[0]=%s", n.Planes[0].Name, n.Crtcs[0].Name)
	}
	if got := n.Planes[1].PossibleCrtcs; got[0] != "c0" || got[1] != "c1" {
		t.Errorf("references not sorted: %v", got)
	}
	if d.Planes[0].PossibleCrtcs[0] != "c1" {
		t.Error("Normalize() must not modify its input")
	}
	if n.Encoders == nil || n.Connectors == nil {
		t.Error("nil collections should become empty")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Device)
		want   bool
	}{
		{"identical", func(d *Device) {}, true},
		{"extra crtc", func(d *Device) {
			d.Crtcs = append(d.Crtcs, &Crtc{Name: "c1"})
			d.Crtcs[0], d.Crtcs[1] = d.Crtcs[1], d.Crtcs[0]
		}, false},
		{"enabled differs", func(d *Device) { d.Enabled = true }, false},
		{"plane type differs", func(d *Device) { d.Planes[0].Type = PlaneCursor }, false},
		{"writeback differs", func(d *Device) { d.Crtcs[0].IsWritebackEnabled = true }, false},
		{"status differs", func(d *Device) { d.Connectors[0].Status = StatusUnknown }, false},
		{"extra link", func(d *Device) {
			d.Crtcs = append(d.Crtcs, &Crtc{Name: "c1"})
			d.Planes[0].PossibleCrtcs = append(d.Planes[0].PossibleCrtcs, "c1")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := sampleDevice(), sampleDevice()
			tt.mutate(b)
			if got := Equal(a, b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := sampleDevice()
	a.Crtcs = append(a.Crtcs, &Crtc{Name: "c1"})
	a.Planes[0].PossibleCrtcs = []string{"c0", "c1"}

	b := sampleDevice()
	b.Crtcs = []*Crtc{{Name: "c1"}, {Name: "c0"}}
	b.Planes[0].PossibleCrtcs = []string{"c1", "c0"}

	if !Equal(a, b) {
		t.Error("Equal() should ignore collection and reference order")
	}
	if Equal(a, nil) || !Equal(nil, nil) {
		t.Error("Equal() nil handling mismatch")
	}
}
