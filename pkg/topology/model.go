package topology

import (
	"fmt"
	"strings"
)

// PlaneKind is the type of a plane, as defined by the kernel.
// Unknown values survive decoding so that [Validate] can report them.
type PlaneKind string

const (
	PlaneOverlay PlaneKind = "overlay"
	PlanePrimary PlaneKind = "primary"
	PlaneCursor  PlaneKind = "cursor"
)

// PlaneKinds lists the allowed plane kinds.
var PlaneKinds = []PlaneKind{PlanePrimary, PlaneOverlay, PlaneCursor}

// Valid reports whether k is one of [PlaneKinds].
func (k PlaneKind) Valid() bool {
	switch k {
	case PlanePrimary, PlaneOverlay, PlaneCursor:
		return true
	}
	return false
}

// ParsePlaneKind parses a plane kind name, case-insensitively.
func ParsePlaneKind(s string) (PlaneKind, error) {
	k := PlaneKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("invalid plane type %q (allowed: primary, overlay, cursor)", s)
	}
	return k, nil
}

// UnmarshalText accepts any spelling [ParsePlaneKind] accepts. Other values
// are kept as given so that [Validate] reports them.
func (k *PlaneKind) UnmarshalText(b []byte) error {
	if parsed, err := ParsePlaneKind(string(b)); err == nil {
		*k = parsed
	} else {
		*k = PlaneKind(b)
	}
	return nil
}

// ConnectorStatus is the reported status of a connector.
type ConnectorStatus string

const (
	StatusConnected    ConnectorStatus = "connected"
	StatusDisconnected ConnectorStatus = "disconnected"
	StatusUnknown      ConnectorStatus = "unknown"
)

// ConnectorStatuses lists the allowed connector statuses.
var ConnectorStatuses = []ConnectorStatus{StatusConnected, StatusDisconnected, StatusUnknown}

// Valid reports whether s is one of [ConnectorStatuses].
func (s ConnectorStatus) Valid() bool {
	switch s {
	case StatusConnected, StatusDisconnected, StatusUnknown:
		return true
	}
	return false
}

// ParseConnectorStatus parses a connector status name, case-insensitively.
func ParseConnectorStatus(s string) (ConnectorStatus, error) {
	st := ConnectorStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid connector status %q (allowed: connected, disconnected, unknown)", s)
	}
	return st, nil
}

// UnmarshalText accepts any spelling [ParseConnectorStatus] accepts. Other
// values are kept as given so that [Validate] reports them.
func (s *ConnectorStatus) UnmarshalText(b []byte) error {
	if parsed, err := ParseConnectorStatus(string(b)); err == nil {
		*s = parsed
	} else {
		*s = ConnectorStatus(b)
	}
	return nil
}

// Device is a VKMS device and its child entities.
// Its name is the name of the device directory under <configfs>/vkms.
type Device struct {
	Name       string       `json:"name" yaml:"name"`
	Enabled    bool         `json:"enabled" yaml:"enabled"`
	Planes     []*Plane     `json:"planes" yaml:"planes"`
	Crtcs      []*Crtc      `json:"crtcs" yaml:"crtcs"`
	Encoders   []*Encoder   `json:"encoders" yaml:"encoders"`
	Connectors []*Connector `json:"connectors" yaml:"connectors"`
}

// Plane is a plane of a device, linked to the CRTCs it may be attached to.
type Plane struct {
	Name          string    `json:"name" yaml:"name"`
	Type          PlaneKind `json:"type" yaml:"type"`
	PossibleCrtcs []string  `json:"possible_crtcs" yaml:"possible_crtcs"`
}

// Crtc is a CRTC of a device.
type Crtc struct {
	Name               string `json:"name" yaml:"name"`
	IsWritebackEnabled bool   `json:"is_writeback_enabled" yaml:"is_writeback_enabled"`
}

// Encoder is an encoder of a device, linked to the CRTCs it may be driven by.
type Encoder struct {
	Name          string   `json:"name" yaml:"name"`
	PossibleCrtcs []string `json:"possible_crtcs" yaml:"possible_crtcs"`
}

// Connector is a connector of a device, linked to the encoders it may be fed by.
type Connector struct {
	Name             string          `json:"name" yaml:"name"`
	Status           ConnectorStatus `json:"status" yaml:"status"`
	PossibleEncoders []string        `json:"possible_encoders" yaml:"possible_encoders"`
}

// New creates an empty, disabled device with non-nil collections.
func New(name string) *Device {
	return &Device{
		Name:       name,
		Planes:     []*Plane{},
		Crtcs:      []*Crtc{},
		Encoders:   []*Encoder{},
		Connectors: []*Connector{},
	}
}

// Crtc returns the CRTC with the given name, or nil.
func (d *Device) Crtc(name string) *Crtc {
	for _, c := range d.Crtcs {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// Encoder returns the encoder with the given name, or nil.
func (d *Device) Encoder(name string) *Encoder {
	for _, e := range d.Encoders {
		if e != nil && e.Name == name {
			return e
		}
	}
	return nil
}

// EntityCount returns the number of child entities of the device.
func (d *Device) EntityCount() int {
	return len(d.Planes) + len(d.Crtcs) + len(d.Encoders) + len(d.Connectors)
}

// LinkCount returns the number of cross-references held by the device's entities.
func (d *Device) LinkCount() int {
	n := 0
	for _, p := range d.Planes {
		if p != nil {
			n += len(p.PossibleCrtcs)
		}
	}
	for _, e := range d.Encoders {
		if e != nil {
			n += len(e.PossibleCrtcs)
		}
	}
	for _, c := range d.Connectors {
		if c != nil {
			n += len(c.PossibleEncoders)
		}
	}
	return n
}

// ApplyDefaults fills the optional fields left empty by input files:
// planes default to overlay, connectors to connected, and nil collections
// become empty.
func (d *Device) ApplyDefaults() {
	if d.Planes == nil {
		d.Planes = []*Plane{}
	}
	if d.Crtcs == nil {
		d.Crtcs = []*Crtc{}
	}
	if d.Encoders == nil {
		d.Encoders = []*Encoder{}
	}
	if d.Connectors == nil {
		d.Connectors = []*Connector{}
	}
	for _, p := range d.Planes {
		if p != nil && p.Type == "" {
			p.Type = PlaneOverlay
		}
	}
	for _, c := range d.Connectors {
		if c != nil && c.Status == "" {
			c.Status = StatusConnected
		}
	}
}
