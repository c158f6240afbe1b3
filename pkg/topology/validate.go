package topology

import (
	"fmt"

	"github.com/matzehuels/vkmsctl/pkg/errors"
)

// Validate checks the structure of d and returns it unchanged when it is valid.
//
// All violations are collected and returned together in a
// [*errors.ValidationError], in this order:
//  1. the device name
//  2. entity names and their uniqueness within each collection
//  3. possible_crtcs references of planes and encoders
//  4. possible_encoders references of connectors
//  5. enumeration fields (plane type, connector status)
//
// Names only need to be unique within their own collection: planes, crtcs,
// encoders and connectors live in separate directories of the control tree.
//
// Validate has no side effects and may be called repeatedly.
func Validate(d *Device) (*Device, error) {
	if d == nil {
		verr := &errors.ValidationError{}
		verr.Add("device", "", "", "topology is empty")
		return nil, verr
	}

	verr := &errors.ValidationError{Device: d.Name}
	dev := fmt.Sprintf("device %q", d.Name)

	// 1. Device name
	if err := errors.ValidateName(d.Name); err != nil {
		verr.Add(dev, "name", d.Name, errors.UserMessage(err))
	}

	// 2. Entity names, unique per collection
	crtcs := checkNames(verr, "crtc", len(d.Crtcs), func(i int) (string, bool) {
		if d.Crtcs[i] == nil {
			return "", false
		}
		return d.Crtcs[i].Name, true
	})
	checkNames(verr, "plane", len(d.Planes), func(i int) (string, bool) {
		if d.Planes[i] == nil {
			return "", false
		}
		return d.Planes[i].Name, true
	})
	encoders := checkNames(verr, "encoder", len(d.Encoders), func(i int) (string, bool) {
		if d.Encoders[i] == nil {
			return "", false
		}
		return d.Encoders[i].Name, true
	})
	checkNames(verr, "connector", len(d.Connectors), func(i int) (string, bool) {
		if d.Connectors[i] == nil {
			return "", false
		}
		return d.Connectors[i].Name, true
	})

	// 3. possible_crtcs
	for _, p := range d.Planes {
		if p != nil {
			checkRefs(verr, fmt.Sprintf("plane %q", p.Name), "possible_crtcs", p.PossibleCrtcs, crtcs, "crtc")
		}
	}
	for _, e := range d.Encoders {
		if e != nil {
			checkRefs(verr, fmt.Sprintf("encoder %q", e.Name), "possible_crtcs", e.PossibleCrtcs, crtcs, "crtc")
		}
	}

	// 4. possible_encoders
	for _, c := range d.Connectors {
		if c != nil {
			checkRefs(verr, fmt.Sprintf("connector %q", c.Name), "possible_encoders", c.PossibleEncoders, encoders, "encoder")
		}
	}

	// 5. Enumerations
	for _, p := range d.Planes {
		if p != nil && !p.Type.Valid() {
			verr.Add(fmt.Sprintf("plane %q", p.Name), "type", string(p.Type), "must be one of primary, overlay, cursor")
		}
	}
	for _, c := range d.Connectors {
		if c != nil && !c.Status.Valid() {
			verr.Add(fmt.Sprintf("connector %q", c.Name), "status", string(c.Status), "must be one of connected, disconnected, unknown")
		}
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}
	return d, nil
}

// checkNames validates the names of one collection and returns the set of
// well-formed names it holds.
func checkNames(verr *errors.ValidationError, kind string, n int, name func(int) (string, bool)) map[string]bool {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		nm, ok := name(i)
		if !ok {
			verr.Add(fmt.Sprintf("%s #%d", kind, i), "", "", "entry is null")
			continue
		}
		entity := fmt.Sprintf("%s %q", kind, nm)
		if err := errors.ValidateName(nm); err != nil {
			verr.Add(entity, "name", nm, errors.UserMessage(err))
			continue
		}
		if seen[nm] {
			verr.Add(entity, "name", nm, fmt.Sprintf("duplicate %s name", kind))
			continue
		}
		seen[nm] = true
	}
	return seen
}

// checkRefs validates a reference list against the names of the target collection.
func checkRefs(verr *errors.ValidationError, entity, field string, refs []string, targets map[string]bool, targetKind string) {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		switch {
		case !targets[ref]:
			verr.Add(entity, field, ref, fmt.Sprintf("no %s with this name in the device", targetKind))
		case seen[ref]:
			verr.Add(entity, field, ref, "listed more than once")
		}
		seen[ref] = true
	}
}
