// Package topology models a VKMS device and the entities it is made of.
//
// # Overview
//
// A [Device] owns four collections of named entities: planes, CRTCs,
// encoders and connectors. Planes and encoders reference the CRTCs they may
// be attached to, and connectors reference the encoders that may feed them.
// The model carries no filesystem knowledge; it is pure data that can be
// decoded from JSON or YAML and handed to the configfs package.
//
// # Validation
//
// [Validate] checks a device before anything touches the control tree. It
// never stops at the first problem: every violation is returned at once in a
// [*errors.ValidationError] so a user can fix an input file in one pass.
//
//	dev, err := topology.Validate(input)
//	if err != nil {
//	    for _, line := range errors.DetailLines(err) {
//	        fmt.Println(line)
//	    }
//	}
//
// # Comparison
//
// Collections are ordered lists in input files but unordered sets in the
// control tree. [Normalize] sorts a copy of a device so that two devices can
// be compared with [Equal] regardless of the order they were listed in.
package topology
