// Package configfs maps VKMS device topologies onto the configfs control
// tree and back.
//
// # Layout
//
// A device lives under <root>/vkms/<device>, with one directory per entity
// inside the planes, crtcs, encoders and connectors collections. Scalar
// fields are attribute files and cross-references are symbolic links inside
// possible_crtcs and possible_encoders directories. [Layout] is the only
// place that knows these names; [ParseEntity] is its inverse.
//
// # Plans
//
// Every mutation is expressed as a [Plan]: an ordered list of [Step]s
// interpreted by a [Tree]. Creation plans are applied with [Tree.Apply],
// which undoes executed steps in reverse order when one fails. Removal plans
// are applied with [Tree.Teardown], which stops at the first rejected step
// and reports what is left.
//
// # Components
//
//   - [Materializer] validates a device and creates it, writing the enabled
//     attribute last.
//   - [Reader] reconstructs devices, failing the whole device on any corrupt
//     entry and ignoring entries it does not recognize.
//   - [Lifecycle] enables, disables and removes devices.
//
// Attribute tokens are produced by a [Codec]. [KernelCodec] writes the
// numeric values the vkms driver expects; [TextCodec] writes names.
//
// # Filesystems
//
// A [Tree] wraps a go-billy filesystem. [OpenTree] roots it at a host
// directory, normally [DefaultRoot]; tests use an in-memory filesystem.
// Configfs creates default groups and attribute files by itself and refuses
// to remove them, so creation steps use ensure-dir for directories configfs
// may have made, and removal tolerates "permission denied" for kernel-owned
// entries. The same plans therefore run unchanged against a plain directory.
package configfs
