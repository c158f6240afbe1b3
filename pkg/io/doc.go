// Package io reads device topologies from JSON and YAML files and writes
// device lists back out.
//
// # Format
//
// A topology file describes one device:
//
//	{
//	  "name": "dev1",
//	  "enabled": true,
//	  "planes": [
//	    {"name": "p0", "type": "primary", "possible_crtcs": ["c0"]}
//	  ],
//	  "crtcs": [{"name": "c0", "is_writeback_enabled": false}],
//	  "encoders": [{"name": "e0", "possible_crtcs": ["c0"]}],
//	  "connectors": [
//	    {"name": "n0", "status": "connected", "possible_encoders": ["e0"]}
//	  ]
//	}
//
// YAML files use the same keys. Plane types are primary, overlay or cursor
// (default overlay); connector statuses are connected, disconnected or
// unknown (default connected).
//
// # Import
//
// Use [Import] to read a file, picking the format from its extension, or
// [ReadJSON] and [ReadYAML] to read from any io.Reader. Decoding failures
// carry the INVALID_INPUT code. Imported devices are not validated; pass
// them to topology.Validate or straight to the materializer.
//
// # Export
//
// [WriteJSON] and [WriteYAML] write a list of devices, as returned by the
// reader. Every element is a valid input for [ReadJSON] or [ReadYAML], so
// a device can be listed, edited and created again.
package io
