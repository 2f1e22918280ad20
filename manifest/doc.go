// Package manifest defines the descriptor handed to the host by whatever
// discovers extensions on disk.
//
// The host does not scan directories itself. A Discovery implementation
// walks an extension root, parses the descriptor files it finds, and yields
// Entry values pairing each manifest with the binary it points at. The
// loader consumes those entries; see the extension package.
package manifest
