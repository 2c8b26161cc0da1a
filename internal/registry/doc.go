// Package registry provides the central "glue" between manifests and code.
//
// The Registry stores mappings between the node type identifiers used in
// architecture documents (e.g., "linear_mapping") and the compiled Go
// factories that build the corresponding nodes. During application startup
// the registry is populated by the core modules before any document is
// loaded, so an unknown type in a document is always a manifest error and
// never a race with registration.
package registry
