// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary lifecycle of loading an
// architecture document, building the network and describing the result,
// decoupled from any specific entrypoint like a CLI.
package app
