// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the compile lifecycle, decoupled from any
// specific entrypoint like a CLI or an editor plugin.
package app
