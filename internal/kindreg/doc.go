// Package kindreg holds the table of block kinds a diagram may instantiate.
//
// Kinds are declared in HCL manifests. A manifest lists one or more `kind`
// blocks, each naming the direction, port bounds, optional bus protocol and
// the typed parameter schema of the kind. The registry is populated once at
// startup (embedded built-in manifests first, then an optional user
// directory) and is read-only afterwards, so a single instance may be shared
// by concurrent compilation passes.
package kindreg
