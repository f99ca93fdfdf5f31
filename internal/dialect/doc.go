// Package dialect owns the built-in intrinsic tables.
//
// Each dialect is a TOML definition embedded into the binary. A dialect may
// extend another one; its table is the base table with the extension's
// overloads appended. Tables are built on first use and shared read-only
// afterwards.
package dialect
