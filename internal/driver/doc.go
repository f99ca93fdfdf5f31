// Package driver runs batches of intrinsic calls against a dialect table.
//
// A batch comes from a YAML call manifest: each entry names a builtin,
// operator or constructor and lists argument types or literals. Check
// resolves every call in parallel, optionally folds constant calls through
// their const-eval functions, and collects the outcome as a Report plus
// diagnostics. Reports may be cached on disk keyed by the manifest content.
package driver
