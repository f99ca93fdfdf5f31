// Package diag defines the diagnostic model shared by the manifest loader,
// the resolver front end and the CLI.
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier (see codes.go) with a stable ID such
//     as SEM3001.
//   - Message: short human text. Multi-line candidate lists from the
//     resolver are kept as-is and flattened only by the short formatter.
//   - Primary: the Location of the offending call in its manifest.
//   - Notes: secondary messages, e.g. one per rejected candidate.
//
// Producers start with ReportError or ReportWarning, attach notes and call
// Emit on a Reporter. *Bag is a Reporter and is safe for concurrent use, so
// parallel resolution workers share one, usually behind a DedupReporter.
// Rendering lives in internal/diagfmt.
package diag
