// Package diag defines the diagnostic model shared by every checking phase.
//
// Diagnostic is the central record: a Severity, a numeric Code with a stable
// prefixed ID (SEM, RES, PRJ, OBS), a short message, a primary span into the
// project manifest and optional notes pointing at related declarations.
//
// Phases emit through a Reporter so they stay decoupled from storage. The
// usual chain in the driver is ReportBuilder -> DedupReporter -> BagReporter,
// and a Bag is sorted before it is handed to internal/diagfmt. Semantic errors
// produced by internal/sema are plain Go errors; the driver maps them to codes.
package diag
