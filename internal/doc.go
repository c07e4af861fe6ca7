// Package internal contains the core implementation packages for doccheck.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - htmlparse: Forgiving markup parser that emits element and content events
//   - checker: Checker interface, finding reporter and event fan-out
//   - a11y: Heading order and landmark region rules
//   - links: Anchor tables, link resolution and link totals
//   - scanner: Document discovery and the per-run checker suite
//   - config: Configuration loading and validation with Viper
//   - watcher: File system monitoring with debouncing
//   - logging: Structured logging on log/slog
//   - errors: Typed errors separating findings from failures
//
// # Data Flow
//
// The scanner walks the configured roots one file at a time and hands each
// document to the parser. The parser reports events to a checker.Multi,
// which passes them to the syntax, a11y and links checkers in that order.
// Checkers write findings through a shared checker.Reporter and print their
// totals once the run is complete.
//
// For detailed documentation, see the individual package documentation.
package internal
