// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - TextWriter: Human-readable terminal output with aligned tables
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for documentation and sharing
//
// Design decision: We separate report writing from the analysis data
// structures (which live in the trend package) so new output formats can be
// added without touching the trend logic. Writers implement the Writer
// interface, allowing them to be used interchangeably and composed for
// multi-format output.
package report
