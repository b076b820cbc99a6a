// Package domain contains the core value types of pixscale.
//
// This package has no dependencies on infrastructure concerns (image
// codecs, the file system, logging) and contains only pure rules: how a
// batch is laid out, how output files are named, and how the manifest
// reads.
//
// # Entities
//
//   - [Source]: an input image path and the base filename its outputs derive from
//   - [Job]: one (source, factor) pair producing exactly one output file
//   - [JobResult]: the outcome of a single job
//   - [Report]: the aggregate of one batch pass
//
// Output names are a pure function of (name, factor); see [OutputName].
package domain
