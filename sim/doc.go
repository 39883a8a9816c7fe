// Package sim holds the seeded randomness shared by the cohort generator.
//
// # Reading Guide
//
// Start with these files to understand generation:
//   - rng.go: SimulationKey and PartitionedRNG, one stream per record or subsystem
//   - cohort/spec.go: CohortSpec, defaults, YAML loading and validation
//   - cohort/generator.go: Generate, the staged per-record draws and worker fan-out
//
// # Architecture
//
// Implementations live in sub-packages:
//   - sim/cohort/: StudentRecord, CohortSpec and the generator
//   - sim/dashboard/: read-only projections (KPIs, funnel, rankings, ROI) and the HTTP read API
//   - sim/export/: CSV, JSON, XLSX and Postgres sinks
//
// Every record draws from its own stream derived from (seed, index), so a
// cohort is identical for any worker count.
package sim
