// Package problem defines the on-disk and wire formats for support-tree
// problems and their results.
//
// # Problems
//
// A [Problem] names the region count, the junctions and either an explicit
// edge list or region descriptors from which the adjacency builder derives
// edges. Problems are read from TOML or JSON, chosen by file extension:
//
//	name  = "four squares"
//	nodes = 5
//	edges = [[0, 1], [0, 2], [1, 3], [2, 4]]
//	junctions = [[1, 2, 3, 4]]
//
//	[search]
//	max_depth = 3
//	l1_quota  = 2
//
// [Problem.Build] turns a problem into the immutable graph and junction set
// the search consumes.
//
// # Results
//
// A [Result] is what a run produces: the accepted trees with their depths and
// junction explanations, plus the statistics of every bounded search the run
// performed. Results serialize to JSON (API, cache, storage) and TOML (CLI
// export) and carry bson tags for the run archive.
package problem
