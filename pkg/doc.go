// Package pkg holds the supportree libraries.
//
// # Overview
//
// Supportree takes a set of regions stacked in layers, the graph of which
// region may rest on which, and a list of X-junctions where four regions
// meet. It enumerates the spanning trees of that graph in which every
// junction resolves to one consistent occlusion order.
//
//  1. [core] - Search and validation, free of I/O
//  2. [problem] - Problem and result files (TOML, JSON)
//  3. [pipeline] - Orchestration (build → enumerate → validate)
//  4. [cache], [store] - Result caching and the run archive
//  5. [server] - HTTP API
//
// # Architecture
//
//	problem file / HTTP body
//	         ↓
//	    [core/adjacency] (regions → support edges, optional)
//	         ↓
//	    [core/support] (bounded spanning tree search with junction pruning)
//	         ↓
//	    [core/tree] (depths, global junction validation)
//	         ↓
//	    [render/dot] (DOT / SVG)
//
// # Quick Start
//
//	p, _ := problem.ReadFile("squares.toml")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(ctx, p, pipeline.Options{})
//	svg, _ := runner.RenderTree(ctx, res, 0, pipeline.FormatSVG)
package pkg
