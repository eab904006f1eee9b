// Package support builds directed support graphs over image regions and
// enumerates their bounded spanning trees.
//
// # Overview
//
// Node 0 is the canvas root; nodes 1..n-1 are regions. An edge u→v means
// "u could lie underneath v". A support hierarchy is a spanning tree rooted
// at 0 that uses only graph edges: every region gets exactly one supporter.
//
// # Necessity
//
// [New] marks each edge as necessary when removing it leaves some node
// unreachable from the root. Every spanning tree contains every necessary
// edge, which lets the search stop scanning alternatives as soon as it passes
// one.
//
// # Enumeration
//
// [Graph.Enumerate] and [Graph.EnumerateFunc] run a depth-first backtracking
// search that grows a tree one edge at a time from the root. Two bounds cut the
// space:
//
//   - [Bounds.MaxDepth]: no node deeper than this below the root
//   - [Bounds.L1Quota]: at most this many direct children of the root
//
// When an [xjunction.Set] is supplied, each placement is checked against the
// junctions that contain the newly placed node once at least three of their
// four regions are in the tree. Trees that survive are candidates only; the
// global check lives in the tree package.
//
// The search is single-threaded and keeps all mutable state in a private
// value, so one [Graph] can serve concurrent searches.
package support
