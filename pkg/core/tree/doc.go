// Package tree represents support hierarchies and checks them against
// X-junction constraints.
//
// A [Tree] is a spanning arborescence over regions 0..n-1 rooted at the canvas
// node 0. It answers structural queries ([Tree.Depth], [Tree.Parent],
// [Tree.Children], [Tree.Layers]) in constant or linear time.
//
// [Validate] is the global consistency check for completed trees. Every
// junction must be explained by exactly one of its canonical configurations,
// either directly (both claimed edges are in the tree) or by derivation from
// an already explained neighbour: a config that differs from an accepted one
// in a single position, where the two differing regions sit at the same depth.
//
// Derivation is a single forward pass in junction order. A deferred junction
// takes the first config, in canonical order, that pairs with the earliest
// accepted config; its choice becomes available to junctions after it.
package tree
