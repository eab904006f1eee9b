// Package xjunction models X-junctions: points in a segmented image where
// exactly four regions meet.
//
// # Overview
//
// When four regions meet at a point, only a handful of depth orderings are
// physically plausible. Each junction is stored as its raw 4-tuple of region
// ids, read clockwise as
//
//	x0 x1
//	x3 x2
//
// and expanded into four canonical [Config] values. A config (b1, t1, b2, t2)
// claims that b1 supports t1 and b2 supports t2, so two opposite sides of the
// junction are explained by two supporting edges.
//
// # Canonical Form
//
// The four configs are derived by a fixed rule that depends only on the tuple
// and its orientation. Each candidate pair of sides is flipped so that the
// smaller id lands in the first bottom slot:
//
//	c1 = (x0,x1,x3,x2)  or (x3,x2,x0,x1) when x3 < x0
//	c2 = (x1,x0,x2,x3)  or (x2,x3,x1,x0) when x2 < x1
//	c3 = (x0,x3,x1,x2)  or (x1,x2,x0,x3) when x1 < x0
//	c4 = (x3,x0,x2,x1)  or (x2,x1,x3,x0) when x2 < x3
//
// Consumers rely on the order of the four configs: tree validation accepts
// the first config that matches.
//
// # Usage
//
// Build a [Set] once per problem with [NewSet]; it is read-only afterwards and
// may be shared between goroutines.
//
//	set, err := xjunction.NewSet(5, []xjunction.Junction{{1, 2, 3, 4}})
//	if err != nil {
//	    return err
//	}
//	set.ContainsPair(1, 2) // true
package xjunction
