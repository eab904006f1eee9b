package support

import "slices"

// junctionsHold checks every junction containing w that has at least three
// placed members against the partial tree.
func (s *search) junctionsHold(w int) bool {
	for _, j := range s.set.Memberships(w) {
		if s.xjCount[j] < 3 {
			continue
		}
		x := s.set.Junction(j)
		if !s.depthsHold(x) || !s.edgesHold(x) {
			return false
		}
	}
	return true
}

// depthsHold rejects three or more junction members at the same depth.
// Unplaced members have depth 0 and sort first.
func (s *search) depthsHold(x [4]int) bool {
	d := [4]int{s.depth[x[0]], s.depth[x[1]], s.depth[x[2]], s.depth[x[3]]}
	slices.Sort(d[:])
	return !((d[0] == d[1] || d[2] == d[3]) && d[1] == d[2])
}

// edgesHold rejects chosen edges that contradict the junction geometry.
// With the junction laid out as
//
//	x0 x1
//	x3 x2
//
// opposite sides may not be supported in opposite directions, and the
// diagonals never touch so they may not be edges at all.
func (s *search) edgesHold(x [4]int) bool {
	p := [2][2]int{{x[0], x[1]}, {x[3], x[2]}}
	for i := range 2 {
		o := i ^ 1
		if s.chosen(p[i][0], p[i][1]) && s.chosen(p[o][1], p[o][0]) {
			return false
		}
		if s.chosen(p[0][i], p[1][i]) && s.chosen(p[1][o], p[0][o]) {
			return false
		}
		if s.chosen(p[i][0], p[o][1]) || s.chosen(p[o][1], p[i][0]) {
			return false
		}
	}
	return true
}
