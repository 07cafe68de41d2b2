package detector

// clusterSet folds per-level candidates into clusters. It is owned by a single
// Detect call.
type clusterSet struct {
	minDist  float64
	clusters []Cluster
}

func newClusterSet(minDist float64) *clusterSet {
	return &clusterSet{minDist: minDist}
}

// add folds one level. Each candidate joins the first existing cluster it
// matches, scanning clusters in creation order. Unmatched candidates start new
// clusters, which are appended only after the whole level has been scanned, so
// candidates of the same level never match each other.
func (s *clusterSet) add(level []Center) {
	var created []Cluster
	for _, c := range level {
		matched := false
		for i, cluster := range s.clusters {
			if s.matches(cluster.Representative(), c) {
				s.clusters[i] = cluster.insert(c)
				matched = true
				break
			}
		}
		if !matched {
			created = append(created, Cluster{c})
		}
	}
	s.clusters = append(s.clusters, created...)
}

// matches reports whether candidate c is close enough to the representative of
// a cluster: within the minimum object distance or inside either radius.
func (s *clusterSet) matches(rep, c Center) bool {
	d := rep.Location.Sub(c.Location).Norm()
	return d < s.minDist || d < rep.Radius || d < c.Radius
}

// objects returns one Object per cluster with at least minRepeatability
// members, in cluster creation order.
func (s *clusterSet) objects(minRepeatability int) []Object {
	objects := make([]Object, 0, len(s.clusters))
	for _, cluster := range s.clusters {
		if len(cluster) < minRepeatability {
			continue
		}
		objects = append(objects, cluster.Object())
	}
	return objects
}

// Aggregate folds levels in order and returns the objects that recur in at
// least minRepeatability candidates.
func Aggregate(levels [][]Center, minDist float64, minRepeatability int) []Object {
	s := newClusterSet(minDist)
	for _, level := range levels {
		s.add(level)
	}
	return s.objects(minRepeatability)
}
