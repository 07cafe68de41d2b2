package detector

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func center(x, y, radius, confidence float64) Center {
	return Center{Location: r2.Point{X: x, Y: y}, Radius: radius, Confidence: confidence}
}

func radii(c Cluster) []float64 {
	out := make([]float64, len(c))
	for i, m := range c {
		out[i] = m.Radius
	}
	return out
}

func TestCluster_InsertKeepsRadiusOrder(t *testing.T) {
	var c Cluster
	for _, r := range []float64{5, 3, 4, 1, 4} {
		c = c.insert(center(0, 0, r, 1))
	}

	want := []float64{1, 3, 4, 4, 5}
	if diff := cmp.Diff(want, radii(c)); diff != "" {
		t.Errorf("radius order mismatch (-want +got):\n%s", diff)
	}
	if got := c.Representative().Radius; got != 4 {
		t.Errorf("Representative radius: got %f, want 4", got)
	}
}

func TestCluster_InsertStableForEqualRadius(t *testing.T) {
	c := Cluster{center(1, 0, 2, 1)}
	c = c.insert(center(2, 0, 2, 1))
	c = c.insert(center(3, 0, 2, 1))

	for i, want := range []float64{1, 2, 3} {
		if c[i].Location.X != want {
			t.Errorf("member %d: got x=%f, want %f", i, c[i].Location.X, want)
		}
	}
}

func TestCluster_WeightedCentroid(t *testing.T) {
	c := Cluster{center(0, 0, 20, 1)}
	c = c.insert(center(10, 0, 20, 3))

	obj := c.Object()
	want := Object{Location: r2.Point{X: 7.5, Y: 0}, Size: 40, Repeatability: 2}
	if diff := cmp.Diff(want, obj, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Object mismatch (-want +got):\n%s", diff)
	}
}

func TestCluster_ZeroConfidenceFallsBackToMean(t *testing.T) {
	c := Cluster{center(0, 0, 1, 0), center(4, 2, 1, 0)}
	obj := c.Object()
	if math.IsNaN(obj.Location.X) || obj.Location != (r2.Point{X: 2, Y: 1}) {
		t.Errorf("Location: got %v, want (2,1)", obj.Location)
	}
}

func TestClusterSet_FirstMatchWins(t *testing.T) {
	s := newClusterSet(1)
	s.add([]Center{center(0, 0, 5, 1), center(100, 0, 5, 1)})
	if len(s.clusters) != 2 {
		t.Fatalf("cluster count after first level: got %d, want 2", len(s.clusters))
	}

	// (2,0) lies inside A's representative radius.
	s.add([]Center{center(2, 0, 1, 1)})
	if len(s.clusters[0]) != 2 || len(s.clusters[1]) != 1 {
		t.Fatalf("sizes: got A=%d B=%d, want A=2 B=1", len(s.clusters[0]), len(s.clusters[1]))
	}

	// A huge candidate matches both clusters and must join the older one.
	s.add([]Center{center(50, 0, 60, 1)})
	if len(s.clusters[0]) != 3 || len(s.clusters[1]) != 1 {
		t.Errorf("sizes: got A=%d B=%d, want A=3 B=1", len(s.clusters[0]), len(s.clusters[1]))
	}
}

func TestClusterSet_JoinsFirstCluster(t *testing.T) {
	s := newClusterSet(1)
	s.add([]Center{center(0, 0, 5, 1), center(100, 0, 5, 1)})
	s.add([]Center{center(2, 0, 5, 1)})

	if len(s.clusters) != 2 {
		t.Fatalf("cluster count: got %d, want 2", len(s.clusters))
	}
	if len(s.clusters[0]) != 2 || len(s.clusters[1]) != 1 {
		t.Errorf("sizes: got A=%d B=%d, want A=2 B=1", len(s.clusters[0]), len(s.clusters[1]))
	}
}

func TestClusterSet_MatchCriteria(t *testing.T) {
	tests := []struct {
		name      string
		rep       Center
		candidate Center
		minDist   float64
		want      bool
	}{
		{"within min distance", center(0, 0, 1, 1), center(5, 0, 1, 1), 10, true},
		{"inside representative radius", center(0, 0, 8, 1), center(5, 0, 1, 1), 1, true},
		{"inside candidate radius", center(0, 0, 1, 1), center(5, 0, 8, 1), 1, true},
		{"exactly at min distance", center(0, 0, 1, 1), center(10, 0, 1, 1), 10, false},
		{"far apart", center(0, 0, 2, 1), center(30, 40, 2, 1), 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newClusterSet(tt.minDist)
			if got := s.matches(tt.rep, tt.candidate); got != tt.want {
				t.Errorf("matches: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClusterSet_SameLevelCandidatesNeverMerge(t *testing.T) {
	s := newClusterSet(10)
	s.add([]Center{center(0, 0, 5, 1), center(1, 0, 5, 1)})
	if len(s.clusters) != 2 {
		t.Errorf("cluster count: got %d, want 2", len(s.clusters))
	}
}

func TestClusterSet_MatchesAgainstRepresentative(t *testing.T) {
	s := newClusterSet(1)
	s.add([]Center{center(0, 0, 1, 1)})
	s.add([]Center{center(0.5, 0, 3, 1)})
	s.add([]Center{center(0.5, 0, 5, 1)})
	// Radii 1, 3, 5: the representative is the radius-3 member at (0.5, 0).
	if got := s.clusters[0].Representative().Location; got != (r2.Point{X: 0.5, Y: 0}) {
		t.Fatalf("representative: got %v", got)
	}

	// 2.9 from the representative, inside its radius, but 3.4 from the
	// smallest member.
	s.add([]Center{center(3.4, 0, 0.5, 1)})
	if len(s.clusters) != 1 || len(s.clusters[0]) != 4 {
		t.Errorf("expected a single cluster of 4, got %d clusters", len(s.clusters))
	}
}

func TestAggregate_RepeatabilityGate(t *testing.T) {
	twice := [][]Center{
		{center(10, 10, 4, 1)},
		{center(11, 10, 4, 1)},
	}
	thrice := append(twice, []Center{center(10, 11, 4, 1)})

	if got := Aggregate(twice, 10, 3); len(got) != 0 {
		t.Errorf("2 members with minRepeatability 3: got %d objects, want 0", len(got))
	}

	got := Aggregate(thrice, 10, 3)
	if len(got) != 1 {
		t.Fatalf("3 members with minRepeatability 3: got %d objects, want 1", len(got))
	}
	if got[0].Repeatability != 3 {
		t.Errorf("Repeatability: got %d, want 3", got[0].Repeatability)
	}
}

func TestAggregate_SizeFromSortedMembers(t *testing.T) {
	var levels [][]Center
	for _, r := range []float64{5, 3, 4, 1} {
		levels = append(levels, []Center{center(0, 0, r, 1)})
	}

	s := newClusterSet(10)
	for _, level := range levels {
		s.add(level)
	}
	if len(s.clusters) != 1 {
		t.Fatalf("cluster count: got %d, want 1", len(s.clusters))
	}
	if diff := cmp.Diff([]float64{1, 3, 4, 5}, radii(s.clusters[0])); diff != "" {
		t.Errorf("radius order mismatch (-want +got):\n%s", diff)
	}

	got := Aggregate(levels, 10, 1)
	want := []Object{{Location: r2.Point{}, Size: 8, Repeatability: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	levels := [][]Center{
		{center(0, 0, 5, 1), center(100, 0, 5, 1), center(50, 50, 3, 0.5)},
		{center(2, 0, 4, 0.8), center(98, 1, 6, 1)},
		{center(1, 1, 5, 1), center(52, 49, 3, 1)},
	}

	first := Aggregate(levels, 10, 1)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Aggregate(levels, 10, 1)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
	if len(first) != 3 {
		t.Errorf("object count: got %d, want 3", len(first))
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil, 10, 1); len(got) != 0 {
		t.Errorf("got %d objects from no levels", len(got))
	}
}
