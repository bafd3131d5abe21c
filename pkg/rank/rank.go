// Package rank orders graph nodes by popularity.
package rank

import (
	"sort"

	"github.com/ritzau/recgraph/pkg/graph"
	"gonum.org/v1/gonum/graph/network"
)

// Score is a node id with its centrality
type Score struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// InDegreeCentrality returns in-degree / (n - 1) for every node, counting
// parallel edges. A single-node graph scores 1.
func InDegreeCentrality(g *graph.Graph) map[string]float64 {
	out := make(map[string]float64, g.Len())
	for _, s := range inDegreeScores(g) {
		out[s.ID] = s.Score
	}
	return out
}

func inDegreeScores(g *graph.Graph) []Score {
	nodes := g.Nodes()
	scores := make([]Score, len(nodes))
	if len(nodes) == 1 {
		scores[0] = Score{ID: nodes[0].ID, Score: 1}
		return scores
	}

	norm := 1 / float64(len(nodes)-1)
	for i, n := range nodes {
		scores[i] = Score{ID: n.ID, Score: float64(g.InDegree(n.ID)) * norm}
	}
	return scores
}

// TopByInDegree returns the k most central node ids in decreasing order.
// Ties keep node insertion order.
func TopByInDegree(g *graph.Graph, k int) []string {
	return ids(top(inDegreeScores(g), k))
}

// TopScoresByInDegree is TopByInDegree with the scores attached
func TopScoresByInDegree(g *graph.Graph, k int) []Score {
	return top(inDegreeScores(g), k)
}

// TopByPageRank ranks nodes by PageRank with the given damping factor
func TopByPageRank(g *graph.Graph, k int, damping float64) []Score {
	if g.Len() == 0 {
		return nil
	}
	ranks := network.PageRank(g.Directed(), damping, 1e-8)

	scores := make([]Score, 0, len(ranks))
	for _, n := range g.Nodes() {
		scores = append(scores, Score{ID: n.ID})
	}
	for id, r := range ranks {
		if g.NodeByID(id) != nil {
			scores[id].Score = r
		}
	}
	return top(scores, k)
}

func top(scores []Score, k int) []Score {
	if k <= 0 {
		return nil
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k]
}

func ids(scores []Score) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.ID
	}
	return out
}
