package editor

// ============================================================
// Graph Deriver
// ============================================================

// DeriveGraph строит граф смежности по фигурам. Ребро появляется только
// между касающимися комнатой и коридором; направление задаёт порядок фигур.
func DeriveGraph(shapes []Shape) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(shapes)),
		Edges: []Edge{},
	}

	for _, sh := range shapes {
		g.Nodes = append(g.Nodes, sh.node())
	}

	for i := 0; i < len(shapes); i++ {
		for j := i + 1; j < len(shapes); j++ {
			r1, r2 := shapes[i], shapes[j]
			if r1.Type == r2.Type {
				continue
			}
			if !r1.touches(r2) {
				continue
			}
			g.Edges = append(g.Edges, Edge{From: r1.ID, To: r2.ID})
		}
	}

	return g
}
