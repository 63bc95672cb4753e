package scan

import "testing"

func TestTextNodesPreOrder(t *testing.T) {
	leafA := &Node{ID: "a", Text: "猫"}
	leafB := &Node{ID: "b", Text: "犬"}
	wrapper := &Node{ID: "w", Children: []*Node{leafA, leafB}}
	root := &Node{ID: "r", Text: "見出し", Children: []*Node{wrapper, {ID: "c", Text: "鳥"}}}

	doc := NewDocument(root)
	nodes := doc.TextNodes()
	want := []string{"r", "a", "b", "c"}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d text nodes, got %d", len(want), len(nodes))
	}
	for i, n := range nodes {
		if n.ID != want[i] {
			t.Errorf("node %d: id %q, want %q", i, n.ID, want[i])
		}
	}
}

func TestTextNodesSkipsBlank(t *testing.T) {
	doc := NewDocument(&Node{ID: "x", Text: "  \n "})
	if got := doc.TextNodes(); len(got) != 0 {
		t.Fatalf("expected blank node excluded, got %v", got)
	}
}

func TestFromText(t *testing.T) {
	doc := FromText("猫です。\n\n犬です。\n")
	nodes := doc.TextNodes()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Text != "猫です。" || nodes[1].Text != "犬です。" {
		t.Fatalf("unexpected node texts: %q %q", nodes[0].Text, nodes[1].Text)
	}
	if nodes[0].ID == nodes[1].ID {
		t.Fatal("expected distinct node ids")
	}
}
