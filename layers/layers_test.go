package layers

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestMerge_LinkedPair(t *testing.T) {
	a, b, c := leaf("A"), leaf("B"), leaf("C")
	link(a, b)
	doc := newFakeDoc(c, a, b)

	report, err := NewMerger(doc, true).Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if report.Merged != 1 || report.Discarded != 0 {
		t.Errorf("unexpected report %+v", report)
	}

	expectedCalls := []string{"group A@1", "move B", "move A", "merge A"}
	if !reflect.DeepEqual(doc.calls, expectedCalls) {
		t.Errorf("calls = %v, want %v", doc.calls, expectedCalls)
	}

	if got := names(doc.Layers()); !reflect.DeepEqual(got, []string{"C", "A"}) {
		t.Errorf("layers after merge = %v", got)
	}
}

func TestMerge_DiscardsWhenPartnerAlreadyMerged(t *testing.T) {
	a, b, c, d := leaf("A"), leaf("B"), leaf("C"), leaf("D")
	link(a, b, c)
	d.links = []*fakeLayer{b}
	doc := newFakeDoc(a, b, c, d)

	report, err := NewMerger(doc, true).Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if report.Merged != 1 {
		t.Errorf("expected 1 merge, got %d", report.Merged)
	}
	if report.Discarded != 1 || !reflect.DeepEqual(report.DiscardedLayers, []string{"D"}) {
		t.Errorf("expected D to be discarded, got %+v", report)
	}

	for _, call := range doc.calls {
		if strings.HasSuffix(call, " D") || strings.HasPrefix(call, "group D") {
			t.Errorf("discarded merge touched the document: %s", call)
		}
	}

	if got := names(doc.Layers()); !reflect.DeepEqual(got, []string{"A", "D"}) {
		t.Errorf("layers after merge = %v", got)
	}
}

func TestMerge_RecursesInOrder(t *testing.T) {
	x, y := leaf("X"), leaf("Y")
	link(x, y)
	g := group("G", leaf("inner"), x)
	doc := newFakeDoc(g, y)

	if _, err := NewMerger(doc, true).Merge(context.Background()); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	expectedCalls := []string{"group X@1", "move Y", "move X", "merge X"}
	if !reflect.DeepEqual(doc.calls, expectedCalls) {
		t.Errorf("calls = %v, want %v", doc.calls, expectedCalls)
	}
	if got := names(doc.Layers()); !reflect.DeepEqual(got, []string{"G"}) {
		t.Errorf("root layers = %v", got)
	}
	if got := names(g.Layers()); !reflect.DeepEqual(got, []string{"inner", "X"}) {
		t.Errorf("group layers = %v", got)
	}
}

func TestMerge_NonRecursiveSkipsGroups(t *testing.T) {
	x, y := leaf("X"), leaf("Y")
	link(x, y)
	g := group("G", x)
	doc := newFakeDoc(g, y)

	if _, err := NewMerger(doc, false).Merge(context.Background()); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	expectedCalls := []string{"group Y@1", "move X", "move Y", "merge Y"}
	if !reflect.DeepEqual(doc.calls, expectedCalls) {
		t.Errorf("calls = %v, want %v", doc.calls, expectedCalls)
	}
}

func TestMerge_InvisibleGroupWithLinks(t *testing.T) {
	a := leaf("A")
	h := group("H", leaf("inner"))
	h.hidden = true
	link(h, a)
	doc := newFakeDoc(h, a)

	report, err := NewMerger(doc, true).Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Merged != 1 {
		t.Errorf("expected invisible group to be merged, got %+v", report)
	}
	if got := names(doc.Layers()); !reflect.DeepEqual(got, []string{"H"}) {
		t.Errorf("layers after merge = %v", got)
	}
}

func TestMerge_MergedLayerGetsAnotherTurn(t *testing.T) {
	a, b, c := leaf("A"), leaf("B"), leaf("C")
	link(a, b)
	doc := newFakeDoc(a, b, c)
	doc.onMerge = func(merged *fakeLayer) {
		if merged.name == "A" && len(c.links) == 0 {
			link(merged, c)
		}
	}

	report, err := NewMerger(doc, true).Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Merged != 2 {
		t.Errorf("expected 2 merges, got %+v", report)
	}
	if got := names(doc.Layers()); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("layers after merge = %v", got)
	}
}

func TestMerge_HostFailure(t *testing.T) {
	a, b := leaf("A"), leaf("B")
	link(a, b)
	doc := newFakeDoc(a, b)
	doc.failOn = "merge A"

	_, err := NewMerger(doc, true).Merge(context.Background())
	if err == nil {
		t.Fatal("expected merge failure")
	}

	var layerErr *LayerError
	if !errors.As(err, &layerErr) {
		t.Fatalf("expected LayerError, got %T", err)
	}
	if layerErr.Operation != "merge" || layerErr.Layer != "A" {
		t.Errorf("unexpected error %+v", layerErr)
	}
}

func TestMerge_Cancelled(t *testing.T) {
	doc := newFakeDoc(leaf("A"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMerger(doc, true).Merge(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFlatten_CropsAfterEachRasterize(t *testing.T) {
	hiddenLeaf := leaf("C")
	hiddenLeaf.hidden = true
	hiddenTop := leaf("D")
	hiddenTop.hidden = true
	doc := newFakeDoc(leaf("A"), group("G", leaf("B"), hiddenLeaf), hiddenTop)

	count, err := Flatten(context.Background(), doc, true)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rasterized layers, got %d", count)
	}

	expectedCalls := []string{
		"activate A", "rasterize A", "crop (0,0,100,80)",
		"activate B", "rasterize B", "crop (0,0,100,80)",
	}
	if !reflect.DeepEqual(doc.calls, expectedCalls) {
		t.Errorf("calls = %v, want %v", doc.calls, expectedCalls)
	}
}

func TestFlatten_NonRecursive(t *testing.T) {
	doc := newFakeDoc(group("G", leaf("B")), leaf("A"))

	count, err := Flatten(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 rasterized layer, got %d", count)
	}
	if doc.calls[1] != "rasterize A" {
		t.Errorf("unexpected calls %v", doc.calls)
	}
}

func TestFlatten_StopsOnFailure(t *testing.T) {
	doc := newFakeDoc(leaf("A"), leaf("B"))
	doc.failOn = "rasterize A"

	_, err := Flatten(context.Background(), doc, true)
	if err == nil {
		t.Fatal("expected rasterize failure")
	}
	for _, call := range doc.calls {
		if strings.HasSuffix(call, "B") {
			t.Errorf("flatten continued after failure: %v", doc.calls)
		}
	}
}

func TestCollect(t *testing.T) {
	hiddenGroup := group("H", leaf("E"))
	hiddenGroup.hidden = true
	hiddenLeaf := leaf("I")
	hiddenLeaf.hidden = true
	doc := newFakeDoc(
		leaf("A"),
		group("G", leaf("B"), hiddenGroup, group("N", leaf("C"))),
		hiddenLeaf,
		leaf("J"),
	)

	tests := []struct {
		name      string
		recursive bool
		expected  []string
	}{
		{"recursive", true, []string{"A", "B", "C", "J"}},
		{"top level only", false, []string{"A", "J"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Collect(doc, tt.recursive))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Collect() = %v, want %v", got, tt.expected)
			}
		})
	}
}
