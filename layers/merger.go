package layers

import (
	"context"
	"fmt"

	"github.com/bibin-skaria/layerslice/host"
)

// Merger collapses sets of linked layers into single flattened layers.
//
// Each tree level is processed from a worklist built when the level is
// entered, so merges that shrink or grow the live collection never shift
// the iteration. A layer consumed by one merge is remembered for the whole
// pass; a later merge that would need it again is discarded without
// touching the document.
type Merger struct {
	doc       host.Document
	recursive bool
	seen      map[host.Layer]bool
	report    MergeReport
}

// NewMerger creates a Merger for doc. When recursive is false only the
// top-level layers are considered and groups are never entered.
func NewMerger(doc host.Document, recursive bool) *Merger {
	return &Merger{
		doc:       doc,
		recursive: recursive,
		seen:      make(map[host.Layer]bool),
	}
}

// Merge runs one merge pass over the whole document.
func (m *Merger) Merge(ctx context.Context) (MergeReport, error) {
	err := m.mergeLevel(ctx, nil)
	return m.report, err
}

func (m *Merger) mergeLevel(ctx context.Context, parent host.Layer) error {
	queue := append([]host.Layer(nil), children(m.doc, parent)...)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		layer := queue[0]
		queue = queue[1:]

		if m.seen[layer] {
			continue
		}

		if layer.IsGroup() && layer.Visible() {
			if m.recursive {
				if err := m.mergeLevel(ctx, layer); err != nil {
					return err
				}
			}
			continue
		}

		partners := layer.Linked()
		if len(partners) == 0 {
			continue
		}

		merged, err := m.mergeLinked(parent, layer, partners)
		if err != nil {
			return err
		}

		// A merged layer can carry links of its own and gets another turn.
		if merged != nil && len(merged.Linked()) > 0 {
			queue = append([]host.Layer{merged}, queue...)
		}
	}

	return nil
}

func (m *Merger) mergeLinked(parent, layer host.Layer, linked []host.Layer) (host.Layer, error) {
	partners := make([]host.Layer, 0, len(linked))
	for _, p := range linked {
		if p == layer || indexOf(partners, p) >= 0 {
			continue
		}
		if m.seen[p] {
			m.report.Discarded++
			m.report.DiscardedLayers = append(m.report.DiscardedLayers, layer.Name())
			return nil, nil
		}
		partners = append(partners, p)
	}
	if len(partners) == 0 {
		return nil, nil
	}

	index := indexOf(children(m.doc, parent), layer)
	if index < 0 {
		return nil, NewLayerError("merge", layer.Name(), fmt.Errorf("layer not found under %q", layerName(parent)))
	}

	group, err := m.doc.AddGroup(parent, layer.Name(), index)
	if err != nil {
		return nil, NewLayerError("merge", layer.Name(), fmt.Errorf("failed to create group: %w", err))
	}

	for _, p := range partners {
		m.seen[p] = true
		if err := m.doc.Move(p, group); err != nil {
			return nil, NewLayerError("merge", p.Name(), fmt.Errorf("failed to move into group: %w", err))
		}
	}

	m.seen[layer] = true
	if err := m.doc.Move(layer, group); err != nil {
		return nil, NewLayerError("merge", layer.Name(), fmt.Errorf("failed to move into group: %w", err))
	}

	merged, err := m.doc.MergeGroup(group)
	if err != nil {
		return nil, NewLayerError("merge", layer.Name(), fmt.Errorf("failed to merge group: %w", err))
	}

	m.report.Merged++
	return merged, nil
}
