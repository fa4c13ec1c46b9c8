package layers

import (
	"context"
	"fmt"

	"github.com/bibin-skaria/layerslice/host"
	"github.com/bibin-skaria/layerslice/internal/types"
)

// Flatten rasterizes every visible leaf layer and crops the canvas back to
// its size immediately after each rasterization, so no layer extends past
// the canvas afterwards. Visible groups are descended into when recursive
// is set and skipped otherwise. It returns the number of layers rasterized.
func Flatten(ctx context.Context, doc host.Document, recursive bool) (int, error) {
	canvas := types.NewBounds(0, 0, doc.Width(), doc.Height())
	return flattenLevel(ctx, doc, doc.Layers(), canvas, recursive)
}

func flattenLevel(ctx context.Context, doc host.Document, layers []host.Layer, canvas types.Bounds, recursive bool) (int, error) {
	count := 0
	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if !layer.Visible() {
			continue
		}

		if layer.IsGroup() {
			if !recursive {
				continue
			}
			n, err := flattenLevel(ctx, doc, layer.Layers(), canvas, recursive)
			count += n
			if err != nil {
				return count, err
			}
			continue
		}

		if err := doc.SetActiveLayer(layer); err != nil {
			return count, NewLayerError("rasterize", layer.Name(), fmt.Errorf("failed to activate layer: %w", err))
		}
		if err := doc.Rasterize(layer); err != nil {
			return count, NewLayerError("rasterize", layer.Name(), err)
		}
		if err := doc.Crop(canvas); err != nil {
			return count, NewLayerError("crop", layer.Name(), err)
		}
		count++
	}
	return count, nil
}

// Collect returns the visible leaf layers in document order, depth first.
// Invisible groups are not entered. Without recursive only top-level
// leaves are returned.
func Collect(doc host.Document, recursive bool) []host.Layer {
	var leaves []host.Layer
	collectLevel(doc.Layers(), recursive, &leaves)
	return leaves
}

func collectLevel(layers []host.Layer, recursive bool, leaves *[]host.Layer) {
	for _, layer := range layers {
		if !layer.Visible() {
			continue
		}
		if layer.IsGroup() {
			if recursive {
				collectLevel(layer.Layers(), recursive, leaves)
			}
			continue
		}
		*leaves = append(*leaves, layer)
	}
}
