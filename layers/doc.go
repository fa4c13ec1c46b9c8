// Package layers normalizes the layer tree of a host document before
// layers are classified and exported.
//
// Three passes run in order:
//
//   - Merge collapses every set of linked layers into one flattened layer
//   - Flatten rasterizes each visible leaf and crops the canvas after each one
//   - Collect gathers the visible leaves into one ordered sequence
//
// # Merging
//
//	report, err := layers.NewMerger(doc, true).Merge(ctx)
//	if err != nil {
//		return err
//	}
//
// For a layer with link partners a new group is created at the layer's
// position and named after it, the partners and then the layer itself are
// moved into it, and the group is merged. Partners can live anywhere in the
// tree. If any partner was already consumed by an earlier merge in the same
// pass, the merge is discarded and the document is left untouched; the
// layer name is reported in MergeReport.DiscardedLayers.
//
// Visible groups are walked, never merged as a whole. An invisible group
// that carries links is merged like a leaf.
//
// # Flattening and collecting
//
//	if _, err := layers.Flatten(ctx, doc, true); err != nil {
//		return err
//	}
//	leaves := layers.Collect(doc, true)
//
// Both walk the tree top to bottom and descend into visible groups only
// when recursive is set. Invisible layers are neither rasterized nor
// collected.
//
// # Error Handling
//
// Host failures are wrapped in a LayerError naming the operation and the
// layer involved. Nothing is retried.
package layers
