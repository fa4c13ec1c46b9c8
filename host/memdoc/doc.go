// Package memdoc is an in-memory implementation of the host document
// collaborator.
//
// Documents are described in YAML (see Parse) and hold real pixel buffers,
// so every host operation the extraction pipeline relies on has observable
// effects:
//
//   - Rasterize converts text, shape, smart and adjustment layers to pixels
//   - Crop resizes the canvas and clips layer pixels to it
//   - AddGroup, Move, MergeGroup and RemoveGroup restructure the tree;
//     MergeGroup composites the group's visible layers
//   - Select, CopySelection, Paste and RemoveBackground implement the
//     clipboard round trip used to isolate one layer in a new document
//   - ExportPNG writes a single-layer document as an RGBA PNG
//
// Pixel work is done with github.com/disintegration/imaging.
//
// Documents implement host.Snapshotter. Snapshots copy the tree structure
// only and share pixel buffers, which are treated as immutable.
//
// Nothing here is safe for concurrent use.
package memdoc
