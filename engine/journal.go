package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/bibin-skaria/layerslice/host"
	errs "github.com/bibin-skaria/layerslice/internal/errors"
	"github.com/bibin-skaria/layerslice/internal/types"
)

// journaledDocument records an undo action for every successful tree
// mutation. Undo restores a snapshot taken just before the mutation, so
// documents that cannot snapshot are mutated without undo.
type journaledDocument struct {
	host.Document
	journal *errs.Journal
	snap    host.Snapshotter
}

func newJournaledDocument(doc host.Document, journal *errs.Journal) *journaledDocument {
	snap, _ := doc.(host.Snapshotter)
	return &journaledDocument{Document: doc, journal: journal, snap: snap}
}

func (d *journaledDocument) mutate(action string, fn func() error) error {
	var restore func() error
	if d.snap != nil {
		r, err := d.snap.Snapshot()
		if err != nil {
			return fmt.Errorf("failed to snapshot before %s: %v", action, err)
		}
		restore = r
	}

	if err := fn(); err != nil {
		return err
	}

	var undo errs.UndoFunc
	if restore != nil {
		undo = func(context.Context) error { return restore() }
	}
	d.journal.Record(action, undo)
	return nil
}

func (d *journaledDocument) Rasterize(layer host.Layer) error {
	return d.mutate("rasterize "+layer.Name(), func() error {
		return d.Document.Rasterize(layer)
	})
}

func (d *journaledDocument) Crop(bounds types.Bounds) error {
	return d.mutate("crop "+bounds.String(), func() error {
		return d.Document.Crop(bounds)
	})
}

func (d *journaledDocument) AddGroup(parent host.Layer, name string, index int) (host.Layer, error) {
	var group host.Layer
	err := d.mutate("add group "+name, func() error {
		var err error
		group, err = d.Document.AddGroup(parent, name, index)
		return err
	})
	return group, err
}

func (d *journaledDocument) Move(layer, group host.Layer) error {
	return d.mutate("move "+layer.Name(), func() error {
		return d.Document.Move(layer, group)
	})
}

func (d *journaledDocument) MergeGroup(group host.Layer) (host.Layer, error) {
	var merged host.Layer
	err := d.mutate("merge "+group.Name(), func() error {
		var err error
		merged, err = d.Document.MergeGroup(group)
		return err
	})
	return merged, err
}

func (d *journaledDocument) RemoveGroup(group host.Layer) error {
	return d.mutate("remove group "+group.Name(), func() error {
		return d.Document.RemoveGroup(group)
	})
}

// recordCreatedFile journals removal of a file written by the run.
func recordCreatedFile(journal *errs.Journal, path string) {
	journal.Record("write "+path, func(context.Context) error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

// recordOverwrite journals restoring path to its current content, or its
// removal when it does not exist yet. It must run before the write.
func recordOverwrite(journal *errs.Journal, path string) error {
	previous, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		recordCreatedFile(journal, path)
		return nil
	}
	if err != nil {
		return err
	}

	journal.Record("overwrite "+path, func(context.Context) error {
		current, err := os.ReadFile(path)
		if err == nil && bytes.Equal(current, previous) {
			return nil
		}
		return os.WriteFile(path, previous, 0644)
	})
	return nil
}

// ensureDir creates dir if missing and journals its removal.
func ensureDir(journal *errs.Journal, dir string) error {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	journal.Record("create "+dir, func(context.Context) error {
		return os.Remove(dir)
	})
	return nil
}
