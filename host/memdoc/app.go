package memdoc

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/bibin-skaria/layerslice/host"
)

// App is an in-memory host application holding open documents and a
// clipboard.
type App struct {
	docs      []*Document
	active    *Document
	clipboard *image.NRGBA
}

func NewApp() *App {
	return &App{}
}

// Open loads a YAML document description and makes it the active document.
func (a *App) Open(path string) (*Document, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	a.Add(doc)
	return doc, nil
}

// Add registers doc with the application and activates it.
func (a *App) Add(doc *Document) {
	doc.app = a
	a.docs = append(a.docs, doc)
	a.active = doc
}

func (a *App) Documents() []*Document {
	return a.docs
}

func (a *App) ActiveDocument() host.Document {
	if a.active == nil {
		return nil
	}
	return a.active
}

func (a *App) SetActiveDocument(doc host.Document) error {
	d, ok := doc.(*Document)
	if !ok || d == nil || d.app != a || d.closed {
		return fmt.Errorf("document is not open in this application")
	}
	a.active = d
	return nil
}

// NewDocument creates a document with a white background layer, like a
// freshly created RGB document.
func (a *App) NewDocument(name string, width, height int) (host.Document, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid document size %dx%d", width, height)
	}

	doc := &Document{
		name:   name,
		width:  width,
		height: height,
	}
	doc.root = []*Layer{{
		doc:     doc,
		name:    "Background",
		kind:    KindBackground,
		visible: true,
		pixels:  imaging.New(width, height, image.White.C),
	}}
	a.Add(doc)
	return doc, nil
}

func (a *App) remove(doc *Document) {
	i := -1
	for n, d := range a.docs {
		if d == doc {
			i = n
			break
		}
	}
	if i < 0 {
		return
	}
	a.docs = append(a.docs[:i:i], a.docs[i+1:]...)
	if a.active == doc {
		a.active = nil
		if len(a.docs) > 0 {
			a.active = a.docs[len(a.docs)-1]
		}
	}
}
