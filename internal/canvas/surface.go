// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package canvas hosts the live editing surface for one design page and
// the controller that loads pages onto it. The surface is an in-memory
// scene graph with selection, events, and coordinate commits; drawing to
// pixels is left to whatever renderer consumes its snapshots.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rhpbdev/legacyprints/internal/fonts"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// Surface errors.
var (
	ErrDisposed    = errors.New("drawing surface disposed")
	ErrNoSelection = errors.New("No object selected")
	ErrNoObject    = errors.New("object not found")
	ErrMalformed   = errors.New("malformed page content")
)

// EventType names a surface event.
type EventType string

const (
	EventObjectAdded      EventType = "object:added"
	EventObjectRemoved    EventType = "object:removed"
	EventObjectModified   EventType = "object:modified"
	EventSelectionCreated EventType = "selection:created"
	EventSelectionUpdated EventType = "selection:updated"
	EventSelectionCleared EventType = "selection:cleared"
)

// Ref identifies an object on a surface for as long as it stays there,
// independently of its user-visible ID.
type Ref uint64

// Event is delivered to listeners after the surface lock is released.
// Object is a snapshot; mutate through the surface using Ref.
type Event struct {
	Type   EventType
	Ref    Ref
	Object *scene.Object
}

// Handler receives surface events.
type Handler func(Event)

// ListenerID identifies a registered handler.
type ListenerID uint64

// ImageInfo is the natural size of a decoded image.
type ImageInfo struct {
	Width  int
	Height int
}

// ImageLoader resolves image sources. Implementations must honor ctx.
type ImageLoader interface {
	LoadImage(ctx context.Context, src string) (ImageInfo, error)
}

// Dimensions is the pixel size of a surface.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type entry struct {
	ref Ref
	obj *scene.Object
}

type listener struct {
	id ListenerID
	fn Handler
}

// Surface is a mutex-guarded scene graph. All mutation goes through its
// methods; readers get snapshots.
type Surface struct {
	mu sync.Mutex

	dims            Dimensions
	version         string
	background      string
	backgroundImage scene.ImageRef
	entries         []entry
	active          Ref
	nextRef         Ref

	interactive bool
	disposed    bool
	epoch       uint64
	renders     uint64

	listeners  map[EventType][]listener
	nextListen ListenerID

	images ImageLoader
	fonts  *fonts.Registry
}

// NewSurface creates an empty surface. images and registry may be nil;
// without them image sizes come only from page data and text is not
// re-measured on commit.
func NewSurface(dims Dimensions, images ImageLoader, registry *fonts.Registry) *Surface {
	return &Surface{
		dims:      dims,
		version:   scene.DefaultVersion,
		listeners: make(map[EventType][]listener),
		images:    images,
		fonts:     registry,
	}
}

// Dimensions returns the surface size.
func (s *Surface) Dimensions() Dimensions { return s.dims }

// On registers fn for events of type t.
func (s *Surface) On(t EventType, fn Handler) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListen++
	id := s.nextListen
	s.listeners[t] = append(s.listeners[t], listener{id: id, fn: fn})
	return id
}

// Off removes a handler. Unknown ids are ignored.
func (s *Surface) Off(id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, ls := range s.listeners {
		for i, l := range ls {
			if l.id == id {
				s.listeners[t] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of registered handlers.
func (s *Surface) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ls := range s.listeners {
		n += len(ls)
	}
	return n
}

// emit delivers events outside the lock, so handlers may call back into
// the surface.
func (s *Surface) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	calls := make([][]listener, len(events))
	for i, ev := range events {
		calls[i] = append([]listener(nil), s.listeners[ev.Type]...)
	}
	s.mu.Unlock()

	for i, ev := range events {
		for _, l := range calls[i] {
			l.fn(ev)
		}
	}
}

func (s *Surface) find(ref Ref) (int, *scene.Object) {
	for i, e := range s.entries {
		if e.ref == ref {
			return i, e.obj
		}
	}
	return -1, nil
}

func (s *Surface) findID(id string) (Ref, *scene.Object) {
	for _, e := range s.entries {
		if e.obj.ID == id {
			return e.ref, e.obj
		}
	}
	return 0, nil
}

// Epoch changes every time the surface is cleared or disposed. Callbacks
// that outlive a load compare it to detect stale work.
func (s *Surface) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Disposed reports whether Dispose has been called.
func (s *Surface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Clear removes every object and resets the background and selection.
func (s *Surface) Clear() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	var events []Event
	if s.active != 0 {
		events = append(events, Event{Type: EventSelectionCleared})
	}
	s.entries = nil
	s.active = 0
	s.background = ""
	s.backgroundImage = ""
	s.version = scene.DefaultVersion
	s.interactive = false
	s.epoch++
	s.mu.Unlock()

	s.emit(events)
	return nil
}

// Add appends objects on top of the paint order. The surface takes
// ownership of them.
func (s *Surface) Add(objs ...*scene.Object) ([]Ref, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	refs, events := s.addLocked(objs)
	s.mu.Unlock()

	s.emit(events)
	return refs, nil
}

func (s *Surface) addLocked(objs []*scene.Object) ([]Ref, []Event) {
	refs := make([]Ref, 0, len(objs))
	events := make([]Event, 0, len(objs))
	for _, o := range objs {
		if o == nil {
			continue
		}
		s.nextRef++
		s.entries = append(s.entries, entry{ref: s.nextRef, obj: o})
		refs = append(refs, s.nextRef)
		events = append(events, Event{Type: EventObjectAdded, Ref: s.nextRef, Object: o.Clone()})
	}
	return refs, events
}

// Load replaces the page attributes and adds the page's objects. Objects
// are added synchronously; image sources are then resolved in the
// background and done is called once every image settled. done may never
// be called if the surface is disposed first, and callers should bound
// their wait.
func (s *Surface) Load(ctx context.Context, page scene.Page, done func(error)) error {
	if err := checkPage(page); err != nil {
		return err
	}

	objs := make([]*scene.Object, 0, len(page.Objects))
	for _, o := range page.Objects {
		if o != nil {
			objs = append(objs, o)
		}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.version = page.Version
	s.background = page.Background
	s.backgroundImage = page.BackgroundImage
	refs, events := s.addLocked(objs)
	epoch := s.epoch

	type job struct {
		ref Ref
		src string
	}
	var jobs []job
	if s.images != nil {
		for i, o := range objs {
			if o.Kind() == scene.KindImage && o.Image.Src != "" {
				jobs = append(jobs, job{ref: refs[i], src: o.Image.Src})
			}
		}
	}
	s.mu.Unlock()

	s.emit(events)

	if len(jobs) == 0 {
		if done != nil {
			done(nil)
		}
		return nil
	}

	go func() {
		var (
			eg   errgroup.Group
			mu   sync.Mutex
			errs []error
		)
		eg.SetLimit(4)
		for _, j := range jobs {
			eg.Go(func() error {
				info, err := s.images.LoadImage(ctx, j.src)
				if err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("image %s: %w", j.src, err))
					mu.Unlock()
					return nil
				}
				s.applyImage(epoch, j.ref, info)
				return nil
			})
		}
		_ = eg.Wait()
		if done != nil {
			done(errors.Join(errs...))
		}
	}()
	return nil
}

// applyImage fills natural dimensions into an image object, unless the
// surface moved on since the load that requested it.
func (s *Surface) applyImage(epoch uint64, ref Ref, info ImageInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.epoch != epoch {
		return
	}
	_, o := s.find(ref)
	if o == nil {
		return
	}
	if o.Width == 0 {
		o.Width = float64(info.Width)
	}
	if o.Height == 0 {
		o.Height = float64(info.Height)
	}
	if _, committed := o.Coords(); committed {
		o.SetCoords()
	}
	s.renders++
}

// checkPage rejects object lists no renderer could lay out.
func checkPage(page scene.Page) error {
	for i, o := range page.Objects {
		if o == nil {
			continue
		}
		for _, v := range []float64{o.Left, o.Top, o.Width, o.Height, o.ScaleX, o.ScaleY, o.Angle} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: object %d has a non-finite transform", ErrMalformed, i)
			}
		}
		if o.Width < 0 || o.Height < 0 {
			return fmt.Errorf("%w: object %d has negative size", ErrMalformed, i)
		}
		if o.Kind() == scene.KindText && o.Text.FontSize < 0 {
			return fmt.Errorf("%w: object %d has negative font size", ErrMalformed, i)
		}
	}
	return nil
}

// CommitCoords finalizes geometry for every object: auto-sized text is
// measured with the registered fonts and bounding boxes are recomputed.
func (s *Surface) CommitCoords() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	for _, e := range s.entries {
		s.measureLocked(e.obj)
		e.obj.SetCoords()
	}
	return nil
}

func (s *Surface) measureLocked(o *scene.Object) {
	if s.fonts == nil || o.Kind() != scene.KindText || o.Type() == scene.TypeTextbox {
		return
	}
	w, h, ok := s.fonts.Measure(o.Text.FontFamily, o.Text.FontSize, o.Text.Text)
	if !ok {
		return
	}
	o.Width, o.Height = w, h
}

// SetInteractive toggles whether the surface accepts selection.
func (s *Surface) SetInteractive(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.disposed {
		s.interactive = on
	}
}

// Interactive reports whether the surface accepts selection.
func (s *Surface) Interactive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interactive
}

// RequestRender marks the surface dirty for the renderer.
func (s *Surface) RequestRender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.disposed {
		s.renders++
	}
}

// Renders returns how many renders were requested.
func (s *Surface) Renders() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// Len returns the number of objects on the surface.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Objects returns snapshots of every object in paint order.
func (s *Surface) Objects() []*scene.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*scene.Object, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.obj.Clone()
	}
	return out
}

// Object returns a snapshot of the object with the given ID.
func (s *Surface) Object(id string) (*scene.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, o := s.findID(id)
	if o == nil {
		return nil, false
	}
	return o.Clone(), true
}

// Update runs fn on the live object under the surface lock.
func (s *Surface) Update(ref Ref, fn func(*scene.Object)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return false
	}
	_, o := s.find(ref)
	if o == nil {
		return false
	}
	fn(o)
	return true
}

// ObjectAt returns the topmost selectable object whose committed
// bounding box contains the point.
func (s *Surface) ObjectAt(x, y float64) (*scene.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.interactive {
		return nil, false
	}
	for i := len(s.entries) - 1; i >= 0; i-- {
		o := s.entries[i].obj
		if !o.Visible || !o.Selectable || !o.Evented {
			continue
		}
		if r, ok := o.Coords(); ok && r.Contains(x, y) {
			return o.Clone(), true
		}
	}
	return nil, false
}

// SetActive selects the object with the given ID.
func (s *Surface) SetActive(id string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	ref, o := s.findID(id)
	if o == nil || !o.Selectable {
		s.mu.Unlock()
		return fmt.Errorf("select %q: %w", id, ErrNoObject)
	}
	typ := EventSelectionCreated
	if s.active != 0 {
		typ = EventSelectionUpdated
	}
	s.active = ref
	ev := Event{Type: typ, Ref: ref, Object: o.Clone()}
	s.mu.Unlock()

	s.emit([]Event{ev})
	return nil
}

// DiscardActive clears the selection.
func (s *Surface) DiscardActive() {
	s.mu.Lock()
	if s.active == 0 || s.disposed {
		s.mu.Unlock()
		return
	}
	s.active = 0
	s.mu.Unlock()

	s.emit([]Event{{Type: EventSelectionCleared}})
}

// Active returns a snapshot of the selected object.
func (s *Surface) Active() (*scene.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 {
		return nil, false
	}
	_, o := s.find(s.active)
	if o == nil {
		return nil, false
	}
	return o.Clone(), true
}

// UpdateActive runs fn on the selected object and recommits its
// coordinates.
func (s *Surface) UpdateActive(fn func(*scene.Object) error) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	_, o := s.find(s.active)
	if s.active == 0 || o == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	if err := fn(o); err != nil {
		s.mu.Unlock()
		return err
	}
	s.measureLocked(o)
	o.SetCoords()
	s.renders++
	ev := Event{Type: EventObjectModified, Ref: s.active, Object: o.Clone()}
	s.mu.Unlock()

	s.emit([]Event{ev})
	return nil
}

// RemoveActive deletes the selected object.
func (s *Surface) RemoveActive() (*scene.Object, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	i, o := s.find(s.active)
	if s.active == 0 || o == nil {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	ref := s.active
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	s.active = 0
	s.renders++
	removed := o.Clone()
	s.mu.Unlock()

	s.emit([]Event{
		{Type: EventObjectRemoved, Ref: ref, Object: removed},
		{Type: EventSelectionCleared},
	})
	return removed, nil
}

// Snapshot serializes the current state as a page.
func (s *Surface) Snapshot() scene.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := scene.Page{
		Objects:         make([]*scene.Object, len(s.entries)),
		Version:         s.version,
		Background:      s.background,
		BackgroundImage: s.backgroundImage,
	}
	for i, e := range s.entries {
		p.Objects[i] = e.obj.Clone()
	}
	return p
}

// Dispose releases the surface. Every later mutation returns ErrDisposed
// and all listeners are dropped.
func (s *Surface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.epoch++
	s.entries = nil
	s.active = 0
	s.interactive = false
	s.listeners = make(map[EventType][]listener)
	slog.Debug("drawing surface disposed")
}
