// Package view holds the headless page model the controllers render into:
// elements addressed by id, notification toasts, loading indicators and tabs.
package view

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Item is one entry of a rendered list (feed rows, skill bars, chart columns).
type Item struct {
	Key     string            `json:"key"`
	Text    string            `json:"text"`
	Classes []string          `json:"classes,omitempty"`
	Style   map[string]string `json:"style,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

type element struct {
	text     string
	classes  map[string]struct{}
	style    map[string]string
	attrs    map[string]string
	disabled bool
	items    []Item
	order    uint64
}

// Document is a concurrency-safe set of elements keyed by id.
// Mutating an element that does not exist logs a warning and does nothing.
type Document struct {
	mu       sync.RWMutex
	elements map[string]*element
	seq      uint64
	logger   zerolog.Logger
}

// NewDocument creates a document containing the given element ids.
func NewDocument(logger zerolog.Logger, ids ...string) *Document {
	d := &Document{
		elements: make(map[string]*element),
		logger:   logger.With().Str("component", "view_document").Logger(),
	}
	for _, id := range ids {
		d.Create(id)
	}
	return d
}

// Create adds an element with the given classes, replacing any element with the same id.
func (d *Document) Create(id string, classes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	el := &element{
		classes: make(map[string]struct{}, len(classes)),
		style:   make(map[string]string),
		attrs:   make(map[string]string),
		order:   d.seq,
	}
	for _, class := range classes {
		el.classes[class] = struct{}{}
	}
	d.elements[id] = el
}

// Remove deletes an element. It reports whether the element existed.
func (d *Document) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.elements[id]; !ok {
		return false
	}
	delete(d.elements, id)
	return true
}

// Has reports whether an element exists.
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.elements[id]
	return ok
}

// IDsWithClass lists element ids carrying class, in creation order.
func (d *Document) IDsWithClass(class string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matches := make([]string, 0)
	for id, el := range d.elements {
		if _, ok := el.classes[class]; ok {
			matches = append(matches, id)
		}
	}
	d.sortByOrder(matches)
	return matches
}

// IDsWithSuffix lists element ids ending in suffix, in creation order.
func (d *Document) IDsWithSuffix(suffix string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matches := make([]string, 0)
	for id := range d.elements {
		if len(id) >= len(suffix) && id[len(id)-len(suffix):] == suffix {
			matches = append(matches, id)
		}
	}
	d.sortByOrder(matches)
	return matches
}

func (d *Document) sortByOrder(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return d.elements[ids[i]].order < d.elements[ids[j]].order
	})
}

// mutate runs fn against the element under the write lock.
func (d *Document) mutate(id, op string, fn func(el *element)) bool {
	d.mu.Lock()
	el, ok := d.elements[id]
	if ok {
		fn(el)
	}
	d.mu.Unlock()

	if !ok {
		d.logger.Warn().Str("element", id).Str("op", op).Msg("element not found")
	}
	return ok
}

func (d *Document) read(id string, fn func(el *element)) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	el, ok := d.elements[id]
	if ok {
		fn(el)
	}
	return ok
}

// SetText replaces the element's text content.
func (d *Document) SetText(id, text string) bool {
	return d.mutate(id, "set_text", func(el *element) { el.text = text })
}

// Text returns the element's text content.
func (d *Document) Text(id string) (string, bool) {
	var text string
	ok := d.read(id, func(el *element) { text = el.text })
	return text, ok
}

// AddClass adds classes to the element.
func (d *Document) AddClass(id string, classes ...string) bool {
	return d.mutate(id, "add_class", func(el *element) {
		for _, class := range classes {
			el.classes[class] = struct{}{}
		}
	})
}

// RemoveClass removes classes from the element.
func (d *Document) RemoveClass(id string, classes ...string) bool {
	return d.mutate(id, "remove_class", func(el *element) {
		for _, class := range classes {
			delete(el.classes, class)
		}
	})
}

// ToggleClass sets or clears a single class.
func (d *Document) ToggleClass(id, class string, on bool) bool {
	if on {
		return d.AddClass(id, class)
	}
	return d.RemoveClass(id, class)
}

// HasClass reports whether the element carries class.
func (d *Document) HasClass(id, class string) bool {
	var has bool
	d.read(id, func(el *element) { _, has = el.classes[class] })
	return has
}

// Classes returns the element's classes sorted alphabetically.
func (d *Document) Classes(id string) []string {
	var classes []string
	d.read(id, func(el *element) {
		classes = make([]string, 0, len(el.classes))
		for class := range el.classes {
			classes = append(classes, class)
		}
	})
	sort.Strings(classes)
	return classes
}

// SetStyle sets an inline style property. An empty value clears it.
func (d *Document) SetStyle(id, property, value string) bool {
	return d.mutate(id, "set_style", func(el *element) {
		if value == "" {
			delete(el.style, property)
			return
		}
		el.style[property] = value
	})
}

// Style returns an inline style property.
func (d *Document) Style(id, property string) string {
	var value string
	d.read(id, func(el *element) { value = el.style[property] })
	return value
}

// SetAttr sets a data attribute. An empty value clears it.
func (d *Document) SetAttr(id, name, value string) bool {
	return d.mutate(id, "set_attr", func(el *element) {
		if value == "" {
			delete(el.attrs, name)
			return
		}
		el.attrs[name] = value
	})
}

// Attr returns a data attribute.
func (d *Document) Attr(id, name string) string {
	var value string
	d.read(id, func(el *element) { value = el.attrs[name] })
	return value
}

// SetDisabled toggles the element's disabled flag.
func (d *Document) SetDisabled(id string, disabled bool) bool {
	return d.mutate(id, "set_disabled", func(el *element) { el.disabled = disabled })
}

// Disabled reports the element's disabled flag.
func (d *Document) Disabled(id string) bool {
	var disabled bool
	d.read(id, func(el *element) { disabled = el.disabled })
	return disabled
}

// SetHidden adds or removes the "hidden" class.
func (d *Document) SetHidden(id string, hidden bool) bool {
	return d.ToggleClass(id, "hidden", hidden)
}

// Hidden reports whether the element carries the "hidden" class.
func (d *Document) Hidden(id string) bool {
	return d.HasClass(id, "hidden")
}

// SetItems replaces the element's list children.
func (d *Document) SetItems(id string, items []Item) bool {
	copied := append([]Item(nil), items...)
	return d.mutate(id, "set_items", func(el *element) { el.items = copied })
}

// Items returns a copy of the element's list children.
func (d *Document) Items(id string) []Item {
	var items []Item
	d.read(id, func(el *element) { items = append([]Item(nil), el.items...) })
	return items
}
