package view

import (
	"fmt"
	"strings"
)

const (
	defaultLoadingMessage = "Loading..."
	globalOverlayID       = "globalLoadingOverlay"
	bodyID                = "body"
)

// SkeletonKind selects the placeholder shape used by ShowSkeleton.
type SkeletonKind string

const (
	SkeletonText   SkeletonKind = "text"
	SkeletonTitle  SkeletonKind = "title"
	SkeletonAvatar SkeletonKind = "avatar"
	SkeletonCard   SkeletonKind = "card"
)

// Loading manages overlays, button spinners and skeleton placeholders.
type Loading struct {
	doc *Document
}

// NewLoading binds a loading manager to a document.
func NewLoading(doc *Document) *Loading {
	return &Loading{doc: doc}
}

func overlayID(id string) string {
	return id + "-loading-overlay"
}

// Show places an overlay over the element and disables pointer interaction.
func (l *Loading) Show(id, message string) {
	if !l.doc.Has(id) {
		l.doc.logger.Warn().Str("element", id).Msg("loading target not found")
		return
	}
	if message == "" {
		message = defaultLoadingMessage
	}

	if l.doc.Style(id, "position") == "" {
		l.doc.SetStyle(id, "position", "relative")
		l.doc.SetAttr(id, "original-position", "static")
	}
	l.doc.SetStyle(id, "pointer-events", "none")
	l.doc.SetAttr(id, "loading-active", "true")

	l.doc.Create(overlayID(id), "loading-overlay")
	l.doc.SetText(overlayID(id), message)
}

// Hide removes the overlay and restores interaction and positioning.
func (l *Loading) Hide(id string) {
	if !l.doc.Has(id) {
		l.doc.logger.Warn().Str("element", id).Msg("loading target not found")
		return
	}

	l.doc.Remove(overlayID(id))
	l.doc.SetStyle(id, "pointer-events", "")
	if l.doc.Attr(id, "original-position") == "static" {
		l.doc.SetStyle(id, "position", "")
		l.doc.SetAttr(id, "original-position", "")
	}
	l.doc.SetAttr(id, "loading-active", "")
}

// Active reports whether an overlay is shown on the element.
func (l *Loading) Active(id string) bool {
	return l.doc.Attr(id, "loading-active") == "true"
}

// ShowButton disables a button and marks it as loading, remembering its label.
func (l *Loading) ShowButton(id, originalText string) {
	if !l.doc.Has(id) {
		l.doc.logger.Warn().Str("element", id).Msg("loading button not found")
		return
	}
	if originalText == "" {
		originalText, _ = l.doc.Text(id)
	}
	l.doc.SetAttr(id, "original-text", originalText)
	l.doc.AddClass(id, "btn-loading")
	l.doc.SetDisabled(id, true)
}

// HideButton re-enables a button and restores its label.
func (l *Loading) HideButton(id string) {
	if !l.doc.Has(id) {
		l.doc.logger.Warn().Str("element", id).Msg("loading button not found")
		return
	}
	l.doc.RemoveClass(id, "btn-loading")
	l.doc.SetDisabled(id, false)
	if original := l.doc.Attr(id, "original-text"); original != "" {
		l.doc.SetText(id, original)
		l.doc.SetAttr(id, "original-text", "")
	}
}

// ShowSkeleton swaps the container's list for count placeholders.
func (l *Loading) ShowSkeleton(id string, count int, kind SkeletonKind) {
	if !l.doc.Has(id) {
		l.doc.logger.Warn().Str("element", id).Msg("skeleton container not found")
		return
	}
	if count <= 0 {
		count = 3
	}
	if kind == "" {
		kind = SkeletonText
	}

	if l.doc.Attr(id, "skeleton-active") != "true" {
		l.stash(id, l.doc.Items(id))
		l.doc.SetAttr(id, "skeleton-active", "true")
	}

	placeholders := make([]Item, 0, count)
	for i := 0; i < count; i++ {
		placeholders = append(placeholders, Item{
			Key:     fmt.Sprintf("skeleton-%d", i),
			Classes: []string{"skeleton", "skeleton-" + string(kind)},
		})
	}
	l.doc.SetItems(id, placeholders)
}

// HideSkeleton restores the stashed list, or installs replacement when given.
func (l *Loading) HideSkeleton(id string, replacement []Item) {
	if !l.doc.Has(id) {
		l.doc.logger.Warn().Str("element", id).Msg("skeleton container not found")
		return
	}

	original := l.unstash(id)
	l.doc.SetAttr(id, "skeleton-active", "")
	if replacement != nil {
		l.doc.SetItems(id, replacement)
		return
	}
	l.doc.SetItems(id, original)
}

func (l *Loading) stash(id string, items []Item) {
	stashID := id + "-skeleton-original"
	l.doc.Create(stashID, "skeleton-stash", "hidden")
	l.doc.SetItems(stashID, items)
}

func (l *Loading) unstash(id string) []Item {
	stashID := id + "-skeleton-original"
	items := l.doc.Items(stashID)
	l.doc.Remove(stashID)
	return items
}

// ShowGlobal replaces any existing full-screen overlay with a new one.
func (l *Loading) ShowGlobal(message string) {
	l.HideGlobal()
	if message == "" {
		message = defaultLoadingMessage
	}
	l.doc.Create(globalOverlayID, "fixed", "inset-0", "z-[9999]")
	l.doc.SetText(globalOverlayID, message)
	if l.doc.Has(bodyID) {
		l.doc.SetStyle(bodyID, "overflow", "hidden")
	}
}

// HideGlobal removes the full-screen overlay if present.
func (l *Loading) HideGlobal() {
	if l.doc.Remove(globalOverlayID) && l.doc.Has(bodyID) {
		l.doc.SetStyle(bodyID, "overflow", "")
	}
}

// Wrap shows an overlay on id while fn runs.
func (l *Loading) Wrap(id, message string, fn func() error) error {
	l.Show(id, message)
	defer l.Hide(id)
	return fn()
}

// WrapButton shows a button spinner while fn runs.
func (l *Loading) WrapButton(id string, fn func() error) error {
	l.ShowButton(id, "")
	defer l.HideButton(id)
	return fn()
}

// GlobalMessage returns the text of the full-screen overlay, if shown.
func (l *Loading) GlobalMessage() (string, bool) {
	text, ok := l.doc.Text(globalOverlayID)
	return strings.TrimSpace(text), ok
}
