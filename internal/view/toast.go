package view

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/schedule"
)

// Kind selects the colour of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

const (
	// DefaultToastDuration is how long a toast stays fully visible.
	DefaultToastDuration = 3 * time.Second
	// ToastFadeDuration is the delay between the fade starting and removal.
	ToastFadeDuration = 300 * time.Millisecond

	toastClass = "notification"
)

// Notifier shows transient messages to the learner. A zero duration uses the default.
type Notifier interface {
	Show(message string, kind Kind, duration time.Duration)
}

// Toast describes a notification currently present in the document.
type Toast struct {
	ID      string
	Message string
	Kind    Kind
	Fading  bool
}

// Toaster renders notifications as document elements and removes them on a timer.
type Toaster struct {
	doc      *Document
	sched    schedule.Scheduler
	duration time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	seq    int
	timers map[string]schedule.Timer
}

// NewToaster builds a toaster. A non-positive duration falls back to DefaultToastDuration.
func NewToaster(doc *Document, sched schedule.Scheduler, duration time.Duration, logger zerolog.Logger) *Toaster {
	if duration <= 0 {
		duration = DefaultToastDuration
	}
	return &Toaster{
		doc:      doc,
		sched:    sched,
		duration: duration,
		logger:   logger.With().Str("component", "toaster").Logger(),
		timers:   make(map[string]schedule.Timer),
	}
}

// BackgroundClass maps a kind to its background colour class.
func BackgroundClass(kind Kind) string {
	switch kind {
	case KindSuccess:
		return "bg-emerald-600"
	case KindError:
		return "bg-red-600"
	case KindWarning:
		return "bg-amber-600"
	default:
		return "bg-blue-600"
	}
}

// Show displays a toast that fades after duration, or the default when zero.
func (t *Toaster) Show(message string, kind Kind, duration time.Duration) {
	if duration <= 0 {
		duration = t.duration
	}
	if kind == "" {
		kind = KindInfo
	}

	t.mu.Lock()
	t.seq++
	id := fmt.Sprintf("toast-%d", t.seq)
	t.mu.Unlock()

	t.doc.Create(id, toastClass, BackgroundClass(kind))
	t.doc.SetText(id, message)
	t.doc.SetAttr(id, "kind", string(kind))
	t.logger.Debug().Str("kind", string(kind)).Str("message", message).Msg("notification shown")

	fade := t.sched.After(duration, func() {
		if !t.doc.Has(id) {
			return
		}
		t.doc.SetStyle(id, "opacity", "0")
		remove := t.sched.After(ToastFadeDuration, func() {
			t.doc.Remove(id)
			t.forget(id)
		})
		t.track(id, remove, true)
	})
	t.track(id, fade, false)
}

// track records the pending timer of a toast. The fade timer never replaces
// a removal timer that was registered first.
func (t *Toaster) track(id string, timer schedule.Timer, replace bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.doc.Has(id) {
		return
	}
	if _, exists := t.timers[id]; exists && !replace {
		return
	}
	t.timers[id] = timer
}

func (t *Toaster) forget(id string) {
	t.mu.Lock()
	delete(t.timers, id)
	t.mu.Unlock()
}

// Clear removes every notification at once and cancels their timers.
func (t *Toaster) Clear() {
	t.mu.Lock()
	timers := t.timers
	t.timers = make(map[string]schedule.Timer)
	t.mu.Unlock()

	for id, timer := range timers {
		timer.Stop()
		t.doc.Remove(id)
	}
}

// Active lists the notifications still present, oldest first.
func (t *Toaster) Active() []Toast {
	ids := t.doc.IDsWithClass(toastClass)
	toasts := make([]Toast, 0, len(ids))
	for _, id := range ids {
		text, ok := t.doc.Text(id)
		if !ok {
			continue
		}
		toasts = append(toasts, Toast{
			ID:      id,
			Message: text,
			Kind:    Kind(t.doc.Attr(id, "kind")),
			Fading:  t.doc.Style(id, "opacity") == "0",
		})
	}
	return toasts
}
