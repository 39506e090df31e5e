// Package practice runs the live sign detection panel of a module page.
package practice

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/view"
)

const (
	// PollInterval is how often the detector is sampled while detection runs.
	PollInterval = 2 * time.Second
	// TargetSigns is the number of signs a practice round asks for.
	TargetSigns = 15

	MessageStarted = "Live detection started! Practice signs now."
	MessageStopped = "Detection stopped."

	elementAccuracy = "detectionAccuracy"
	elementSigns    = "signsDetected"
	elementResults  = "detectionResults"
	elementButton   = "detectionBtn"
)

// Detection is one sample of the learner's signing.
type Detection struct {
	Accuracy      int
	SignsDetected int
}

// Detector samples the learner's signing.
type Detector interface {
	Detect(ctx context.Context) (Detection, error)
	// Demo reports whether samples are simulated.
	Demo() bool
}

// DemoDetector produces random samples: 75 to 94 percent accuracy and 10 to
// 14 detected signs.
type DemoDetector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewDemoDetector seeds a demo detector. A zero seed uses the current time.
func NewDemoDetector(seed int64) *DemoDetector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DemoDetector{rnd: rand.New(rand.NewSource(seed))}
}

func (d *DemoDetector) Detect(context.Context) (Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Detection{
		Accuracy:      75 + d.rnd.Intn(20),
		SignsDetected: 10 + d.rnd.Intn(5),
	}, nil
}

func (d *DemoDetector) Demo() bool { return true }

// Options configures a Panel. Detector defaults to a DemoDetector.
type Options struct {
	Detector  Detector
	Document  *view.Document
	Notifier  view.Notifier
	Scheduler schedule.Scheduler
	Logger    zerolog.Logger
}

// Panel toggles detection and renders its samples.
type Panel struct {
	detector Detector
	doc      *view.Document
	notifier view.Notifier
	sched    schedule.Scheduler
	logger   zerolog.Logger

	mu     sync.Mutex
	active bool
	poll   schedule.Timer
	ctx    context.Context
	cancel context.CancelFunc
	last   Detection
}

// New builds a detection panel.
func New(opts Options) *Panel {
	detector := opts.Detector
	if detector == nil {
		detector = NewDemoDetector(0)
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}
	p := &Panel{
		detector: detector,
		doc:      opts.Document,
		notifier: opts.Notifier,
		sched:    sched,
		logger:   opts.Logger.With().Str("component", "practice").Logger(),
	}
	if detector.Demo() {
		p.logger.Info().Msg("live detection running in demo mode")
	}
	return p
}

// Active reports whether detection is running.
func (p *Panel) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Last returns the most recent sample.
func (p *Panel) Last() Detection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Toggle starts detection when stopped and stops it when running.
func (p *Panel) Toggle() {
	if p.Active() {
		p.Stop()
		p.notify(MessageStopped, view.KindInfo)
		return
	}
	p.start()
}

func (p *Panel) start() {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return
	}
	p.active = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.poll = p.sched.Every(PollInterval, p.sample)
	p.mu.Unlock()

	p.doc.SetText(elementButton, "Stop Detection")
	p.doc.RemoveClass(elementButton, "bg-emerald-600", "hover:bg-emerald-500")
	p.doc.AddClass(elementButton, "bg-red-600", "hover:bg-red-500")
	p.doc.SetHidden(elementResults, false)

	p.sample()
	p.notify(MessageStarted, view.KindSuccess)
}

// Stop ends detection without a notification.
func (p *Panel) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	schedule.Stop(p.poll)
	p.poll = nil
	p.cancel()
	p.mu.Unlock()

	p.doc.SetText(elementButton, "Start Detection")
	p.doc.RemoveClass(elementButton, "bg-red-600", "hover:bg-red-500")
	p.doc.AddClass(elementButton, "bg-emerald-600", "hover:bg-emerald-500")
}

func (p *Panel) sample() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.mu.Unlock()

	detection, err := p.detector.Detect(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("detection sample failed")
		return
	}

	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.last = detection
	p.mu.Unlock()

	p.doc.SetText(elementAccuracy, fmt.Sprintf("%d%%", detection.Accuracy))
	p.doc.SetText(elementSigns, fmt.Sprintf("%d/%d", detection.SignsDetected, TargetSigns))
}

func (p *Panel) notify(message string, kind view.Kind) {
	if p.notifier != nil {
		p.notifier.Show(message, kind, 0)
	}
}
