// Package page assembles the controllers of one learner page and owns their
// lifetime.
package page

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/dashboard"
	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/practice"
	"github.com/noah-isme/vedispeak/internal/progress"
	"github.com/noah-isme/vedispeak/internal/quiz"
	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/video"
	"github.com/noah-isme/vedispeak/internal/view"
	"github.com/noah-isme/vedispeak/pkg/activityapi"
	"github.com/noah-isme/vedispeak/pkg/realtime"
)

// Kind selects which controllers a page carries.
type Kind string

const (
	KindModule    Kind = "module"
	KindDashboard Kind = "dashboard"
)

// ErrUnknownKind is returned for a page kind other than module or dashboard.
var ErrUnknownKind = errors.New("unknown page kind")

// API is everything the page's controllers call on the activity backend.
type API interface {
	dashboard.API
	progress.Writer
}

var _ API = (*activityapi.Client)(nil)

// Channel is the realtime connection shared by the page's controllers.
type Channel interface {
	On(event string, handler realtime.Handler)
	Emit(event string, payload interface{}) error
	Close() error
}

var _ Channel = (*realtime.Channel)(nil)

// Options configures a Page. Channel, Quiz, Videos, Scorer and Detector are optional.
type Options struct {
	Kind              Kind
	ModuleID          int
	InitialPercentage int
	InitialMinutes    int
	Quiz              *quiz.Quiz
	Videos            []video.Video
	Scorer            quiz.Scorer
	Detector          practice.Detector
	SimulatePlayback  bool

	API       API
	Channel   Channel
	Document  *view.Document
	Scheduler schedule.Scheduler
	Logger    zerolog.Logger

	ToastDuration time.Duration
	PollInterval  time.Duration
	RefreshDelay  time.Duration
}

// Page is the state container of one learner page.
type Page struct {
	Kind     Kind
	Document *view.Document
	Toaster  *view.Toaster
	Loading  *view.Loading
	Tabs     *view.Tabs

	Progress  *progress.Synchronizer
	Video     *video.Playlist
	Quiz      *quiz.Controller
	Practice  *practice.Panel
	Dashboard *dashboard.Dashboard

	moduleID int
	channel  Channel
	logger   zerolog.Logger
}

// New builds a page and its controllers. Nothing runs until Start.
func New(opts Options) (*Page, error) {
	if opts.Kind != KindModule && opts.Kind != KindDashboard {
		return nil, ErrUnknownKind
	}
	doc := opts.Document
	if doc == nil {
		doc = view.NewDocument(opts.Logger)
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}

	toaster := view.NewToaster(doc, sched, opts.ToastDuration, opts.Logger)
	p := &Page{
		Kind:     opts.Kind,
		Document: doc,
		Toaster:  toaster,
		Loading:  view.NewLoading(doc),
		Tabs:     view.NewTabs(doc),
		moduleID: opts.ModuleID,
		channel:  opts.Channel,
		logger:   opts.Logger.With().Str("component", "page").Str("page", string(opts.Kind)).Logger(),
	}

	var emitter progress.Emitter
	var subscriber dashboard.Channel
	if opts.Channel != nil {
		emitter = opts.Channel
		subscriber = opts.Channel
	}

	switch opts.Kind {
	case KindModule:
		p.Progress = progress.New(progress.Options{
			ModuleID:          opts.ModuleID,
			InitialPercentage: opts.InitialPercentage,
			InitialMinutes:    opts.InitialMinutes,
			Document:          doc,
			Notifier:          toaster,
			Writer:            opts.API,
			Channel:           emitter,
			Scheduler:         sched,
			Logger:            opts.Logger,
		})
		p.Video = video.New(video.Options{
			Videos:            opts.Videos,
			Document:          doc,
			Notifier:          toaster,
			Progress:          p.Progress,
			Scheduler:         sched,
			Logger:            opts.Logger,
			DisableSimulation: !opts.SimulatePlayback,
		})
		if opts.Quiz != nil {
			p.Quiz = quiz.New(quiz.Options{
				Quiz:      *opts.Quiz,
				Document:  doc,
				Progress:  p.Progress,
				Scorer:    opts.Scorer,
				Scheduler: sched,
				Logger:    opts.Logger,
			})
		}
		p.Practice = practice.New(practice.Options{
			Detector:  opts.Detector,
			Document:  doc,
			Notifier:  toaster,
			Scheduler: sched,
			Logger:    opts.Logger,
		})
	case KindDashboard:
		p.Dashboard = dashboard.New(dashboard.Options{
			API:          opts.API,
			Document:     doc,
			Notifier:     toaster,
			Channel:      subscriber,
			Scheduler:    sched,
			Logger:       opts.Logger,
			PollInterval: opts.PollInterval,
			RefreshDelay: opts.RefreshDelay,
		})
	}

	return p, nil
}

// Start begins the page's clocks, loads and realtime subscriptions.
func (p *Page) Start(ctx context.Context) {
	switch p.Kind {
	case KindModule:
		p.Progress.StartClock()
		p.Video.Load(0)
		if p.channel != nil {
			p.channel.On(dto.EventProgressUpdate, p.Progress.ApplyRemote)
			payload := map[string]int{"module_id": p.moduleID}
			for _, event := range []string{dto.EventJoinLearningRoom, dto.EventStartModuleSession} {
				if err := p.channel.Emit(event, payload); err != nil {
					p.logger.Warn().Err(err).Str("event", event).Msg("failed to emit realtime event")
				}
			}
		}
	case KindDashboard:
		p.Dashboard.Start()
	}
	p.logger.Info().Int("module_id", p.moduleID).Msg("page started")
}

// SetVisibility forwards page visibility changes.
func (p *Page) SetVisibility(hidden bool) {
	if p.Dashboard != nil {
		p.Dashboard.SetVisibility(hidden)
	}
}

// Unload stops every interval, ends an open study session on a best-effort
// basis and closes the realtime channel.
func (p *Page) Unload(ctx context.Context) {
	if p.Progress != nil {
		p.Progress.Close()
	}
	if p.Quiz != nil {
		p.Quiz.Stop()
	}
	if p.Video != nil {
		p.Video.Stop()
	}
	if p.Practice != nil {
		p.Practice.Stop()
	}
	if p.Dashboard != nil {
		p.Dashboard.Unload(ctx)
	}
	if p.Progress != nil {
		p.Progress.Wait()
	}
	p.Toaster.Clear()
	p.Loading.HideGlobal()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Debug().Err(err).Msg("realtime channel close failed")
		}
	}
	p.logger.Info().Msg("page unloaded")
}
