// Package progress keeps a module page's progress display, its backend record
// and other open views of the same module consistent.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/view"
	"github.com/noah-isme/vedispeak/pkg/activityapi"
)

// CircleRadius is the radius of the progress ring.
const CircleRadius = 28

// Circumference is the stroke length of the progress ring.
var Circumference = 2 * math.Pi * CircleRadius

const (
	MessageSaved      = "Progress saved! Keep it up!"
	MessageSaveFailed = "Oops! Couldn't save. Try again?"

	elementCircle  = "progressCircle"
	elementPercent = "progressPercent"
	elementModule  = "moduleProgress"
	elementSidebar = "moduleProgressSidebar"
	elementSpent   = "timeSpent"
	elementTimer   = "timer"

	eventSessionProgress = "update_session_progress"
)

var syncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vedispeak",
	Subsystem: "progress",
	Name:      "sync_outcomes_total",
	Help:      "Outcomes of module progress writes as seen by the learner page",
}, []string{"outcome"})

// Writer persists module progress.
type Writer interface {
	UpdateModuleProgress(ctx context.Context, moduleID int, update activityapi.ProgressUpdate) (activityapi.ModuleProgress, error)
}

// Emitter publishes realtime events.
type Emitter interface {
	Emit(event string, payload interface{}) error
}

// State is the page's view of the module's progress.
type State struct {
	ModuleID         int
	Percentage       int
	TimeSpentMinutes int
	QuizScore        *int
}

// Options configures a Synchronizer. Writer and Channel are optional.
type Options struct {
	ModuleID          int
	InitialPercentage int
	InitialMinutes    int
	Document          *view.Document
	Notifier          view.Notifier
	Writer            Writer
	Channel           Emitter
	Scheduler         schedule.Scheduler
	Logger            zerolog.Logger
	Now               func() time.Time
}

// Synchronizer applies progress changes optimistically and writes them behind.
// Every write carries a sequence number; only the response to the most recent
// write may notify the learner.
type Synchronizer struct {
	doc      *view.Document
	notifier view.Notifier
	writer   Writer
	channel  Emitter
	sched    schedule.Scheduler
	logger   zerolog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// renderMu is held from a percentage change through its rendering so the
	// display always matches the last state written. Acquired before mu.
	renderMu sync.Mutex

	mu        sync.Mutex
	state     State
	seq       uint64
	closed    bool
	clock     schedule.Timer
	startedAt time.Time
}

// New builds a synchronizer and renders the initial progress.
func New(opts Options) *Synchronizer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Synchronizer{
		doc:      opts.Document,
		notifier: opts.Notifier,
		writer:   opts.Writer,
		channel:  opts.Channel,
		sched:    sched,
		logger:   opts.Logger.With().Str("component", "progress_synchronizer").Int("module_id", opts.ModuleID).Logger(),
		now:      now,
		ctx:      ctx,
		cancel:   cancel,
		state: State{
			ModuleID:         opts.ModuleID,
			Percentage:       clamp(opts.InitialPercentage),
			TimeSpentMinutes: opts.InitialMinutes,
		},
		startedAt: now(),
	}

	s.RenderCircle(float64(s.state.Percentage))
	return s
}

// State returns a snapshot of the current progress.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	if s.state.QuizScore != nil {
		score := *s.state.QuizScore
		snapshot.QuizScore = &score
	}
	return snapshot
}

// Percentage returns the current completion percentage.
func (s *Synchronizer) Percentage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Percentage
}

// UpdateProgress applies a new percentage immediately and writes it to the
// backend in the background. The local state is never rolled back.
func (s *Synchronizer) UpdateProgress(percentage int, quizScore *int) {
	value := clamp(percentage)
	if value != percentage {
		s.logger.Warn().Int("requested", percentage).Int("applied", value).Msg("progress out of range, clamped")
	}

	var score *int
	if quizScore != nil {
		v := *quizScore
		score = &v
	}

	s.renderMu.Lock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.renderMu.Unlock()
		return
	}
	s.state.Percentage = value
	if score != nil {
		v := *score
		s.state.QuizScore = &v
	}
	s.seq++
	seq := s.seq
	moduleID := s.state.ModuleID
	minutes := s.state.TimeSpentMinutes
	s.mu.Unlock()

	s.render(value)
	s.renderMu.Unlock()

	if moduleID > 0 && s.writer != nil {
		update := activityapi.ProgressUpdate{
			ProgressPercentage: value,
			TimeSpentMinutes:   minutes,
			QuizScore:          score,
		}
		s.wg.Add(1)
		go s.write(seq, moduleID, update)
	}

	if s.channel != nil {
		payload := map[string]int{
			"module_id":  moduleID,
			"progress":   value,
			"time_spent": minutes,
		}
		if err := s.channel.Emit(eventSessionProgress, payload); err != nil {
			s.logger.Debug().Err(err).Msg("failed to emit session progress")
		}
	}
}

func (s *Synchronizer) write(seq uint64, moduleID int, update activityapi.ProgressUpdate) {
	defer s.wg.Done()

	_, err := s.writer.UpdateModuleProgress(s.ctx, moduleID, update)

	s.mu.Lock()
	latest := s.seq
	closed := s.closed
	s.mu.Unlock()

	switch {
	case closed:
		return
	case seq != latest:
		syncOutcomes.WithLabelValues("stale").Inc()
		s.logger.Debug().Uint64("seq", seq).Uint64("latest", latest).Msg("discarding stale progress response")
	case err != nil:
		syncOutcomes.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Int("progress", update.ProgressPercentage).Msg("failed to save progress")
		s.notify(MessageSaveFailed, view.KindError)
	default:
		syncOutcomes.WithLabelValues("saved").Inc()
		s.notify(MessageSaved, view.KindSuccess)
	}
}

func (s *Synchronizer) notify(message string, kind view.Kind) {
	if s.notifier != nil {
		s.notifier.Show(message, kind, 0)
	}
}

type remoteProgress struct {
	ModuleID           *int
	ProgressPercentage *float64
	QuizScore          *int
}

// decodeRemoteProgress decodes each field on its own so a bad field falls back
// to its default. It fails only when the object itself or its module id
// cannot be read, since the event's target is then unknown.
func decodeRemoteProgress(data json.RawMessage) (remoteProgress, []string, error) {
	var event remoteProgress
	if len(data) == 0 {
		return event, nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return event, nil, fmt.Errorf("decode progress event: %w", err)
	}

	if raw, ok := fields["module_id"]; ok && string(raw) != "null" {
		var moduleID float64
		if err := json.Unmarshal(raw, &moduleID); err != nil {
			return event, nil, fmt.Errorf("decode module_id: %w", err)
		}
		id := int(moduleID)
		event.ModuleID = &id
	}

	var invalid []string
	number := func(key string) *float64 {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return nil
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			invalid = append(invalid, key)
			return nil
		}
		return &v
	}

	event.ProgressPercentage = number("progress_percentage")
	if score := number("quiz_score"); score != nil {
		v := int(math.Round(*score))
		event.QuizScore = &v
	}
	return event, invalid, nil
}

// ApplyRemote applies a progress_update event from another view. Events for
// other modules, or whose module cannot be read, are ignored. A missing or
// malformed percentage counts as zero. Remote updates are rendered but not
// written back.
func (s *Synchronizer) ApplyRemote(data json.RawMessage) {
	event, invalid, err := decodeRemoteProgress(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("dropping unreadable progress event")
		return
	}
	if len(invalid) > 0 {
		s.logger.Warn().Strs("fields", invalid).Msg("malformed progress event fields, using defaults")
	}

	value := 0
	if event.ProgressPercentage != nil {
		value = clamp(int(math.Round(*event.ProgressPercentage)))
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if s.closed || (event.ModuleID != nil && *event.ModuleID != s.state.ModuleID) {
		s.mu.Unlock()
		return
	}
	s.state.Percentage = value
	if event.QuizScore != nil {
		score := *event.QuizScore
		s.state.QuizScore = &score
	}
	s.mu.Unlock()

	s.render(value)
}

func (s *Synchronizer) render(value int) {
	s.RenderCircle(float64(value))
	text := fmt.Sprintf("%d%%", value)
	s.doc.SetText(elementModule, text)
	s.doc.SetText(elementSidebar, text)
}

// CircleOffset returns the ring's stroke offset for a percentage.
func CircleOffset(percentage float64) float64 {
	return Circumference * (1 - percentage/100)
}

// RenderCircle draws the progress ring and its label.
func (s *Synchronizer) RenderCircle(percentage float64) {
	s.doc.SetStyle(elementCircle, "stroke-dashoffset", strconv.FormatFloat(CircleOffset(percentage), 'f', -1, 64))
	s.doc.SetText(elementPercent, view.FormatPercent(percentage))
}

// StartClock begins counting study minutes. Calling it twice is a no-op.
func (s *Synchronizer) StartClock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clock != nil || s.closed {
		return
	}
	s.clock = s.sched.Every(time.Minute, s.tick)
}

// StopClock stops the study minute counter.
func (s *Synchronizer) StopClock() {
	s.mu.Lock()
	clock := s.clock
	s.clock = nil
	s.mu.Unlock()

	schedule.Stop(clock)
}

func (s *Synchronizer) tick() {
	s.mu.Lock()
	s.state.TimeSpentMinutes++
	minutes := s.state.TimeSpentMinutes
	elapsed := s.now().Sub(s.startedAt)
	s.mu.Unlock()

	s.doc.SetText(elementSpent, fmt.Sprintf("%dmin", minutes))
	s.doc.SetText(elementTimer, view.FormatClock(elapsed))
}

// Wait blocks until every in-flight write has resolved.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

// Close stops the clock, cancels in-flight writes and silences their responses.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.StopClock()
	s.cancel()
}

func clamp(value int) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
