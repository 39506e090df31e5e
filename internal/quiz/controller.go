// Package quiz runs a timed multiple choice assessment on a module page.
package quiz

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/view"
)

const (
	// PassMark is the minimum passing score in percent.
	PassMark = 70
	// DefaultTimeLimit applies when a quiz has no time limit of its own.
	DefaultTimeLimit = 15 * time.Minute

	elementStart    = "assessmentStart"
	elementQuiz     = "quizInterface"
	elementTimer    = "quizTimer"
	elementQuestion = "questionText"
	elementOptions  = "optionsContainer"
	elementCurrent  = "currentQuestion"
	elementTotal    = "totalQuestions"
	elementProgress = "quizProgress"
	elementPrev     = "prevQuestionBtn"
	elementNext     = "nextQuestionBtn"
	elementScore    = "currentScore"

	classOption     = "quiz-option"
	classSelected   = "selected"
	classSelectedBd = "border-emerald-400"
	classIdleBd     = "border-slate-600"
)

// Question is one multiple choice question. Answer is the index of the
// correct option when the quiz ships with an answer key.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  *int     `json:"answer,omitempty"`
}

// Quiz is the assessment definition embedded in a module page.
type Quiz struct {
	Questions        []Question `json:"questions"`
	TimeLimitMinutes int        `json:"time_limit"`
}

// Phase is the controller's lifecycle state.
type Phase int

const (
	PhaseIntro Phase = iota
	PhaseInProgress
	PhaseSubmitted
)

// Result is the outcome of a submitted quiz.
type Result struct {
	Score  int
	Passed bool
	Grade  string
	Demo   bool
}

// ProgressUpdater receives the module completion on a passing result.
type ProgressUpdater interface {
	UpdateProgress(percentage int, quizScore *int)
}

// Options configures a Controller. Scorer defaults to KeyScorer when every
// question carries an answer and to a DemoScorer otherwise.
type Options struct {
	Quiz      Quiz
	Document  *view.Document
	Progress  ProgressUpdater
	Scorer    Scorer
	Scheduler schedule.Scheduler
	Logger    zerolog.Logger
}

// Controller holds the current question, the stored answers and the countdown.
type Controller struct {
	questions []Question
	limit     time.Duration
	doc       *view.Document
	progress  ProgressUpdater
	scorer    Scorer
	sched     schedule.Scheduler
	logger    zerolog.Logger

	mu        sync.Mutex
	phase     Phase
	index     int
	answers   map[int]int
	remaining time.Duration
	countdown schedule.Timer
	result    Result
}

// New builds a controller and renders the first question and the total.
func New(opts Options) *Controller {
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}
	limit := time.Duration(opts.Quiz.TimeLimitMinutes) * time.Minute
	if limit <= 0 {
		limit = DefaultTimeLimit
	}

	c := &Controller{
		questions: opts.Quiz.Questions,
		limit:     limit,
		doc:       opts.Document,
		progress:  opts.Progress,
		scorer:    opts.Scorer,
		sched:     sched,
		logger:    opts.Logger.With().Str("component", "quiz").Logger(),
		answers:   make(map[int]int),
	}
	if c.scorer == nil {
		if hasAnswerKey(c.questions) {
			c.scorer = KeyScorer{}
		} else {
			c.scorer = NewDemoScorer(0)
		}
	}
	if c.scorer.Demo() {
		c.logger.Info().Msg("quiz has no answer key, scoring in demo mode")
	}

	c.doc.SetText(elementTotal, strconv.Itoa(len(c.questions)))
	c.mu.Lock()
	c.renderQuestionLocked()
	c.mu.Unlock()
	return c
}

// Phase returns the current lifecycle state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Index returns the current question index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Answer returns the stored option for a question.
func (c *Controller) Answer(question int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	option, ok := c.answers[question]
	return option, ok
}

// Remaining returns the time left on the countdown.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Start shows the quiz and starts the countdown. Only valid from the intro.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIntro {
		return
	}
	c.phase = PhaseInProgress
	c.remaining = c.limit

	c.doc.SetHidden(elementStart, true)
	c.doc.SetHidden(elementQuiz, false)
	c.doc.SetText(elementTimer, view.FormatClock(c.remaining))
	c.renderQuestionLocked()

	c.countdown = c.sched.Every(time.Second, c.tick)
}

func (c *Controller) tick() {
	c.mu.Lock()
	if c.phase != PhaseInProgress {
		c.mu.Unlock()
		return
	}
	c.remaining -= time.Second
	if c.remaining < 0 {
		c.remaining = 0
	}
	remaining := c.remaining
	c.mu.Unlock()

	c.doc.SetText(elementTimer, view.FormatClock(remaining))
	if remaining == 0 {
		c.logger.Info().Msg("quiz time expired, submitting")
		c.Submit()
	}
}

// SelectOption stores the answer for the current question.
func (c *Controller) SelectOption(option int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseInProgress || c.index >= len(c.questions) {
		return
	}
	if option < 0 || option >= len(c.questions[c.index].Options) {
		c.logger.Warn().Int("question", c.index).Int("option", option).Msg("option out of range")
		return
	}
	c.answers[c.index] = option
	c.renderQuestionLocked()
}

// GoToQuestion moves to a question and restores its stored answer.
func (c *Controller) GoToQuestion(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goToLocked(index)
}

// Next moves to the following question when there is one.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goToLocked(c.index + 1)
}

// Previous moves to the preceding question when there is one.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goToLocked(c.index - 1)
}

func (c *Controller) goToLocked(index int) {
	if c.phase != PhaseInProgress || index < 0 || index >= len(c.questions) {
		return
	}
	c.index = index
	c.renderQuestionLocked()
}

func (c *Controller) renderQuestionLocked() {
	total := len(c.questions)
	if c.index >= total {
		return
	}
	question := c.questions[c.index]
	selected, answered := c.answers[c.index]

	items := make([]view.Item, 0, len(question.Options))
	for i, option := range question.Options {
		classes := []string{classOption, classIdleBd}
		if answered && i == selected {
			classes = []string{classOption, classSelectedBd, classSelected}
		}
		items = append(items, view.Item{Key: strconv.Itoa(i), Text: option, Classes: classes})
	}

	c.doc.SetText(elementQuestion, question.Text)
	c.doc.SetItems(elementOptions, items)
	c.doc.SetText(elementCurrent, strconv.Itoa(c.index+1))
	c.doc.SetStyle(elementProgress, "width", view.FormatNumber(float64(c.index+1)/float64(total)*100)+"%")
	c.doc.SetDisabled(elementPrev, c.index == 0)
	c.doc.SetHidden(elementNext, c.index == total-1)
}

// Submit stops the countdown, scores the answers and renders the result.
// It only acts while the quiz is in progress, so it runs once per attempt.
func (c *Controller) Submit() (Result, bool) {
	c.mu.Lock()
	if c.phase != PhaseInProgress {
		c.mu.Unlock()
		return Result{}, false
	}
	c.phase = PhaseSubmitted
	schedule.Stop(c.countdown)
	c.countdown = nil

	answers := make(map[int]int, len(c.answers))
	for k, v := range c.answers {
		answers[k] = v
	}
	score := c.scorer.Score(c.questions, answers)
	result := Result{Score: score, Passed: score >= PassMark, Grade: "B", Demo: c.scorer.Demo()}
	if result.Passed {
		result.Grade = "A"
	}
	c.result = result
	c.mu.Unlock()

	c.renderResult(result)
	c.logger.Info().Int("score", result.Score).Bool("passed", result.Passed).Bool("demo", result.Demo).Msg("quiz submitted")

	if result.Passed && c.progress != nil {
		score := result.Score
		c.progress.UpdateProgress(100, &score)
	}
	return result, true
}

func (c *Controller) renderResult(result Result) {
	headline := "Keep Practicing!"
	outcome := "failed"
	if result.Passed {
		headline = "Excellent Work!"
		outcome = "passed"
	}
	mode := "graded"
	if result.Demo {
		mode = "demo"
	}

	c.doc.SetAttr(elementQuiz, "result", outcome)
	c.doc.SetAttr(elementQuiz, "scoring", mode)
	c.doc.SetItems(elementQuiz, []view.Item{
		{Key: "headline", Text: headline},
		{Key: "score", Text: fmt.Sprintf("%d%%", result.Score), Data: map[string]string{"label": "Your Score"}},
		{Key: "pass-mark", Text: fmt.Sprintf("%d%%", PassMark), Data: map[string]string{"label": "Pass Mark"}},
		{Key: "grade", Text: result.Grade, Data: map[string]string{"label": "Grade"}},
	})
	c.doc.SetText(elementScore, fmt.Sprintf("%d%%", result.Score))
}

// Result returns the last submitted result.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.phase == PhaseSubmitted
}

// Retake resets the quiz to its intro with no stored answers.
func (c *Controller) Retake() {
	c.mu.Lock()
	defer c.mu.Unlock()

	schedule.Stop(c.countdown)
	c.countdown = nil
	c.phase = PhaseIntro
	c.index = 0
	c.answers = make(map[int]int)
	c.remaining = 0
	c.result = Result{}

	c.doc.SetHidden(elementQuiz, true)
	c.doc.SetHidden(elementStart, false)
	c.doc.SetItems(elementQuiz, nil)
	c.renderQuestionLocked()
}

// Stop clears the countdown without submitting.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	schedule.Stop(c.countdown)
	c.countdown = nil
}
