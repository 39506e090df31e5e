package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/config"
	"github.com/noah-isme/vedispeak/internal/page"
	"github.com/noah-isme/vedispeak/internal/quiz"
	"github.com/noah-isme/vedispeak/internal/view"
	"github.com/noah-isme/vedispeak/pkg/activityapi"
	"github.com/noah-isme/vedispeak/pkg/realtime"
)

var moduleElements = []string{
	"progressCircle", "progressPercent", "moduleProgress", "moduleProgressSidebar", "timeSpent", "timer",
	"youtubePlayer", "currentVideoTitle", "videoPlaylist", "videoProgress", "currentTime", "speedText",
	"assessmentStart", "quizInterface", "quizTimer", "questionText", "optionsContainer", "currentQuestion",
	"totalQuestions", "quizProgress", "prevQuestionBtn", "nextQuestionBtn", "currentScore",
	"detectionAccuracy", "signsDetected", "detectionResults", "detectionBtn",
}

var sampleQuiz = quiz.Quiz{
	TimeLimitMinutes: 10,
	Questions: []quiz.Question{
		{Text: "Which hand shape starts the sign for A?", Options: []string{"Closed fist, thumb beside", "Flat palm", "Index finger raised", "Open C"}},
		{Text: "How is the number 3 shown?", Options: []string{"Thumb, index and middle", "Three fingers from pinky", "Index only", "Open palm"}},
		{Text: "Where is FAMILY signed?", Options: []string{"In front of the chest", "At the forehead", "At the chin", "Beside the ear"}},
	},
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Int("user_id", cfg.UserID).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := activityapi.New(activityapi.Config{
		BaseURL: cfg.APIBaseURL,
		UserID:  uint(cfg.UserID),
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to build activity api client: %v", err)
	}

	opts := page.Options{
		Kind:             page.Kind(cfg.Page),
		ModuleID:         cfg.ModuleID,
		SimulatePlayback: cfg.SimulatePlayback,
		API:              api,
		Logger:           logger,
		ToastDuration:    cfg.ToastDuration,
		PollInterval:     cfg.PollInterval,
		RefreshDelay:     cfg.RefreshDelay,
	}
	switch opts.Kind {
	case page.KindModule:
		opts.Document = view.NewDocument(logger, moduleElements...)
		opts.Quiz = &sampleQuiz
	case page.KindDashboard:
		opts.Document = view.NewDocument(logger, "session-timer")
	}

	if cfg.RealtimeURL != "" {
		header := http.Header{}
		header.Set("X-User-ID", strconv.Itoa(cfg.UserID))
		channel, err := realtime.Dial(ctx, realtime.Config{URL: cfg.RealtimeURL, Header: header, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("realtime unavailable; continuing without live updates")
		} else {
			opts.Channel = channel
		}
	}

	p, err := page.New(opts)
	if err != nil {
		log.Fatalf("failed to build page: %v", err)
	}
	p.Start(ctx)

	if p.Dashboard != nil {
		if err := p.Dashboard.StartSession(ctx, activityapi.SessionStart{}); err != nil {
			logger.Error().Err(err).Msg("failed to start study session")
		}
	}

	<-ctx.Done()

	unloadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Unload(unloadCtx)
}
