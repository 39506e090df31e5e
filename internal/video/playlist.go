// Package video drives the module page's lesson playlist and its playback
// progress.
package video

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
	// FallbackVideoID is used for playlist entries without a video of their own.
	FallbackVideoID = "dQw4w9WgXcQ"
	// SimulationStep is how often simulated playback advances by one percent.
	SimulationStep = 3 * time.Second
	// AutoAdvanceDelay separates the end of one video from loading the next.
	AutoAdvanceDelay = 2 * time.Second
	// ProgressPerVideo is the module progress credited for moving on.
	ProgressPerVideo = 25

	tenthsPerPercent = 53

	elementPlayer    = "youtubePlayer"
	elementTitle     = "currentVideoTitle"
	elementPlaylist  = "videoPlaylist"
	elementProgress  = "videoProgress"
	elementTime      = "currentTime"
	elementSpeed     = "speedText"
	elementLike      = "likeBtn"
	elementBookmark  = "bookmarkBtn"
	classIdleIcon    = "text-slate-400"
	classLikedIcon   = "text-blue-400"
	classSavedIcon   = "text-amber-400"
	defaultSpeedSlot = 2
)

// Speeds is the playback speed cycle.
var Speeds = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// DefaultTitles name the lessons of a module without its own playlist.
var DefaultTitles = []string{
	"Introduction & Overview",
	"Basic Hand Shapes",
	"Movement Patterns",
	"Practice Examples",
}

// Video is one playlist entry.
type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DefaultPlaylist returns the stock four-lesson playlist.
func DefaultPlaylist() []Video {
	videos := make([]Video, len(DefaultTitles))
	for i, title := range DefaultTitles {
		videos[i] = Video{ID: FallbackVideoID, Title: title}
	}
	return videos
}

// EmbedURL builds the player URL for a video id.
func EmbedURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?enablejsapi=1&rel=0&modestbranding=1", id)
}

// FormatPlayhead renders the simulated playhead for a playback percentage,
// treating every percent as 5.3 seconds of video.
func FormatPlayhead(percent int) string {
	seconds := percent * tenthsPerPercent / 10
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatSpeed renders a playback speed such as "1.25x".
func FormatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64) + "x"
}

// Progress is the module progress the playlist reads and advances.
type Progress interface {
	Percentage() int
	UpdateProgress(percentage int, quizScore *int)
}

// Options configures a Playlist. An empty Videos list uses DefaultPlaylist.
type Options struct {
	Videos            []Video
	Document          *view.Document
	Notifier          view.Notifier
	Progress          Progress
	Scheduler         schedule.Scheduler
	Logger            zerolog.Logger
	DisableSimulation bool
}

// Playlist tracks the current lesson and its playback.
type Playlist struct {
	videos   []Video
	doc      *view.Document
	notifier view.Notifier
	progress Progress
	sched    schedule.Scheduler
	logger   zerolog.Logger
	simulate bool

	mu         sync.Mutex
	index      int
	playback   int
	speedSlot  int
	captions   bool
	liked      bool
	bookmarked bool
	sim        schedule.Timer
	advance    schedule.Timer
}

// New builds a playlist. Nothing plays until Load.
func New(opts Options) *Playlist {
	videos := append([]Video(nil), opts.Videos...)
	if len(videos) == 0 {
		videos = DefaultPlaylist()
	}
	for i := range videos {
		if videos[i].ID == "" {
			videos[i].ID = FallbackVideoID
		}
		if videos[i].Title == "" {
			videos[i].Title = fmt.Sprintf("Video %d", i+1)
		}
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}

	return &Playlist{
		videos:    videos,
		doc:       opts.Document,
		notifier:  opts.Notifier,
		progress:  opts.Progress,
		sched:     sched,
		logger:    opts.Logger.With().Str("component", "video_playlist").Logger(),
		simulate:  !opts.DisableSimulation,
		speedSlot: defaultSpeedSlot,
	}
}

// Len returns the number of videos.
func (p *Playlist) Len() int { return len(p.videos) }

// Index returns the current video index.
func (p *Playlist) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Playback returns the current video's playback percentage.
func (p *Playlist) Playback() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playback
}

// Speed returns the current playback speed.
func (p *Playlist) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Speeds[p.speedSlot]
}

// Load shows a video, resets its playback and restarts the simulation.
func (p *Playlist) Load(index int) {
	if index < 0 || index >= len(p.videos) {
		p.logger.Warn().Int("index", index).Int("videos", len(p.videos)).Msg("video index out of range")
		return
	}

	unlocked := p.moduleProgress()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimersLocked()
	p.index = index
	p.playback = 0

	video := p.videos[index]
	p.doc.SetAttr(elementPlayer, "src", EmbedURL(video.ID))
	p.doc.SetText(elementTitle, video.Title)
	p.renderPlaylistLocked(unlocked)
	p.renderPlaybackLocked()

	if p.simulate {
		p.sim = p.sched.Every(SimulationStep, p.step)
	}
}

func (p *Playlist) stopTimersLocked() {
	schedule.Stop(p.sim, p.advance)
	p.sim, p.advance = nil, nil
}

func (p *Playlist) moduleProgress() int {
	if p.progress == nil {
		return 0
	}
	return p.progress.Percentage()
}

// renderPlaylistLocked marks the active video and unlocks one video per
// ProgressPerVideo of module progress.
func (p *Playlist) renderPlaylistLocked(unlockedUpTo int) {
	items := make([]view.Item, 0, len(p.videos))
	for i, video := range p.videos {
		item := view.Item{Key: strconv.Itoa(i), Text: video.Title}
		switch {
		case i == p.index:
			item.Classes = []string{"video-item", "bg-red-500/10", "border-red-500/20"}
			item.Data = map[string]string{"state": "active"}
		case i*ProgressPerVideo <= unlockedUpTo:
			item.Classes = []string{"video-item", "glass"}
			item.Data = map[string]string{"state": "unlocked"}
		default:
			item.Classes = []string{"video-item", "glass"}
			item.Data = map[string]string{"state": "locked"}
		}
		items = append(items, item)
	}
	p.doc.SetItems(elementPlaylist, items)
}

func (p *Playlist) renderPlaybackLocked() {
	p.doc.SetStyle(elementProgress, "width", strconv.Itoa(p.playback)+"%")
	p.doc.SetText(elementTime, FormatPlayhead(p.playback))
}

func (p *Playlist) step() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sim == nil {
		return
	}
	p.playback++
	p.renderPlaybackLocked()
	if p.playback >= 100 {
		p.finishedLocked()
	}
}

func (p *Playlist) finishedLocked() {
	schedule.Stop(p.sim)
	p.sim = nil
	if p.advance == nil {
		p.advance = p.sched.After(AutoAdvanceDelay, p.autoAdvance)
	}
}

func (p *Playlist) autoAdvance() {
	p.mu.Lock()
	p.advance = nil
	p.mu.Unlock()
	p.Next()
}

// ReportPlayback lets a real player drive playback, replacing the simulation.
func (p *Playlist) ReportPlayback(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	schedule.Stop(p.sim)
	p.sim = nil
	p.playback = percent
	p.renderPlaybackLocked()
	if percent >= 100 {
		p.finishedLocked()
	}
}

// Next loads the following video and credits module progress. It does
// nothing on the last video.
func (p *Playlist) Next() {
	p.mu.Lock()
	next := p.index + 1
	p.mu.Unlock()

	if next >= len(p.videos) {
		return
	}
	p.Load(next)

	if p.progress != nil {
		credited := p.progress.Percentage() + ProgressPerVideo
		if credited > 100 {
			credited = 100
		}
		p.progress.UpdateProgress(credited, nil)
		unlocked := p.moduleProgress()

		p.mu.Lock()
		p.renderPlaylistLocked(unlocked)
		p.mu.Unlock()
	}
}

// Previous loads the preceding video when there is one.
func (p *Playlist) Previous() {
	p.mu.Lock()
	prev := p.index - 1
	p.mu.Unlock()

	if prev < 0 {
		return
	}
	p.Load(prev)
}

// Select loads a specific video.
func (p *Playlist) Select(index int) {
	p.Load(index)
}

// ToggleCaptions flips captions on or off.
func (p *Playlist) ToggleCaptions() bool {
	p.mu.Lock()
	p.captions = !p.captions
	enabled := p.captions
	p.mu.Unlock()

	if enabled {
		p.notify("Captions enabled", view.KindInfo)
	} else {
		p.notify("Captions disabled", view.KindInfo)
	}
	return enabled
}

// ToggleSpeed moves to the next playback speed in the cycle.
func (p *Playlist) ToggleSpeed() float64 {
	p.mu.Lock()
	p.speedSlot = (p.speedSlot + 1) % len(Speeds)
	speed := Speeds[p.speedSlot]
	p.mu.Unlock()

	p.doc.SetText(elementSpeed, FormatSpeed(speed))
	p.notify("Playback speed: "+FormatSpeed(speed), view.KindInfo)
	return speed
}

// ToggleLike flips the like marker.
func (p *Playlist) ToggleLike() {
	if !p.doc.Has(elementLike) {
		p.logger.Warn().Str("element", elementLike).Msg("like button missing")
		return
	}
	p.mu.Lock()
	p.liked = !p.liked
	liked := p.liked
	p.mu.Unlock()

	p.doc.ToggleClass(elementLike, classIdleIcon, !liked)
	p.doc.ToggleClass(elementLike, classLikedIcon, liked)
	p.notify("Video liked!", view.KindSuccess)
}

// ToggleBookmark flips the bookmark marker.
func (p *Playlist) ToggleBookmark() {
	if !p.doc.Has(elementBookmark) {
		p.logger.Warn().Str("element", elementBookmark).Msg("bookmark button missing")
		return
	}
	p.mu.Lock()
	p.bookmarked = !p.bookmarked
	saved := p.bookmarked
	p.mu.Unlock()

	p.doc.ToggleClass(elementBookmark, classIdleIcon, !saved)
	p.doc.ToggleClass(elementBookmark, classSavedIcon, saved)
	p.notify("Video bookmarked!", view.KindSuccess)
}

func (p *Playlist) notify(message string, kind view.Kind) {
	if p.notifier != nil {
		p.notifier.Show(message, kind, 0)
	}
}

// Stop clears the simulation and any pending auto-advance.
func (p *Playlist) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimersLocked()
}
