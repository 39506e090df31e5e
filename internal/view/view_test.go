package view_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/view"
)

func TestDocumentMissingElementIsSkipped(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop(), "present")

	require.False(t, doc.SetText("missing", "x"))
	require.True(t, doc.SetText("present", "x"))

	text, ok := doc.Text("present")
	require.True(t, ok)
	require.Equal(t, "x", text)

	_, ok = doc.Text("missing")
	require.False(t, ok)
}

func TestFormatHelpers(t *testing.T) {
	require.Equal(t, "12", view.FormatNumber(12))
	require.Equal(t, "12.5", view.FormatNumber(12.5))
	require.Equal(t, "0.3", view.FormatNumber(1.0/3.0))

	require.Equal(t, "00:00", view.FormatClock(0))
	require.Equal(t, "01:05", view.FormatClock(65*time.Second))
	require.Equal(t, "61:01", view.FormatClock(61*time.Minute+time.Second))

	require.Equal(t, "0%", view.FormatPercent(0))
	require.Equal(t, "43%", view.FormatPercent(42.5))
	require.Equal(t, "100%", view.FormatPercent(100))
}

func TestToasterFadesThenRemoves(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop())
	clock := schedule.NewManual(time.Unix(0, 0))
	toaster := view.NewToaster(doc, clock, 0, zerolog.Nop())

	toaster.Show("Progress saved!", view.KindSuccess, 0)

	active := toaster.Active()
	require.Len(t, active, 1)
	require.Equal(t, "Progress saved!", active[0].Message)
	require.Equal(t, view.KindSuccess, active[0].Kind)
	require.True(t, doc.HasClass(active[0].ID, "bg-emerald-600"))

	clock.Advance(view.DefaultToastDuration)
	active = toaster.Active()
	require.Len(t, active, 1)
	require.True(t, active[0].Fading)

	clock.Advance(view.ToastFadeDuration)
	require.Empty(t, toaster.Active())
	require.Zero(t, clock.Pending())
}

func TestToasterClearCancelsTimers(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop())
	clock := schedule.NewManual(time.Unix(0, 0))
	toaster := view.NewToaster(doc, clock, 0, zerolog.Nop())

	toaster.Show("one", view.KindInfo, 0)
	toaster.Show("two", view.KindWarning, 0)
	clock.Advance(view.DefaultToastDuration)
	toaster.Show("three", view.KindError, 0)

	toaster.Clear()
	require.Empty(t, toaster.Active())
	require.Zero(t, clock.Pending())
}

func TestToasterColours(t *testing.T) {
	require.Equal(t, "bg-red-600", view.BackgroundClass(view.KindError))
	require.Equal(t, "bg-amber-600", view.BackgroundClass(view.KindWarning))
	require.Equal(t, "bg-blue-600", view.BackgroundClass(view.KindInfo))
	require.Equal(t, "bg-blue-600", view.BackgroundClass("anything"))
}

func TestLoadingOverlayRestoresState(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop(), "panel")
	loading := view.NewLoading(doc)

	loading.Show("panel", "")
	require.True(t, loading.Active("panel"))
	require.Equal(t, "relative", doc.Style("panel", "position"))
	require.Equal(t, "none", doc.Style("panel", "pointer-events"))
	require.Equal(t, []string{"panel-loading-overlay"}, doc.IDsWithClass("loading-overlay"))

	loading.Hide("panel")
	require.False(t, loading.Active("panel"))
	require.Empty(t, doc.Style("panel", "position"))
	require.Empty(t, doc.Style("panel", "pointer-events"))
	require.Empty(t, doc.IDsWithClass("loading-overlay"))
}

func TestLoadingButtonAndWrap(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop(), "save")
	doc.SetText("save", "Save Progress")
	loading := view.NewLoading(doc)

	err := loading.WrapButton("save", func() error {
		require.True(t, doc.Disabled("save"))
		require.True(t, doc.HasClass("save", "btn-loading"))
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.False(t, doc.Disabled("save"))
	text, _ := doc.Text("save")
	require.Equal(t, "Save Progress", text)
}

func TestLoadingSkeletonRoundTrip(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop(), "feed")
	original := []view.Item{{Key: "a", Text: "first"}}
	doc.SetItems("feed", original)
	loading := view.NewLoading(doc)

	loading.ShowSkeleton("feed", 2, view.SkeletonCard)
	items := doc.Items("feed")
	require.Len(t, items, 2)
	require.Contains(t, items[0].Classes, "skeleton-card")

	loading.HideSkeleton("feed", nil)
	require.Equal(t, original, doc.Items("feed"))
}

func TestLoadingGlobalOverlay(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop(), "body")
	loading := view.NewLoading(doc)

	loading.ShowGlobal("Syncing")
	msg, ok := loading.GlobalMessage()
	require.True(t, ok)
	require.Equal(t, "Syncing", msg)
	require.Equal(t, "hidden", doc.Style("body", "overflow"))

	loading.HideGlobal()
	_, ok = loading.GlobalMessage()
	require.False(t, ok)
	require.Empty(t, doc.Style("body", "overflow"))
}

func TestTabsShowContent(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop())
	doc.Create("lessonContent", "content-section")
	doc.Create("quizContent", "content-section", "hidden")
	doc.Create("week1Content", "week-content")
	doc.Create("lessonTab", "active", "text-white", "border-accent")
	doc.Create("quizTab", "text-slate-400", "border-transparent")

	tabs := view.NewTabs(doc)
	tabs.ShowContent("quiz")

	require.True(t, doc.Hidden("lessonContent"))
	require.False(t, doc.Hidden("quizContent"))
	require.True(t, doc.Hidden("week1Content"))
	require.True(t, tabs.Active("quiz"))
	require.False(t, tabs.Active("lesson"))
	require.True(t, doc.HasClass("lessonTab", "border-transparent"))
	require.True(t, doc.HasClass("quizTab", "border-accent"))
}

func TestTabsShowWeekContent(t *testing.T) {
	doc := view.NewDocument(zerolog.Nop())
	doc.Create("week1Content", "week-content")
	doc.Create("week2Content", "week-content", "hidden")
	doc.Create("week1Tab", "week-tab", "active", "text-white")
	doc.Create("week2Tab", "week-tab", "text-slate-400")

	tabs := view.NewTabs(doc)
	tabs.ShowWeekContent("week2")

	require.True(t, doc.Hidden("week1Content"))
	require.False(t, doc.Hidden("week2Content"))
	require.True(t, tabs.Active("week2"))
	require.False(t, tabs.Active("week1"))
}
