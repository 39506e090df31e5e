package practice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/practice"
	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/view"
)

type scriptedDetector struct {
	samples []practice.Detection
	calls   int
	err     error
}

func (d *scriptedDetector) Detect(context.Context) (practice.Detection, error) {
	if d.err != nil {
		return practice.Detection{}, d.err
	}
	sample := d.samples[d.calls%len(d.samples)]
	d.calls++
	return sample, nil
}

func (d *scriptedDetector) Demo() bool { return false }

func newPanel(t *testing.T, detector practice.Detector) (*practice.Panel, *view.Document, *schedule.Manual, *view.Toaster) {
	t.Helper()
	doc := view.NewDocument(zerolog.Nop(), "detectionAccuracy", "signsDetected", "detectionResults", "detectionBtn")
	doc.SetHidden("detectionResults", true)
	clock := schedule.NewManual(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	toaster := view.NewToaster(doc, clock, 0, zerolog.Nop())

	panel := practice.New(practice.Options{
		Detector:  detector,
		Document:  doc,
		Notifier:  toaster,
		Scheduler: clock,
		Logger:    zerolog.Nop(),
	})
	return panel, doc, clock, toaster
}

func TestToggleStartsAndStopsPolling(t *testing.T) {
	detector := &scriptedDetector{samples: []practice.Detection{{Accuracy: 80, SignsDetected: 11}, {Accuracy: 91, SignsDetected: 13}}}
	panel, doc, clock, toaster := newPanel(t, detector)

	panel.Toggle()
	require.True(t, panel.Active())
	require.False(t, doc.Hidden("detectionResults"))
	accuracy, _ := doc.Text("detectionAccuracy")
	require.Equal(t, "80%", accuracy)
	require.Equal(t, practice.MessageStarted, toaster.Active()[0].Message)

	clock.Advance(practice.PollInterval)
	accuracy, _ = doc.Text("detectionAccuracy")
	require.Equal(t, "91%", accuracy)
	signs, _ := doc.Text("signsDetected")
	require.Equal(t, "13/15", signs)
	require.Equal(t, 2, detector.calls)

	panel.Toggle()
	require.False(t, panel.Active())
	button, _ := doc.Text("detectionBtn")
	require.Equal(t, "Start Detection", button)

	clock.Advance(10 * time.Second)
	require.Equal(t, 2, detector.calls)
}

func TestFailedSampleKeepsPreviousValues(t *testing.T) {
	detector := &scriptedDetector{err: errors.New("camera unavailable")}
	panel, doc, clock, _ := newPanel(t, detector)

	panel.Toggle()
	clock.Advance(practice.PollInterval)

	require.True(t, panel.Active())
	accuracy, _ := doc.Text("detectionAccuracy")
	require.Empty(t, accuracy)
	panel.Stop()
}

func TestStopLeavesNoTimers(t *testing.T) {
	panel, _, clock, _ := newPanel(t, &scriptedDetector{samples: []practice.Detection{{Accuracy: 90, SignsDetected: 12}}})

	panel.Toggle()
	panel.Stop()
	panel.Stop()

	clock.Advance(5 * time.Second)
	require.False(t, panel.Active())
	require.Zero(t, clock.Pending())
}

func TestDemoDetectorRange(t *testing.T) {
	detector := practice.NewDemoDetector(11)
	require.True(t, detector.Demo())

	for i := 0; i < 200; i++ {
		sample, err := detector.Detect(context.Background())
		require.NoError(t, err)
		require.GreaterOrEqual(t, sample.Accuracy, 75)
		require.Less(t, sample.Accuracy, 95)
		require.GreaterOrEqual(t, sample.SignsDetected, 10)
		require.Less(t, sample.SignsDetected, 15)
	}
}
