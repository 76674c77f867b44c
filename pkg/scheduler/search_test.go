package scheduler

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/klokku/meeting-scheduler/internal/metrics"
	"github.com/klokku/meeting-scheduler/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(repo calendar.Repository) *Engine {
	return NewEngine(NewAvailabilityChecker(repo), NewScorer(repo), metrics.New())
}

func TestEngine_FindBestSlot_Scenarios(t *testing.T) {
	repo := calendar.NewRepositoryStub()
	repo.AddEvents(busy("test1", at(10, 0), at(11, 0)))
	engine := newEngine(repo)

	testCases := []struct {
		name     string
		window   TimeWindow
		duration int
		expected Slot
		err      error
	}{
		{
			// 09:00 is back-to-back with the existing entry and earlier than 11:00
			name:     "whole working day",
			window:   TimeWindow{Start: at(9, 0), End: at(17, 0)},
			duration: 60,
			expected: Slot{Start: at(9, 0), End: at(10, 0)},
		},
		{
			name:     "window starting at the busy block",
			window:   TimeWindow{Start: at(10, 0), End: at(17, 0)},
			duration: 60,
			expected: Slot{Start: at(11, 0), End: at(12, 0)},
		},
		{
			name:     "window fully occupied",
			window:   TimeWindow{Start: at(10, 0), End: at(11, 0)},
			duration: 60,
			err:      ErrNoSlotFound,
		},
		{
			name:     "only the last candidate fits",
			window:   TimeWindow{Start: at(9, 30), End: at(12, 0)},
			duration: 60,
			expected: Slot{Start: at(11, 0), End: at(12, 0)},
		},
		{
			name:     "duration off the step grid",
			window:   TimeWindow{Start: at(12, 0), End: at(13, 0)},
			duration: 50,
			expected: Slot{Start: at(12, 0), End: at(12, 50)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			slot, err := engine.FindBestSlot(context.Background(), []string{"test1"}, tc.window, tc.duration)

			// then
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Start.Equal(slot.Start), "start %s", slot.Start)
			assert.True(t, tc.expected.End.Equal(slot.End), "end %s", slot.End)
		})
	}
}

func TestEngine_FindBestSlot_InvalidInput(t *testing.T) {
	engine := newEngine(calendar.NewRepositoryStub())

	testCases := []struct {
		name     string
		window   TimeWindow
		duration int
	}{
		{name: "zero duration", window: TimeWindow{Start: at(9, 0), End: at(17, 0)}, duration: 0},
		{name: "negative duration", window: TimeWindow{Start: at(9, 0), End: at(17, 0)}, duration: -30},
		{name: "empty window", window: TimeWindow{Start: at(9, 0), End: at(9, 0)}, duration: 15},
		{name: "reversed window", window: TimeWindow{Start: at(17, 0), End: at(9, 0)}, duration: 15},
		{name: "window shorter than duration", window: TimeWindow{Start: at(9, 0), End: at(9, 45)}, duration: 60},
		{name: "duration beyond time.Duration range", window: TimeWindow{Start: at(9, 0), End: at(17, 0)}, duration: 1<<53 - 60},
		{name: "largest duration", window: TimeWindow{Start: at(9, 0), End: at(17, 0)}, duration: math.MaxInt},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.FindBestSlot(context.Background(), []string{"test1"}, tc.window, tc.duration)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEngine_FindBestSlot_ResultIsFeasibleAndInsideWindow(t *testing.T) {
	repo := calendar.NewRepositoryStub()
	repo.AddEvents(
		busy("alice", at(9, 0), at(9, 45)),
		busy("alice", at(13, 0), at(14, 30)),
		busy("bob", at(10, 0), at(12, 0)),
		busy("carol", at(15, 10), at(15, 20)),
	)
	engine := newEngine(repo)
	participants := []string{"alice", "bob", "carol"}

	testCases := []struct {
		name     string
		window   TimeWindow
		duration int
	}{
		{name: "full day, one hour", window: TimeWindow{Start: at(8, 0), End: at(18, 0)}, duration: 60},
		{name: "morning, thirty minutes", window: TimeWindow{Start: at(9, 0), End: at(12, 30)}, duration: 30},
		{name: "afternoon, ninety minutes", window: TimeWindow{Start: at(12, 0), End: at(17, 0)}, duration: 90},
		{name: "unaligned start", window: TimeWindow{Start: at(9, 7), End: at(16, 0)}, duration: 45},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			slot, err := engine.FindBestSlot(context.Background(), participants, tc.window, tc.duration)

			// then
			require.NoError(t, err)
			assert.False(t, slot.Start.Before(tc.window.Start))
			assert.False(t, slot.End.After(tc.window.End))
			assert.Equal(t, time.Duration(tc.duration)*time.Minute, slot.End.Sub(slot.Start))
			assert.Zero(t, slot.Start.Sub(tc.window.Start)%(StepMinutes*time.Minute))
			for _, p := range participants {
				conflicts, err := repo.FindOverlapping(context.Background(), p, slot.Start, slot.End)
				require.NoError(t, err)
				assert.Empty(t, conflicts, p)
			}
		})
	}
}

func TestEngine_FindBestSlot_EmptyCalendarPicksWindowStart(t *testing.T) {
	engine := newEngine(calendar.NewRepositoryStub())

	slot, err := engine.FindBestSlot(context.Background(), []string{"test1"}, TimeWindow{Start: at(0, 0), End: at(8, 0)}, 30)

	require.NoError(t, err)
	assert.True(t, at(0, 0).Equal(slot.Start))
}

func TestEngine_FindBestSlot_SkipsParticipantsAfterBusyOne(t *testing.T) {
	// given
	repo := calendar.NewRepositoryStub()
	repo.AddEvents(busy("blocked", at(0, 0), at(23, 59)))
	engine := newEngine(repo)

	// when
	_, err := engine.FindBestSlot(context.Background(), []string{"blocked", "other"}, TimeWindow{Start: at(9, 0), End: at(12, 0)}, 60)

	// then
	assert.ErrorIs(t, err, ErrNoSlotFound)
	assert.Equal(t, 9, repo.OverlapCalls("blocked"))
	assert.Zero(t, repo.OverlapCalls("other"))
}

func TestEngine_FindBestSlot_StoreError(t *testing.T) {
	// given
	repo := calendar.NewRepositoryStub()
	repo.QueryErr = errors.New("connection refused")
	engine := newEngine(repo)

	// when
	_, err := engine.FindBestSlot(context.Background(), []string{"test1"}, TimeWindow{Start: at(9, 0), End: at(17, 0)}, 60)

	// then
	assert.ErrorIs(t, err, ErrStore)
	assert.NotErrorIs(t, err, ErrNoSlotFound)
}

func TestBestCandidate_FirstOfEqualScoresWins(t *testing.T) {
	// given
	var best bestCandidate
	first := Slot{Start: at(9, 0), End: at(10, 0)}
	tied := Slot{Start: at(11, 0), End: at(12, 0)}

	// when
	best.offer(first, 100500)
	best.offer(Slot{Start: at(10, 0), End: at(11, 0)}, 100200)
	best.offer(tied, 100500)

	// then
	assert.True(t, best.found)
	assert.Equal(t, first, best.slot)
	assert.Equal(t, 100500, best.score)
}

func TestBestCandidate_StrictlyGreaterReplaces(t *testing.T) {
	var best bestCandidate
	later := Slot{Start: at(11, 0), End: at(12, 0)}

	best.offer(Slot{Start: at(9, 0), End: at(10, 0)}, 100)
	best.offer(later, 101)

	assert.Equal(t, later, best.slot)
}

func TestBestCandidate_NegativeFirstScoreIsKept(t *testing.T) {
	var best bestCandidate
	only := Slot{Start: at(9, 0), End: at(10, 0)}

	best.offer(only, -10)

	assert.True(t, best.found)
	assert.Equal(t, only, best.slot)
}

func TestEngine_FindBestSlot_EarlierOfTiedCandidatesWins(t *testing.T) {
	// given
	repo := calendar.NewRepositoryStub()
	repo.AddEvents(
		busy("test1", at(17, 0), at(17, 30)),
		busy("test1", at(19, 0), at(19, 15)),
		busy("test1", at(20, 15), at(21, 15)),
	)
	engine := newEngine(repo)
	window := TimeWindow{Start: at(18, 0), End: at(21, 15)}
	first := Slot{Start: at(18, 0), End: at(19, 0)}
	later := Slot{Start: at(19, 15), End: at(20, 15)}

	// 18:00 is 30 minutes after the previous entry and back-to-back with the next one,
	// 19:15 is 75 minutes later but back-to-back on both sides
	scorer := NewScorer(repo)
	firstScore, err := scorer.Score(context.Background(), []string{"test1"}, first, window.Start)
	require.NoError(t, err)
	laterScore, err := scorer.Score(context.Background(), []string{"test1"}, later, window.Start)
	require.NoError(t, err)
	require.Equal(t, 100125, firstScore)
	require.Equal(t, firstScore, laterScore)

	// when
	slot, err := engine.FindBestSlot(context.Background(), []string{"test1"}, window, 60)

	// then
	require.NoError(t, err)
	assert.True(t, first.Start.Equal(slot.Start), "start %s", slot.Start)
	assert.True(t, first.End.Equal(slot.End), "end %s", slot.End)
}
