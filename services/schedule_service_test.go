package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamcup/tournament-engine/models"
)

func testEvent() *models.Event {
	return &models.Event{
		ID:            1,
		VenueID:       5,
		StartsAt:      time.Date(2026, 4, 18, 9, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 4, 18, 12, 0, 0, 0, time.UTC),
		TableCount:    3,
		SlotMinutes:   20,
		BufferMinutes: 10,
	}
}

func TestGenerateSlotGrid(t *testing.T) {
	slots, err := generateSlotGrid(testEvent())
	require.NoError(t, err)

	// 3 hour window, 30 minute step (20 play + 10 buffer): 6 intervals
	// of 3 tables each.
	require.Len(t, slots, 18)

	first := slots[0]
	assert.Equal(t, 1, first.TableNumber)
	assert.Equal(t, time.Date(2026, 4, 18, 9, 0, 0, 0, time.UTC), first.StartTime)
	assert.Equal(t, time.Date(2026, 4, 18, 9, 20, 0, 0, time.UTC), first.EndTime)
	assert.Equal(t, models.SlotAvailable, first.Status)
	assert.Equal(t, 5, first.VenueID)

	last := slots[len(slots)-1]
	assert.Equal(t, 3, last.TableNumber)
	assert.Equal(t, time.Date(2026, 4, 18, 11, 30, 0, 0, time.UTC), last.StartTime)
	assert.False(t, last.EndTime.After(testEvent().EndsAt))
}

func TestGenerateSlotGridPartialInterval(t *testing.T) {
	event := testEvent()
	// 50 minute window fits one 20-minute slot at :00 and one at :30,
	// but not a third at :60.
	event.EndsAt = event.StartsAt.Add(50 * time.Minute)

	slots, err := generateSlotGrid(event)
	require.NoError(t, err)
	assert.Len(t, slots, 6)
}

func TestGenerateSlotGridRejectsBadInput(t *testing.T) {
	noTables := testEvent()
	noTables.TableCount = 0
	_, err := generateSlotGrid(noTables)
	require.ErrorIs(t, err, ErrValidation)

	emptyWindow := testEvent()
	emptyWindow.EndsAt = emptyWindow.StartsAt
	_, err = generateSlotGrid(emptyWindow)
	require.ErrorIs(t, err, ErrValidation)

	tooShort := testEvent()
	tooShort.EndsAt = tooShort.StartsAt.Add(10 * time.Minute)
	_, err = generateSlotGrid(tooShort)
	require.ErrorIs(t, err, ErrValidation)
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	tests := []struct {
		name                       string
		start1, end1, start2, end2 time.Time
		want                       bool
	}{
		{"identical", at(0), at(20), at(0), at(20), true},
		{"partial overlap", at(0), at(20), at(10), at(30), true},
		{"contained", at(0), at(30), at(10), at(20), true},
		{"back to back", at(0), at(20), at(20), at(40), false},
		{"disjoint", at(0), at(20), at(40), at(60), false},
		{"reversed order", at(40), at(60), at(0), at(20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(tt.start1, tt.end1, tt.start2, tt.end2))
		})
	}
}

func reservedSlot(id, table, teamID int, start, end time.Time) *models.TimeSlot {
	return &models.TimeSlot{
		ID:          id,
		TableNumber: table,
		TeamID:      intPtr(teamID),
		StartTime:   start,
		EndTime:     end,
		Status:      models.SlotReserved,
	}
}

func TestFindConflicts(t *testing.T) {
	base := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	slots := []*models.TimeSlot{
		// Same table, overlapping windows: capacity conflict.
		reservedSlot(1, 1, 10, at(0), at(20)),
		reservedSlot(2, 1, 20, at(10), at(30)),
		// Same team on different tables at the same time: date overlap.
		reservedSlot(3, 2, 30, at(0), at(20)),
		reservedSlot(4, 3, 30, at(0), at(20)),
		// Clean slot, no conflicts.
		reservedSlot(5, 2, 40, at(60), at(80)),
	}

	conflicts := findConflicts(slots)
	require.Len(t, conflicts, 2)

	assert.Equal(t, models.ConflictCapacity, conflicts[0].Type)
	assert.Equal(t, 1, conflicts[0].FirstSlotID)
	assert.Equal(t, 2, conflicts[0].SecondSlotID)

	assert.Equal(t, models.ConflictDateOverlap, conflicts[1].Type)
	assert.Equal(t, 3, conflicts[1].FirstSlotID)
	assert.Equal(t, 4, conflicts[1].SecondSlotID)
}

func TestPlanAssignments(t *testing.T) {
	base := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	gridSlot := func(id, table, interval int) *models.TimeSlot {
		start := base.Add(time.Duration(interval) * 30 * time.Minute)
		return &models.TimeSlot{
			ID:          id,
			TableNumber: table,
			StartTime:   start,
			EndTime:     start.Add(20 * time.Minute),
			Status:      models.SlotAvailable,
		}
	}

	// Two tables over three intervals, dealt to three teams in turn.
	slots := []*models.TimeSlot{
		gridSlot(1, 1, 0), gridSlot(2, 2, 0),
		gridSlot(3, 1, 1), gridSlot(4, 2, 1),
		gridSlot(5, 1, 2), gridSlot(6, 2, 2),
	}

	plan := planAssignments(slots, []int{10, 20, 30})
	require.Len(t, plan, 6)

	wantTeams := []int{10, 20, 30, 10, 20, 30}
	for i, p := range plan {
		assert.Equal(t, i+1, p.slot.ID)
		assert.Equal(t, wantTeams[i], p.teamID)
	}
}

func TestPlanAssignmentsNeverDoubleBooksTeam(t *testing.T) {
	base := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	// One team, two tables in the same window: the second slot must
	// stay unassigned rather than double-book the team.
	slots := []*models.TimeSlot{
		{ID: 1, TableNumber: 1, StartTime: base, EndTime: base.Add(20 * time.Minute)},
		{ID: 2, TableNumber: 2, StartTime: base, EndTime: base.Add(20 * time.Minute)},
	}

	plan := planAssignments(slots, []int{10})
	require.Len(t, plan, 1)
	assert.Equal(t, 1, plan[0].slot.ID)
	assert.Equal(t, 10, plan[0].teamID)

	assert.Empty(t, planAssignments(slots, nil))
}

func TestCandidateClears(t *testing.T) {
	base := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	availableSlot := func(id, table int, start, end time.Time) *models.TimeSlot {
		return &models.TimeSlot{
			ID:          id,
			TableNumber: table,
			StartTime:   start,
			EndTime:     end,
			Status:      models.SlotAvailable,
		}
	}

	// Team 7 is double-booked: the movable slot overlaps the first one.
	first := reservedSlot(1, 1, 7, at(0), at(30))
	movable := reservedSlot(2, 2, 7, at(15), at(45))
	otherTeam := reservedSlot(3, 3, 8, at(60), at(90))
	booked := []*models.TimeSlot{first, movable, otherTeam}

	tests := []struct {
		name      string
		candidate *models.TimeSlot
		want      bool
	}{
		{
			// The earlier window is free of the movable slot but still
			// collides with the team's first booking.
			name:      "recreates team overlap with first slot",
			candidate: availableSlot(10, 2, at(-15), at(15)),
			want:      false,
		},
		{
			name:      "double-books the first slot's table",
			candidate: availableSlot(11, 1, at(20), at(50)),
			want:      false,
		},
		{
			name:      "overlaps another team's table",
			candidate: availableSlot(12, 3, at(70), at(100)),
			want:      false,
		},
		{
			// Overlapping the movable slot's own window is fine once its
			// reservation is released.
			name:      "overlaps only the released reservation",
			candidate: availableSlot(13, 2, at(30), at(60)),
			want:      true,
		},
		{
			name:      "fully clear window",
			candidate: availableSlot(14, 2, at(120), at(150)),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, candidateClears(tt.candidate, movable, booked))
		})
	}
}

func TestFindConflictsBackToBackClean(t *testing.T) {
	base := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	slots := []*models.TimeSlot{
		reservedSlot(1, 1, 10, base, base.Add(20*time.Minute)),
		reservedSlot(2, 1, 10, base.Add(20*time.Minute), base.Add(40*time.Minute)),
	}
	assert.Empty(t, findConflicts(slots))
}
