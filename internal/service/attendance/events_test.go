package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithEvents_PublishesSuccessfulTransitions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	hub := sse.NewHub(8)
	svc := WithEvents(
		NewAttendanceService(store, memory.NewAttendanceRepository(store), Options{Now: clock.NowFunc()}),
		hub,
	)

	all, cleanupAll := hub.Subscribe(TopicAllShifts)
	defer cleanupAll()
	mine, cleanupMine := hub.Subscribe(EmployeeTopic(7))
	defer cleanupMine()

	_, err := svc.StartShift(ctx, attendance.StartShiftRequest{EmployeeID: 7})
	require.NoError(t, err)

	_, err = svc.StartShift(ctx, attendance.StartShiftRequest{EmployeeID: 7})
	require.ErrorIs(t, err, attendance.ErrAlreadyActive)

	clock.Advance(2 * time.Hour)
	_, err = svc.EndShift(ctx, attendance.EndShiftRequest{EmployeeID: 7})
	require.NoError(t, err)

	require.Len(t, all, 2)
	assert.Equal(t, EventShiftStarted, (<-all).Name)
	ended := <-all
	assert.Equal(t, EventShiftEnded, ended.Name)
	assert.Equal(t, TopicAllShifts, ended.Topic)

	require.Len(t, mine, 2)
	started := <-mine
	payload, ok := started.Data.(attendance.ActiveShiftResponse)
	require.True(t, ok)
	assert.EqualValues(t, 7, payload.EmployeeID)
}

func TestWithEvents_NilPublisherReturnsService(t *testing.T) {
	store := memory.NewStore()
	base := NewAttendanceService(store, memory.NewAttendanceRepository(store), Options{})
	assert.Same(t, base, WithEvents(base, nil))
}
