package service

import (
	"context"
	"testing"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDispatchWorld готовит мир с одной пожарной машиной, её экипажем
// (водитель + пожарный) и одним новым пожарным инцидентом
func seedDispatchWorld(t *testing.T, store *fakeStore) (*models.Unit, *models.Incident) {
	t.Helper()
	ctx := context.Background()

	unit := &models.Unit{
		Kind:      models.UnitKindFire,
		Name:      "BR-1",
		Status:    models.UnitStatusAvailable,
		Speed:     1.0,
		Condition: 1.0,
		X:         0, Y: 0,
		HomeX: 0, HomeY: 0,
	}
	require.NoError(t, store.SaveUnit(ctx, unit))

	for _, role := range []string{models.RoleDriver, models.RoleFirefighter} {
		unitID := unit.ID
		require.NoError(t, store.SavePersonnel(ctx, &models.Personnel{
			Name:    role,
			Role:    role,
			OnShift: true,
			UnitID:  &unitID,
		}))
	}

	incident := &models.Incident{
		Type:            models.IncidentTypeFire,
		Severity:        2,
		Status:          models.IncidentStatusNew,
		NeedFire:        1,
		DeadlineSeconds: 300,
		X:               5, Y: 5,
		CashReward: 300,
		XPReward:   16,
	}
	require.NoError(t, store.SaveIncident(ctx, incident))
	return unit, incident
}

func TestDispatch_Success(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{intn: 0, float: 0.5}, clock)
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	assert.True(t, dispatched)

	savedUnit, err := store.GetUnit(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusEnroute, savedUnit.Status)
	assert.Less(t, savedUnit.Condition, 1.0)

	savedIncident, err := store.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResponding, savedIncident.Status)
	require.NotNil(t, savedIncident.ResponseStartedAt)
	assert.Equal(t, clock.Now(), *savedIncident.ResponseStartedAt)

	dispatches, err := store.ListDispatchesByIncident(ctx, incident.ID, true)
	require.NoError(t, err)
	require.Len(t, dispatches, 1)
	dispatch := dispatches[0]
	assert.Equal(t, unit.ID, dispatch.UnitID)
	assert.True(t, dispatch.Active)
	// Манхэттен (0,0)->(5,5) = 10, скорость 1.0: 10/1*40 = 400с
	assert.Equal(t, 400, dispatch.TravelTimeSeconds)
	require.NotNil(t, dispatch.ArriveAt)
	assert.Equal(t, clock.Now().Add(400*time.Second), *dispatch.ArriveAt)

	// Экипаж получил усталость от выезда
	crew, err := store.ListPersonnelByUnit(ctx, unit.ID)
	require.NoError(t, err)
	for _, member := range crew {
		assert.Greater(t, member.Fatigue, 0.0)
		assert.True(t, member.OnShift)
	}
}

func TestDispatch_MinimumTravelTime(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{intn: 0, float: 0.5}, clock)
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	// Инцидент прямо рядом с юнитом
	incident.X, incident.Y = 0, 1
	require.NoError(t, store.SaveIncident(ctx, incident))

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	assert.True(t, dispatched)

	dispatches, err := store.ListDispatchesByIncident(ctx, incident.ID, true)
	require.NoError(t, err)
	require.Len(t, dispatches, 1)
	assert.Equal(t, int(MinTravelTime/time.Second), dispatches[0].TravelTimeSeconds)
}

func TestDispatch_SecondUnitDoesNotRestartResponse(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{intn: 0, float: 0.5}, clock)
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	require.True(t, dispatched)

	first, err := store.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	started := *first.ResponseStartedAt

	// Вторая машина с собственным экипажем
	second := &models.Unit{
		Kind: models.UnitKindFire, Name: "BR-2",
		Status: models.UnitStatusAvailable, Speed: 1.0, Condition: 1.0,
	}
	require.NoError(t, store.SaveUnit(ctx, second))
	for _, role := range []string{models.RoleDriver, models.RoleFirefighter} {
		unitID := second.ID
		require.NoError(t, store.SavePersonnel(ctx, &models.Personnel{
			Role: role, OnShift: true, UnitID: &unitID,
		}))
	}

	clock.Advance(30 * time.Second)
	dispatched, err = svc.Dispatch(ctx, incident.ID, second.ID)
	require.NoError(t, err)
	require.True(t, dispatched)

	after, err := store.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResponding, after.Status)
	assert.Equal(t, started, *after.ResponseStartedAt)
}

func TestDispatch_UnitNeverHoldsTwoActiveDispatches(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{intn: 0, float: 0.5}, clock)
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	require.True(t, dispatched)

	// Второй инцидент претендует на тот же юнит
	other := &models.Incident{
		Type:            models.IncidentTypeFire,
		Severity:        1,
		Status:          models.IncidentStatusNew,
		NeedFire:        1,
		DeadlineSeconds: 300,
		X:               2, Y: 2,
	}
	require.NoError(t, store.SaveIncident(ctx, other))

	dispatched, err = svc.Dispatch(ctx, other.ID, unit.ID)
	require.NoError(t, err)
	assert.False(t, dispatched)

	// Юнит остаётся на первом выезде, активный выезд ровно один
	active, err := store.ListActiveDispatches(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, incident.ID, active[0].IncidentID)
	assert.Equal(t, unit.ID, active[0].UnitID)

	savedOther, err := store.GetIncident(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusNew, savedOther.Status)
}

func TestDispatch_RefusedUnknownIncident(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &stubRand{}, testClock())
	unit, _ := seedDispatchWorld(t, store)

	dispatched, err := svc.Dispatch(context.Background(), 999, unit.ID)
	require.NoError(t, err)
	assert.False(t, dispatched)
}

func TestDispatch_RefusedUnknownUnit(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &stubRand{}, testClock())
	_, incident := seedDispatchWorld(t, store)

	dispatched, err := svc.Dispatch(context.Background(), incident.ID, 999)
	require.NoError(t, err)
	assert.False(t, dispatched)
}

func TestDispatch_RefusedTerminalIncident(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &stubRand{}, testClock())
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	for _, status := range []string{models.IncidentStatusResolved, models.IncidentStatusFailed} {
		incident.Status = status
		require.NoError(t, store.SaveIncident(ctx, incident))

		dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
		require.NoError(t, err)
		assert.False(t, dispatched, "status %s must refuse dispatch", status)
	}

	assertNoMutations(t, store, unit.ID)
}

func TestDispatch_RefusedUnitNotAvailable(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &stubRand{}, testClock())
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	for _, status := range []string{
		models.UnitStatusEnroute,
		models.UnitStatusAtScene,
		models.UnitStatusReturning,
		models.UnitStatusBroken,
		models.UnitStatusMaintenance,
	} {
		unit.Status = status
		require.NoError(t, store.SaveUnit(ctx, unit))

		dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
		require.NoError(t, err)
		assert.False(t, dispatched, "status %s must refuse dispatch", status)
	}
}

func TestDispatch_RefusedBreakdownCooldown(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{}, clock)
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	down := clock.Now().Add(5 * time.Minute)
	unit.DownUntil = &down
	require.NoError(t, store.SaveUnit(ctx, unit))

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	assert.False(t, dispatched)
	assertNoMutations(t, store, unit.ID)
}

func TestDispatch_RefusedCrewlessUnit(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{}, clock)
	ctx := context.Background()
	_, incident := seedDispatchWorld(t, store)

	police := &models.Unit{
		Kind: models.UnitKindPolice, Name: "POL-1",
		Status: models.UnitStatusAvailable, Speed: 1.6, Condition: 1.0,
	}
	require.NoError(t, store.SaveUnit(ctx, police))

	dispatched, err := svc.Dispatch(ctx, incident.ID, police.ID)
	require.NoError(t, err)
	assert.False(t, dispatched)
	assertNoMutations(t, store, police.ID)
}

func TestDispatch_RefusedMissingRequiredRole(t *testing.T) {
	store := newFakeStore()
	clock := testClock()
	svc := newTestService(store, &stubRand{}, clock)
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	// Пожарный уходит на отдых: остаётся только водитель
	crew, err := store.ListPersonnelByUnit(ctx, unit.ID)
	require.NoError(t, err)
	for _, member := range crew {
		if member.Role == models.RoleFirefighter {
			rest := clock.Now().Add(time.Hour)
			member.RestUntil = &rest
			require.NoError(t, store.SavePersonnel(ctx, member))
		}
	}

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	assert.False(t, dispatched)
	assertNoMutations(t, store, unit.ID)
}

func TestDispatch_RefusedExhaustedCrew(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &stubRand{}, testClock())
	ctx := context.Background()
	unit, incident := seedDispatchWorld(t, store)

	crew, err := store.ListPersonnelByUnit(ctx, unit.ID)
	require.NoError(t, err)
	for _, member := range crew {
		if member.Role == models.RoleDriver {
			member.Fatigue = fatigueDispatchLimit
			require.NoError(t, store.SavePersonnel(ctx, member))
		}
	}

	dispatched, err := svc.Dispatch(ctx, incident.ID, unit.ID)
	require.NoError(t, err)
	assert.False(t, dispatched)
	assertNoMutations(t, store, unit.ID)
}

// assertNoMutations проверяет, что отклонённая диспетчеризация ничего не изменила:
// юнит не тронут, выезды не созданы
func assertNoMutations(t *testing.T, store *fakeStore, unitID int64) {
	t.Helper()
	ctx := context.Background()

	unit, err := store.GetUnit(ctx, unitID)
	require.NoError(t, err)
	assert.NotEqual(t, models.UnitStatusEnroute, unit.Status)
	assert.Equal(t, 1.0, unit.Condition)

	dispatches, err := store.ListActiveDispatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, dispatches)
}
