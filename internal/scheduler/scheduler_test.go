package scheduler

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newTestScheduler(t *testing.T, tickInterval, spawnInterval time.Duration) (*Scheduler, *mocks.MockSimulationService) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockSimulationService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		TickInterval:  tickInterval,
		SpawnInterval: spawnInterval,
	}
	return NewScheduler(mockService, logger, cfg), mockService
}

func TestScheduler_RunsTickAndSpawnJobs(t *testing.T) {
	scheduler, mockService := newTestScheduler(t, 10*time.Millisecond, 15*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	var tickOnce, spawnOnce sync.Once

	mockService.EXPECT().Tick(gomock.Any()).DoAndReturn(func(context.Context) error {
		tickOnce.Do(wg.Done)
		return nil
	}).MinTimes(1)
	mockService.EXPECT().SpawnIncident(gomock.Any()).DoAndReturn(func(context.Context) (*models.Incident, error) {
		spawnOnce.Do(wg.Done)
		return &models.Incident{ID: 1}, nil
	}).MinTimes(1)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler jobs did not run in time")
	}
	cancel()
	time.Sleep(20 * time.Millisecond) // даём горутинам завершиться до проверки моков
}

func TestScheduler_JobErrorDoesNotStopLoop(t *testing.T) {
	scheduler, mockService := newTestScheduler(t, 5*time.Millisecond, time.Hour)

	calls := make(chan struct{}, 10)
	mockService.EXPECT().Tick(gomock.Any()).DoAndReturn(func(context.Context) error {
		select {
		case calls <- struct{}{}:
		default:
		}
		return assert.AnError
	}).MinTimes(2)
	mockService.EXPECT().SpawnIncident(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)

	// Ошибка первого запуска не мешает последующим
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("tick job stopped after error")
		}
	}
}
