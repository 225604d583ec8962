package scheduler

import (
	"context"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
	"github.com/sirupsen/logrus"
)

// Scheduler - структура для периодического запуска задач симуляции:
// продвижение мира (tick) и генерация новых инцидентов (spawn)
type Scheduler struct {
	simulationService service.SimulationService
	logger            *logrus.Logger
	cfg               *config.Config
}

// NewScheduler создает новый Scheduler
func NewScheduler(simulationService service.SimulationService, logger *logrus.Logger, cfg *config.Config) *Scheduler {
	return &Scheduler{
		simulationService: simulationService,
		logger:            logger,
		cfg:               cfg,
	}
}

// Start запускает горутины периодических задач. Останавливаются по отмене контекста.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.WithFields(logrus.Fields{
		"tick_interval":  s.cfg.TickInterval,
		"spawn_interval": s.cfg.SpawnInterval,
	}).Info("Starting simulation scheduler...")

	go s.runTicker(ctx, "tick", s.cfg.TickInterval, s.simulationService.Tick)
	go s.runTicker(ctx, "spawn", s.cfg.SpawnInterval, func(ctx context.Context) error {
		_, err := s.simulationService.SpawnIncident(ctx)
		return err
	})
}

// runTicker выполняет job каждые interval. Ошибка job логируется и не
// останавливает цикл: следующий запуск пойдет по расписанию.
func (s *Scheduler) runTicker(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	log := s.logger.WithField("job", name)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping scheduler job.")
			return
		case <-ticker.C:
			if err := job(ctx); err != nil {
				log.WithError(err).Error("Scheduled job failed")
			}
		}
	}
}
