// Package jobs runs the periodic lifecycle sweeps on asynq: completing bookings whose
// travel date has passed, expiring unpaid bookings and downgrading lapsed premium
// memberships.
package jobs

import (
	"context"
	"fmt"
	"time"

	"travelhub/internal/shared/config"
	"travelhub/pkg/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeCompleteDue   = "lifecycle:complete_due"
	TypeExpireUnpaid  = "lifecycle:expire_unpaid"
	TypeExpirePremium = "profiles:expire_premium"

	queue = "lifecycle"
)

type BookingSweeper interface {
	CompleteDue(ctx context.Context) (int64, error)
	ExpireUnpaid(ctx context.Context) (int, error)
}

type PremiumSweeper interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

// Handlers adapts the sweeps to asynq task handlers.
type Handlers struct {
	Bookings BookingSweeper
	Profiles PremiumSweeper
	Log      *logger.Logger
}

func (h *Handlers) HandleCompleteDue(ctx context.Context, _ *asynq.Task) error {
	n, err := h.Bookings.CompleteDue(ctx)
	if err != nil {
		return fmt.Errorf("complete due bookings: %w", err)
	}
	h.Log.InfoContext(ctx, "lifecycle sweep finished", "task", TypeCompleteDue, "completed", n)
	return nil
}

func (h *Handlers) HandleExpireUnpaid(ctx context.Context, _ *asynq.Task) error {
	n, err := h.Bookings.ExpireUnpaid(ctx)
	if err != nil {
		return fmt.Errorf("expire unpaid bookings: %w", err)
	}
	h.Log.InfoContext(ctx, "lifecycle sweep finished", "task", TypeExpireUnpaid, "expired", n)
	return nil
}

func (h *Handlers) HandleExpirePremium(ctx context.Context, _ *asynq.Task) error {
	n, err := h.Profiles.ExpireLapsed(ctx)
	if err != nil {
		return fmt.Errorf("expire premium memberships: %w", err)
	}
	h.Log.InfoContext(ctx, "lifecycle sweep finished", "task", TypeExpirePremium, "downgraded", n)
	return nil
}

// NewServeMux maps each task type to its handler.
func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCompleteDue, h.HandleCompleteDue)
	mux.HandleFunc(TypeExpireUnpaid, h.HandleExpireUnpaid)
	mux.HandleFunc(TypeExpirePremium, h.HandleExpirePremium)
	return mux
}

// Schedule is one periodic task.
type Schedule struct {
	Spec     string
	TaskType string
}

func Schedules(cfg config.JobsConfig) []Schedule {
	var out []Schedule
	if cfg.CompleteDueSpec != "" {
		out = append(out, Schedule{Spec: cfg.CompleteDueSpec, TaskType: TypeCompleteDue})
	}
	if cfg.ExpireUnpaidSpec != "" && cfg.UnpaidBookingTTL > 0 {
		out = append(out, Schedule{Spec: cfg.ExpireUnpaidSpec, TaskType: TypeExpireUnpaid})
	}
	if cfg.ExpirePremiumSpec != "" {
		out = append(out, Schedule{Spec: cfg.ExpirePremiumSpec, TaskType: TypeExpirePremium})
	}
	return out
}

// Runner owns the asynq scheduler that enqueues the sweeps and the server that runs them.
type Runner struct {
	scheduler *asynq.Scheduler
	server    *asynq.Server
	mux       *asynq.ServeMux
	log       *logger.Logger
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

func NewRunner(redisOpt asynq.RedisConnOpt, cfg config.JobsConfig, h *Handlers, log *logger.Logger) (*Runner, error) {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 2
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
	for _, s := range Schedules(cfg) {
		// a sweep that is still queued is not enqueued again
		_, err := scheduler.Register(s.Spec, asynq.NewTask(s.TaskType, nil),
			asynq.Queue(queue), asynq.Unique(time.Minute), asynq.MaxRetry(1))
		if err != nil {
			return nil, fmt.Errorf("register %s (%q): %w", s.TaskType, s.Spec, err)
		}
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})
	return &Runner{scheduler: scheduler, server: server, mux: NewServeMux(h), log: log}, nil
}

func (r *Runner) Start() error {
	if err := r.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := r.server.Start(r.mux); err != nil {
		r.scheduler.Shutdown()
		return fmt.Errorf("start job server: %w", err)
	}
	r.log.Info("lifecycle jobs started")
	return nil
}

func (r *Runner) Stop() {
	r.scheduler.Shutdown()
	r.server.Shutdown()
	r.log.Info("lifecycle jobs stopped")
}
