package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	"github.com/smallbiznis/hirehub/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobBillingSweep = "billing_sweep"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	BillingSvc billingdomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	billing billingdomain.Service

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.BillingSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		return nil, fmt.Errorf("%w: sweep schedule %q: %v", ErrInvalidConfig, cfg.SweepSchedule, err)
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     cfg,
		genID:   p.GenID,
		clock:   p.Clock,
		billing: p.BillingSvc,
	}, nil
}

// runJob executes fn under a timeout. A deadline is treated as a soft failure.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	s.logJobStart(run)

	err := fn(ctx)
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(run)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.String("run_id", run.runID),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.cfg.SweepEnabled {
		return nil
	}
	return s.runJob(ctx, JobBillingSweep, s.cfg.SweepTimeout, s.BillingSweepJob)
}

// BillingSweepJob moves expired trials and lapsed subscriptions to past_due.
func (s *Scheduler) BillingSweepJob(ctx context.Context) error {
	result, err := s.billing.SweepExpired(ctx)
	if err != nil {
		return err
	}
	run := jobRunFromContext(ctx)
	run.AddProcessed(result.TrialsExpired + result.ActiveLapsed)
	if result.TrialsExpired+result.ActiveLapsed > 0 {
		s.log.Info("billing sweep expired employers",
			zap.Int("trials_expired", result.TrialsExpired),
			zap.Int("active_lapsed", result.ActiveLapsed),
		)
	}
	return nil
}

// Start registers the jobs on a cron runner. Overlapping runs are skipped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	logger := cronLogger{log: s.log.Sugar()}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	ctx, cancel := context.WithCancel(context.Background())

	if s.cfg.SweepEnabled {
		if _, err := c.AddFunc(s.cfg.SweepSchedule, func() {
			if err := s.RunOnce(ctx); err != nil {
				s.log.Warn("scheduler run failed", zap.Error(err))
			}
		}); err != nil {
			cancel()
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.log.Info("scheduler started",
		zap.Bool("sweep_enabled", s.cfg.SweepEnabled),
		zap.String("sweep_schedule", s.cfg.SweepSchedule),
	)
	return nil
}

// Stop cancels in-flight jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	cancel()
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
