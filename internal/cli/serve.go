package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/stoik/email-fraud-classifier/internal/adapters/httpapi"
	"github.com/stoik/email-fraud-classifier/internal/application"
	"github.com/stoik/email-fraud-classifier/internal/scheduler"
)

const (
	addrFlag            = "addr"
	retrainScheduleFlag = "retrain-schedule"
	autoTrainFlag       = "auto-train"
)

func (a *app) serveCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  addrFlag,
				Usage: "Address the HTTP API listens on (default: server.addr from config)",
			},
			newDataFlag(),
			&urfave.StringFlag{
				Name:  retrainScheduleFlag,
				Usage: "Cron expression for periodic retraining (default: scheduler.retrain_schedule from config)",
			},
			&urfave.BoolFlag{
				Name:  autoTrainFlag,
				Usage: "Train on the demonstration corpus when a prediction arrives before any training",
			},
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := a.cfg.Server.Addr
			if v := cmd.String(addrFlag); v != "" {
				addr = v
			}
			schedule := a.cfg.Scheduler.RetrainSchedule
			if v := cmd.String(retrainScheduleFlag); v != "" {
				schedule = v
			}

			svc := a.newService(cmd.Bool(autoTrainFlag))
			path := a.dataPath(cmd)
			if path != "" {
				if err := a.initialTraining(ctx, svc, path); err != nil {
					if a.strict {
						return err
					}
					a.logger.Warn("initial training failed, serving untrained", "path", path, "error", err)
				}
			}

			var sched *scheduler.Scheduler
			if schedule != "" {
				s, err := scheduler.New(schedule, scheduledRetrain(svc, path), a.logger)
				if err != nil {
					return err
				}
				sched = s
			}

			return a.run(ctx, addr, svc, sched)
		},
	}
}

func (a *app) initialTraining(ctx context.Context, svc *application.ClassificationService, path string) error {
	if _, err := svc.LoadDataset(ctx, path); err != nil {
		return err
	}
	_, err := svc.Train(ctx)
	return err
}

// scheduledRetrain never substitutes the demonstration corpus, a failed
// tick keeps the current model serving
func scheduledRetrain(svc *application.ClassificationService, path string) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := svc.Retrain(ctx, path)
		return err
	}
}

// run serves the API and, when configured, the retraining schedule until ctx
// is done or either fails
func (a *app) run(ctx context.Context, addr string, svc *application.ClassificationService, sched *scheduler.Scheduler) error {
	srv := httpapi.NewServer(addr, httpapi.NewHandler(svc, a.cfg.Dataset.Dir, a.logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpapi.Serve(gctx, srv, a.logger)
	})
	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}
	return g.Wait()
}
