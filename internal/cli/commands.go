package cli

import (
	"context"
	"fmt"
	"strings"

	urfave "github.com/urfave/cli/v3"

	"github.com/stoik/email-fraud-classifier/internal/application"
	"github.com/stoik/email-fraud-classifier/internal/domain"
)

const (
	historyLimitDefault = 10

	limitFlag  = "limit"
	formatFlag = "format"
)

func (a *app) loadCmd() *urfave.Command {
	return &urfave.Command{
		Name:      "load",
		Usage:     "Load and validate a labeled dataset",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			path := cmd.Args().First()
			if path == "" {
				a.println("error")
				a.println("Please provide a filepath for loading data.")
				return fmt.Errorf("missing dataset path")
			}

			result, err := a.newService(false).LoadDataset(ctx, path)
			if err != nil {
				a.println("error")
				a.println(err.Error())
				return err
			}

			a.println("success")
			a.printLoadResult(result)
			return nil
		},
	}
}

func (a *app) trainCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "train",
		Usage: "Train the classifier and report accuracy",
		Flags: []urfave.Flag{newDataFlag()},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			svc := a.newService(false)
			if err := a.loadForTraining(ctx, cmd, svc); err != nil {
				return err
			}

			report, err := svc.Train(ctx)
			if err != nil {
				a.println("error: Failed to train model")
				a.println(err.Error())
				return err
			}

			a.printReport(report)
			return nil
		},
	}
}

func (a *app) predictCmd() *urfave.Command {
	return &urfave.Command{
		Name:      "predict",
		Usage:     "Classify an email text",
		ArgsUsage: "<text...>",
		Flags:     []urfave.Flag{newDataFlag()},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			text := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				a.println("Please provide email text for prediction.")
				return fmt.Errorf("missing email text")
			}

			svc := a.newService(false)
			if err := a.loadForTraining(ctx, cmd, svc); err != nil {
				return err
			}
			if _, err := svc.Train(ctx); err != nil {
				a.println("error: Model could not be trained")
				a.println(err.Error())
				return err
			}

			prediction, err := svc.Predict(ctx, text)
			if err != nil {
				a.println("error")
				a.println(err.Error())
				return err
			}

			a.printf("Prediction: %s (Confidence: %.4f)\n", prediction.LabelName(), prediction.Confidence)
			return nil
		},
	}
}

func (a *app) historyCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "history",
		Usage: "List recent training runs and predictions",
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  limitFlag,
				Usage: "Limit the number of results",
				Value: historyLimitDefault,
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			limit := int(cmd.Int(limitFlag))
			if limit <= 0 {
				limit = historyLimitDefault
			}

			history, err := a.newService(false).History(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			return a.encode(cmd.String(formatFlag), history)
		},
	}
}

// loadForTraining loads --data (or the configured dataset) into svc.
// Each process rebuilds the model, so train and predict always load first.
func (a *app) loadForTraining(ctx context.Context, cmd *urfave.Command, svc *application.ClassificationService) error {
	result, err := svc.LoadDataset(ctx, a.dataPath(cmd))
	if err != nil {
		a.println("error: Failed to load data")
		a.println(err.Error())
		return err
	}
	if result.UsedDemoCorpus {
		a.logger.Info("No data loaded. Using demonstration corpus.")
	}
	return nil
}

func (a *app) printLoadResult(result application.LoadResult) {
	if result.UsedDemoCorpus {
		a.printf("Dataset unavailable (%v), using demonstration corpus with %d emails\n", result.Cause, result.Examples)
		return
	}
	a.printf("Dataset loaded with %d emails\n", result.Examples)
}

func (a *app) printReport(report domain.TrainingReport) {
	a.printf("Training Accuracy: %.4f\n", report.TrainAccuracy)
	a.printf("Testing Accuracy: %.4f\n", report.TestAccuracy)
	a.println()
	a.println("Classification Report:")
	a.printf("%-12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range report.Classes {
		a.printf("%-12s %10.2f %10.2f %10.2f %10d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
}
