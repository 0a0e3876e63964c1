package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"feedback-insights-go/internal/classifier"
	"feedback-insights-go/internal/config"
	"feedback-insights-go/internal/dataset"
	"feedback-insights-go/internal/logger"
	"feedback-insights-go/internal/pipeline"
	"feedback-insights-go/internal/types"
)

var stageNames = map[string]types.Stage{
	"categories":         types.StageQuestionCategory,
	"comment-categories": types.StageCommentCategory,
	"scenarios":          types.StageScenario,
}

func main() {
	_ = godotenv.Load() // loads .env

	stagesFlag := flag.String("stages", "all", "comma-separated stages to run: categories,comment-categories,scenarios,merge or all")
	flag.Parse()

	log := logger.New()
	log.WithField("service", "feedback-insights-go").Info("starting run")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	stages, doMerge, err := parseStages(*stagesFlag)
	if err != nil {
		log.WithError(err).Fatal("invalid -stages")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := dataset.NewStore(cfg.DataDir, cfg.FeedbackFile, cfg.MappedFile, log.Entry)
	cls := classifier.New(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.RequestTimeout())
	ctrl := pipeline.New(cfg, store, cls, log.Entry)

	result, err := ctrl.Run(ctx, stages, doMerge)
	if err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
	if result.Aborted {
		os.Exit(2)
	}
}

// parseStages resolves the -stages flag into the ordered stage list and the
// merge switch. "all" runs the full pipeline in canonical order.
func parseStages(raw string) ([]types.Stage, bool, error) {
	if raw == "all" || raw == "" {
		return []types.Stage{
			types.StageQuestionCategory,
			types.StageCommentCategory,
			types.StageScenario,
		}, true, nil
	}

	var stages []types.Stage
	doMerge := false
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if name == "merge" {
			doMerge = true
			continue
		}
		st, ok := stageNames[name]
		if !ok {
			return nil, false, fmt.Errorf("unknown stage %q", name)
		}
		stages = append(stages, st)
	}
	if len(stages) == 0 && !doMerge {
		return nil, false, fmt.Errorf("no stages selected in %q", raw)
	}
	return stages, doMerge, nil
}
