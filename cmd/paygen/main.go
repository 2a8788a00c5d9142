package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"paygen/internal/config"
	"paygen/internal/models"
	"paygen/internal/services/generator"
)

func main() {
	var (
		initial     = flag.Bool("initial", false, "generate an initial dataset")
		incremental = flag.Bool("incremental", false, "continue an existing dataset")
		startDate   = flag.String("start-date", "", "initial run start date (YYYY-MM-DD)")
		endDate     = flag.String("end-date", "", "initial run end date (YYYY-MM-DD)")
		date        = flag.String("date", "", "incremental target date (YYYY-MM-DD); defaults to the day after the last generated date")
		outputDir   = flag.String("output-dir", "", "output directory (overrides config)")
		seed        = flag.Int64("seed", 0, "random seed; 0 seeds from the clock")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	svc, err := generator.NewService(cfg, logger)
	if err != nil {
		logger.Fatalf("build generator: %v", err)
	}

	var summary *generator.RunSummary
	switch {
	case *initial && *incremental:
		logger.Fatal("specify either --initial or --incremental, not both")
	case *initial:
		summary, err = svc.RunInitial(generator.InitialRequest{
			StartDate: mustParseDate(logger, "start-date", *startDate),
			EndDate:   mustParseDate(logger, "end-date", *endDate),
		})
	case *incremental:
		req := generator.IncrementalRequest{}
		if *date != "" {
			req.TargetDate = mustParseDate(logger, "date", *date)
		}
		summary, err = svc.RunIncremental(req)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("generation failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"lineage":      summary.LineageID,
		"range":        summary.StartDate.String() + ".." + summary.EndDate.String(),
		"transactions": summary.Transactions,
		"merchants":    summary.ActiveMerchants,
		"card_pool":    summary.CardPoolSize,
	}).Info("generation complete")
}

func mustParseDate(logger *logrus.Logger, name, value string) models.Date {
	if value == "" {
		logger.Fatalf("--%s is required", name)
	}
	d, err := models.ParseDate(value)
	if err != nil {
		logger.Fatalf("--%s: %v", name, err)
	}
	return d
}
