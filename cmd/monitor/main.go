package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davidleitw/msgarchive/internal/config"
	"github.com/davidleitw/msgarchive/internal/craw"
	"github.com/davidleitw/msgarchive/internal/db"
	"github.com/davidleitw/msgarchive/internal/monitor"
	"github.com/davidleitw/msgarchive/internal/parser"
	"github.com/davidleitw/msgarchive/internal/rule"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetReportCaller(true)
}

func main() {
	if err := config.LoadEnv(); err != nil {
		logrus.Fatalf("Error loading .env file: %v", err)
	}
	cfg := config.Load()

	sync := flag.Bool("sync", false, "Store every valid change in the SQLite archive database")
	dbPath := flag.String("db", cfg.DBPath, "SQLite archive database used with -sync")
	interval := flag.Duration("interval", cfg.WatchInterval, "Time between two polls of a file")
	maxFailure := flag.Int("max-failure", rule.DefaultMaxFailure, "Stop watching a file after this many failed reads")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: monitor [flags] file-or-url ...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var store db.ArchiveDB
	if *sync {
		store = db.NewArchiveDb(*dbPath)
		if err := store.Open(); err != nil {
			logrus.WithError(err).Error("store.Open failed")
			return
		}
		defer store.Close()
	}

	rules := make([]*rule.WatchRule, 0, flag.NArg())
	for _, path := range flag.Args() {
		watch, err := rule.NewWatchRule(
			rule.Path(path),
			rule.SyncLocalDb(*sync),
			rule.PokeInterval(*interval),
			rule.MaxFailure(*maxFailure),
		)
		if err != nil {
			logrus.WithError(err).Error("rule.NewWatchRule failed")
			return
		}
		rules = append(rules, watch)
	}

	p := parser.New(
		parser.Verbose(cfg.Verbose),
		parser.MaxIncludeDepth(cfg.MaxIncludeDepth),
		parser.WithFetcher(craw.NewCrawler(craw.Timeout(cfg.FetchTimeout))),
	)
	if err := monitor.NewMonitor(p, store, rules...).Run(); err != nil {
		logrus.WithError(err).Error("monitor.Run failed")
	}
}
