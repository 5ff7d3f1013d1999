package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/internal/analysis"
	"github.com/whoknowsbruh3425/BDA/internal/dashboard"
	"github.com/whoknowsbruh3425/BDA/pkg/archive"
	"github.com/whoknowsbruh3425/BDA/pkg/changestream"
	"github.com/whoknowsbruh3425/BDA/pkg/config"
	"github.com/whoknowsbruh3425/BDA/pkg/export"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/publisher"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/snapshot"
	"github.com/whoknowsbruh3425/BDA/pkg/source"
	"github.com/whoknowsbruh3425/BDA/pkg/worker"
)

var errUsage = errors.New("invalid usage")

const importBatchSize = 500

// app holds the components shared by every command
type app struct {
	cfg    *config.AppConfig
	logger *logger.Logger
	out    io.Writer

	source  source.Source
	mongo   *source.MongoSource
	archive *archive.PGArchive
	sinks   report.MultiSink
	wired   bool
	closers []func(context.Context) error
}

func newApp(cfg *config.AppConfig, l *logger.Logger) *app {
	a := &app{cfg: cfg, logger: l, out: os.Stdout}

	var base source.Source
	switch cfg.Source.Kind {
	case config.SourceFile:
		base = source.NewFileSource(cfg.Source.FilePath)
	case config.SourceKafka:
		base = source.NewKafkaSource(cfg.Source.Brokers, cfg.Source.Topic, l.Named("source"))
	default:
		a.mongo = source.NewMongoSource(cfg.MongoDB, l.Named("source"))
		a.closers = append(a.closers, a.mongo.Close)
		base = a.mongo
	}

	a.source = base
	if store := a.snapshotStore(); store != nil {
		a.source = source.NewCachedSource(base, store, cfg.Cache.TTL, l.Named("cache"))
	}
	return a
}

func (a *app) snapshotStore() snapshot.Store {
	switch a.cfg.Cache.Backend {
	case config.CacheFile:
		return snapshot.NewFileStore(a.cfg.Cache.Path)
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.Cache.RedisAddr})
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return snapshot.NewRedisStore(client, a.cfg.Cache.Key, a.cfg.Cache.TTL)
	default:
		return nil
	}
}

// reportSinks connects the archive and publisher once. An unreachable
// archive is logged and skipped.
func (a *app) reportSinks(ctx context.Context) report.MultiSink {
	if a.wired {
		return a.sinks
	}
	a.wired = true

	if a.cfg.Postgres.URI != "" {
		arch, err := archive.NewPGArchive(ctx, a.cfg.Postgres, a.logger.Named("archive"))
		if err == nil {
			err = arch.EnsureSchema(ctx)
			if err != nil {
				arch.Close()
			}
		}
		if err != nil {
			a.logger.Error("report archive unavailable", err)
		} else {
			a.archive = arch
			a.sinks = append(a.sinks, arch)
			a.closers = append(a.closers, func(context.Context) error { return arch.Close() })
		}
	}

	if len(a.cfg.Kafka.Brokers) > 0 {
		pub := publisher.NewKafkaPublisher(publisher.Config{
			Brokers: a.cfg.Kafka.Brokers,
			Topic:   a.cfg.Kafka.Topic,
		})
		a.sinks = append(a.sinks, pub)
		a.closers = append(a.closers, func(context.Context) error { return pub.Close() })
	}
	return a.sinks
}

func (a *app) options() analysis.Options {
	return analysis.Options{
		CleanRanges: a.cfg.Analysis.CleanRanges,
		MinRecords:  a.cfg.Analysis.MinRecords,
	}
}

// Close releases every connection in reverse order of creation
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "scenarios":
		return a.listScenarios()

	case "overview":
		return a.runReports(ctx, []string{analysis.OverviewName}, "")

	case "run":
		if len(args) == 0 {
			return fmt.Errorf("%w: run needs at least one scenario name or all", errUsage)
		}
		return a.runReports(ctx, args, "")

	case "export":
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		dir := fs.String("dir", a.cfg.Export.Dir, "directory for exported reports")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return a.runReports(ctx, []string{"all", analysis.OverviewName}, *dir)

	case "serve":
		fs := flag.NewFlagSet("serve", flag.ContinueOnError)
		addr := fs.String("addr", a.cfg.Server.Addr, "listen address")
		watch := fs.Bool("watch", a.cfg.Server.WatchChanges, "reload when the MongoDB collection changes")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return a.serve(ctx, *addr, *watch)

	case "import":
		if len(args) != 1 {
			return fmt.Errorf("%w: import needs exactly one file", errUsage)
		}
		return a.importFile(ctx, args[0])

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func (a *app) listScenarios() error {
	engine := analysis.NewEngine(analysis.Snapshot{}, a.options(), a.logger)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, info := range engine.Catalog() {
		fmt.Fprintf(tw, "%s\t%s\n", info.Name, info.Title)
	}
	return tw.Flush()
}

// runReports loads one snapshot, runs the named reports concurrently and
// prints them in the order asked. A non-empty exportDir also writes files;
// unlike the other sinks a failed export fails the command.
func (a *app) runReports(ctx context.Context, names []string, exportDir string) error {
	names, err := expand(analysis.NewEngine(analysis.Snapshot{}, a.options(), a.logger), names)
	if err != nil {
		return err
	}

	snap, err := analysis.LoadSnapshot(ctx, a.source)
	if err != nil {
		return err
	}
	engine := analysis.NewEngine(snap, a.options(), a.logger)

	var sink report.Sink
	if sinks := a.reportSinks(ctx); len(sinks) > 0 {
		sink = sinks
	}

	results, err := worker.RunAll(ctx, a.logger, engine, sink, a.cfg.Analysis.Workers, names)

	var produced []*report.Report
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.out, "\n%v\n", res.Err)
			continue
		}
		produced = append(produced, res.Report)
		if err := report.Render(a.out, res.Report); err != nil {
			return err
		}
	}

	if err != nil {
		return err
	}
	if len(produced) == 0 {
		return errors.New("no report could be produced")
	}

	if exportDir != "" {
		exporter := export.NewExporter(exportDir, a.logger.Named("export"))
		exportErr := exporter.WriteBatch(ctx, produced)
		for _, path := range exporter.Written() {
			fmt.Fprintf(a.out, "exported %s\n", path)
		}
		if exportErr != nil {
			return fmt.Errorf("export to %s: %w", exportDir, exportErr)
		}
	}
	return nil
}

// expand resolves "all" and rejects unknown names before any work starts
func expand(engine *analysis.Engine, names []string) ([]string, error) {
	known := make(map[string]bool)
	for _, info := range engine.Catalog() {
		known[info.Name] = true
	}

	var out []string
	for _, name := range names {
		if name == "all" {
			out = append(out, engine.Names()...)
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("%w: %w: %q", errUsage, analysis.ErrUnknownScenario, name)
		}
		out = append(out, name)
	}
	return out, nil
}

func (a *app) serve(ctx context.Context, addr string, watch bool) error {
	svc := dashboard.NewService(a.logger, dashboard.Config{
		Addr:    addr,
		Options: a.options(),
	}, a.source)

	if sinks := a.reportSinks(ctx); len(sinks) > 0 {
		svc.WithSink(sinks)
	}
	if a.archive != nil {
		svc.WithHistory(a.archive)
	}

	if watch {
		if a.mongo == nil {
			return errors.New("watching for changes needs source.kind mongodb")
		}
		coll, err := a.mongo.Collection(ctx)
		if err != nil {
			return err
		}
		svc.WithWatcher(changestream.NewMongoWatcher(coll))
	}

	return svc.Start(ctx)
}

func (a *app) importFile(ctx context.Context, path string) error {
	if a.mongo == nil {
		return errors.New("import needs source.kind mongodb")
	}

	records, err := source.NewFileSource(path).Load(ctx)
	if err != nil {
		return err
	}

	n, err := a.mongo.Insert(ctx, records, importBatchSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %d of %d records into %s\n", n, len(records), a.mongo.Name())
	return nil
}
