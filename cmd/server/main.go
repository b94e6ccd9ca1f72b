package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forgecd.dev/core/config"
	"forgecd.dev/core/deployexec"
	"forgecd.dev/core/httpapi"
	"forgecd.dev/core/imagebuilder"
	"forgecd.dev/core/logging"
	"forgecd.dev/core/model"
	"forgecd.dev/core/repoinspect"
	"forgecd.dev/core/scheduler"
	"forgecd.dev/core/store"
	"forgecd.dev/core/trigger"
	"forgecd.dev/core/wsstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogPath)
	log := logging.Component(logger, "main")

	pipelines, err := store.NewPipelineStore(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("opening pipeline store")
	}
	buildTasks, err := store.NewBuildTaskStore(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("opening build task store")
	}
	deployTasks, err := store.NewDeployTaskStore(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("opening deploy task store")
	}
	hosts, err := store.NewHostStore(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("opening host store")
	}

	// Crash recovery (spec.md §4.3/§4.4): sweep every task still
	// running/pending before the index or scheduler sees them, then
	// rebuild the sqlite secondary index from the now-consistent set.
	if n, err := buildTasks.SweepStale(); err != nil {
		log.WithError(err).Fatal("sweeping stale build tasks")
	} else if n > 0 {
		log.WithField("count", n).Warn("swept stale build tasks to failed on boot")
	}
	if n, err := deployTasks.SweepStale(); err != nil {
		log.WithError(err).Fatal("sweeping stale deploy tasks")
	} else if n > 0 {
		log.WithField("count", n).Warn("swept stale deploy tasks to failed on boot")
	}

	index, err := store.OpenIndex(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("opening task index")
	}
	allTasks, err := buildTasks.All()
	if err != nil {
		log.WithError(err).Fatal("listing build tasks for index rebuild")
	}
	if err := index.Rebuild(allTasks); err != nil {
		log.WithError(err).Fatal("rebuilding task index")
	}
	buildTasks.SetIndex(index)

	inspector := repoinspect.NewInspector(logging.Component(logger, "repoinspect"), 5*time.Minute)

	var remoteResources *imagebuilder.RemoteResourceFetcher
	if cfg.B2Enabled() {
		remoteResources = imagebuilder.NewRemoteResourceFetcher(cfg.B2AccountID, cfg.B2ApplicationKey, cfg.B2BucketName, "resources")
	}
	builder, err := imagebuilder.New(cfg.DockerHost, cfg.DataDir+"/builds", logging.Component(logger, "imagebuilder"), nil, remoteResources)
	if err != nil {
		log.WithError(err).Fatal("initializing image builder")
	}

	hub := wsstream.NewHub()
	wsServer := wsstream.NewServer(hub)

	sched := scheduler.New(logging.Component(logger, "scheduler"), pipelines, buildTasks, builder, hub, cfg.WorkerCount)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	sched.RecoverQueue(nil)

	onCronDue := func(p *model.Pipeline) {
		branch := p.Branch
		tag := trigger.ResolveTag(p, branch)
		if _, err := sched.Enqueue(p, trigger.NewCronTrigger(p.CronExpression), branch, tag, ""); err != nil {
			log.WithError(err).WithField("pipeline_id", p.PipelineID).Warn("cron enqueue failed")
		}
	}
	cronRunner := trigger.NewCronRunner(logging.Component(logger, "cron"), pipelines, cfg.CronTickInterval, onCronDue)
	go cronRunner.Run(ctx)

	webhookLimiter := trigger.NewWebhookLimiter(cfg.WebhookRateLimitPerMinute)

	registry := deployexec.NewRegistry()
	executor := deployexec.New(logging.Component(logger, "deployexec"), deployTasks, hosts, registry)

	app := &httpapi.App{
		Config:         cfg,
		Log:            logging.Component(logger, "httpapi"),
		Pipelines:      pipelines,
		BuildTasks:     buildTasks,
		DeployTasks:    deployTasks,
		Hosts:          hosts,
		Index:          index,
		Inspector:      inspector,
		Scheduler:      sched,
		Executor:       executor,
		Registry:       registry,
		WebhookLimiter: webhookLimiter,
		WSHub:          hub,
		WSServer:       wsServer,
	}
	router := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
