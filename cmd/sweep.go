package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/angeloszaimis/fleet-monitor/config"
	apperrors "github.com/angeloszaimis/fleet-monitor/internal/errors"
	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
	"github.com/angeloszaimis/fleet-monitor/internal/healthcheck"
	"github.com/angeloszaimis/fleet-monitor/internal/inventory"
	"github.com/angeloszaimis/fleet-monitor/internal/metrics"
	"github.com/angeloszaimis/fleet-monitor/internal/probe"
	"github.com/angeloszaimis/fleet-monitor/internal/remote"
	"github.com/angeloszaimis/fleet-monitor/internal/report"
	"github.com/angeloszaimis/fleet-monitor/internal/retry"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

const metricsBufferSize = 1024

func runSweep(ctx context.Context, opts *rootOptions, failOnInvestigation bool) error {
	cfg, err := config.Load(opts.configFile, opts.overrides)
	if err != nil {
		return apperrors.ConfigError("failed to load config", err)
	}

	log, closeLog, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return apperrors.ConfigError("failed to open log file", err)
	}
	defer closeLog.Close()

	inv, err := inventory.Load(cfg.Inventory.File)
	if err != nil {
		log.Error("Failed to load inventory",
			slog.String("file", cfg.Inventory.File),
			slog.Any("err", err))
		return apperrors.InventoryError("failed to load inventory", err)
	}

	dialer, err := remote.NewSSHDialer(sshConfig(cfg))
	if err != nil {
		log.Error("Failed to configure SSH", slog.Any("err", err))
		return apperrors.ConfigError("failed to configure ssh", err)
	}
	defer dialer.Close()
	if err := dialer.AuthError(); err != nil {
		log.Warn("No SSH key available, service checks will fail", slog.Any("err", err))
	}

	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(context.Background())

	checker := healthcheck.NewChecker(buildProbes(cfg, dialer, collector, log), collector, log)
	results := fleet.NewResults()
	summary, sweepErr := healthcheck.NewSweeper(checker, cfg.Sweep.Workers, log).Sweep(ctx, inv.Targets(), results)
	collector.Stop()

	rep := report.Report{
		RunID:    summary.RunID,
		Started:  summary.Started,
		Finished: summary.Finished,
		Skipped:  summary.Skipped,
		Results:  results,
		Metrics:  collector.Snapshot(),
	}
	// Verdicts recorded before an interruption are still published.
	if err := report.PublishAll(context.WithoutCancel(ctx), rep, log, buildSinks(cfg, collector, log)...); err != nil {
		return apperrors.ReportError("failed to publish report", err)
	}

	if sweepErr != nil {
		return apperrors.Wrap(apperrors.ExitGeneralError, "sweep did not complete", sweepErr)
	}
	if failOnInvestigation && results.Overall() == fleet.VerdictInvestigationNeeded {
		return apperrors.InvestigationNeeded(results.Failing())
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg.Logging.File == "" {
		return logger.New(cfg.Logging.Level, false, cfg.Environment, logger.WithWriter(console)), nopCloser{}, nil
	}
	out, closer, err := logger.TeeFile(console, cfg.Logging.File)
	if err != nil {
		return nil, nil, err
	}
	return logger.New(cfg.Logging.Level, false, cfg.Environment, logger.WithWriter(out)), closer, nil
}

func sshConfig(cfg *config.Config) remote.Config {
	rc := remote.Config{
		User:              cfg.SSH.User,
		Port:              cfg.SSH.Port,
		Timeout:           cfg.SSH.Timeout,
		KeyFiles:          cfg.SSH.KeyFiles,
		KnownHostsFile:    cfg.SSH.KnownHostsFile,
		TrustUnknownHosts: cfg.SSH.TrustUnknownHosts,
	}
	if cfg.SSH.UseAgent {
		rc.AgentSocket = cfg.SSH.AgentSocket
	}
	return rc
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.SSH.Retry.MaxAttempts,
		Backoff:     retry.Backoff(cfg.SSH.Retry.Backoff),
		Interval:    cfg.SSH.Retry.Interval,
	}
}

func buildProbes(cfg *config.Config, dialer remote.Dialer, events healthcheck.Emitter, log *slog.Logger) healthcheck.Probes {
	channel := remote.NewChannel(dialer, retryPolicy(cfg), log)

	return healthcheck.Probes{
		ICMP: probe.NewICMP(probe.ExecRunner{}, cfg.Probes.ICMP.Command, cfg.Probes.ICMP.Count, log),
		Ports: probe.NewPortScanner(
			cfg.Probes.Ports.SSHPort,
			cfg.Probes.Ports.Timeout,
			probe.Aggregate(cfg.Probes.Ports.Aggregate),
			log,
		),
		Service: probe.NewService(channel, cfg.Probes.Service.Command, cfg.Probes.Service.RequirePID, log),
		HTTP: probe.NewHTTP(probe.HTTPConfig{
			Attempts:           cfg.Probes.HTTP.Attempts,
			TimeoutBase:        cfg.Probes.HTTP.TimeoutBase,
			TimeoutInterval:    cfg.Probes.HTTP.TimeoutInterval,
			Aggregate:          probe.Aggregate(cfg.Probes.HTTP.Aggregate),
			InsecureSkipVerify: cfg.Probes.HTTP.InsecureSkipVerify,
		}, log, probe.WithAttemptObserver(healthcheck.ObserveHTTP(events))),
	}
}

func buildSinks(cfg *config.Config, textfile report.TextfileWriter, log *slog.Logger) []report.Sink {
	var sinks []report.Sink

	if cfg.Report.JSON.File != "" {
		sinks = append(sinks, report.NewJSONSink(cfg.Report.JSON.File))
	}
	if cfg.Report.Metrics.Textfile != "" {
		sinks = append(sinks, report.NewMetricsSink(textfile, cfg.Report.Metrics.Textfile))
	}
	if cfg.Report.Email.Enabled {
		email := report.EmailConfig{
			APIKey:    cfg.Report.Email.APIKey,
			FromEmail: cfg.Report.Email.From,
			FromName:  cfg.Report.Email.FromName,
			To:        cfg.Report.Email.To,
		}
		if cfg.Report.Email.AttachLog {
			email.LogFile = cfg.Logging.File
		}
		sinks = append(sinks, report.NewEmailSink(email, log))
	}
	return sinks
}
