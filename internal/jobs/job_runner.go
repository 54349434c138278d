package jobs

import (
	"time"

	"groupreview-bot/internal/config"
	"groupreview-bot/internal/logger"
	"groupreview-bot/internal/onebot"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	status onebot.StatusChecker
	config *config.Config
	// timeout bounds a single probe
	timeout time.Duration
}

// NewJobRunner creates a new job runner. status may be nil when no bot
// client is bound.
func NewJobRunner(status onebot.StatusChecker, cfg *config.Config) *JobRunner {
	timeout := time.Duration(cfg.OneBot.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JobRunner{
		status:  status,
		config:  cfg,
		timeout: timeout,
	}
}

// Config returns the configuration jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Debug("Starting job", "job", jobName)
	jobFunc()
	logger.Debug("Job completed", "job", jobName)
}
