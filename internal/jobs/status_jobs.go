package jobs

import (
	"context"

	"groupreview-bot/internal/logger"
)

// CheckBotStatus probes the bot backend so a dead connection shows up in
// the logs before join requests start failing.
func (jr *JobRunner) CheckBotStatus() {
	jr.runWithRecovery("CheckBotStatus", func() {
		if jr.status == nil {
			logger.Debug("No bot client bound, skipping status probe")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
		defer cancel()

		st, err := jr.status.GetStatus(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Bot status probe failed", "error", err)
			return
		}
		if !st.Online || !st.Good {
			logger.WarnContext(ctx, "Bot backend is unhealthy", "online", st.Online, "good", st.Good)
			return
		}
		logger.InfoContext(ctx, "Bot backend is healthy")
	})
}
