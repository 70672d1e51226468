package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MikeSquared-Agency/Scorecard/internal/hermes"
)

const requestTimeout = 30 * time.Second

// SetupSubscriptions lets other services request reports over NATS.
func (b *Broker) SetupSubscriptions() {
	if b.hermes == nil {
		return
	}

	err := b.hermes.Subscribe(hermes.SubjectReportRequest, func(_ string, data []byte) {
		var req hermes.ReportRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			b.logger.Warn("invalid report request event", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rep, err := b.Submit(ctx, SubmitRequest{
			Pipeline: req.Pipeline,
			Subject:  req.Subject,
			Inputs:   req.Inputs,
		})
		if err != nil {
			b.logger.Error("failed to assemble report from NATS request",
				"pipeline", req.Pipeline, "subject", req.Subject, "error", err)
			return
		}
		b.logger.Info("report created from NATS request", "report_id", rep.ID)
	})
	if err != nil {
		b.logger.Warn("failed to subscribe to report requests", "error", err)
	}
}
