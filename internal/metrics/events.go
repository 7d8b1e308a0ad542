package metrics

import "time"

// ProcessorCompleted records a successful processor run.
func ProcessorCompleted(processor string, duration time.Duration) {
	ProcessorDuration.WithLabelValues(processor).Observe(duration.Seconds())
}

// WebhookEventProcessed counts one event by outcome ("processed" or "failed").
func WebhookEventProcessed(ok bool) {
	if ok {
		WebhookEventsTotal.WithLabelValues("processed").Inc()
		return
	}
	WebhookEventsTotal.WithLabelValues("failed").Inc()
}

// TelegramCall counts one Bot API call by method and outcome.
func TelegramCall(method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TelegramAPICalls.WithLabelValues(method, status).Inc()
}
