package audit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Processor turns raw stream messages into structured audit log entries.
// It is the worker-side counterpart of Publisher.
type Processor struct {
	logger zerolog.Logger
}

func NewProcessor(logger zerolog.Logger) *Processor {
	return &Processor{logger: logger}
}

func (p *Processor) Handle(_ context.Context, msg redis.XMessage) error {
	action := stringValue(msg.Values, "action")
	if action == "" {
		return fmt.Errorf("message %s: missing action", msg.ID)
	}

	p.logger.Info().
		Str("message_id", msg.ID).
		Str("action", action).
		Str("actor_id", stringValue(msg.Values, "actorId")).
		Str("entity_id", stringValue(msg.Values, "entityId")).
		Str("detail", stringValue(msg.Values, "detail")).
		Str("at", stringValue(msg.Values, "at")).
		Msg("audit event")

	return nil
}

func stringValue(values map[string]interface{}, key string) string {
	v, ok := values[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
