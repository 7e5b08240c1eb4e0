package audit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Actions recorded on the audit stream.
const (
	ActionLogin             = "auth.login"
	ActionLogout            = "auth.logout"
	ActionRegister          = "auth.register"
	ActionRefreshFailed     = "auth.refresh_failed"
	ActionUserCreated       = "user.created"
	ActionUserUpdated       = "user.updated"
	ActionUserDeleted       = "user.deleted"
	ActionRoleCreated       = "role.created"
	ActionRoleUpdated       = "role.updated"
	ActionRoleDeleted       = "role.deleted"
	ActionDepartmentCreated = "department.created"
	ActionDepartmentUpdated = "department.updated"
	ActionDepartmentDeleted = "department.deleted"
	ActionSessionsPurged    = "session.purged"
)

type Event struct {
	Action   string
	ActorID  string
	EntityID string
	Detail   string
}

// Publisher appends directory change events to a Redis stream consumed by
// the audit worker. A nil client disables publishing, which is how the
// standalone driver and the tests run.
type Publisher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client, stream string, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		log:    log,
	}
}

// Publish is best-effort: a failed append is logged, never surfaced, so an
// audit outage cannot fail a directory mutation.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"action":   event.Action,
			"actorId":  event.ActorID,
			"entityId": event.EntityID,
			"detail":   event.Detail,
			"at":       time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		p.log.Error().Err(err).Str("action", event.Action).Msg("audit publish failed")
	}
}
