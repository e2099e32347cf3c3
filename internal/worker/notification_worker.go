package worker

import (
	"github.com/spec-kit/pet-adoption/internal/events"
	"github.com/spec-kit/pet-adoption/internal/service"
)

// StartNotificationWorker registers notification handlers and, when
// configured, the Redis relay on the dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, relay *events.RedisRelay) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	relay.Register(dispatcher)
}
