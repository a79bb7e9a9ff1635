package rabbitmq

import "github.com/magabrotheeeer/gym-console/internal/models"

// ReminderExchange direct exchange для заданий на напоминание.
const ReminderExchange = "reminders"

// QueueConfig очередь и ключ маршрутизации, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReminderQueues возвращает очереди для каждого вида напоминаний.
func GetReminderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueName(models.ReminderExpiring), RoutingKey: string(models.ReminderExpiring)},
		{QueueName: QueueName(models.ReminderExpired), RoutingKey: string(models.ReminderExpired)},
	}
}

// QueueName имя очереди для вида напоминаний.
func QueueName(kind models.ReminderKind) string {
	return ReminderExchange + "." + string(kind)
}
