package models

// ReminderMessage сгенерированный backend'ом текст напоминания.
type ReminderMessage struct {
	Message string `json:"message"`
}

// ReminderStatus результат отправки напоминания backend'ом.
type ReminderStatus struct {
	Status string `json:"status"`
}

// ReminderKind вид напоминания.
type ReminderKind string

const (
	// ReminderExpiring абонемент истекает в ближайшие дни.
	ReminderExpiring ReminderKind = "expiring"
	// ReminderExpired абонемент уже истёк.
	ReminderExpired ReminderKind = "expired"
)

// ReminderJob сообщение очереди напоминаний.
type ReminderJob struct {
	ID       string       `json:"id"`
	UserID   int64        `json:"user_id"`
	FullName string       `json:"full_name"`
	Email    string       `json:"email"`
	Mobile   string       `json:"mobile"`
	Plan     string       `json:"plan"`
	DaysLeft int          `json:"days_left"`
	Kind     ReminderKind `json:"kind"`
}
