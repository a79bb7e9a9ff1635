// Package models содержит DTO, которыми консоль обменивается с backend'ом
// спортзала: пользователи, абонементы, платежи, выручка, напоминания и
// заявка на регистрацию. Все сущности принадлежат backend'у, консоль
// их не изменяет.
package models

// UserStatus статус жизненного цикла пользователя на стороне backend'а.
type UserStatus string

const (
	// UserActive активный пользователь.
	UserActive UserStatus = "ACTIVE"
	// UserInactive отключённый пользователь.
	UserInactive UserStatus = "INACTIVE"
)

// User представляет члена клуба вместе с абонементом и историей платежей.
type User struct {
	ID                int64       `json:"id"`
	FullName          string      `json:"fullName"`
	Email             string      `json:"email"`
	MobileNumber      string      `json:"mobileNumber"`
	DateOfBirth       Date        `json:"dateOfBirth"`
	ProfilePictureURL string      `json:"profilePictureUrl,omitempty"`
	JoinDate          Date        `json:"joinDate"`
	Status            UserStatus  `json:"status"`
	Membership        *Membership `json:"membership,omitempty"`
	Payments          []Payment   `json:"payments"`
}

// MembershipName возвращает название абонемента или пустую строку.
func (u User) MembershipName() string {
	if u.Membership == nil {
		return ""
	}
	return u.Membership.Name
}
