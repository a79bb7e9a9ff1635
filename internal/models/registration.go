package models

import "github.com/shopspring/decimal"

// PaymentMethod способ оплаты при регистрации.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCard         PaymentMethod = "CARD"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// RegistrationRequest JSON-часть multipart-запроса регистрации пользователя.
type RegistrationRequest struct {
	FullName      string          `json:"fullName"`
	Email         string          `json:"email"`
	MobileNumber  string          `json:"mobileNumber"`
	DateOfBirth   string          `json:"dateOfBirth"`
	JoinDate      string          `json:"joinDate"`
	MembershipID  int64           `json:"membershipId"`
	TotalFee      decimal.Decimal `json:"totalFee"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"paymentDate"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Remarks       string          `json:"remarks"`
	Status        UserStatus      `json:"status"`
}

// ProfilePicture файл фотографии, прикладываемый к регистрации.
type ProfilePicture struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegistrationResult ответ backend'а на регистрацию.
type RegistrationResult struct {
	ReceiptURL string `json:"receiptUrl"`
}

// LoginRequest учётные данные администратора.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}
