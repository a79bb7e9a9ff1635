package models

import "github.com/shopspring/decimal"

// Payment платёж пользователя. NextDueDate дата, до которой платёж продлевает абонемент.
type Payment struct {
	ID            int64           `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   Date            `json:"paymentDate"`
	NextDueDate   Date            `json:"nextDueDate"`
	PaymentMethod string          `json:"paymentMethod"`
	ReceiptURL    string          `json:"receiptUrl,omitempty"`
	Remarks       string          `json:"remarks,omitempty"`
}

// UserPayments ответ backend'а с историей платежей пользователя.
type UserPayments struct {
	Payments        []Payment `json:"payments"`
	DaysLeftForPlan *int      `json:"daysLeftForPlan"`
}

// Revenue агрегированная выручка.
type Revenue struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	MonthlyRevenue decimal.Decimal `json:"monthlyRevenue"`
}

// CustomRevenue выручка за произвольный период.
type CustomRevenue struct {
	CustomRevenue decimal.Decimal `json:"customRevenue"`
}

// RevenuePeriod параметры запроса выручки за период.
type RevenuePeriod struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}
