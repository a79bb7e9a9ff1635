// Package whatsapp формирует тексты напоминаний и deep link'и https://wa.me для членов клуба.
package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
)

// BaseURL адрес deep link'а WhatsApp.
const BaseURL = "https://wa.me/"

// ErrNoMobile у пользователя нет номера, пригодного для WhatsApp.
var ErrNoMobile = errors.New("user does not have a valid mobile number")

// Digits оставляет в номере только цифры.
func Digits(mobile string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, mobile)
}

// Message текст напоминания по количеству оставшихся дней.
func Message(gym string, daysLeft int) string {
	switch {
	case daysLeft < 0:
		return fmt.Sprintf("Hello from %s! Your membership expired %d days ago. Please renew to continue enjoying our services.", gym, -daysLeft)
	case daysLeft <= classifier.ExpiringSoonDays:
		return fmt.Sprintf("Hello from %s! Your membership will expire in %d days. Renew soon to avoid interruption!", gym, daysLeft)
	default:
		return fmt.Sprintf("Hello from %s!", gym)
	}
}

// ReceiptMessage текст с ссылкой на квитанцию после регистрации.
func ReceiptMessage(gym, fullName, receiptURL string) string {
	return fmt.Sprintf("Hello %s,\n\nThank you for registering at %s! Your payment has been successfully processed.\n\n"+
		"To view your payment receipt, please click on this link: %s\n\n"+
		"If you have any questions, please feel free to contact us.\n\nBest regards,\n%s Team",
		fullName, gym, receiptURL, gym)
}

// Link собирает deep link с заранее заполненным текстом.
func Link(mobile, text string) (string, error) {
	phone := Digits(mobile)
	if phone == "" {
		return "", ErrNoMobile
	}
	return BaseURL + phone + "?text=" + EscapeText(text), nil
}

// componentUnescape возвращает символы, которые encodeURIComponent оставляет как есть.
var componentUnescape = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// EscapeText кодирует текст так же, как encodeURIComponent в браузере: пробел как %20.
func EscapeText(text string) string {
	return componentUnescape.Replace(url.QueryEscape(text))
}

// MemberMessage текст напоминания по статусу участника. Без платежей или
// без даты следующей оплаты дни не известны, и отправляется только приветствие.
func MemberMessage(gym string, m classifier.Member) string {
	switch m.Status {
	case classifier.StatusNoPayments, classifier.StatusUnknown:
		return fmt.Sprintf("Hello from %s!", gym)
	default:
		return Message(gym, m.DaysLeft)
	}
}

// MemberLink deep link с напоминанием для классифицированного пользователя.
func MemberLink(gym string, m classifier.Member) (string, error) {
	return Link(m.User.MobileNumber, MemberMessage(gym, m))
}
