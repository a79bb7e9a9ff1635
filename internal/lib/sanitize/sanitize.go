// Package sanitize очищает свободный текст, введённый администратором, перед отправкой в backend.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text удаляет любую HTML-разметку и лишние пробелы по краям.
// bluemonday экранирует спецсимволы, поэтому результат разэкранируется обратно в обычный текст.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
