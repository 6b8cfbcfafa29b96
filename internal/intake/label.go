package intake

import (
	"strconv"
	"time"
)

// monthNames фиксированная английская таблица, не зависит от локали.
var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// BillLabel возвращает подпись чека вида "Oct 5" для даты загрузки.
func BillLabel(date time.Time) string {
	return monthNames[date.Month()-1] + " " + strconv.Itoa(date.Day())
}

func composeBillReply(label, caption, message string) string {
	text := "Bill " + label + " uploaded"
	if caption != "" {
		text += ": " + caption
	}

	return text + "\n" + message
}
