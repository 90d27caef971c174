package utils

import "time"

// DayStart возвращает начало текущего дня (00:00:00 UTC).
// Используется для расчёта дневного P&L при проверке daily profit target.
func DayStart() time.Time {
	return DayStartFrom(time.Now().UTC())
}

// DayStartFrom возвращает начало дня для указанного момента в UTC
func DayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
