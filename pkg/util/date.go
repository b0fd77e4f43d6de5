package util

import "time"

// DateLayout is the ISO calendar date layout used on the wire.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExchangeDay converts a unix bar timestamp to the exchange-local trading date,
// given the exchange offset from UTC in seconds.
func ExchangeDay(ts int64, gmtOffset int64) time.Time {
	return Day(time.Unix(ts+gmtOffset, 0).UTC())
}

// FormatDate renders t as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
