package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type BookingDetails struct {
	ClubName  string
	Sport     string
	Date      string
	TimeRange string
	Court     int64
	ActingFor string
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

func BuildBookingConfirmation(details BookingDetails) Message {
	clubName := fallback(details.ClubName, "your club")
	sport := fallback(details.Sport, "Court")

	lines := []string{
		fmt.Sprintf("Your %s booking is confirmed.", sport),
		"",
		fmt.Sprintf("Club: %s", clubName),
		fmt.Sprintf("Date: %s", fallback(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", fallback(details.TimeRange, "TBD")),
		fmt.Sprintf("Court: %d", details.Court+1),
	}
	if by := strings.TrimSpace(details.ActingFor); by != "" {
		lines = append(lines, fmt.Sprintf("Booked for you by: %s", by))
	}

	return Message{
		Subject: fmt.Sprintf("%s Booking Confirmed - %s", sport, clubName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildBookingCancellation(details BookingDetails) Message {
	clubName := fallback(details.ClubName, "your club")
	sport := fallback(details.Sport, "Court")

	lines := []string{
		fmt.Sprintf("Your %s booking has been cancelled.", sport),
		"",
		fmt.Sprintf("Club: %s", clubName),
		fmt.Sprintf("Date: %s", fallback(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", fallback(details.TimeRange, "TBD")),
		fmt.Sprintf("Court: %d", details.Court+1),
	}
	if by := strings.TrimSpace(details.ActingFor); by != "" {
		lines = append(lines, fmt.Sprintf("Cancelled by: %s", by))
	}

	return Message{
		Subject: fmt.Sprintf("%s Booking Cancelled - %s", sport, clubName),
		Body:    strings.Join(lines, "\n"),
	}
}

func fallback(value, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	return value
}
