package entity

import (
	"time"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberInactive  MemberStatus = "inactive"
	MemberSuspended MemberStatus = "suspended"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type BookingStatus string

const (
	BookingReserved  BookingStatus = "reserved"
	BookingAttended  BookingStatus = "attended"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

type AttendanceSource string

const (
	SourceManual AttendanceSource = "manual"
	SourceQR     AttendanceSource = "qr"
	SourceKiosk  AttendanceSource = "kiosk"
	SourceAPI    AttendanceSource = "api"
)

// ParseAttendanceSource defaults an empty source to manual.
func ParseAttendanceSource(raw string) (AttendanceSource, error) {
	switch s := AttendanceSource(raw); s {
	case "":
		return SourceManual, nil
	case SourceManual, SourceQR, SourceKiosk, SourceAPI:
		return s, nil
	default:
		return "", apperr.InvalidField("source", "unknown attendance source")
	}
}

// SubscriptionWindow returns [start, start + max(1, durationDays) days).
func SubscriptionWindow(start time.Time, durationDays int) (time.Time, time.Time) {
	days := durationDays
	if days < 1 {
		days = 1
	}
	return start, start.Add(time.Duration(days) * 24 * time.Hour)
}

type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "issued"
	InvoicePaid   InvoiceStatus = "paid"
)
