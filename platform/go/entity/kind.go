// Package entity describes the tenant-owned entity kinds and the pure
// pre-write rules (identity assignment, derived fields, immutability) applied
// to them before anything reaches storage.
package entity

import "strings"

// Kind describes how a tenant-owned entity is scoped and guarded.
type Kind struct {
	Name         string
	Table        string
	BranchScoped bool
	Financial    bool
	SoftDeletes  bool
}

var (
	Branch         = Kind{Name: "Branch", Table: "branches"}
	Member         = Kind{Name: "Member", Table: "members", BranchScoped: true, SoftDeletes: true}
	MembershipPlan = Kind{Name: "MembershipPlan", Table: "membership_plans", SoftDeletes: true}
	Subscription   = Kind{Name: "Subscription", Table: "subscriptions"}
	AttendanceLog  = Kind{Name: "AttendanceLog", Table: "attendance_logs", BranchScoped: true}
	FitnessClass   = Kind{Name: "FitnessClass", Table: "fitness_classes", SoftDeletes: true}
	ClassSchedule  = Kind{Name: "ClassSchedule", Table: "class_schedules", BranchScoped: true}
	ClassBooking   = Kind{Name: "ClassBooking", Table: "class_bookings"}
	Invoice        = Kind{Name: "Invoice", Table: "invoices", BranchScoped: true, Financial: true}
	InvoiceItem    = Kind{Name: "InvoiceItem", Table: "invoice_items"}
	Payment        = Kind{Name: "Payment", Table: "payments", Financial: true}
	Refund         = Kind{Name: "Refund", Table: "refunds", Financial: true}
	PosSale        = Kind{Name: "PosSale", Table: "pos_sales", BranchScoped: true, Financial: true}
	PosSaleItem    = Kind{Name: "PosSaleItem", Table: "pos_sale_items"}
)

var registry = map[string]Kind{}

func init() {
	for _, k := range []Kind{
		Branch, Member, MembershipPlan, Subscription, AttendanceLog, FitnessClass, ClassSchedule,
		ClassBooking, Invoice, InvoiceItem, Payment, Refund, PosSale, PosSaleItem,
	} {
		registry[strings.ToLower(k.Name)] = k
	}
}

// Lookup resolves a kind by name, case-insensitively.
func Lookup(name string) (Kind, bool) {
	k, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Kinds returns every registered kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for _, k := range registry {
		out = append(out, k)
	}
	return out
}
