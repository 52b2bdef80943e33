package sqlassets

import _ "embed"

//go:embed schema/platform/tenants.sql
var TenantsSQL string

//go:embed schema/gym/membership.sql
var MembershipSQL string

//go:embed schema/gym/classes.sql
var ClassesSQL string

//go:embed schema/gym/billing.sql
var BillingSQL string

// File is one embedded DDL script.
type File struct {
	Name string
	SQL  string
}

// Files returns the DDL scripts in apply order.
func Files() []File {
	return []File{
		{Name: "platform/tenants.sql", SQL: TenantsSQL},
		{Name: "gym/membership.sql", SQL: MembershipSQL},
		{Name: "gym/classes.sql", SQL: ClassesSQL},
		{Name: "gym/billing.sql", SQL: BillingSQL},
	}
}
