package vespa

import (
	"fmt"
	"time"
)

const (
	// ValidationOverridesFile is the file name Vespa reads overrides from,
	// relative to the application root.
	ValidationOverridesFile = "validation-overrides.xml"

	// OverrideValidity is how long a granted override stays valid.
	OverrideValidity = 7 * 24 * time.Hour

	isoDate = "2006-01-02"
)

// ValidationOverride grants one validation exception until a date.
type ValidationOverride struct {
	Scope string
	Until time.Time
}

// ClusterRemovalOverride returns the content-cluster-removal grant.
func ClusterRemovalOverride(until time.Time) ValidationOverride {
	return ValidationOverride{Scope: ClusterRemovalScope, Until: until}
}

// UntilDate formats the expiry as an ISO-8601 calendar date.
func (o ValidationOverride) UntilDate() string {
	return o.Until.Format(isoDate)
}

// OverrideExpiry returns the calendar day seven days after now.
func OverrideExpiry(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 7)
}

// ValidationOverridesXML renders the validation-overrides document
// allowing content cluster removal until the given date.
func ValidationOverridesXML(until time.Time) string {
	o := ClusterRemovalOverride(until)
	return "<validation-overrides>\n" +
		fmt.Sprintf("  <allow until='%s'>%s</allow>\n", o.UntilDate(), o.Scope) +
		"</validation-overrides>\n"
}
