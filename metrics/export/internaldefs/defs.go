package internaldefs

import (
	console "github.com/Reales09/reserve-sub002"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   console.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   console.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter shared by the exporters.
var CounterDefs = []CounterDef{
	{ID: console.MetricLoginSuccess, Name: "reserve_console_login_success_total", Help: "Logins that reached the ready state."},
	{ID: console.MetricLoginFailure, Name: "reserve_console_login_failure_total", Help: "Rejected or failed logins."},
	{ID: console.MetricLoginPasswordChangeRequired, Name: "reserve_console_login_password_change_required_total", Help: "Logins that ended in a mandatory password change."},
	{ID: console.MetricPermissionsLoaded, Name: "reserve_console_permissions_loaded_total", Help: "Applied role/permission payloads."},
	{ID: console.MetricPermissionsFailed, Name: "reserve_console_permissions_failed_total", Help: "Failed role/permission fetches."},
	{ID: console.MetricBusinessSwitchAccepted, Name: "reserve_console_business_switch_accepted_total", Help: "Accepted business switches."},
	{ID: console.MetricBusinessSwitchRejected, Name: "reserve_console_business_switch_rejected_total", Help: "Business switches outside the membership set."},
	{ID: console.MetricBusinessTokenSuccess, Name: "reserve_console_business_token_success_total", Help: "Business token exchanges."},
	{ID: console.MetricBusinessTokenFailure, Name: "reserve_console_business_token_failure_total", Help: "Rejected business token exchanges."},
	{ID: console.MetricLogout, Name: "reserve_console_logout_total", Help: "Cleared sessions."},
	{ID: console.MetricPasswordChangeSuccess, Name: "reserve_console_password_change_success_total", Help: "Password changes."},
	{ID: console.MetricPasswordChangeFailure, Name: "reserve_console_password_change_failure_total", Help: "Rejected password changes."},
	{ID: console.MetricLateResultDiscarded, Name: "reserve_console_late_result_discarded_total", Help: "Backend results dropped after the session changed."},
	{ID: console.MetricBackendError, Name: "reserve_console_backend_error_total", Help: "Backend round trips that failed."},
}

// HistogramDefs lists every histogram shared by the exporters.
var HistogramDefs = []HistogramDef{
	{ID: console.MetricBackendLatency, Name: "reserve_console_backend_latency_seconds", Help: "Backend round trip latency."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the
// console's bucket layout.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds rendered for metric names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed 8-bucket array, zero filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
