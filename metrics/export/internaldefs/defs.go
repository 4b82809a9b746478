package internaldefs

import (
	"strconv"
	"strings"

	sessionauth "github.com/deniswachira/sessionauth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram. Exported values are in
// seconds.
type HistogramDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: sessionauth.MetricRegisterSuccess, Name: "sessionauth_register_success_total", Help: "Accounts created."},
	{ID: sessionauth.MetricRegisterDuplicate, Name: "sessionauth_register_duplicate_total", Help: "Registrations rejected because the email is taken."},
	{ID: sessionauth.MetricLoginSuccess, Name: "sessionauth_login_success_total", Help: "Successful credential checks."},
	{ID: sessionauth.MetricLoginFailure, Name: "sessionauth_login_failure_total", Help: "Failed credential checks."},
	{ID: sessionauth.MetricLoginThrottled, Name: "sessionauth_login_throttled_total", Help: "Logins refused by the attempt limiter."},
	{ID: sessionauth.MetricSessionCreated, Name: "sessionauth_session_created_total", Help: "Sessions issued."},
	{ID: sessionauth.MetricSessionDestroyed, Name: "sessionauth_session_destroyed_total", Help: "Sessions destroyed on logout."},
	{ID: sessionauth.MetricSessionDestroyFailed, Name: "sessionauth_session_destroy_failed_total", Help: "Session teardowns that failed and were absorbed."},
	{ID: sessionauth.MetricSessionLookupExpired, Name: "sessionauth_session_lookup_expired_total", Help: "Session lookups that found an expired session."},
	{ID: sessionauth.MetricResetTokenIssued, Name: "sessionauth_reset_token_issued_total", Help: "Password reset tokens issued."},
	{ID: sessionauth.MetricResetTokenUnregistered, Name: "sessionauth_reset_token_unregistered_total", Help: "Reset token requests for unknown emails."},
	{ID: sessionauth.MetricPasswordResetSuccess, Name: "sessionauth_password_reset_success_total", Help: "Reset tokens redeemed."},
	{ID: sessionauth.MetricPasswordResetInvalidToken, Name: "sessionauth_password_reset_invalid_token_total", Help: "Redemptions with an unknown reset token."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: sessionauth.MetricSessionLookupLatency, Name: "sessionauth_session_lookup_latency_seconds", Help: "Session lookup latency."},
}

// BucketCount is the number of buckets in a snapshot histogram, including the
// overflow bucket.
const BucketCount = len(sessionauth.LatencyBuckets) + 1

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(sessionauth.LatencyBuckets))
	for i, b := range sessionauth.LatencyBuckets {
		out[i] = b.Seconds()
	}
	return out
}

// BoundSuffixes returns a metric-name-safe label per bucket, ending in "inf".
func BoundSuffixes() []string {
	out := make([]string, 0, BucketCount)
	for _, b := range UpperBounds() {
		s := strconv.FormatFloat(b, 'f', -1, 64)
		out = append(out, strings.ReplaceAll(s, ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}
