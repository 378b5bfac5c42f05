package render

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Placeholder is rendered for absent or non-finite numeric values so a
// field never collapses to an empty string.
const Placeholder = "—"

// Number renders a nullable numeric payload value with thousands separators
// and at most two decimal places.
func Number(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return humanize.CommafWithDigits(*v, 2)
}

// Count renders a nullable numeric value as a whole number.
func Count(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return humanize.Comma(int64(math.Round(*v)))
}

// Timestamp renders t as Discord timestamp markup carrying both an absolute
// and a relative form, e.g. "<t:1767960000:f> (<t:1767960000:R>)". The
// client localizes both. A zero time renders as "unknown" rather than a
// nonsense epoch.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	unix := strconv.FormatInt(t.Unix(), 10)
	return fmt.Sprintf("<t:%s:f> (<t:%s:R>)", unix, unix)
}
