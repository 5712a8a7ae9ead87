package domain

// Anomaly severities, ascending.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Trend directions.
const (
	TrendUp     = "UP"
	TrendDown   = "DOWN"
	TrendStable = "STABLE"
)

// Variation comparison types.
const (
	VariationDOD = "DOD"
	VariationWOW = "WOW"
	VariationMOM = "MOM"
)

// Surge severities.
const (
	SurgeAlarming = "ALARMING"
	SurgeCritical = "CRITICAL"
)

// Repeat-caller severities by 30-day frequency.
const (
	RepeatNormal       = "NORMAL REPEAT"
	RepeatAlarming     = "ALARMING"
	RepeatCritical     = "CRITICAL"
	RepeatVeryAlarming = "VERY ALARMING"
)

// Aging slabs, largest bound first. A row lands in the first slab whose
// bound it exceeds; rows younger than 24h are not reported.
var AgingSlabs = []string{
	"> 60 Days",
	"> 30 Days",
	"> 10 Days",
	"> 6 Days",
	"> 72 Hours",
	"> 48 Hours",
	"> 24 Hours",
}

// AgingSlabFor buckets an age in hours, or returns "" for under 24h.
func AgingSlabFor(ageHours float64) string {
	days := ageHours / 24
	switch {
	case days > 60:
		return "> 60 Days"
	case days > 30:
		return "> 30 Days"
	case days > 10:
		return "> 10 Days"
	case days > 6:
		return "> 6 Days"
	case ageHours > 72:
		return "> 72 Hours"
	case ageHours > 48:
		return "> 48 Hours"
	case ageHours > 24:
		return "> 24 Hours"
	}
	return ""
}
