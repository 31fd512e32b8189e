package submission

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/golang/geo/s2"
	"github.com/shopspring/decimal"
)

// DateTimeLayout is the canonical form of an issue's date_time field.
const DateTimeLayout = "2006-01-02 15:04:05"

const DefaultTimezone = "UTC+00:00"

const coordinatePrecision = 8

var requiredIssueFields = []string{"issue_name", "issue_site", "location", "date_time", "issue_details"}

var dateTimeLayouts = []string{DateTimeLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

var timezonePattern = regexp.MustCompile(`^UTC[+-](0\d|1[0-4]):[0-5]\d$`)

var fieldLimits = map[string]int{
	"issue_name": 255,
	"issue_site": 255,
	"location":   255,
}

// ParseIssue validates a submitted issue form. Every problem it can detect is
// reported before anything is stored. A user_id field in the form is ignored;
// ownership comes from the verified token only.
func ParseIssue(form url.Values) (models.NewIssue, error) {
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }

	if missing := missingFields(form, requiredIssueFields); len(missing) > 0 {
		return models.NewIssue{}, apperr.Validation("Missing required issue fields.", missing...)
	}
	for field, limit := range fieldLimits {
		if len(get(field)) > limit {
			return models.NewIssue{}, apperr.Validation(field+" is too long.", field)
		}
	}

	occurredAt, offset, err := ParseDateTime(get("date_time"))
	if err != nil {
		return models.NewIssue{}, err
	}

	timezone := get("timezone")
	switch {
	case timezone == "" && offset != "":
		timezone = offset
	case timezone == "":
		timezone = DefaultTimezone
	case offset != "" && offset != timezone:
		return models.NewIssue{}, apperr.Validation("date_time offset does not match timezone.", "date_time", "timezone")
	}
	if !timezonePattern.MatchString(timezone) {
		return models.NewIssue{}, apperr.Validation("timezone must look like UTC+05:30.", "timezone")
	}

	coords, err := ParseCoordinates(get("latitude"), get("longitude"))
	if err != nil {
		return models.NewIssue{}, err
	}

	return models.NewIssue{
		IssueName:   get("issue_name"),
		IssueSite:   get("issue_site"),
		Location:    get("location"),
		Coordinates: coords,
		OccurredAt:  occurredAt,
		Timezone:    timezone,
		Details:     get("issue_details"),
	}, nil
}

// ParseDateTime reads the wall clock time of an occurrence. When the input
// carries a UTC offset it is returned in timezone form (UTC+05:30), otherwise
// offset is empty.
func ParseDateTime(s string) (time.Time, string, error) {
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		var offset string
		if layout == time.RFC3339 {
			_, secs := t.Zone()
			offset = formatOffset(secs)
		}
		y, mo, d := t.Date()
		return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), offset, nil
	}
	return time.Time{}, "", apperr.Validation("date_time must be formatted as YYYY-MM-DD HH:MM:SS.", "date_time")
}

func formatOffset(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, secs/3600, secs%3600/60)
}

// ParseCoordinates accepts either both values or neither.
func ParseCoordinates(lat, lng string) (*models.Coordinates, error) {
	if lat == "" && lng == "" {
		return nil, nil
	}
	if lat == "" || lng == "" {
		return nil, apperr.Validation("latitude and longitude must be provided together.", "latitude", "longitude")
	}
	latDec, err := decimal.NewFromString(lat)
	if err != nil {
		return nil, apperr.Validation("latitude must be a number.", "latitude")
	}
	lngDec, err := decimal.NewFromString(lng)
	if err != nil {
		return nil, apperr.Validation("longitude must be a number.", "longitude")
	}

	c := &models.Coordinates{
		Latitude:  latDec.Round(coordinatePrecision).InexactFloat64(),
		Longitude: lngDec.Round(coordinatePrecision).InexactFloat64(),
	}
	if !s2.LatLngFromDegrees(c.Latitude, c.Longitude).IsValid() {
		return nil, apperr.Validation("Coordinates are out of range.", "latitude", "longitude")
	}
	return c, nil
}

func missingFields(form url.Values, required []string) []string {
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(form.Get(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
