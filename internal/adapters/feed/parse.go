package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"partyhub/internal/domain"
)

// defaultDuration is assumed when a feed item has no usable end time.
const defaultDuration = 3 * time.Hour

// Parse normalizes a feed body into items. Recurring ICS events are
// expanded into concrete occurrences inside the [from, to) window; items
// without an external ID are dropped.
func Parse(format string, body []byte, from, to time.Time) ([]domain.FeedItem, error) {
	switch format {
	case domain.FeedFormatJSON:
		return parseJSON(body)
	case domain.FeedFormatICS:
		return parseICS(body, from, to)
	default:
		return nil, fmt.Errorf("unknown feed format %q", format)
	}
}

// jsonParty is the upstream JSON feed record shape.
type jsonParty struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Category    string    `json:"category"`
	FocusTags   []string  `json:"focus_tags"`
}

func parseJSON(body []byte) ([]domain.FeedItem, error) {
	var records []jsonParty
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode feed json: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" || rec.Title == "" || rec.StartsAt.IsZero() {
			continue
		}
		items = append(items, domain.FeedItem{
			ExternalID:  rec.ID,
			Title:       rec.Title,
			Description: rec.Description,
			Venue:       rec.Venue,
			StartsAt:    rec.StartsAt,
			EndsAt:      normalizeEnd(rec.StartsAt, rec.EndsAt),
			Category:    rec.Category,
			FocusTags:   rec.FocusTags,
		})
	}
	return items, nil
}

func parseICS(body []byte, from, to time.Time) ([]domain.FeedItem, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ics: %w", err)
	}

	items := make([]domain.FeedItem, 0)
	for _, ve := range cal.Events() {
		items = append(items, parseVEvent(ve, from, to)...)
	}
	return items, nil
}

func parseVEvent(ve *ical.VEvent, from, to time.Time) []domain.FeedItem {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil
	}
	uid := uidProp.Value

	start, err := ve.GetStartAt()
	if err != nil || start.IsZero() {
		return nil
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = time.Time{}
	}
	end = normalizeEnd(start, end)
	duration := end.Sub(start)

	base := domain.FeedItem{
		ExternalID: uid,
		StartsAt:   start,
		EndsAt:     end,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		base.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		base.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		base.Venue = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil && p.Value != "" {
		parts := strings.Split(p.Value, ",")
		base.Category = strings.TrimSpace(parts[0])
		for _, part := range parts[1:] {
			if tag := strings.TrimSpace(part); tag != "" {
				base.FocusTags = append(base.FocusTags, tag)
			}
		}
	}
	if base.Title == "" {
		return nil
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || rruleProp.Value == "" {
		return []domain.FeedItem{base}
	}

	// Recurring event: expand occurrences inside the window, each with a
	// deterministic per-occurrence external ID so re-syncs upsert instead
	// of duplicating.
	r, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return []domain.FeedItem{base}
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	occStarts := set.Between(from.In(start.Location()), to.In(start.Location()), true)
	items := make([]domain.FeedItem, 0, len(occStarts))
	for _, occStart := range occStarts {
		occ := base
		occ.ExternalID = fmt.Sprintf("%s@%d", uid, occStart.Unix())
		occ.StartsAt = occStart
		occ.EndsAt = occStart.Add(duration)
		items = append(items, occ)
	}
	return items
}

func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime handles the basic EXDATE value forms: UTC date-time, local
// date-time, and date-only.
func parseICSTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}

func normalizeEnd(start, end time.Time) time.Time {
	if !end.After(start) {
		return start.Add(defaultDuration)
	}
	return end
}
