// Package prism plans and drives bulk downloads from the PRISM climate data
// archive. Unlike the federated CMIP6 search, PRISM has no query API: the
// archive is a plain HTTP tree with predictable per-date URLs, so planning
// is date-range expansion followed by parallel availability probes.
package prism

import (
	"fmt"
	"strings"
	"time"

	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/model"
)

// DefaultBaseURL is the root of the PRISM time-series archive.
const DefaultBaseURL = "https://data.prism.oregonstate.edu/time_series/us/an"

// TimeStep selects the archive's temporal aggregation.
type TimeStep string

const (
	StepDaily   TimeStep = "daily"
	StepMonthly TimeStep = "monthly"
)

// Earliest available year per time step, per the archive's holdings.
const (
	minYearDaily   = 1981
	minYearMonthly = 1895
)

// validVariables are the climate elements the archive serves.
var validVariables = map[string]bool{
	"ppt":    true,
	"tmax":   true,
	"tmin":   true,
	"tmean":  true,
	"tdmean": true,
	"vpdmin": true,
	"vpdmax": true,
}

// Request describes one PRISM download run before planning.
type Request struct {
	Variable   string
	Resolution string // "4km" or "800m"
	TimeStep   TimeStep
	StartDate  string
	EndDate    string
	BaseURL    string // empty means DefaultBaseURL
}

// Validate checks the request fields against the archive's contract.
func (r *Request) Validate() error {
	if !validVariables[r.Variable] {
		return errors.Wrapf(errors.ErrPrismVariable, "%q", r.Variable)
	}
	if r.Resolution != "4km" && r.Resolution != "800m" {
		return errors.Wrapf(errors.ErrPrismResolution, "%q", r.Resolution)
	}
	if r.TimeStep != StepDaily && r.TimeStep != StepMonthly {
		return errors.Wrapf(errors.ErrPrismTimeStep, "%q", r.TimeStep)
	}
	start, err := ParseDate(r.StartDate, r.TimeStep)
	if err != nil {
		return err
	}
	end, err := ParseDate(r.EndDate, r.TimeStep)
	if err != nil {
		return err
	}
	if start.After(end) {
		return errors.Wrapf(errors.ErrPrismDateRange, "start %s is after end %s", r.StartDate, r.EndDate)
	}
	return nil
}

// resLabel maps the directory-level resolution to the label embedded in the
// archive's filenames. The pairing (4km -> 25m, 800m -> 30s) is the
// archive's own convention.
func resLabel(resolution string) string {
	if resolution == "800m" {
		return "30s"
	}
	return "25m"
}

// ParseDate parses a date in the archive's accepted formats: YYYY-MM-DD or
// YYYYMMDD for daily data, YYYY-MM or YYYYMM for monthly. It enforces the
// archive's holdings window: daily data starts in 1981, monthly in 1895,
// and nothing is published for future years.
func ParseDate(value string, step TimeStep) (time.Time, error) {
	var layouts []string
	switch step {
	case StepDaily:
		layouts = []string{"2006-01-02", "20060102"}
	case StepMonthly:
		layouts = []string{"2006-01", "200601"}
	default:
		return time.Time{}, errors.Wrapf(errors.ErrPrismTimeStep, "%q", step)
	}

	var parsed time.Time
	var err error
	for _, layout := range layouts {
		parsed, err = time.Parse(layout, value)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrPrismDate, "%q: expected %s", value, strings.Join(layouts, " or "))
	}

	minYear := minYearDaily
	if step == StepMonthly {
		minYear = minYearMonthly
	}
	if parsed.Year() < minYear {
		return time.Time{}, errors.Wrapf(errors.ErrPrismDate, "%q predates the archive (%s data starts %d)", value, step, minYear)
	}
	if parsed.Year() > time.Now().Year() {
		return time.Time{}, errors.Wrapf(errors.ErrPrismDate, "%q is in the future", value)
	}
	return parsed, nil
}

// ExpandDates returns every date in [start, end] at the step's granularity.
func ExpandDates(start, end time.Time, step TimeStep) []time.Time {
	var dates []time.Time
	for current := start; !current.After(end); {
		dates = append(dates, current)
		if step == StepDaily {
			current = current.AddDate(0, 0, 1)
		} else {
			current = current.AddDate(0, 1, 0)
		}
	}
	return dates
}

// dateToken renders a date the way the archive embeds it in filenames.
func dateToken(t time.Time, step TimeStep) string {
	if step == StepDaily {
		return t.Format("20060102")
	}
	return t.Format("200601")
}

// Descriptor builds the download record for one archive date. The URL is
// fully determined by the request fields; availability is a separate probe.
func (r *Request) Descriptor(date time.Time) *model.FileDescriptor {
	token := dateToken(date, r.TimeStep)
	filename := fmt.Sprintf("prism_%s_us_%s_%s.zip", r.Variable, resLabel(r.Resolution), token)
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	url := fmt.Sprintf("%s/%s/%s/%s/%d/%s", base, r.Resolution, r.Variable, r.TimeStep, date.Year(), filename)

	return &model.FileDescriptor{
		ID:                fmt.Sprintf("prism.%s.%s.%s", r.Variable, r.Resolution, token),
		Title:             filename,
		ActivityID:        []string{"prism"},
		VariableID:        []string{r.Variable},
		NominalResolution: []string{r.Resolution},
		Frequency:         []string{string(r.TimeStep)},
		URLs:              []string{url + "|application/zip|HTTPServer"},
	}
}

// Plan validates the request and expands it into one descriptor per date.
func (r *Request) Plan() ([]*model.FileDescriptor, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start, _ := ParseDate(r.StartDate, r.TimeStep)
	end, _ := ParseDate(r.EndDate, r.TimeStep)

	dates := ExpandDates(start, end, r.TimeStep)
	descs := make([]*model.FileDescriptor, 0, len(dates))
	for _, date := range dates {
		descs = append(descs, r.Descriptor(date))
	}
	return descs, nil
}
