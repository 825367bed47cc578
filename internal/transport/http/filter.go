// Package http contains the chi handlers for the dashboard API.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bikepulse/internal/analytics"
	"bikepulse/internal/dataset"
	apierrors "bikepulse/internal/errors"
)

var validate = validator.New()

// filterQuery is the raw query-string form of the dashboard filter
type filterQuery struct {
	From    string `validate:"omitempty,datetime=2006-01-02"`
	To      string `validate:"omitempty,datetime=2006-01-02"`
	Years   []int  `validate:"dive,min=2000,max=2100"`
	Seasons []int  `validate:"dive,min=1,max=4"`
}

// parseFilter decodes and validates the filter query parameters shared by
// every dashboard endpoint: from, to (2006-01-02), years, seasons
// (comma-separated).
func parseFilter(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()

	fq := filterQuery{
		From: q.Get("from"),
		To:   q.Get("to"),
	}

	var err error
	if fq.Years, err = parseIntList(q.Get("years")); err != nil {
		return analytics.Filter{}, apierrors.ErrValidation("years", err.Error())
	}
	if fq.Seasons, err = parseIntList(q.Get("seasons")); err != nil {
		return analytics.Filter{}, apierrors.ErrValidation("seasons", err.Error())
	}

	if err := validate.Struct(fq); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			field := strings.ToLower(invalid[0].Field())
			return analytics.Filter{}, apierrors.ErrValidation(field,
				fmt.Sprintf("invalid value for %s", field))
		}
		return analytics.Filter{}, apierrors.ErrValidation("filter", err.Error())
	}

	f := analytics.Filter{Years: fq.Years, Seasons: fq.Seasons}
	if fq.From != "" {
		f.From, _ = time.Parse(dataset.DateFormat, fq.From)
	}
	if fq.To != "" {
		f.To, _ = time.Parse(dataset.DateFormat, fq.To)
	}

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return analytics.Filter{}, apierrors.ErrValidation("to", "to must not precede from")
	}

	return f, nil
}

func parseIntList(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
