package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/nlquery"
)

// Resolver is the data-store surface the lookup functions run against.
// *contacts.Service satisfies it.
type Resolver interface {
	ByMessageKeyword(ctx context.Context, keyword string) ([]contacts.Summary, error)
	ByMessageKeywordInRange(ctx context.Context, keyword string, start, end time.Time) ([]contacts.Summary, error)
}

type resolveFunc func(ctx context.Context, store Resolver, params nlquery.Parameters) ([]contacts.Summary, error)

// registry is the closed set of lookup functions exposed to the parser's
// vocabulary. Adding a function means adding a typed decoder and resolver
// here plus its name in nlquery's prompt.
var registry = map[string]resolveFunc{
	nlquery.FnCustomersByKeyword:             resolveByKeyword,
	nlquery.FnCustomersByKeywordAndDateRange: resolveByKeywordAndDateRange,
}

type keywordParams struct {
	Keyword string
}

func decodeKeywordParams(params nlquery.Parameters) (keywordParams, error) {
	keyword := params.String("keyword")
	if keyword == "" {
		return keywordParams{}, fmt.Errorf("%w: keyword is required", ErrInvalidParameters)
	}
	return keywordParams{Keyword: keyword}, nil
}

type dateRangeParams struct {
	Keyword string
	Start   time.Time
	End     time.Time
}

func decodeDateRangeParams(params nlquery.Parameters) (dateRangeParams, error) {
	keyword := params.String("keyword")
	if keyword == "" {
		return dateRangeParams{}, fmt.Errorf("%w: keyword is required", ErrInvalidParameters)
	}
	start, err := parseDate(params.String("start_date"), false)
	if err != nil {
		return dateRangeParams{}, fmt.Errorf("%w: start_date: %v", ErrInvalidParameters, err)
	}
	end, err := parseDate(params.String("end_date"), true)
	if err != nil {
		return dateRangeParams{}, fmt.Errorf("%w: end_date: %v", ErrInvalidParameters, err)
	}
	if end.Before(start) {
		return dateRangeParams{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidParameters)
	}
	return dateRangeParams{Keyword: keyword, Start: start, End: end}, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339. A date-only upper bound is
// extended to the end of that day so the range stays inclusive.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("value is required")
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t, nil
}

func resolveByKeyword(ctx context.Context, store Resolver, params nlquery.Parameters) ([]contacts.Summary, error) {
	decoded, err := decodeKeywordParams(params)
	if err != nil {
		return nil, err
	}
	return store.ByMessageKeyword(ctx, decoded.Keyword)
}

func resolveByKeywordAndDateRange(ctx context.Context, store Resolver, params nlquery.Parameters) ([]contacts.Summary, error) {
	decoded, err := decodeDateRangeParams(params)
	if err != nil {
		return nil, err
	}
	return store.ByMessageKeywordInRange(ctx, decoded.Keyword, decoded.Start, decoded.End)
}
