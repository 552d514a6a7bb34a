// explain.go - recovers the warehouse SQL the service issues for a compiled
// query.
package query

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/ailink-labs/ailink/internal/dictutil"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Explainer is the slice of the service client Explain needs: a planning-only
// query submission and the query-log endpoints used to dig the outbound
// warehouse SQL back out.
type Explainer interface {
	// SubmitQueryPlan runs the query through the planner without
	// materializing results.
	SubmitQueryPlan(ctx context.Context, projectName, query string, useAggs, genAggs bool) error

	// QueryLog returns the user-issued query-log entries started at or
	// after since, newest first, as decoded JSON.
	QueryLog(ctx context.Context, since time.Time) ([]map[string]any, error)

	// FullQueryText fetches the complete text of a truncated subquery.
	FullQueryText(ctx context.Context, queryID, subqueryID string) (string, error)
}

// ExplainOptions tunes Explain. The aggregate flags mirror the ones the
// query was compiled with, so the planner sees the same query text.
type ExplainOptions struct {
	UseAggs      bool
	GenerateAggs bool
	Logger       *slog.Logger
}

var commentPattern = regexp.MustCompile(`/\*.+?\*/`)

// Explain submits the compiled query to the planner and returns the literal
// SQL the service sent to the backing warehouse, found by correlating the
// query text against the query log. Comments carried by the compiled query
// are prefixed onto the result. A service-reported failure for the query
// surfaces as a ServerError; a query that never shows up in the log yields
// an empty string.
func Explain(ctx context.Context, svc Explainer, projectName, compiled string, opts ExplainOptions) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	comments := commentPattern.FindAllString(compiled, -1)

	// The log is matched on query text, so scope it to a window opening
	// shortly before submission.
	since := time.Now().UTC().Add(-5 * time.Minute)

	if err := svc.SubmitQueryPlan(ctx, projectName, compiled, opts.UseAggs, opts.GenerateAggs); err != nil {
		return "", err
	}
	entries, err := svc.QueryLog(ctx, since)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if dictutil.GetString(entry, "query_text") != compiled {
			continue
		}
		if !dictutil.GetBool(entry, "succeeded") {
			return "", &core.ServerError{Msg: dictutil.GetString(entry, "failure_message")}
		}
		for _, event := range dictutil.GetSlice(entry, "timeline_events") {
			if dictutil.GetString(event, "type") != "SubqueriesWall" {
				continue
			}
			children := dictutil.GetSlice(event, "children")
			if len(children) == 0 {
				continue
			}
			child := children[0]
			var dbQuery string
			if dictutil.GetBool(child, "query_text_truncated") {
				dbQuery, err = svc.FullQueryText(ctx,
					dictutil.GetString(entry, "query_id"),
					dictutil.GetString(child, "query_id"))
				if err != nil {
					return "", err
				}
			} else {
				dbQuery = dictutil.GetString(child, "query_text")
			}
			for _, comment := range comments {
				dbQuery = comment + " " + dbQuery
			}
			return dbQuery, nil
		}
	}
	logger.Warn("query not found in the service query log", slog.String("project", projectName))
	return "", nil
}
