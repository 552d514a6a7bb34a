package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailink-labs/ailink/internal/testutil"
	"github.com/ailink-labs/ailink/pkg/core"
)

// fakeExplainer serves a canned query log and records the planning call.
type fakeExplainer struct {
	log       []map[string]any
	fullText  string
	submitted string
	fetched   [2]string
}

func (f *fakeExplainer) SubmitQueryPlan(_ context.Context, _, query string, _, _ bool) error {
	f.submitted = query
	return nil
}

func (f *fakeExplainer) QueryLog(context.Context, time.Time) ([]map[string]any, error) {
	return f.log, nil
}

func (f *fakeExplainer) FullQueryText(_ context.Context, queryID, subqueryID string) (string, error) {
	f.fetched = [2]string{queryID, subqueryID}
	return f.fullText, nil
}

func logEntry(queryText string, succeeded, truncated bool, childText string) map[string]any {
	return map[string]any{
		"query_id":        "q1",
		"query_text":      queryText,
		"succeeded":       succeeded,
		"failure_message": "planner exploded",
		"timeline_events": []any{
			map[string]any{"type": "PlanningWall"},
			map[string]any{
				"type": "SubqueriesWall",
				"children": []any{
					map[string]any{
						"query_id":             "sub1",
						"query_text":           childText,
						"query_text_truncated": truncated,
					},
				},
			},
		},
	}
}

func TestExplainReturnsOutboundQuery(t *testing.T) {
	compiled := "/* AI-Link Library Version: 1.0.0 */ SELECT `Region` FROM `p`.`m`"
	svc := &fakeExplainer{log: []map[string]any{
		logEntry("some other query", true, false, "ignored"),
		logEntry(compiled, true, false, "SELECT region FROM warehouse.facts"),
	}}

	out, err := Explain(context.Background(), svc, "p", compiled,
		ExplainOptions{UseAggs: true, GenerateAggs: true, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, compiled, svc.submitted)
	assert.Equal(t,
		"/* AI-Link Library Version: 1.0.0 */ SELECT region FROM warehouse.facts", out)
}

func TestExplainRecoversTruncatedText(t *testing.T) {
	compiled := "SELECT `Region` FROM `p`.`m`"
	svc := &fakeExplainer{
		log:      []map[string]any{logEntry(compiled, true, true, "SELECT reg...")},
		fullText: "SELECT region FROM warehouse.facts WHERE 1=1",
	}

	out, err := Explain(context.Background(), svc, "p", compiled, ExplainOptions{})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"q1", "sub1"}, svc.fetched)
	assert.Equal(t, "SELECT region FROM warehouse.facts WHERE 1=1", out)
}

func TestExplainSurfacesServiceFailure(t *testing.T) {
	compiled := "SELECT `Region` FROM `p`.`m`"
	svc := &fakeExplainer{log: []map[string]any{logEntry(compiled, false, false, "")}}

	_, err := Explain(context.Background(), svc, "p", compiled, ExplainOptions{})
	require.Error(t, err)
	var serverErr *core.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Contains(t, err.Error(), "planner exploded")
}

func TestExplainMissingFromLog(t *testing.T) {
	svc := &fakeExplainer{log: []map[string]any{logEntry("unrelated", true, false, "x")}}

	out, err := Explain(context.Background(), svc, "p", "SELECT `Region` FROM `p`.`m`",
		ExplainOptions{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	assert.Empty(t, out)
}
