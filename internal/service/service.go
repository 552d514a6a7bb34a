// service.go - the operations the engine packages consume: query submission
// and planning, query-log access, DMV metadata, the license check, project
// update/publish and warehouse metadata.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ailink-labs/ailink/internal/dictutil"
	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

func (c *Client) queryPayload(projectName, query string, useAggs, genAggs, fakeResults bool) ([]byte, error) {
	payload := map[string]any{
		"language": "SQL",
		"query":    query,
		"context": map[string]any{
			"organization": map[string]any{"id": c.cfg.Organization},
			"environment":  map[string]any{"id": c.cfg.Organization},
			"project":      map[string]any{"name": projectName},
		},
		"aggregation": map[string]any{
			"useAggregates": useAggs,
			"genAggregates": genAggs,
		},
		"fakeResults": fakeResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding query payload: %w", err)
	}
	return body, nil
}

// SubmitQuery runs a semantic-layer query against the published project and
// returns the tabular result.
func (c *Client) SubmitQuery(ctx context.Context, query string, useAggs, genAggs bool) (*core.Frame, error) {
	body, err := c.queryPayload(c.cfg.Project, query, useAggs, genAggs, false)
	if err != nil {
		return nil, err
	}
	data, err := c.Post(ctx, c.submitQueryURL(), body)
	if err != nil {
		return nil, err
	}
	return ParseQueryResponse(data)
}

// SubmitQueryPlan runs the query through the planner without materializing
// results. The outbound warehouse SQL is recovered from the query log
// afterwards.
func (c *Client) SubmitQueryPlan(ctx context.Context, projectName, query string, useAggs, genAggs bool) error {
	if projectName == "" {
		projectName = c.cfg.Project
	}
	body, err := c.queryPayload(projectName, query, useAggs, genAggs, true)
	if err != nil {
		return err
	}
	_, err = c.Post(ctx, c.submitQueryURL(), body)
	return err
}

// SubmitDMVQuery runs a DMV metadata query against the published project.
func (c *Client) SubmitDMVQuery(ctx context.Context, query string) (*core.Frame, error) {
	return c.SubmitQuery(ctx, query, true, true)
}

// QueryLog returns the user-issued query-log entries started at or after
// since, as decoded JSON.
func (c *Client) QueryLog(ctx context.Context, since time.Time) ([]map[string]any, error) {
	data, err := c.Get(ctx, c.queryLogURL(since))
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding query log: %w", err)
	}
	return dictutil.GetSlice(decoded, "response", "data"), nil
}

// FullQueryText fetches the complete text of a truncated subquery.
func (c *Client) FullQueryText(ctx context.Context, queryID, subqueryID string) (string, error) {
	data, err := c.Get(ctx, c.fullQueryTextURL(queryID, subqueryID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LicenseEnabled reports whether the server's license carries the named
// capability.
func (c *Client) LicenseEnabled(ctx context.Context, capability string) (bool, error) {
	data, err := c.Get(ctx, c.licenseURL())
	if err != nil {
		return false, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return false, fmt.Errorf("decoding license capabilities: %w", err)
	}
	return dictutil.GetBool(decoded, "response", capability), nil
}

// UpdateProject writes the patched descriptor back to the design-time API.
func (c *Client) UpdateProject(ctx context.Context, p *project.Project) error {
	body, err := p.Marshal()
	if err != nil {
		return err
	}
	if _, err := c.Put(ctx, c.projectURL(p.ID), body); err != nil {
		return err
	}
	c.logger.Info("updated project", slog.String("project_id", p.ID))
	return nil
}

// Publish republishes the project so consumers see the current draft.
func (c *Client) Publish(ctx context.Context, projectID string) error {
	if _, err := c.Post(ctx, c.publishURL(projectID), nil); err != nil {
		return err
	}
	c.logger.Info("published project", slog.String("project_id", projectID))
	return nil
}

// Column describes one column of a warehouse table as reported by the
// service.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"column-type"`
}

// Databases lists the databases visible through a warehouse connection.
func (c *Client) Databases(ctx context.Context, warehouseID string) ([]string, error) {
	return c.stringList(ctx, c.databasesURL(warehouseID))
}

// Schemas lists the schemas of a database visible through a warehouse
// connection.
func (c *Client) Schemas(ctx context.Context, warehouseID, database string) ([]string, error) {
	return c.stringList(ctx, c.schemasURL(warehouseID, database))
}

// TableColumns lists the columns of a warehouse table with their declared
// types.
func (c *Client) TableColumns(ctx context.Context, warehouseID, database, schema, table string) ([]Column, error) {
	data, err := c.Get(ctx, c.tableColumnsURL(warehouseID, database, schema, table))
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Response []Column `json:"response"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding column metadata: %w", err)
	}
	return decoded.Response, nil
}

func (c *Client) stringList(ctx context.Context, url string) ([]string, error) {
	data, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Response []string `json:"response"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return decoded.Response, nil
}
