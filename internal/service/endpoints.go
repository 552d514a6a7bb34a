// endpoints.go - URL builders for the server's REST surface.
package service

import (
	"fmt"
	"net/url"
	"time"
)

// logTimeFormat is the timestamp format the query-log endpoint accepts.
const logTimeFormat = "2006-01-02T15:04:05.000Z"

func (c *Client) submitQueryURL() string {
	return fmt.Sprintf("%s/query/orgs/%s/submit", c.cfg.ServerURL, c.cfg.Organization)
}

func (c *Client) queryLogURL(since time.Time) string {
	return fmt.Sprintf("%s/queries/orgs/%s?querySource=user&queryStarted=5m&queryDateTimeStart=%s",
		c.cfg.ServerURL, c.cfg.Organization,
		url.QueryEscape(since.UTC().Format(logTimeFormat)))
}

func (c *Client) fullQueryTextURL(queryID, subqueryID string) string {
	return fmt.Sprintf("%s/org/%s/fullquerytext/queryId/%s?subquery=%s",
		c.cfg.ServerURL, c.cfg.Organization,
		url.PathEscape(queryID), url.QueryEscape(subqueryID))
}

func (c *Client) projectURL(projectID string) string {
	return fmt.Sprintf("%s/projects/orgs/%s/project/%s",
		c.cfg.ServerURL, c.cfg.Organization, url.PathEscape(projectID))
}

func (c *Client) publishURL(projectID string) string {
	return c.projectURL(projectID) + "/publish"
}

func (c *Client) licenseURL() string {
	return fmt.Sprintf("%s/license/capabilities", c.cfg.ServerURL)
}

func (c *Client) warehouseURL(warehouseID string) string {
	return fmt.Sprintf("%s/data-sources/orgs/%s/conn/%s",
		c.cfg.ServerURL, c.cfg.Organization, url.PathEscape(warehouseID))
}

func (c *Client) databasesURL(warehouseID string) string {
	return c.warehouseURL(warehouseID) + "/databases"
}

func (c *Client) schemasURL(warehouseID, database string) string {
	return c.databasesURL(warehouseID) + "/" + url.PathEscape(database) + "/schemas"
}

func (c *Client) tableColumnsURL(warehouseID, database, schema, table string) string {
	return c.schemasURL(warehouseID, database) +
		"/" + url.PathEscape(schema) + "/tables/" + url.PathEscape(table) + "/columns"
}
