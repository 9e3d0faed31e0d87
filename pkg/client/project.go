package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Allow-lists for the stat projections. Extra fields returned by the
// server are dropped; a missing field is an error.
var (
	projectStatsFields = []string{
		"total_milestones",
		"defined_points",
		"assigned_points",
		"closed_points",
		"total_points",
	}

	projectIssuesStatsFields = []string{
		"total_issues",
		"opened_issues",
		"closed_issues",
		"issues_per_priority",
		"issues_per_severity",
		"issues_per_status",
	}
)

// ProjectData is the aggregate record assembled by Project, keyed by
// resource name.
type ProjectData struct {
	Basics      map[string]json.RawMessage `json:"basics"`
	Stats       map[string]json.RawMessage `json:"stats"`
	IssuesStats map[string]json.RawMessage `json:"issues_stats"`
	Epics       []json.RawMessage          `json:"epics"`
	Userstories []json.RawMessage          `json:"userstories"`
	Tasks       []json.RawMessage          `json:"tasks"`
	Wiki        []json.RawMessage          `json:"wiki"`
}

// ProjectStats fetches projects/{id}/stats and returns exactly the
// allow-listed fields: total_milestones, defined_points, assigned_points,
// closed_points, total_points.
func (c *Client) ProjectStats(ctx context.Context, projectID string) (map[string]json.RawMessage, error) {
	return c.record(ctx, "projects/"+projectID+"/stats", projectStatsFields)
}

// ProjectIssuesStats fetches projects/{id}/issues_stats and returns
// exactly the allow-listed fields: total_issues, opened_issues,
// closed_issues and the issues_per_priority/severity/status groups.
func (c *Client) ProjectIssuesStats(ctx context.Context, projectID string) (map[string]json.RawMessage, error) {
	return c.record(ctx, "projects/"+projectID+"/issues_stats", projectIssuesStatsFields)
}

// Project composes the project basics, both stat projections and the
// epics, userstories, tasks and wiki lists into one aggregate record.
// The first failing fetch aborts the whole composition.
func (c *Client) Project(ctx context.Context, projectID string) (*ProjectData, error) {
	basics, err := c.record(ctx, "projects/"+projectID, nil)
	if err != nil {
		return nil, err
	}

	stats, err := c.ProjectStats(ctx, projectID)
	if err != nil {
		return nil, err
	}

	issuesStats, err := c.ProjectIssuesStats(ctx, projectID)
	if err != nil {
		return nil, err
	}

	data := &ProjectData{
		Basics:      basics,
		Stats:       stats,
		IssuesStats: issuesStats,
	}

	lists := []struct {
		name string
		dest *[]json.RawMessage
	}{
		{"epics", &data.Epics},
		{"userstories", &data.Userstories},
		{"tasks", &data.Tasks},
		{"wiki", &data.Wiki},
	}
	for _, list := range lists {
		items, err := c.Request(ctx, fmt.Sprintf("%s?project=%s", list.name, projectID), 0)
		if err != nil {
			return nil, err
		}
		*list.dest = items
	}

	c.logger.Debug().
		Str("project", projectID).
		Int("epics", len(data.Epics)).
		Int("userstories", len(data.Userstories)).
		Int("tasks", len(data.Tasks)).
		Int("wiki", len(data.Wiki)).
		Msg("Project aggregate assembled")

	return data, nil
}

// record fetches a single-page resource whose body is one JSON object.
// With a nil field list the full record is returned; otherwise the
// result carries the listed fields and nothing else.
func (c *Client) record(ctx context.Context, resource string, fields []string) (map[string]json.RawMessage, error) {
	resp, err := c.Get(ctx, resource)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.apiError(resp.StatusCode, resource, resp.Body)
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &full); err != nil {
		return nil, fmt.Errorf("parse %q response: %w", resource, err)
	}

	if fields == nil {
		return full, nil
	}

	projected := make(map[string]json.RawMessage, len(fields))
	for _, field := range fields {
		value, ok := full[field]
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrFieldMissing, field, resource)
		}
		projected[field] = value
	}
	return projected, nil
}
