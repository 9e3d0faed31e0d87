package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/taiga-contrib/taiga-go-client/internal/testutil"
)

func TestProjectStats_AllowList(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/projects/proj_id/stats", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: `{
			"extra_item": "Do NOT load me!",
			"total_milestones": 111,
			"defined_points": 333,
			"assigned_points": 444,
			"closed_points": 555,
			"total_points": 666
		}`,
	})

	record, err := c.ProjectStats(context.Background(), "proj_id")
	if err != nil {
		t.Fatalf("ProjectStats() failed: %v", err)
	}

	expected := map[string]string{
		"total_milestones": "111",
		"defined_points":   "333",
		"assigned_points":  "444",
		"closed_points":    "555",
		"total_points":     "666",
	}
	for field, want := range expected {
		got, ok := record[field]
		if !ok {
			t.Errorf("Field %q missing from projection", field)
			continue
		}
		if string(got) != want {
			t.Errorf("Field %q = %s, want %s", field, got, want)
		}
	}

	// No unexpected item is dragged along.
	if _, ok := record["extra_item"]; ok {
		t.Error("Projection kept an unwanted field")
	}
	if len(record) != len(expected) {
		t.Errorf("Projection has %d fields, want %d", len(record), len(expected))
	}
}

func TestProjectStats_MissingField(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/projects/proj_id/stats", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"total_milestones": 111}`,
	})

	_, err := c.ProjectStats(context.Background(), "proj_id")
	if !errors.Is(err, ErrFieldMissing) {
		t.Errorf("ProjectStats() error = %v, want ErrFieldMissing", err)
	}
}

func TestProjectIssuesStats_AllowList(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/projects/proj_id/issues_stats", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: `{
			"extra_item": "Do NOT load me!",
			"total_issues": 55,
			"opened_issues": 22,
			"closed_issues": 33,
			"issues_per_priority": ["prio1","prio2","prio3"],
			"issues_per_severity": ["sev1","sev2","sev3","sev4"],
			"issues_per_status": ["status1","status2"]
		}`,
	})

	record, err := c.ProjectIssuesStats(context.Background(), "proj_id")
	if err != nil {
		t.Fatalf("ProjectIssuesStats() failed: %v", err)
	}

	for field, want := range map[string]string{
		"total_issues":  "55",
		"opened_issues": "22",
		"closed_issues": "33",
	} {
		if got := record[field]; string(got) != want {
			t.Errorf("Field %q = %s, want %s", field, got, want)
		}
	}

	for field, wantLen := range map[string]int{
		"issues_per_priority": 3,
		"issues_per_severity": 4,
		"issues_per_status":   2,
	} {
		raw, ok := record[field]
		if !ok {
			t.Errorf("Field %q missing from projection", field)
			continue
		}
		var group []string
		if err := json.Unmarshal(raw, &group); err != nil {
			t.Fatalf("Field %q is not a list: %v", field, err)
		}
		if len(group) != wantLen {
			t.Errorf("Field %q has %d entries, want %d", field, len(group), wantLen)
		}
	}

	if _, ok := record["extra_item"]; ok {
		t.Error("Projection kept an unwanted field")
	}
}

func TestProjections_Forbidden(t *testing.T) {
	forbiddenBody := `{"etc":"etc","_error_message":"You do not have permission to perform this action."}`

	c, mock := newTestClient(t)
	for _, path := range []string{
		"/deny",
		"/projects/id",
		"/projects/id/stats",
		"/projects/id/issues_stats",
	} {
		mock.SetResponse(path, testutil.MockResponse{
			StatusCode: http.StatusForbidden,
			Body:       forbiddenBody,
		})
	}

	ctx := context.Background()

	// Get raises no error; everything above it classifies the 403.
	resp, err := c.Get(ctx, "deny")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", resp.StatusCode)
	}

	calls := []struct {
		name string
		fn   func() error
	}{
		{"Request", func() error { _, err := c.Request(ctx, "deny", 0); return err }},
		{"ProjectStats", func() error { _, err := c.ProjectStats(ctx, "id"); return err }},
		{"ProjectIssuesStats", func() error { _, err := c.ProjectIssuesStats(ctx, "id"); return err }},
		{"Project", func() error { _, err := c.Project(ctx, "id"); return err }},
	}
	for _, call := range calls {
		t.Run(call.name, func(t *testing.T) {
			err := call.fn()
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("%s error = %v, want *APIError", call.name, err)
			}
			if apiErr.Class != ErrorClassForbidden {
				t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassForbidden)
			}
		})
	}
}

func TestProject_Aggregate(t *testing.T) {
	c, mock := newTestClient(t)

	mock.SetResponse("/projects/01", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"id": 1, "name": "a project", "slug": "a-project", "description": "etc"}`,
	})
	mock.SetResponse("/projects/01/stats", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"total_milestones": 1, "defined_points": 2, "assigned_points": 3, "closed_points": 4, "total_points": 5}`,
	})
	mock.SetResponse("/projects/01/issues_stats", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"total_issues": 1, "opened_issues": 1, "closed_issues": 0, "issues_per_priority": [], "issues_per_severity": [], "issues_per_status": []}`,
	})
	mock.SetPagedList("/epics", testutil.Pages(1, 30))
	mock.SetPagedList("/userstories", testutil.Pages(38, 30))
	mock.SetPagedList("/tasks", testutil.Pages(81, 30))
	mock.SetPagedList("/wiki", testutil.Pages(2, 30))

	data, err := c.Project(context.Background(), "01")
	if err != nil {
		t.Fatalf("Project() failed: %v", err)
	}

	if len(data.Basics) != 4 {
		t.Errorf("len(Basics) = %d, want 4", len(data.Basics))
	}
	if len(data.Stats) != 5 {
		t.Errorf("len(Stats) = %d, want 5", len(data.Stats))
	}
	if len(data.IssuesStats) != 6 {
		t.Errorf("len(IssuesStats) = %d, want 6", len(data.IssuesStats))
	}
	if len(data.Epics) != 1 {
		t.Errorf("len(Epics) = %d, want 1", len(data.Epics))
	}
	if len(data.Userstories) != 38 {
		t.Errorf("len(Userstories) = %d, want 38", len(data.Userstories))
	}
	if len(data.Tasks) != 81 {
		t.Errorf("len(Tasks) = %d, want 81", len(data.Tasks))
	}
	if len(data.Wiki) != 2 {
		t.Errorf("len(Wiki) = %d, want 2", len(data.Wiki))
	}
}

func TestProject_AbortsOnFirstFailure(t *testing.T) {
	c, mock := newTestClient(t)

	mock.SetResponse("/projects/01", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"id": 1}`,
	})
	mock.SetResponse("/projects/01/stats", testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"_error_message":"boom"}`,
	})

	_, err := c.Project(context.Background(), "01")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Project() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassServer {
		t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassServer)
	}

	// basics + stats only; the remaining fetches never happen.
	if mock.GetRequestCount() != 2 {
		t.Errorf("Request count = %d, want 2", mock.GetRequestCount())
	}
}
