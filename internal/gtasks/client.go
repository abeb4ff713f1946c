// Package gtasks wraps the Google Tasks API for the sync engine.
//
// The engine only needs four operations (list, insert, patch, delete), so
// they are exposed through the Client interface and the real implementation
// stays behind it. Auth and transport failures are mapped onto sentinel
// errors so callers can distinguish "refresh the token" from "try again
// later" without inspecting HTTP status codes themselves.
package gtasks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"
)

// DefaultTaskList is the alias Google Tasks uses for the user's default list.
const DefaultTaskList = "@default"

// Status values used by the remote service.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// Client is the remote side of the sync engine.
//
// List must return completed, hidden, and deleted (tombstoned) tasks;
// deletion detection depends on tombstones being visible.
type Client interface {
	List(ctx context.Context) ([]*tasks.Task, error)
	Insert(ctx context.Context, t *tasks.Task) (*tasks.Task, error)
	Patch(ctx context.Context, id string, t *tasks.Task) error
	Delete(ctx context.Context, id string) error
}

type client struct {
	svc    *tasks.Service
	listID string
}

// NewClient creates a Client for the given task list using an authenticated
// HTTP client. An empty listID selects the user's default list.
func NewClient(ctx context.Context, httpClient *http.Client, listID string) (Client, error) {
	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Tasks service: %w", err)
	}

	if listID == "" {
		listID = DefaultTaskList
	}

	return &client{svc: svc, listID: listID}, nil
}

// List implements Client.List. It pages through the full collection,
// including completed, hidden, and tombstoned tasks.
func (c *client) List(ctx context.Context) ([]*tasks.Task, error) {
	var all []*tasks.Task
	pageToken := ""

	for {
		call := c.svc.Tasks.List(c.listID).
			ShowCompleted(true).
			ShowHidden(true).
			ShowDeleted(true).
			MaxResults(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list remote tasks: %w", wrapAPIError(err))
		}

		all = append(all, resp.Items...)

		if resp.NextPageToken == "" {
			return all, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Insert implements Client.Insert.
func (c *client) Insert(ctx context.Context, t *tasks.Task) (*tasks.Task, error) {
	created, err := c.svc.Tasks.Insert(c.listID, t).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create remote task %q: %w", t.Title, wrapAPIError(err))
	}
	return created, nil
}

// Patch implements Client.Patch.
func (c *client) Patch(ctx context.Context, id string, t *tasks.Task) error {
	if _, err := c.svc.Tasks.Patch(c.listID, id, t).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update remote task %s: %w", id, wrapAPIError(err))
	}
	return nil
}

// Delete implements Client.Delete. A missing remote task is not an error.
func (c *client) Delete(ctx context.Context, id string) error {
	err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do()
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete remote task %s: %w", id, wrapAPIError(err))
	}
	return nil
}

// UpdatedTime parses the remote task's updated timestamp.
// Returns the zero time when the field is missing or malformed, which makes
// an un-timestamped remote task lose every freshness comparison.
func UpdatedTime(t *tasks.Task) time.Time {
	if t == nil || t.Updated == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, t.Updated)
	if err != nil {
		return time.Time{}
	}
	return ts
}
