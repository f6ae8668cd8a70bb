package events

import (
	"context"
	"fmt"
	"slices"

	"interviewcal/internal/api"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/model"
)

// Mutator is the subset of the API client used by Actions.
type Mutator interface {
	GetInterview(ctx context.Context, id string) (model.Interview, error)
	DeleteInterview(ctx context.Context, id string) error
	PatchInterview(ctx context.Context, id string, patch api.InterviewPatch) (model.Interview, error)
}

// Actions are the per-interview operations offered from an event summary.
// Each successful action refetches the cache.
type Actions struct {
	api   Mutator
	cache *Store
}

func NewActions(m Mutator, cache *Store) *Actions {
	return &Actions{api: m, cache: cache}
}

func (a *Actions) Delete(ctx context.Context, id string) error {
	if err := a.api.DeleteInterview(ctx, id); err != nil {
		return fmt.Errorf("delete interview %s: %w", id, err)
	}
	appLog.Info("interview deleted", "id", id)
	return a.refetch(ctx)
}

// JoinAsInterviewer adds userID to the interviewer list. Joining twice is a
// no-op that still refetches.
func (a *Actions) JoinAsInterviewer(ctx context.Context, id, userID string) error {
	return a.editInterviewers(ctx, id, func(ids []string) []string {
		if slices.Contains(ids, userID) {
			return ids
		}
		return append(ids, userID)
	})
}

func (a *Actions) LeaveAsInterviewer(ctx context.Context, id, userID string) error {
	return a.editInterviewers(ctx, id, func(ids []string) []string {
		return slices.DeleteFunc(ids, func(s string) bool { return s == userID })
	})
}

func (a *Actions) editInterviewers(ctx context.Context, id string, edit func([]string) []string) error {
	iv, err := a.current(ctx, id)
	if err != nil {
		return err
	}
	ids := edit(iv.InterviewerIDs())
	if ids == nil {
		ids = []string{}
	}
	if _, err := a.api.PatchInterview(ctx, id, api.InterviewPatch{Interviewer: &ids}); err != nil {
		return fmt.Errorf("update interviewers of %s: %w", id, err)
	}
	appLog.Info("interviewers updated", "id", id, "count", len(ids))
	return a.refetch(ctx)
}

// current prefers the cached copy and falls back to the backend.
func (a *Actions) current(ctx context.Context, id string) (model.Interview, error) {
	for _, iv := range a.cache.Get().Events {
		if iv.ID == id {
			return iv, nil
		}
	}
	iv, err := a.api.GetInterview(ctx, id)
	if err != nil {
		return model.Interview{}, fmt.Errorf("load interview %s: %w", id, err)
	}
	return iv, nil
}

// refetch errors are already recorded in the cache state.
func (a *Actions) refetch(ctx context.Context) error {
	_ = a.cache.Fetch(ctx)
	return nil
}
