package testutil

import (
	"context"
	"testing"

	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// MustProject inserts p and returns it with its ID set.
func MustProject(t *testing.T, s store.Store, p model.Project) model.Project {
	t.Helper()
	if err := s.CreateProject(context.Background(), &p); err != nil {
		t.Fatalf("creating project %q: %v", p.Name, err)
	}
	return p
}

// MustDeveloper inserts d and returns it with its ID set.
func MustDeveloper(t *testing.T, s store.Store, d model.Developer) model.Developer {
	t.Helper()
	if err := s.UpsertDeveloper(context.Background(), &d); err != nil {
		t.Fatalf("creating developer %q: %v", d.FullName, err)
	}
	return d
}

// MustTask inserts task and returns it with its ID set.
func MustTask(t *testing.T, s store.Store, task model.Task) model.Task {
	t.Helper()
	if err := s.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("creating task %q: %v", task.Description, err)
	}
	return task
}
