package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

func activityFixture(now time.Time, resources *resourceRepoStub, activities ...persistence.Activity) (*activityRepoStub, *recorderStub, *ActivityService) {
	repo := newActivityRepoStub(activities...)
	recorder := newRecorderStub()
	if resources == nil {
		resources = &resourceRepoStub{}
	}
	svc := NewActivityService(repo, resources, 0, recorder, func() time.Time { return now }, nil)
	return repo, recorder, svc
}

func TestActivityService_ResolveActivityStatus(t *testing.T) {
	t.Parallel()

	show := persistence.Activity{
		ID: "show", Start: at(19, 0), End: at(21, 0), Status: "scheduled",
		DependencyIDs: []string{"rig"}, ResourceIDs: []string{"truss"},
	}
	rigOpen := persistence.Activity{ID: "rig", Start: at(13, 0), End: at(15, 0), Status: "scheduled", DependencyIDs: []string{"load"}}
	rigDone := persistence.Activity{ID: "rig", Start: at(13, 0), End: at(15, 0), Completed: true}
	load := persistence.Activity{ID: "load", Start: at(8, 0), End: at(9, 0), Completed: true}

	tests := []struct {
		name      string
		now       time.Time
		busy      map[string]bool
		rig       persistence.Activity
		want      scheduler.ActivityStatus
		wantDeps  scheduler.ActivityStatus
		wantCalls int
	}{
		{name: "open dependency blocks", now: at(12, 0), rig: rigOpen, want: scheduler.StatusBlocked, wantDeps: scheduler.StatusScheduled},
		{name: "busy resource", now: at(12, 0), rig: rigDone, busy: map[string]bool{"truss": true}, want: scheduler.StatusResourceConflict, wantDeps: scheduler.StatusCompleted, wantCalls: 1},
		{name: "within an hour", now: at(18, 30), rig: rigDone, want: scheduler.StatusUpcoming, wantDeps: scheduler.StatusCompleted, wantCalls: 1},
		{name: "far ahead", now: at(12, 0), rig: rigDone, want: scheduler.StatusScheduled, wantDeps: scheduler.StatusCompleted, wantCalls: 1},
		{name: "past start wins over everything", now: at(19, 30), rig: rigOpen, busy: map[string]bool{"truss": true}, want: scheduler.StatusDelayed, wantDeps: scheduler.StatusDelayed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resources := &resourceRepoStub{busy: tt.busy}
			_, recorder, svc := activityFixture(at(0, 0), resources, show, tt.rig, load)

			report, err := svc.ResolveActivityStatus(context.Background(), "show", tt.now)
			if err != nil {
				t.Fatalf("ResolveActivityStatus returned error: %v", err)
			}
			if report.Status != tt.want {
				t.Fatalf("status = %q, want %q", report.Status, tt.want)
			}
			if report.Dependencies["rig"] != tt.wantDeps {
				t.Fatalf("dependency status = %q, want %q", report.Dependencies["rig"], tt.wantDeps)
			}
			if !report.ResolvedAt.Equal(tt.now) {
				t.Fatalf("ResolvedAt = %s, want %s", report.ResolvedAt, tt.now)
			}
			if resources.calls != tt.wantCalls {
				t.Fatalf("resource checks = %d, want %d", resources.calls, tt.wantCalls)
			}
			if recorder.statuses[string(tt.want)] != 1 {
				t.Fatalf("status not recorded: %v", recorder.statuses)
			}
		})
	}
}

func TestActivityService_ResolveActivityStatus_UsesClockWhenNowIsZero(t *testing.T) {
	t.Parallel()

	activity := persistence.Activity{ID: "a", Start: at(10, 0), End: at(11, 0), Status: "scheduled"}
	_, _, svc := activityFixture(at(9, 30), nil, activity)

	report, err := svc.ResolveActivityStatus(context.Background(), "a", time.Time{})
	if err != nil {
		t.Fatalf("ResolveActivityStatus returned error: %v", err)
	}
	if report.Status != scheduler.StatusUpcoming || !report.ResolvedAt.Equal(at(9, 30)) {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestActivityService_ResolveActivityStatus_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown activity", func(t *testing.T) {
		t.Parallel()
		_, _, svc := activityFixture(at(9, 0), nil)
		if _, err := svc.ResolveActivityStatus(ctx, "ghost", at(9, 0)); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("dangling dependency", func(t *testing.T) {
		t.Parallel()
		activity := persistence.Activity{ID: "a", Start: at(18, 0), End: at(19, 0), DependencyIDs: []string{"gone"}}
		_, _, svc := activityFixture(at(9, 0), nil, activity)
		if _, err := svc.ResolveActivityStatus(ctx, "a", at(9, 0)); !errors.Is(err, ErrMissingDependencyStatus) {
			t.Fatalf("expected ErrMissingDependencyStatus, got %v", err)
		}
	})

	t.Run("dependency cycle", func(t *testing.T) {
		t.Parallel()
		a := persistence.Activity{ID: "a", Start: at(18, 0), End: at(19, 0), DependencyIDs: []string{"b"}}
		b := persistence.Activity{ID: "b", Start: at(16, 0), End: at(17, 0), DependencyIDs: []string{"c"}}
		c := persistence.Activity{ID: "c", Start: at(14, 0), End: at(15, 0), DependencyIDs: []string{"a"}}
		_, _, svc := activityFixture(at(9, 0), nil, a, b, c)
		if _, err := svc.ResolveActivityStatus(ctx, "a", at(9, 0)); !errors.Is(err, ErrDependencyCycle) {
			t.Fatalf("expected ErrDependencyCycle, got %v", err)
		}
	})
}

func TestActivityService_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	activity := persistence.Activity{ID: "a", Start: at(10, 0), End: at(12, 0), Status: "scheduled"}
	repo, _, svc := activityFixture(at(9, 0), nil, activity)

	report, err := svc.RefreshActivityStatus(ctx, "a", at(9, 30))
	if err != nil {
		t.Fatalf("RefreshActivityStatus returned error: %v", err)
	}
	if report.Status != scheduler.StatusUpcoming || repo.status("a") != "upcoming" {
		t.Fatalf("refresh should store upcoming, got %q / %q", report.Status, repo.status("a"))
	}

	if err := svc.StartActivity(ctx, "a"); err != nil {
		t.Fatalf("StartActivity returned error: %v", err)
	}
	report, err = svc.RefreshActivityStatus(ctx, "a", at(10, 30))
	if err != nil {
		t.Fatalf("RefreshActivityStatus returned error: %v", err)
	}
	if report.Status == scheduler.StatusDelayed {
		t.Fatalf("started activity must not be delayed")
	}
	if repo.status("a") != "in_progress" {
		t.Fatalf("refresh must keep in_progress, got %q", repo.status("a"))
	}

	if err := svc.CompleteActivity(ctx, "a"); err != nil {
		t.Fatalf("CompleteActivity returned error: %v", err)
	}
	report, err = svc.ResolveActivityStatus(ctx, "a", at(13, 0))
	if err != nil {
		t.Fatalf("ResolveActivityStatus returned error: %v", err)
	}
	if report.Status != scheduler.StatusCompleted {
		t.Fatalf("status = %q, want completed", report.Status)
	}

	var vErr *ValidationError
	if err := svc.StartActivity(ctx, "a"); !errors.As(err, &vErr) {
		t.Fatalf("starting a completed activity should fail validation, got %v", err)
	}
	if err := svc.CompleteActivity(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivityService_UnstartedPastActivityIsDelayed(t *testing.T) {
	t.Parallel()

	activity := persistence.Activity{ID: "a", Start: at(10, 0), End: at(12, 0), Status: "upcoming"}
	repo, _, svc := activityFixture(at(9, 0), nil, activity)

	report, err := svc.RefreshActivityStatus(context.Background(), "a", at(10, 5))
	if err != nil {
		t.Fatalf("RefreshActivityStatus returned error: %v", err)
	}
	if report.Status != scheduler.StatusDelayed || repo.status("a") != "delayed" {
		t.Fatalf("expected delayed, got %q / %q", report.Status, repo.status("a"))
	}
}
