package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/crew-scheduler/internal/persistence"
)

func queryFixture() (*assignmentRepoStub, *ScheduleQueryService) {
	repo := newAssignmentRepoStub("m7", "m8", "m9")
	repo.add("a1", "m8", "sound", at(9, 0), at(11, 0))
	repo.add("a2", "m7", "camera", at(9, 0), at(10, 0))
	repo.add("a3", "m7", "camera", at(13, 0), at(14, 0))
	repo.add("a4", "m9", "sound", at(8, 0), at(9, 0))
	return repo, NewScheduleQueryService(repo, nil)
}

func ids(assignments []TeamAssignment) string {
	out := make([]string, len(assignments))
	for i, a := range assignments {
		out[i] = a.ID
	}
	return strings.Join(out, ",")
}

func TestScheduleQueryService_FindAssignments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params FindAssignmentsParams
		want   string
	}{
		{
			name:   "covering range returns everything ordered by start then member",
			params: FindAssignmentsParams{RangeStart: at(0, 0), RangeEnd: at(23, 0)},
			want:   "a4,a2,a1,a3",
		},
		{
			name:   "half-open range excludes touching assignments",
			params: FindAssignmentsParams{RangeStart: at(10, 0), RangeEnd: at(13, 0)},
			want:   "a1",
		},
		{
			name:   "member filter",
			params: FindAssignmentsParams{RangeStart: at(0, 0), RangeEnd: at(23, 0), MemberIDs: []string{"m7"}},
			want:   "a2,a3",
		},
		{
			name:   "role filter",
			params: FindAssignmentsParams{RangeStart: at(0, 0), RangeEnd: at(23, 0), RoleIDs: []string{"sound"}},
			want:   "a4,a1",
		},
		{
			name: "both filters intersect",
			params: FindAssignmentsParams{
				RangeStart: at(0, 0), RangeEnd: at(23, 0),
				MemberIDs: []string{"m7", "m8"}, RoleIDs: []string{"sound"},
			},
			want: "a1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, svc := queryFixture()
			got, err := svc.FindAssignments(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("FindAssignments returned error: %v", err)
			}
			if ids(got) != tt.want {
				t.Fatalf("FindAssignments = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func TestScheduleQueryService_FindAssignments_ResolvesReferences(t *testing.T) {
	t.Parallel()

	_, svc := queryFixture()
	got, err := svc.FindAssignments(context.Background(), FindAssignmentsParams{
		RangeStart: at(13, 0), RangeEnd: at(14, 0),
	})
	if err != nil {
		t.Fatalf("FindAssignments returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one assignment, got %s", ids(got))
	}
	if got[0].Member.Name != "Member m7" || got[0].Role.Name != "Role camera" {
		t.Fatalf("references not resolved: %+v", got[0])
	}
}

func TestScheduleQueryService_FindAssignments_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()
		repo, svc := queryFixture()
		_, err := svc.FindAssignments(context.Background(), FindAssignmentsParams{RangeStart: at(10, 0), RangeEnd: at(10, 0)})
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval, got %v", err)
		}
		if repo.fetches != 0 {
			t.Fatalf("repository should not be queried for an invalid range")
		}
	})

	t.Run("member not found passes through", func(t *testing.T) {
		t.Parallel()
		_, svc := queryFixture()
		_, err := svc.FindAssignments(context.Background(), FindAssignmentsParams{
			RangeStart: at(0, 0), RangeEnd: at(23, 0), MemberIDs: []string{"ghost"},
		})
		if !errors.Is(err, persistence.ErrMemberNotFound) || !errors.Is(err, ErrMemberNotFound) {
			t.Fatalf("expected ErrMemberNotFound, got %v", err)
		}
	})

	t.Run("repository failure", func(t *testing.T) {
		t.Parallel()
		repo, svc := queryFixture()
		repo.fetchErr = errors.New("disk on fire")
		_, err := svc.FindAssignments(context.Background(), FindAssignmentsParams{RangeStart: at(0, 0), RangeEnd: at(23, 0)})
		if err == nil || ErrorKind(err) != "unexpected" {
			t.Fatalf("expected unexpected error, got %v", err)
		}
	})
}

func TestScheduleQueryService_FindConflicts(t *testing.T) {
	t.Parallel()

	_, svc := queryFixture()
	ctx := context.Background()

	got, err := svc.FindConflicts(ctx, "m7", at(9, 30), at(13, 30), "")
	if err != nil {
		t.Fatalf("FindConflicts returned error: %v", err)
	}
	if ids(got) != "a2,a3" {
		t.Fatalf("FindConflicts = %s, want a2,a3", ids(got))
	}

	got, err = svc.FindConflicts(ctx, "m7", at(9, 30), at(13, 30), "a2")
	if err != nil {
		t.Fatalf("FindConflicts returned error: %v", err)
	}
	if ids(got) != "a3" {
		t.Fatalf("FindConflicts with exclude = %s, want a3", ids(got))
	}

	if _, err := svc.FindConflicts(ctx, "m7", at(12, 0), at(11, 0), ""); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}

	var vErr *ValidationError
	if _, err := svc.FindConflicts(ctx, "", at(9, 0), at(10, 0), ""); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for empty member, got %v", err)
	}
}
