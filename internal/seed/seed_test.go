package seed

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/testfixtures"
)

func newLoader(t *testing.T) (*Loader, *testfixtures.SQLiteHarness) {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	storage := harness.Storage
	store := Store{
		Members:     storage.Members,
		Resources:   storage.Resources,
		Activities:  storage.Activities,
		Assignments: storage.Assignments,
	}
	clock := testfixtures.NewClock(time.Time{})
	return NewLoader(store, clock.NowFunc()), harness
}

func TestLoadFileAndApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doc, err := LoadFile("testdata/crew.yaml")
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	loader, harness := newLoader(t)
	summary, err := loader.Apply(ctx, doc)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	want := Summary{Roles: 2, Members: 2, Resources: 2, Outages: 1, Activities: 2, Assignments: 2}
	if summary != want {
		t.Fatalf("summary = %s, want %s", summary, want)
	}

	storage := harness.Storage

	keynote, err := storage.Activities.FetchActivity(ctx, "keynote")
	if err != nil {
		t.Fatalf("FetchActivity returned error: %v", err)
	}
	if !reflect.DeepEqual(keynote.DependencyIDs, []string{"soundcheck"}) || !reflect.DeepEqual(keynote.ResourceIDs, []string{"truss"}) {
		t.Fatalf("unexpected keynote sets %+v", keynote)
	}
	soundcheck, err := storage.Activities.FetchActivity(ctx, "soundcheck")
	if err != nil {
		t.Fatalf("FetchActivity returned error: %v", err)
	}
	if !soundcheck.Completed || soundcheck.Status != "completed" {
		t.Fatalf("soundcheck = %+v, want completed", soundcheck)
	}

	linked, err := storage.Assignments.GetAssignment(ctx, "asg-aiko-keynote")
	if err != nil {
		t.Fatalf("GetAssignment returned error: %v", err)
	}
	if !linked.Start.Equal(keynote.Start) || !linked.End.Equal(keynote.End) || linked.ActivityID() != "keynote" {
		t.Fatalf("linked assignment did not inherit the activity interval: %+v", linked)
	}

	ben, err := storage.Assignments.FetchAssignments(ctx, persistence.AssignmentFilter{
		RangeStart: testfixtures.At(0, 0),
		RangeEnd:   testfixtures.At(23, 0),
		MemberIDs:  []string{"ben"},
	})
	if err != nil {
		t.Fatalf("FetchAssignments returned error: %v", err)
	}
	if len(ben) != 1 {
		t.Fatalf("ben has %d assignments, want 1", len(ben))
	}
	if _, err := uuid.Parse(ben[0].ID); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", ben[0].ID, err)
	}
	if !ben[0].CreatedAt.Equal(testfixtures.ReferenceTime()) {
		t.Fatalf("created_at = %v, want loader clock", ben[0].CreatedAt)
	}

	available, err := storage.Resources.IsResourceAvailable(ctx, "crane", testfixtures.At(12, 30), testfixtures.At(14, 0))
	if err != nil {
		t.Fatalf("IsResourceAvailable returned error: %v", err)
	}
	if available {
		t.Fatal("crane should be unavailable during its outage")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()
		_, err := Parse(strings.NewReader("members:\n  - id: a\n    nickname: x\n"))
		if err == nil {
			t.Fatal("expected error for unknown key")
		}
	})

	t.Run("empty input is an empty document", func(t *testing.T) {
		t.Parallel()
		doc, err := Parse(strings.NewReader(""))
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if !reflect.DeepEqual(doc, Document{}) {
			t.Fatalf("doc = %+v, want empty", doc)
		}
	})
}

func TestDocumentValidate(t *testing.T) {
	t.Parallel()

	doc := Document{
		Members:     []Member{{Name: "nameless"}},
		Activities:  []Activity{{ID: "a"}, {ID: "a"}},
		Assignments: []Assignment{{Member: "m"}},
	}
	err := doc.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"members[0].id", "activities[1].id a is duplicated", "assignments[0].role"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestApplyFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("dependency cycle", func(t *testing.T) {
		t.Parallel()
		loader, _ := newLoader(t)
		_, err := loader.Apply(ctx, Document{Activities: []Activity{
			{ID: "a", Start: "2025-05-15T09:00:00Z", End: "2025-05-15T10:00:00Z", DependsOn: []string{"b"}},
			{ID: "b", Start: "2025-05-15T09:00:00Z", End: "2025-05-15T10:00:00Z", DependsOn: []string{"a"}},
		}})
		if !errors.Is(err, ErrDependencyCycle) {
			t.Fatalf("expected ErrDependencyCycle, got %v", err)
		}
	})

	t.Run("overlapping assignments are refused by the store", func(t *testing.T) {
		t.Parallel()
		loader, harness := newLoader(t)
		_, err := loader.Apply(ctx, Document{
			Roles:   []Role{{ID: "r", Name: "Runner"}},
			Members: []Member{{ID: "m", Name: "Mo", Role: "r"}},
			Assignments: []Assignment{
				{Member: "m", Role: "r", Start: "2025-05-15T09:00:00Z", End: "2025-05-15T10:00:00Z"},
				{Member: "m", Role: "r", Start: "2025-05-15T09:30:00Z", End: "2025-05-15T10:30:00Z"},
			},
		})
		if !errors.Is(err, persistence.ErrOverlap) {
			t.Fatalf("expected ErrOverlap, got %v", err)
		}
		stored, err := harness.Storage.Assignments.FetchAssignments(ctx, persistence.AssignmentFilter{
			RangeStart: testfixtures.At(0, 0),
			RangeEnd:   testfixtures.At(23, 0),
			MemberIDs:  []string{"m"},
		})
		if err != nil {
			t.Fatalf("FetchAssignments returned error: %v", err)
		}
		if len(stored) != 1 || !stored[0].Start.Equal(testfixtures.At(9, 0)) {
			t.Fatalf("stored = %+v, want only the 09:00 assignment", stored)
		}
	})

	t.Run("inverted window", func(t *testing.T) {
		t.Parallel()
		loader, _ := newLoader(t)
		_, err := loader.Apply(ctx, Document{
			Resources: []Resource{{ID: "crane"}},
			Outages:   []Outage{{Resource: "crane", Start: "2025-05-15T10:00:00Z", End: "2025-05-15T09:00:00Z"}},
		})
		if err == nil || !strings.Contains(err.Error(), "start must be before end") {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("omitted times need an activity from the document", func(t *testing.T) {
		t.Parallel()
		loader, _ := newLoader(t)
		_, err := loader.Apply(ctx, Document{
			Assignments: []Assignment{{Member: "m", Role: "r", Activity: "elsewhere"}},
		})
		if err == nil || !strings.Contains(err.Error(), "not in this document") {
			t.Fatalf("unexpected error %v", err)
		}
	})
}

func TestOrderActivities(t *testing.T) {
	t.Parallel()

	ordered, err := orderActivities([]Activity{
		{ID: "show", DependsOn: []string{"rig", "external"}},
		{ID: "rig", DependsOn: []string{"load-in"}},
		{ID: "load-in"},
		{ID: "teardown", DependsOn: []string{"show"}},
	})
	if err != nil {
		t.Fatalf("orderActivities returned error: %v", err)
	}
	var ids []string
	for _, activity := range ordered {
		ids = append(ids, activity.ID)
	}
	if want := []string{"load-in", "rig", "show", "teardown"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}
