// Package seed loads crew, resource, activity and assignment data from YAML
// documents into the store.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/example/crew-scheduler/internal/persistence"
)

// ErrDependencyCycle reports activities in one document that depend on each other.
var ErrDependencyCycle = errors.New("seed: activity dependency cycle")

// Document is one seed file.
type Document struct {
	Roles       []Role       `yaml:"roles"`
	Members     []Member     `yaml:"members"`
	Resources   []Resource   `yaml:"resources"`
	Outages     []Outage     `yaml:"outages"`
	Activities  []Activity   `yaml:"activities"`
	Assignments []Assignment `yaml:"assignments"`
}

type Role struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Member struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Role    string `yaml:"role"`
	Contact string `yaml:"contact"`
}

type Resource struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Outage struct {
	ID       string `yaml:"id"`
	Resource string `yaml:"resource"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Reason   string `yaml:"reason"`
}

type Activity struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Start       string   `yaml:"start"`
	End         string   `yaml:"end"`
	Stage       string   `yaml:"stage"`
	Responsible string   `yaml:"responsible"`
	Completed   bool     `yaml:"completed"`
	Status      string   `yaml:"status"`
	DependsOn   []string `yaml:"depends_on"`
	Resources   []string `yaml:"resources"`
}

// Assignment may omit start and end when it links an activity of the same
// document; the activity's interval is used.
type Assignment struct {
	ID       string `yaml:"id"`
	Member   string `yaml:"member"`
	Role     string `yaml:"role"`
	Activity string `yaml:"activity"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Location string `yaml:"location"`
}

// Store is the set of repositories a document is written to.
type Store struct {
	Members     persistence.MemberRepository
	Resources   persistence.ResourceRepository
	Activities  persistence.ActivityRepository
	Assignments persistence.AssignmentRepository
}

// Summary counts the records written by Apply.
type Summary struct {
	Roles       int
	Members     int
	Resources   int
	Outages     int
	Activities  int
	Assignments int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d roles, %d members, %d resources, %d outages, %d activities, %d assignments",
		s.Roles, s.Members, s.Resources, s.Outages, s.Activities, s.Assignments)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("decode seed: %w", err)
	}
	return doc, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(bytes.NewReader(data))
}

// Validate checks the identifiers every record needs before anything is written.
func (d Document) Validate() error {
	var problems []string
	for i, role := range d.Roles {
		if strings.TrimSpace(role.ID) == "" {
			problems = append(problems, fmt.Sprintf("roles[%d].id is required", i))
		}
	}
	for i, member := range d.Members {
		if strings.TrimSpace(member.ID) == "" {
			problems = append(problems, fmt.Sprintf("members[%d].id is required", i))
		}
	}
	for i, resource := range d.Resources {
		if strings.TrimSpace(resource.ID) == "" {
			problems = append(problems, fmt.Sprintf("resources[%d].id is required", i))
		}
	}
	for i, outage := range d.Outages {
		if strings.TrimSpace(outage.Resource) == "" {
			problems = append(problems, fmt.Sprintf("outages[%d].resource is required", i))
		}
	}
	seen := make(map[string]bool, len(d.Activities))
	for i, activity := range d.Activities {
		switch {
		case strings.TrimSpace(activity.ID) == "":
			problems = append(problems, fmt.Sprintf("activities[%d].id is required", i))
		case seen[activity.ID]:
			problems = append(problems, fmt.Sprintf("activities[%d].id %s is duplicated", i, activity.ID))
		}
		seen[activity.ID] = true
	}
	for i, assignment := range d.Assignments {
		if strings.TrimSpace(assignment.Member) == "" {
			problems = append(problems, fmt.Sprintf("assignments[%d].member is required", i))
		}
		if strings.TrimSpace(assignment.Role) == "" {
			problems = append(problems, fmt.Sprintf("assignments[%d].role is required", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid seed document: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Loader writes documents to a Store.
type Loader struct {
	store Store
	newID func() string
	now   func() time.Time
}

// NewLoader returns a Loader generating missing ids with uuid.
func NewLoader(store Store, now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{store: store, newID: uuid.NewString, now: now}
}

// Apply writes doc in dependency order: roles, members, resources, outages,
// activities (dependencies before dependents) and assignments. It stops at
// the first failing record.
func (l *Loader) Apply(ctx context.Context, doc Document) (Summary, error) {
	var summary Summary
	if err := doc.Validate(); err != nil {
		return summary, err
	}

	for _, role := range doc.Roles {
		if err := l.store.Members.CreateRole(ctx, persistence.Role{ID: role.ID, Name: role.Name}); err != nil {
			return summary, fmt.Errorf("role %s: %w", role.ID, err)
		}
		summary.Roles++
	}

	for _, member := range doc.Members {
		record := persistence.Member{ID: member.ID, Name: member.Name, RoleID: member.Role, Contact: member.Contact}
		if err := l.store.Members.CreateMember(ctx, record); err != nil {
			return summary, fmt.Errorf("member %s: %w", member.ID, err)
		}
		summary.Members++
	}

	for _, resource := range doc.Resources {
		if err := l.store.Resources.CreateResource(ctx, persistence.Resource{ID: resource.ID, Name: resource.Name}); err != nil {
			return summary, fmt.Errorf("resource %s: %w", resource.ID, err)
		}
		summary.Resources++
	}

	for i, outage := range doc.Outages {
		start, end, err := parseWindow(fmt.Sprintf("outages[%d]", i), outage.Start, outage.End)
		if err != nil {
			return summary, err
		}
		record := persistence.ResourceOutage{
			ID:         l.idOr(outage.ID),
			ResourceID: outage.Resource,
			Start:      start,
			End:        end,
			Reason:     outage.Reason,
		}
		if err := l.store.Resources.AddOutage(ctx, record); err != nil {
			return summary, fmt.Errorf("outage on %s: %w", outage.Resource, err)
		}
		summary.Outages++
	}

	ordered, err := orderActivities(doc.Activities)
	if err != nil {
		return summary, err
	}
	intervals := make(map[string][2]time.Time, len(ordered))
	for _, activity := range ordered {
		start, end, err := parseWindow("activity "+activity.ID, activity.Start, activity.End)
		if err != nil {
			return summary, err
		}
		record := persistence.Activity{
			ID:            activity.ID,
			Name:          activity.Name,
			Start:         start,
			End:           end,
			StageID:       activity.Stage,
			ResponsibleID: activity.Responsible,
			Completed:     activity.Completed,
			Status:        activity.Status,
			DependencyIDs: activity.DependsOn,
			ResourceIDs:   activity.Resources,
		}
		if record.Completed && record.Status == "" {
			record.Status = "completed"
		}
		if err := l.store.Activities.CreateActivity(ctx, record); err != nil {
			return summary, fmt.Errorf("activity %s: %w", activity.ID, err)
		}
		intervals[activity.ID] = [2]time.Time{start, end}
		summary.Activities++
	}

	now := l.now().UTC()
	for i, assignment := range doc.Assignments {
		record, err := l.assignmentRecord(i, assignment, intervals, now)
		if err != nil {
			return summary, err
		}
		if err := l.store.Assignments.InsertAssignment(ctx, record); err != nil {
			return summary, fmt.Errorf("assignment %s: %w", record.ID, err)
		}
		summary.Assignments++
	}

	return summary, nil
}

func (l *Loader) assignmentRecord(index int, assignment Assignment, intervals map[string][2]time.Time, now time.Time) (persistence.Assignment, error) {
	label := fmt.Sprintf("assignments[%d]", index)
	var start, end time.Time
	if assignment.Start == "" && assignment.End == "" && assignment.Activity != "" {
		window, ok := intervals[assignment.Activity]
		if !ok {
			return persistence.Assignment{}, fmt.Errorf("%s: times omitted but activity %s is not in this document", label, assignment.Activity)
		}
		start, end = window[0], window[1]
	} else {
		var err error
		if start, end, err = parseWindow(label, assignment.Start, assignment.End); err != nil {
			return persistence.Assignment{}, err
		}
	}

	record := persistence.Assignment{
		ID:        l.idOr(assignment.ID),
		MemberID:  assignment.Member,
		RoleID:    assignment.Role,
		Start:     start,
		End:       end,
		Location:  assignment.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if assignment.Activity != "" {
		record.Activity = &persistence.ActivityRef{ID: assignment.Activity}
	}
	return record, nil
}

func (l *Loader) idOr(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return l.newID()
}

func parseWindow(label, rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(rawStart))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: start: %w", label, err)
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(rawEnd))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: end: %w", label, err)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: start must be before end", label)
	}
	return start, end, nil
}

// orderActivities sorts activities so every dependency declared in the same
// document comes first. Dependencies outside the document are assumed to be
// stored already. Ties keep document order.
func orderActivities(activities []Activity) ([]Activity, error) {
	byID := make(map[string]Activity, len(activities))
	position := make(map[string]int, len(activities))
	for i, activity := range activities {
		byID[activity.ID] = activity
		position[activity.ID] = i
	}

	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int, len(activities))
	ordered := make([]Activity, 0, len(activities))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(append(path, id), " -> "))
		}
		state[id] = visiting
		deps := append([]string(nil), byID[id].DependsOn...)
		sort.SliceStable(deps, func(i, j int) bool { return position[deps[i]] < position[deps[j]] })
		for _, dep := range deps {
			if _, ok := byID[dep]; !ok {
				continue
			}
			if err := visit(dep, append(path, id)); err != nil {
				return err
			}
		}
		state[id] = done
		ordered = append(ordered, byID[id])
		return nil
	}

	for _, activity := range activities {
		if err := visit(activity.ID, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
