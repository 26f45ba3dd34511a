package persistence

import "time"

// Role is a crew function such as camera operator or stage manager.
type Role struct {
	ID   string
	Name string
}

// Member is a crew member who can be assigned to time slots.
type Member struct {
	ID      string
	Name    string
	RoleID  string
	Contact string
}

// Activity is a scheduled item on a stage or area.
type Activity struct {
	ID            string
	Name          string
	Start         time.Time
	End           time.Time
	StageID       string
	ResponsibleID string
	Completed     bool
	Status        string
	DependencyIDs []string
	ResourceIDs   []string
}

// ActivityRef is the linked-activity summary joined into assignment records.
type ActivityRef struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time
}

// Assignment is a stored team assignment with its foreign references resolved.
type Assignment struct {
	ID        string
	MemberID  string
	RoleID    string
	Activity  *ActivityRef
	Start     time.Time
	End       time.Time
	Location  string
	Member    Member
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivityID returns the linked activity id or "".
func (a Assignment) ActivityID() string {
	if a.Activity == nil {
		return ""
	}
	return a.Activity.ID
}

// Resource is equipment or space an activity can require.
type Resource struct {
	ID   string
	Name string
}

// ResourceOutage is a window during which a resource cannot be used.
type ResourceOutage struct {
	ID         string
	ResourceID string
	Start      time.Time
	End        time.Time
	Reason     string
}
