package scheduler

import (
	"sort"
	"time"
)

// Booking is a member's occupied interval as seen by conflict detection.
type Booking struct {
	ID       string
	MemberID string
	Start    time.Time
	End      time.Time
}

// Conflict pairs two bookings of the same member whose intervals overlap.
// First always starts no later than Second.
type Conflict struct {
	MemberID string
	FirstID  string
	SecondID string
}

// DetectConflicts returns every overlapping pair of bookings that share a
// member. Output is ordered by member id, then by the first booking's start.
func DetectConflicts(bookings []Booking) ([]Conflict, error) {
	byMember := make(map[string][]Booking)
	for _, b := range bookings {
		if err := ValidateInterval(b.Start, b.End); err != nil {
			return nil, err
		}
		byMember[b.MemberID] = append(byMember[b.MemberID], b)
	}

	members := make([]string, 0, len(byMember))
	for id := range byMember {
		members = append(members, id)
	}
	sort.Strings(members)

	var conflicts []Conflict
	for _, memberID := range members {
		list := byMember[memberID]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Start.Equal(list[j].Start) {
				return list[i].ID < list[j].ID
			}
			return list[i].Start.Before(list[j].Start)
		})
		for i := range list {
			for j := i + 1; j < len(list); j++ {
				overlap, err := Overlaps(list[i].Start, list[i].End, list[j].Start, list[j].End)
				if err != nil {
					return nil, err
				}
				if overlap {
					conflicts = append(conflicts, Conflict{MemberID: memberID, FirstID: list[i].ID, SecondID: list[j].ID})
				}
			}
		}
	}
	return conflicts, nil
}
