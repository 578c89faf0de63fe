package model

// RosterRow is one registration of an event joined with its attendee,
// person, role and physical attendance.
type RosterRow struct {
	RegistrationID uint64
	AttendeeID     uint64
	FullName       string
	Email          string
	Company        *string
	RoleName       RoleName
	Intent         AttendanceIntent
	Confirmed      *bool
	Guests         int
	Comments       *string
	CheckedIn      bool
}
