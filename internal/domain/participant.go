package domain

// Participant is the read-only view of a call member used for display.
type Participant struct {
	ID   UserID
	Name string
}

func ParticipantOf(u *User) Participant {
	return Participant{ID: u.ID, Name: u.Username}
}
