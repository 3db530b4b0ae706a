package matching

// Participant is a member taking part in an exchange. Two participants
// are the same person when their IDs are equal.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Assignment says that Giver buys a gift for Receiver.
type Assignment struct {
	GiverID    string `json:"giver_id"`
	ReceiverID string `json:"receiver_id"`
}

// Matcher produces a complete set of assignments for a participant list.
type Matcher interface {
	Assign(participants []Participant) ([]Assignment, error)
}
