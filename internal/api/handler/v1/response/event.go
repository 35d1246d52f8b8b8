package response

// RosterImportResponse reports how many roster rows became invited guests.
type RosterImportResponse struct {
	Imported int `json:"imported"`
}

// CheckInResponse confirms a scanned guest.
type CheckInResponse struct {
	Name       string `json:"name"`
	PartySize  int    `json:"partySize"`
	CheckedIn  bool   `json:"checkedIn"`
	AlreadyIn  bool   `json:"alreadyIn"`
	DietaryStr string `json:"dietary,omitempty"`
}
