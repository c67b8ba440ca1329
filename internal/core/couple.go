package core

// FindPartner returns the member of c that is not userID. ok is false when
// userID does not belong to c.
func FindPartner(c Couple, userID string) (partnerID string, ok bool) {
	switch userID {
	case "":
		return "", false
	case c.User1ID:
		return c.User2ID, c.User2ID != "" && c.User2ID != userID
	case c.User2ID:
		return c.User1ID, c.User1ID != "" && c.User1ID != userID
	}
	return "", false
}
