package domain

// Identity is the already authenticated caller. It is passed explicitly into
// every service call.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
}

// SystemIdentity is used for transitions driven by internal events.
func SystemIdentity() Identity {
	return Identity{Email: "system@order-service", Admin: true}
}

// CanAccess reports whether the caller may read or change data owned by userID.
func (i Identity) CanAccess(userID int64) bool {
	return i.Admin || (i.UserID != 0 && i.UserID == userID)
}
