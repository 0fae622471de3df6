package contract

// FriendRequestsResponse hydrates both directions of the pending lists:
// Incoming holds the profiles of users who requested the caller, Outgoing
// the profiles the caller requested.
type FriendRequestsResponse struct {
	Incoming []*UserResponse `json:"incoming"`
	Outgoing []*UserResponse `json:"outgoing"`
}
