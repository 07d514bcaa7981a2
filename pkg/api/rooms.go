package api

// GetRoomID returns the room the request is about. Like the other GetRoomID
// accessors below it is nil-safe, so interceptors can tag a call with its
// room without knowing the concrete request type.
func (r *GetRoomRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}

func (r *EnterRoomRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}

func (r *RevealRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}

func (r *RematchRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}

func (r *WatchRoomRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}

func (r *WatchParticipantsRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}

func (r *ClaimRequest) GetRoomID() string {
	if r == nil {
		return ""
	}
	return r.RoomID
}
