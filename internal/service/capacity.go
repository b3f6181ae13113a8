package service

// CanAccept reports whether an offering with the given live occupancy can take
// one more commitment. The decision is advisory: the selection UI uses it to
// mark full offerings unselectable, and the engine logs but does not block
// writes that land at or beyond capacity. Occupancy is always computed live
// from the store, never cached.
func CanAccept(occupancy, capacity int) bool {
	return occupancy < capacity
}

// AvailableSlots returns capacity minus occupancy. Overbooked offerings from
// manual edits yield a negative value, which is tolerated for display.
func AvailableSlots(capacity, occupancy int) int {
	return capacity - occupancy
}
