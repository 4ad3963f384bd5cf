package handles

// Cache is the volatile dedup tier. A miss here proves nothing; the
// store tier stays authoritative.
type Cache interface {
	Get(eventID string, handlerCode int) (Record, bool)
	Put(rec Record)
	// Remove evicts all records for eventID, across all handler codes.
	// Called once a whole stream has been re-dispatched successfully.
	Remove(eventID string)
}
