package domain

import "fmt"

// ResourceRecord is a single decoded DNS resource record. RDATA is
// stored as a structured, position-independent value (never raw wire
// bytes) so a record read out of the cache can be re-encoded into a
// brand new message, possibly at a different offset and with a
// different compression pointer, without carrying stale pointers along.
type ResourceRecord struct {
	Name  Name
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  RDATA
}

// NewResourceRecord constructs and validates a ResourceRecord.
func NewResourceRecord(name Name, rrtype RRType, class RRClass, ttl uint32, data RDATA) (ResourceRecord, error) {
	rr := ResourceRecord{Name: name, Type: rrtype, Class: class, TTL: ttl, Data: data}
	if err := rr.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return rr, nil
}

// Validate checks whether the ResourceRecord fields are structurally valid.
func (rr ResourceRecord) Validate() error {
	if rr.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if !rr.Type.IsValid() {
		return fmt.Errorf("invalid RRType: %d", rr.Type)
	}
	if !rr.Class.IsValid() {
		return fmt.Errorf("invalid RRClass: %d", rr.Class)
	}
	if rr.Data == nil {
		return fmt.Errorf("record data must not be nil")
	}
	if rr.Data.Type() != rr.Type {
		return fmt.Errorf("record data type %s does not match record type %s", rr.Data.Type(), rr.Type)
	}
	return nil
}

// CacheKey returns the cache key string derived from the record's name and type.
func (rr ResourceRecord) CacheKey() string {
	return GenerateCacheKey(rr.Name, rr.Type)
}
