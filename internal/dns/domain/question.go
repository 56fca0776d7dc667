package domain

import "fmt"

// Question represents a single DNS question section entry: the name and
// record type a client wants resolved.
type Question struct {
	Name  Name
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question and validates its fields.
func NewQuestion(name Name, rrtype RRType, class RRClass) (Question, error) {
	q := Question{Name: name, Type: rrtype, Class: class}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks whether the Question fields are structurally valid.
func (q Question) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("question name must not be empty")
	}
	if !q.Type.IsValid() {
		return fmt.Errorf("unsupported RRType: %d", q.Type)
	}
	if !q.Class.IsValid() {
		return fmt.Errorf("unsupported RRClass: %d", q.Class)
	}
	return nil
}

// CacheKey returns the cache key string derived from the question's name
// and type. Class is not part of the key: every query in this resolver
// is class IN.
func (q Question) CacheKey() string {
	return GenerateCacheKey(q.Name, q.Type)
}
