package domain

import "fmt"

// Header is the fixed 12-byte DNS message header (RFC 1035 §4.1.1),
// decomposed into its bit fields.
type Header struct {
	ID                 uint16
	IsResponse         bool
	Opcode             uint8
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	RCode              RCode
}

// Message is a complete DNS message: header plus the four sections.
// The same type represents both queries and responses, matching the
// wire format itself, which draws no structural distinction between
// them beyond the QR bit.
type Message struct {
	Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// NewQuery builds a single-question query message with RD set, the
// shape every outbound request in this resolver takes.
func NewQuery(id uint16, q Question) Message {
	return Message{
		Header: Header{
			ID:               id,
			RecursionDesired: true,
		},
		Questions: []Question{q},
	}
}

// NewErrorResponse builds a response carrying no records beyond the
// given RCode, echoing the query's ID and question.
func NewErrorResponse(query Message, rcode RCode) Message {
	return Message{
		Header: Header{
			ID:                 query.ID,
			IsResponse:         true,
			RecursionAvailable: true,
			RCode:              rcode,
		},
		Questions: query.Questions,
	}
}

// Validate checks whether the Message fields are structurally valid.
func (m Message) Validate() error {
	if !m.RCode.IsValid() {
		return fmt.Errorf("invalid RCode: %d", m.RCode)
	}
	for i, q := range m.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("invalid question at index %d: %w", i, err)
		}
	}
	for i, rr := range m.Answers {
		if err := rr.Validate(); err != nil {
			return fmt.Errorf("invalid answer record at index %d: %w", i, err)
		}
	}
	for i, rr := range m.Authority {
		if err := rr.Validate(); err != nil {
			return fmt.Errorf("invalid authority record at index %d: %w", i, err)
		}
	}
	for i, rr := range m.Additional {
		if err := rr.Validate(); err != nil {
			return fmt.Errorf("invalid additional record at index %d: %w", i, err)
		}
	}
	return nil
}

// IsError reports whether the response indicates a non-success RCode.
func (m Message) IsError() bool {
	return m.RCode != RCode(0)
}

// Question returns the message's first question, the only one this
// resolver ever inspects (documented limitation: multi-question
// messages with differing names are not supported).
func (m Message) Question() (Question, bool) {
	if len(m.Questions) == 0 {
		return Question{}, false
	}
	return m.Questions[0], true
}
