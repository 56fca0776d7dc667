package domain

import (
	"fmt"
	"net"
	"strings"
)

// RDATA is the structured payload of a resource record. Each concrete
// type knows its own RRType and how to render itself for logging; the
// wire codec is responsible for turning bytes into one of these and
// back again.
type RDATA interface {
	Type() RRType
	String() string
}

// AData is the payload of an A record: a single IPv4 address.
type AData struct{ IP net.IP }

func (AData) Type() RRType    { return RRTypeA }
func (d AData) String() string { return d.IP.String() }

// AAAAData is the payload of an AAAA record: a single IPv6 address.
type AAAAData struct{ IP net.IP }

func (AAAAData) Type() RRType    { return RRTypeAAAA }
func (d AAAAData) String() string { return d.IP.String() }

// NSData is the payload of an NS record: the authoritative name server
// for the owner name.
type NSData struct{ Target Name }

func (NSData) Type() RRType    { return RRTypeNS }
func (d NSData) String() string { return d.Target.String() }

// CNAMEData is the payload of a CNAME record: the canonical name the
// owner name is an alias for.
type CNAMEData struct{ Target Name }

func (CNAMEData) Type() RRType    { return RRTypeCNAME }
func (d CNAMEData) String() string { return d.Target.String() }

// PTRData is the payload of a PTR record: used for reverse lookups,
// shaped identically to CNAME/NS on the wire (RFC 1035 §3.3.12).
type PTRData struct{ Target Name }

func (PTRData) Type() RRType    { return RRTypePTR }
func (d PTRData) String() string { return d.Target.String() }

// MXData is the payload of an MX record.
type MXData struct {
	Preference uint16
	Exchange   Name
}

func (MXData) Type() RRType { return RRTypeMX }
func (d MXData) String() string {
	return fmt.Sprintf("%d %s", d.Preference, d.Exchange)
}

// SOAData is the payload of an SOA record.
type SOAData struct {
	MName   Name
	RName   Name
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (SOAData) Type() RRType { return RRTypeSOA }
func (d SOAData) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d", d.MName, d.RName, d.Serial, d.Refresh, d.Retry, d.Expire, d.Minimum)
}

// TXTData is the payload of a TXT record: one or more character-strings.
type TXTData struct{ Text []string }

func (TXTData) Type() RRType    { return RRTypeTXT }
func (d TXTData) String() string { return strings.Join(d.Text, " ") }

// SRVData is the payload of an SRV record (RFC 2782). Supplemented
// beyond the distilled spec's payload catalogue: SRV is already a
// supported wire QTYPE, this gives it a concrete shape, reusing the
// same name-compression path as MX/CNAME.
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   Name
}

func (SRVData) Type() RRType { return RRTypeSRV }
func (d SRVData) String() string {
	return fmt.Sprintf("%d %d %d %s", d.Priority, d.Weight, d.Port, d.Target)
}

