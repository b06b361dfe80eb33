package ddns

const (
	// RecordType is the only record type this package writes.
	RecordType = "A"
	// RecordTTL is the time-to-live in seconds set on every update.
	RecordTTL = 300
)

// Record is the desired state of the managed DNS record.
// Its JSON encoding is the exact request body sent to Cloudflare.
type Record struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// NewRecord describes an A record for domain pointing at ip.
// The record is always proxied through Cloudflare.
func NewRecord(domain, ip string) Record {
	return Record{
		Type:    RecordType,
		Name:    domain,
		Content: ip,
		TTL:     RecordTTL,
		Proxied: true,
	}
}
