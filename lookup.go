package ddns

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudflare/cloudflare-go"
)

// ZoneAPI is the part of *cloudflare.API used to find the IDs New needs.
type ZoneAPI interface {
	ListZones(ctx context.Context, z ...string) ([]cloudflare.Zone, error)
	ListDNSRecords(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListDNSRecordsParams) ([]cloudflare.DNSRecord, *cloudflare.ResultInfo, error)
}

// RecordIDs holds the identifiers of the zone managing a domain and of that domain's A records.
type RecordIDs struct {
	ZoneID   string
	ZoneName string
	Records  []cloudflare.DNSRecord
}

// LookupRecordIDs finds the zone and A record IDs for domain,
// for use as CLOUDFLARE_ZONE_ID and CLOUDFLARE_RECORD_ID.
// It returns an error when the zone exists but holds no A record for domain,
// since the updater can only overwrite an existing record.
func LookupRecordIDs(ctx context.Context, api ZoneAPI, domain string) (RecordIDs, error) {
	ids, err := zoneForDomain(ctx, api, domain)
	if err != nil {
		return RecordIDs{}, fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}

	records, _, err := api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(ids.ZoneID), cloudflare.ListDNSRecordsParams{
		Type: RecordType,
		Name: domain,
	})
	if err != nil {
		return RecordIDs{}, fmt.Errorf("error listing %s records for %s: %w", RecordType, domain, err)
	}
	if len(records) == 0 {
		return RecordIDs{}, fmt.Errorf("zone %s has no %s record named %s; create one first", ids.ZoneName, RecordType, domain)
	}
	ids.Records = records
	return ids, nil
}

// zoneForDomain picks the zone with the longest name that domain belongs to.
func zoneForDomain(ctx context.Context, api ZoneAPI, domain string) (RecordIDs, error) {
	zones, err := api.ListZones(ctx)
	if err != nil {
		return RecordIDs{}, fmt.Errorf("error listing zones: %w", err)
	}

	var ids RecordIDs
	for _, z := range zones {
		if domain != z.Name && !strings.HasSuffix(domain, "."+z.Name) {
			continue
		}
		if len(z.Name) > len(ids.ZoneName) {
			ids.ZoneID, ids.ZoneName = z.ID, z.Name
		}
	}
	if ids.ZoneID == "" {
		return RecordIDs{}, fmt.Errorf("unable to find a zone matching \"%s\"", domain)
	}
	return ids, nil
}
