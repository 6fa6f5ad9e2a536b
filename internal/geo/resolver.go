// Package geo resolves the country for ingested web events from the
// client IP using a MaxMind database. Enrichment is best-effort: a
// nil resolver or a failed lookup leaves the event untouched.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// Resolver wraps an open MaxMind country database.
type Resolver struct {
	reader *maxminddb.Reader
}

// NewResolver opens the MaxMind database at dbPath.
func NewResolver(dbPath string) (*Resolver, error) {
	reader, err := maxminddb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// CountryCode returns the ISO country code for ip, or "" when the
// resolver is nil, the IP does not parse, or the lookup finds nothing.
func (r *Resolver) CountryCode(ip string) string {
	if r == nil || r.reader == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	var record countryRecord
	if err := r.reader.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Close closes the underlying database.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
