package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver maps an IP address to an ISO country code. Implementations
// return an empty code, not an error, for IPs they cannot place.
type Resolver interface {
	CountryCode(ip string) (string, error)
	Close() error
}

// MaxMindResolver implements Resolver using a MaxMind GeoLite2 database.
type MaxMindResolver struct {
	reader *geoip2.Reader
}

// NewMaxMindResolver opens the GeoLite2 database at dbPath.
func NewMaxMindResolver(dbPath string) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMindResolver{reader: reader}, nil
}

// CountryCode returns the ISO country code for an IP, or "" when the
// database has no record for it.
func (r *MaxMindResolver) CountryCode(ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}

	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", err
	}
	return record.Country.IsoCode, nil
}

// Close releases the database reader.
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}
