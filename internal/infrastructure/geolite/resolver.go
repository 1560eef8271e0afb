package geolite

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

// Resolver は GeoLite2 City データベースから位置情報を引き、ヘッダーで得られなかった項目を補完する。
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads a GeoLite2-City .mmdb file.
func Open(path string) (*Resolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geolite database %s: %w", path, err)
	}
	return &Resolver{reader: reader}, nil
}

// Lookup resolves sourceKey when it is an IP address. Missing fields stay empty
// so RequestOrigin.Merge keeps the existing placeholder.
func (r *Resolver) Lookup(sourceKey string) (domain.RequestOrigin, bool) {
	if r == nil || r.reader == nil {
		return domain.RequestOrigin{}, false
	}
	ip := net.ParseIP(strings.TrimSpace(sourceKey))
	if ip == nil {
		return domain.RequestOrigin{}, false
	}

	record, err := r.reader.City(ip)
	if err != nil {
		return domain.RequestOrigin{}, false
	}

	origin := domain.RequestOrigin{
		SourceKey: sourceKey,
		Country:   record.Country.IsoCode,
		City:      record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		origin.Region = record.Subdivisions[0].IsoCode
	}
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		origin.Latitude = strconv.FormatFloat(record.Location.Latitude, 'f', -1, 64)
		origin.Longitude = strconv.FormatFloat(record.Location.Longitude, 'f', -1, 64)
	}
	return origin, true
}

// Close releases the database.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
