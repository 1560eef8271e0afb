package domain

import (
	"net/url"
	"strings"
)

// Unknown is the placeholder for any origin field the request did not supply.
const Unknown = "unknown"

// Header names supplied by the edge proxy.
const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-Ip"
	HeaderGeoCountry   = "X-Vercel-Ip-Country"
	HeaderGeoRegion    = "X-Vercel-Ip-Country-Region"
	HeaderGeoCity      = "X-Vercel-Ip-City"
	HeaderGeoLatitude  = "X-Vercel-Ip-Latitude"
	HeaderGeoLongitude = "X-Vercel-Ip-Longitude"
)

// HeaderReader is satisfied by http.Header. Lookups are case-insensitive.
type HeaderReader interface {
	Get(key string) string
}

// RequestOrigin describes where a submission came from. SourceKey partitions
// the cooldown ledger and is never validated as a network address.
type RequestOrigin struct {
	SourceKey string
	Country   string
	Region    string
	City      string
	Latitude  string
	Longitude string
}

// SourceKey returns the first forwarded-for entry, else the real-IP header, else Unknown.
// Both headers are client controlled; a forged value moves the caller into another
// cooldown bucket.
func SourceKey(headers HeaderReader) string {
	if forwarded := headers.Get(HeaderForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(headers.Get(HeaderRealIP)); realIP != "" {
		return realIP
	}
	return Unknown
}

// OriginFromHeaders derives the origin. Each geo field independently falls back to Unknown.
func OriginFromHeaders(headers HeaderReader) RequestOrigin {
	return RequestOrigin{
		SourceKey: SourceKey(headers),
		Country:   headerOrUnknown(headers, HeaderGeoCountry),
		Region:    headerOrUnknown(headers, HeaderGeoRegion),
		City:      decodeHeaderValue(headerOrUnknown(headers, HeaderGeoCity)),
		Latitude:  headerOrUnknown(headers, HeaderGeoLatitude),
		Longitude: headerOrUnknown(headers, HeaderGeoLongitude),
	}
}

// MissingGeo reports whether any geo field is still Unknown.
func (o RequestOrigin) MissingGeo() bool {
	return o.Country == Unknown || o.Region == Unknown || o.City == Unknown ||
		o.Latitude == Unknown || o.Longitude == Unknown
}

// Merge fills Unknown fields of o from other. Values already present in o win.
func (o RequestOrigin) Merge(other RequestOrigin) RequestOrigin {
	pick := func(current, fallback string) string {
		if current != Unknown || fallback == "" {
			return current
		}
		return fallback
	}
	o.Country = pick(o.Country, other.Country)
	o.Region = pick(o.Region, other.Region)
	o.City = pick(o.City, other.City)
	o.Latitude = pick(o.Latitude, other.Latitude)
	o.Longitude = pick(o.Longitude, other.Longitude)
	return o
}

func headerOrUnknown(headers HeaderReader, key string) string {
	if v := headers.Get(key); v != "" {
		return v
	}
	return Unknown
}

// Vercel percent-encodes city names such as "S%C3%A3o%20Paulo".
func decodeHeaderValue(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
