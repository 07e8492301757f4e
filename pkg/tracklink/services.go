package tracklink

import (
	"strconv"
	"strings"
	"time"

	"github.com/unklstewy/planefence/pkg/adsb"
)

const (
	adsbExchangeBase = "https://globe.adsbexchange.com/"
	flightAwareBase  = "https://flightaware.com/live/modes/"

	logTimestampLayout = "2006/01/02 15:04:05"
)

type flightAwareLink struct{}

// Link formats https://flightaware.com/live/modes/<icao>/ident/<callsign>/redirect.
func (flightAwareLink) Link(s adsb.Sighting) string {
	return flightAwareBase + strings.ToLower(s.ICAO) + "/ident/" + s.Callsign + "/redirect"
}

type adsbExchangeLink struct {
	lat, lon float64
	location *time.Location
}

// Link formats e.g.
// https://globe.adsbexchange.com/?icao=a4a567&lat=42.3966&lon=-71.1773&zoom=12&showTrace=2020-08-12&timestamp=1597240805
func (g *adsbExchangeLink) Link(s adsb.Sighting) string {
	var b strings.Builder
	b.WriteString(adsbExchangeBase)
	b.WriteString("?icao=")
	b.WriteString(strings.ToLower(s.ICAO))
	b.WriteString("&lat=")
	b.WriteString(strconv.FormatFloat(g.lat, 'f', -1, 64))
	b.WriteString("&lon=")
	b.WriteString(strconv.FormatFloat(g.lon, 'f', -1, 64))
	b.WriteString("&zoom=12")

	seen, err := time.ParseInLocation(logTimestampLayout, s.Timestamp(), g.location)
	if err != nil {
		b.WriteString("&showTrace=")
		b.WriteString(dateOnlyTrace(s.Date))
		return b.String()
	}

	utc := seen.UTC()
	b.WriteString("&showTrace=")
	b.WriteString(utc.Format("2006-01-02"))
	b.WriteString("&timestamp=")
	b.WriteString(strconv.FormatInt(utc.Unix(), 10))
	return b.String()
}

// dateOnlyTrace rewrites "YYYY/MM/DD" as "YYYY-MM-DD" by position, without
// validating the text. Short input yields whatever pieces exist.
func dateOnlyTrace(date string) string {
	return substr(date, 0, 4) + "-" + substr(date, 5, 7) + "-" + substr(date, 8, 10)
}

func substr(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
