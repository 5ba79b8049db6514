package routing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/foundation/apperror"
)

//roadFactor converts a great circle distance into a plausible road distance.
const roadFactor = 1.3

//offlineAvgSpeedMPH is the cruising speed the offline router plans with.
const offlineAvgSpeedMPH = 55.0

//offlineCity is one row of the built in geocoding table.
type offlineCity struct {
	key         string
	lat         float64
	lng         float64
	displayName string
	timezone    string
}

//offlineCities covers the cities trips are planned between when no live
//geocoder is configured. Keys are lowercase "city, st".
var offlineCities = []offlineCity{
	{"green bay, wi", 44.5133, -88.0133, "Green Bay, Brown County, Wisconsin, USA", "America/Chicago"},
	{"chicago, il", 41.8781, -87.6298, "Chicago, Cook County, Illinois, USA", "America/Chicago"},
	{"dallas, tx", 32.7767, -96.7970, "Dallas, Dallas County, Texas, USA", "America/Chicago"},
	{"los angeles, ca", 34.0522, -118.2437, "Los Angeles, Los Angeles County, California, USA", "America/Los_Angeles"},
	{"new york, ny", 40.7128, -74.0060, "New York City, New York, USA", "America/New_York"},
	{"miami, fl", 25.7617, -80.1918, "Miami, Miami-Dade County, Florida, USA", "America/New_York"},
	{"seattle, wa", 47.6062, -122.3321, "Seattle, King County, Washington, USA", "America/Los_Angeles"},
	{"denver, co", 39.7392, -104.9903, "Denver, Denver County, Colorado, USA", "America/Denver"},
	{"atlanta, ga", 33.7490, -84.3880, "Atlanta, Fulton County, Georgia, USA", "America/New_York"},
	{"phoenix, az", 33.4484, -112.0740, "Phoenix, Maricopa County, Arizona, USA", "America/Phoenix"},
	{"milwaukee, wi", 43.0389, -87.9065, "Milwaukee, Milwaukee County, Wisconsin, USA", "America/Chicago"},
	{"madison, wi", 43.0731, -89.4012, "Madison, Dane County, Wisconsin, USA", "America/Chicago"},
	{"houston, tx", 29.7604, -95.3698, "Houston, Harris County, Texas, USA", "America/Chicago"},
	{"san francisco, ca", 37.7749, -122.4194, "San Francisco, San Francisco County, California, USA", "America/Los_Angeles"},
	{"boston, ma", 42.3601, -71.0589, "Boston, Suffolk County, Massachusetts, USA", "America/New_York"},
	{"las vegas, nv", 36.1699, -115.1398, "Las Vegas, Clark County, Nevada, USA", "America/Los_Angeles"},
	{"nashville, tn", 36.1627, -86.7816, "Nashville, Davidson County, Tennessee, USA", "America/Chicago"},
	{"kansas city, mo", 39.0997, -94.5786, "Kansas City, Jackson County, Missouri, USA", "America/Chicago"},
	{"salt lake city, ut", 40.7608, -111.8910, "Salt Lake City, Salt Lake County, Utah, USA", "America/Denver"},
	{"minneapolis, mn", 44.9778, -93.2650, "Minneapolis, Hennepin County, Minnesota, USA", "America/Chicago"},
	{"omaha, ne", 41.2565, -95.9345, "Omaha, Douglas County, Nebraska, USA", "America/Chicago"},
	{"oklahoma city, ok", 35.4676, -97.5164, "Oklahoma City, Oklahoma County, Oklahoma, USA", "America/Chicago"},
	{"albuquerque, nm", 35.0844, -106.6504, "Albuquerque, Bernalillo County, New Mexico, USA", "America/Denver"},
	{"st. louis, mo", 38.6270, -90.1994, "St. Louis, Missouri, USA", "America/Chicago"},
	{"indianapolis, in", 39.7684, -86.1581, "Indianapolis, Marion County, Indiana, USA", "America/Indiana/Indianapolis"},
}

//OfflineGeocoder resolves addresses against the built in city table so the
//service can run with no upstream configured. Unknown addresses resolve to a
//deterministic point inside the continental US, hashed from the address, so
//repeated requests agree.
type OfflineGeocoder struct{}

//Search implements Geocoder over the city table. Exact matches come back
//alone; otherwise every city whose name contains the query is a candidate.
func (OfflineGeocoder) Search(_ context.Context, address string, limit int) ([]hos.NamedPlace, error) {
	normalized := strings.ToLower(strings.TrimSpace(address))
	if normalized == "" {
		return nil, apperror.New(apperror.UpstreamInvalid, "no results for empty address")
	}

	for _, city := range offlineCities {
		if city.key == normalized {
			return []hos.NamedPlace{offlinePlace(address, city)}, nil
		}
	}

	var matches []hos.NamedPlace
	for _, city := range offlineCities {
		cityName := strings.SplitN(city.key, ",", 2)[0]
		if strings.Contains(normalized, cityName) || strings.Contains(strings.ToLower(city.displayName), normalized) {
			matches = append(matches, offlinePlace(address, city))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].DisplayName < matches[j].DisplayName })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if len(matches) > 0 {
		return matches, nil
	}

	//continental US bounds, point picked by address hash
	lat := 25 + hashFraction(normalized, 0)*(49-25)
	lng := -125 + hashFraction(normalized, 1)*(-67-(-125))
	return []hos.NamedPlace{{
		Address:     address,
		DisplayName: address + ", USA",
		Coordinate:  hos.RoundCoordinate(hos.Coordinate{Lat: lat, Lng: lng}),
	}}, nil
}

//hashFraction maps a string to [0, 1). Different salts give independent
//fractions for the same string.
func hashFraction(s string, salt byte) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{salt})
	return float64(h.Sum32()) / float64(math.MaxUint32)
}

func offlinePlace(address string, city offlineCity) hos.NamedPlace {
	return hos.NamedPlace{
		Address:     address,
		DisplayName: city.displayName,
		Coordinate:  hos.Coordinate{Lat: city.lat, Lng: city.lng},
		Timezone:    city.timezone,
	}
}

//OfflineRouter estimates truck routes from great circle distance: road miles
//are the great circle scaled by a road factor, driven at a fixed average
//speed, along a synthetic gently curved path.
type OfflineRouter struct{}

//Route implements Router without any upstream.
func (OfflineRouter) Route(_ context.Context, from, to hos.NamedPlace) (hos.RouteSegment, error) {
	miles := hos.HaversineMiles(from.Coordinate, to.Coordinate) * roadFactor
	path := syntheticPath(from.Coordinate, to.Coordinate)
	return hos.RouteSegment{
		Origin:        from,
		Destination:   to,
		DistanceMiles: math.Round(miles*100) / 100,
		DurationHours: math.Round(miles/offlineAvgSpeedMPH*100) / 100,
		Polyline:      EncodePath(path),
		Path:          path,
	}, nil
}

//syntheticPath interpolates between two points with a sine offset
//perpendicular to the heading, so offline routes render as roads rather than
//rulers.
func syntheticPath(from, to hos.Coordinate) []hos.Coordinate {
	distance := hos.HaversineMiles(from, to)
	points := int(distance / 50)
	if points < 10 {
		points = 10
	}

	maxOffset := math.Min(0.5, distance/500)
	angle := math.Atan2(to.Lat-from.Lat, to.Lng-from.Lng)

	path := make([]hos.Coordinate, 0, points+1)
	for i := 0; i <= points; i++ {
		t := float64(i) / float64(points)
		lat := from.Lat + (to.Lat-from.Lat)*t
		lng := from.Lng + (to.Lng-from.Lng)*t
		if i > 0 && i < points {
			curve := math.Sin(t*math.Pi) * maxOffset
			lat += curve * math.Cos(angle+math.Pi/2) * 0.3
			lng += curve * math.Sin(angle+math.Pi/2) * 0.3
		}
		path = append(path, hos.RoundCoordinate(hos.Coordinate{Lat: lat, Lng: lng}))
	}
	return path
}

//truckStopChains are the names the offline locator hands out.
var truckStopChains = []string{
	"Pilot Travel Center",
	"Love's Travel Stop",
	"Flying J Travel Center",
	"TA Travel Center",
	"Petro Stopping Center",
}

//OfflineStopLocator names inserted stops from the major truck stop chains,
//picking by coordinate hash so the same point always gets the same stop.
type OfflineStopLocator struct{}

//FindStop implements hos.StopLocator without any upstream. Lookups are keyed
//at two decimal places so nearby points land on the same stop.
func (OfflineStopLocator) FindStop(_ context.Context, near hos.Coordinate, kind hos.StopKind) (hos.NamedPlace, error) {
	rounded := hos.RoundCoordinate(near)
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s|%.2f|%.2f", kind, rounded.Lat, rounded.Lng)))
	chain := truckStopChains[h.Sum32()%uint32(len(truckStopChains))]
	return hos.NamedPlace{
		Address:     chain,
		DisplayName: chain,
		Coordinate:  rounded,
	}, nil
}
