package routing

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/routehaul/hosplan/business/hos"
)

func TestOfflineGeocoderKnownCity(t *testing.T) {
	is := is.New(t)

	places, err := OfflineGeocoder{}.Search(context.Background(), "Chicago, IL", 5)
	is.NoErr(err)
	is.Equal(len(places), 1)
	is.Equal(places[0].DisplayName, "Chicago, Cook County, Illinois, USA")
	is.Equal(places[0].Coordinate, hos.Coordinate{Lat: 41.8781, Lng: -87.6298})
	is.Equal(places[0].Timezone, "America/Chicago")
	is.Equal(places[0].Address, "Chicago, IL")
}

func TestOfflineGeocoderPartialMatch(t *testing.T) {
	is := is.New(t)

	places, err := OfflineGeocoder{}.Search(context.Background(), "madison", 5)
	is.NoErr(err)
	is.True(len(places) >= 1)
	is.Equal(places[0].DisplayName, "Madison, Dane County, Wisconsin, USA")
}

func TestOfflineGeocoderUnknownAddressIsDeterministic(t *testing.T) {
	is := is.New(t)

	first, err := OfflineGeocoder{}.Search(context.Background(), "1600 Nowhere Lane", 5)
	is.NoErr(err)
	second, err := OfflineGeocoder{}.Search(context.Background(), "1600 Nowhere Lane", 5)
	is.NoErr(err)

	is.Equal(first, second)
	is.Equal(len(first), 1)
	c := first[0].Coordinate
	is.True(c.Lat >= 25 && c.Lat <= 49)
	is.True(c.Lng >= -125 && c.Lng <= -67)
	is.True(strings.HasSuffix(first[0].DisplayName, ", USA"))
}

func TestOfflineRouter(t *testing.T) {
	is := is.New(t)

	chicago := hos.NamedPlace{Address: "Chicago, IL", Coordinate: hos.Coordinate{Lat: 41.8781, Lng: -87.6298}}
	milwaukee := hos.NamedPlace{Address: "Milwaukee, WI", Coordinate: hos.Coordinate{Lat: 43.0389, Lng: -87.9065}}

	seg, err := OfflineRouter{}.Route(context.Background(), chicago, milwaukee)
	is.NoErr(err)

	greatCircle := hos.HaversineMiles(chicago.Coordinate, milwaukee.Coordinate)
	is.True(math.Abs(seg.DistanceMiles-greatCircle*1.3) < 0.01)
	is.True(math.Abs(seg.DurationHours-seg.DistanceMiles/55) < 0.01)
	is.True(len(seg.Path) >= 11)
	is.Equal(seg.Path[0], hos.RoundCoordinate(chicago.Coordinate))
	is.Equal(seg.Path[len(seg.Path)-1], hos.RoundCoordinate(milwaukee.Coordinate))

	decoded, err := DecodePath(seg.Polyline)
	is.NoErr(err)
	is.Equal(len(decoded), len(seg.Path))
}

func TestOfflineStopLocatorIsDeterministic(t *testing.T) {
	is := is.New(t)

	near := hos.Coordinate{Lat: 41.9, Lng: -88.2}
	first, err := OfflineStopLocator{}.FindStop(context.Background(), near, hos.StopRest10Hr)
	is.NoErr(err)
	second, err := OfflineStopLocator{}.FindStop(context.Background(), near, hos.StopRest10Hr)
	is.NoErr(err)

	is.Equal(first, second)
	is.Equal(first.Coordinate, near)

	known := false
	for _, chain := range truckStopChains {
		if first.DisplayName == chain {
			known = true
		}
	}
	is.True(known)
}
