package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/foundation/apperror"
	"github.com/routehaul/hosplan/foundation/httpclient"
)

const (
	restStopCacheSize = 1024

	//restStopRadiusMeters is how far off the route a stop may sit
	restStopRadiusMeters = 5000
)

//OverpassLocator finds truck stops near a route point through an
//overpass-style OpenStreetMap endpoint. It satisfies hos.StopLocator, which
//treats every failure as advisory, so callers only ever see a missing name.
type OverpassLocator struct {
	client  *httpclient.Client
	baseURL string
	cache   *lru.Cache[string, hos.NamedPlace]
}

//NewOverpassLocator builds a locator against baseURL.
func NewOverpassLocator(client *httpclient.Client, baseURL string) *OverpassLocator {
	cache, _ := lru.New[string, hos.NamedPlace](restStopCacheSize)
	return &OverpassLocator{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
	}
}

type overpassResponse struct {
	Elements []struct {
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

//FindStop returns the nearest named fuel station, truck stop or rest area to
//the given point. Fueling prefers fuel amenities; everything else prefers
//parking for the rig.
func (l *OverpassLocator) FindStop(ctx context.Context, near hos.Coordinate, kind hos.StopKind) (hos.NamedPlace, error) {
	key := fmt.Sprintf("%.2f,%.2f|%s", near.Lat, near.Lng, kind)
	if place, ok := l.cache.Get(key); ok {
		return place, nil
	}

	query := fmt.Sprintf(`[out:json][timeout:10];
(
  node["amenity"="fuel"](around:%d,%.4f,%.4f);
  node["amenity"="truck_stop"](around:%d,%.4f,%.4f);
  node["highway"="rest_area"](around:%d,%.4f,%.4f);
  node["highway"="services"](around:%d,%.4f,%.4f);
);
out body;`,
		restStopRadiusMeters, near.Lat, near.Lng,
		restStopRadiusMeters, near.Lat, near.Lng,
		restStopRadiusMeters, near.Lat, near.Lng,
		restStopRadiusMeters, near.Lat, near.Lng)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp overpassResponse
	form := url.Values{"data": {query}}.Encode()
	if err := l.client.PostForm(ctx, l.baseURL, header, form, &resp); err != nil {
		return hos.NamedPlace{}, classify(err, "rest stop lookup")
	}

	best, ok := pickStop(resp, near, kind)
	if !ok {
		return hos.NamedPlace{}, apperror.Newf(apperror.UpstreamInvalid,
			"no truck stop near %.4f, %.4f", near.Lat, near.Lng)
	}
	l.cache.Add(key, best)
	return best, nil
}

//pickStop chooses the closest element that fits the stop kind and has a name.
func pickStop(resp overpassResponse, near hos.Coordinate, kind hos.StopKind) (hos.NamedPlace, bool) {
	var best hos.NamedPlace
	bestDistance := -1.0
	for _, el := range resp.Elements {
		if el.Lat == 0 && el.Lon == 0 {
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			name = el.Tags["brand"]
		}
		if name == "" {
			continue
		}
		if kind == hos.StopFuel && el.Tags["amenity"] != "fuel" && el.Tags["amenity"] != "truck_stop" {
			continue
		}
		at := hos.Coordinate{Lat: el.Lat, Lng: el.Lon}
		d := hos.HaversineMiles(near, at)
		if bestDistance < 0 || d < bestDistance {
			bestDistance = d
			best = hos.NamedPlace{
				Address:     osmAddress(el.Tags, name),
				DisplayName: name,
				Coordinate:  hos.RoundCoordinate(at),
			}
		}
	}
	return best, bestDistance >= 0
}

//osmAddress assembles a street address from OSM tags, falling back to the
//stop's name when the node carries none.
func osmAddress(tags map[string]string, name string) string {
	var parts []string
	for _, tag := range []string{"addr:housenumber", "addr:street", "addr:city", "addr:state"} {
		if v := tags[tag]; v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return name
	}
	return strings.Join(parts, ", ")
}
