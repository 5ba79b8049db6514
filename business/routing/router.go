package routing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/foundation/apperror"
	"github.com/routehaul/hosplan/foundation/httpclient"
)

const (
	routeCacheSize = 1024
	metersPerMile  = 1609.344
)

//ORSRouter routes trucks through an openrouteservice-style endpoint using the
//heavy goods vehicle profile.
type ORSRouter struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	cache   *lru.Cache[string, hos.RouteSegment]
}

//NewORSRouter builds a router against baseURL authenticating with apiKey.
func NewORSRouter(client *httpclient.Client, baseURL, apiKey string) *ORSRouter {
	cache, _ := lru.New[string, hos.RouteSegment](routeCacheSize)
	return &ORSRouter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   cache,
	}
}

type orsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
	Units       string      `json:"units"`
}

type orsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

//Route returns the drivable segment from one place to another, in miles and
//hours, with the provider's encoded polyline and its decoded path.
func (r *ORSRouter) Route(ctx context.Context, from, to hos.NamedPlace) (hos.RouteSegment, error) {
	key := fmt.Sprintf("%.6f,%.6f|%.6f,%.6f",
		from.Coordinate.Lat, from.Coordinate.Lng, to.Coordinate.Lat, to.Coordinate.Lng)
	if seg, ok := r.cache.Get(key); ok {
		seg.Origin, seg.Destination = from, to
		return seg, nil
	}

	//openrouteservice wants lng,lat pairs and meters back
	body := orsRequest{
		Coordinates: [][]float64{
			{from.Coordinate.Lng, from.Coordinate.Lat},
			{to.Coordinate.Lng, to.Coordinate.Lat},
		},
		Units: "m",
	}
	header := http.Header{}
	header.Set("Authorization", r.apiKey)

	var resp orsResponse
	url := r.baseURL + "/v2/directions/driving-hgv"
	if err := r.client.PostJSON(ctx, url, header, body, &resp); err != nil {
		return hos.RouteSegment{}, classify(err, "routing")
	}
	if len(resp.Routes) == 0 {
		return hos.RouteSegment{}, apperror.Newf(apperror.UpstreamInvalid,
			"no drivable route between %q and %q", from.Label(), to.Label())
	}

	route := resp.Routes[0]
	path, err := DecodePath(route.Geometry)
	if err != nil {
		return hos.RouteSegment{}, apperror.Wrap(apperror.UpstreamInvalid, err, "routing returned a bad polyline")
	}

	seg := hos.RouteSegment{
		Origin:        from,
		Destination:   to,
		DistanceMiles: math.Round(route.Summary.Distance/metersPerMile*100) / 100,
		DurationHours: math.Round(route.Summary.Duration/3600*100) / 100,
		Polyline:      route.Geometry,
		Path:          path,
	}
	r.cache.Add(key, seg)
	return seg, nil
}
