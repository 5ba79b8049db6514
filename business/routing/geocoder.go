package routing

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/foundation/apperror"
	"github.com/routehaul/hosplan/foundation/httpclient"
	"golang.org/x/time/rate"
)

const (
	//geocodeCacheSize bounds the address cache for the process lifetime
	geocodeCacheSize = 4096

	//userAgent identifies the service to public nominatim operators, who
	//require one
	userAgent = "hosplan/1.0 (trip planning)"
)

//NominatimGeocoder resolves addresses against a nominatim-style endpoint. A
//single limiter spaces live requests a second apart, which public instances
//require; cache hits bypass it.
type NominatimGeocoder struct {
	client  *httpclient.Client
	baseURL string
	limiter *rate.Limiter
	cache   *lru.Cache[string, []hos.NamedPlace]
}

//NewNominatimGeocoder builds a geocoder against baseURL.
func NewNominatimGeocoder(client *httpclient.Client, baseURL string) *NominatimGeocoder {
	cache, _ := lru.New[string, []hos.NamedPlace](geocodeCacheSize)
	return &NominatimGeocoder{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		cache:   cache,
	}
}

//nominatimResult is the subset of a nominatim search row the service uses.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

//Search returns up to limit places matching address, best match first. An
//address with no results is an upstream-invalid failure: the caller typed
//something no geocoder recognizes.
func (g *NominatimGeocoder) Search(ctx context.Context, address string, limit int) ([]hos.NamedPlace, error) {
	key := strings.ToLower(strings.TrimSpace(address)) + "|" + strconv.Itoa(limit)
	if places, ok := g.cache.Get(key); ok {
		return places, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, apperror.Wrap(apperror.RateLimited, err, "geocoding budget exhausted before the deadline")
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "jsonv2")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("countrycodes", "us")

	header := http.Header{}
	header.Set("User-Agent", userAgent)

	var rows []nominatimResult
	if err := g.client.GetJSON(ctx, g.baseURL+"/search?"+query.Encode(), header, &rows); err != nil {
		return nil, classify(err, "geocoding")
	}

	places := make([]hos.NamedPlace, 0, len(rows))
	for _, row := range rows {
		lat, latErr := strconv.ParseFloat(row.Lat, 64)
		lng, lngErr := strconv.ParseFloat(row.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		places = append(places, hos.NamedPlace{
			Address:     address,
			DisplayName: row.DisplayName,
			Coordinate:  hos.RoundCoordinate(hos.Coordinate{Lat: lat, Lng: lng}),
		})
	}
	if len(places) == 0 {
		return nil, apperror.Newf(apperror.UpstreamInvalid, "no results for address %q", address)
	}

	g.cache.Add(key, places)
	return places, nil
}
