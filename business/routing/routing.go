// Package routing provides the geocoding, truck routing and rest stop lookup
// adapters trip planning depends on. Every adapter is a pure request to
// response function behind a small interface, with a bounded in-process cache,
// so handlers and tests can swap live services for canned ones.
package routing

import (
	"context"
	"errors"
	"net/http"

	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/foundation/apperror"
	"github.com/routehaul/hosplan/foundation/httpclient"
)

//Geocoder resolves a street address into candidate places, best match first.
type Geocoder interface {
	Search(ctx context.Context, address string, limit int) ([]hos.NamedPlace, error)
}

//Router produces a drivable segment between two resolved places.
type Router interface {
	Route(ctx context.Context, from, to hos.NamedPlace) (hos.RouteSegment, error)
}

//classify maps a transport failure onto the error kinds the HTTP layer
//understands. Deadline expiry is the only retryable outcome a caller can do
//anything about, everything else from an upstream is non-retryable.
func classify(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Wrap(apperror.UpstreamTimeout, err, operation+" timed out")
	}
	var status *httpclient.StatusError
	if errors.As(err, &status) {
		if status.StatusCode == http.StatusTooManyRequests {
			return apperror.Wrap(apperror.RateLimited, err, operation+" was rate limited upstream")
		}
		return apperror.Wrap(apperror.UpstreamInvalid, err, operation+" request was rejected")
	}
	return apperror.Wrap(apperror.UpstreamInvalid, err, operation+" failed")
}
