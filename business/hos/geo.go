package hos

import (
	"math"
)

//earthRadiusMiles is the mean earth radius used for great circle distances.
const earthRadiusMiles = 3959.0

//HaversineMiles returns the great circle distance between two coordinates.
func HaversineMiles(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

//RoundCoordinate clamps a coordinate to six fractional digits, the precision
//everything downstream stores and compares with.
func RoundCoordinate(c Coordinate) Coordinate {
	return Coordinate{
		Lat: math.Round(c.Lat*1e6) / 1e6,
		Lng: math.Round(c.Lng*1e6) / 1e6,
	}
}

//positionAlong returns the point at fraction frac (0..1, by distance) along
//the segment's path. With fewer than two path points it falls back to a
//straight line between the segment endpoints.
func positionAlong(seg RouteSegment, frac float64) Coordinate {
	if frac <= 0 {
		return seg.Origin.Coordinate
	}
	if frac >= 1 {
		return seg.Destination.Coordinate
	}
	if len(seg.Path) < 2 {
		return lerp(seg.Origin.Coordinate, seg.Destination.Coordinate, frac)
	}

	total := 0.0
	legs := make([]float64, len(seg.Path)-1)
	for i := 0; i < len(seg.Path)-1; i++ {
		legs[i] = HaversineMiles(seg.Path[i], seg.Path[i+1])
		total += legs[i]
	}
	if total == 0 {
		return seg.Path[0]
	}

	target := frac * total
	covered := 0.0
	for i, leg := range legs {
		if covered+leg >= target {
			if leg == 0 {
				return seg.Path[i]
			}
			return lerp(seg.Path[i], seg.Path[i+1], (target-covered)/leg)
		}
		covered += leg
	}
	return seg.Path[len(seg.Path)-1]
}

func lerp(a, b Coordinate, t float64) Coordinate {
	return Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}
