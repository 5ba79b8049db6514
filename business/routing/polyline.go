package routing

import (
	"fmt"

	"github.com/routehaul/hosplan/business/hos"
	"github.com/twpayne/go-polyline"
)

//DecodePath decodes a precision-5 encoded polyline into coordinates.
func DecodePath(encoded string) ([]hos.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("polyline has %d trailing bytes", len(rest))
	}
	path := make([]hos.Coordinate, len(coords))
	for i, c := range coords {
		path[i] = hos.Coordinate{Lat: c[0], Lng: c[1]}
	}
	return path, nil
}

//EncodePath encodes coordinates as a precision-5 polyline.
func EncodePath(path []hos.Coordinate) string {
	if len(path) == 0 {
		return ""
	}
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

//CombinePaths joins leg paths into the full trip path, dropping the duplicate
//point where one leg ends and the next begins.
func CombinePaths(paths ...[]hos.Coordinate) []hos.Coordinate {
	var combined []hos.Coordinate
	for _, path := range paths {
		if len(combined) > 0 && len(path) > 0 && combined[len(combined)-1] == path[0] {
			path = path[1:]
		}
		combined = append(combined, path...)
	}
	return combined
}
