package geometry

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BuildStations builds the stations at keys concurrently, at most workers
// at a time (unlimited when workers <= 0). The result follows the order of
// keys. The first failure cancels the remaining builds.
func BuildStations(ctx context.Context, g *Geometry, keys []ChamberKey, workers int, opts ...Option) ([]*Station, error) {
	out := make([]*Station, len(keys))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, k := range keys {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := NewStation(g, k.Wheel, k.Sector, k.Station, opts...)
			if err != nil {
				return fmt.Errorf("build %s: %w", k, err)
			}
			out[i] = st
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WheelKeys lists the chambers of one wheel present in g.
func WheelKeys(g *Geometry, wheel int) []ChamberKey {
	var keys []ChamberKey
	for _, k := range g.Chambers() {
		if k.Wheel == wheel {
			keys = append(keys, k)
		}
	}
	return keys
}
