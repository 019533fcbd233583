// Package heightmap caches the tiles of a zoomable time-frequency view.
//
// The view is a plane with time in seconds along one axis and a
// normalized frequency scale in [0, 1] along the other. The plane is cut
// into blocks: fixed-size grids of magnitudes whose extent on each axis
// is a power of two. A [Reference] names one block by its per-axis
// density and position; halving the extent on an axis doubles the
// resolution along it.
//
// # Quick Start
//
//	c, err := heightmap.New(heightmap.DefaultConfig(44100, numSamples))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	// Render loop.
//	for {
//	    c.Update()
//	    for _, ref := range c.BlocksInView(from, to, extent) {
//	        if b := c.GetTile(ref); b != nil {
//	            draw(b)
//	        }
//	    }
//	    if c.NextFrame() > 0 {
//	        schedule(c.InvalidSamples())
//	    }
//	}
//
// Producers compute transform chunks for the scheduled samples on their
// own goroutines and hand them over with [Handoff.Push]. The render loop
// merges them into every overlapping block in [Collection.Update].
//
// # Validity
//
// Every block tracks the samples for which it holds exact data. Merging a
// chunk, or a cached block of equal or finer density, extends that set.
// Approximations from coarser blocks or from a [StubProducer] only paint
// pixels so that the view is never blank while exact data is computed.
//
// # Memory
//
// Blocks live in textures allocated from a [Device]. The collection keeps
// at most RedundancyFactor times the blocks drawn in the current frame
// and, when the device runs out of memory, releases blocks the current
// frame did not touch before retrying once. Metrics are exported through
// a Prometheus Registerer when one is configured.
package heightmap
