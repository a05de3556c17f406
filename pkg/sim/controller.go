package sim

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/reefgrid/pkg/config"
)

// TilesPerUnit calibrates batch size so that about targetActions actions of
// average magnitude meanUnit remove threshold of total tiles. It returns 0
// when there is nothing to calibrate against.
func TilesPerUnit(total int, threshold, meanUnit float64, targetActions int) float64 {
	if total <= 0 || threshold <= 0 || meanUnit <= 0 || targetActions <= 0 {
		return 0
	}
	return float64(total) * threshold / (meanUnit * float64(targetActions))
}

// Controller turns abstract action magnitudes into batches of random
// removals.
type Controller struct {
	reg          *Registry
	rng          *rand.Rand
	tilesPerUnit float64
	batchCap     int
	unitMin      int
	unitMax      int
}

// NewController calibrates a controller against reg's current tile count.
func NewController(reg *Registry, rng *rand.Rand, sim config.Simulation) *Controller {
	return &Controller{
		reg:          reg,
		rng:          rng,
		tilesPerUnit: TilesPerUnit(reg.Len(), sim.Threshold, sim.MeanUnit, sim.TargetActions),
		batchCap:     sim.BatchCap,
		unitMin:      sim.UnitMin,
		unitMax:      sim.UnitMax,
	}
}

// TilesPerUnit returns the calibration factor.
func (c *Controller) TilesPerUnit() float64 { return c.tilesPerUnit }

// BatchSize is the number of tiles a batch of the given magnitude targets:
// round(magnitude / tilesPerUnit), capped at the batch cap.
func (c *Controller) BatchSize(magnitude float64) int {
	if c.tilesPerUnit <= 0 || magnitude <= 0 {
		return 0
	}
	n := int(math.Round(magnitude / c.tilesPerUnit))
	if c.batchCap > 0 {
		n = min(n, c.batchCap)
	}
	return n
}

// Batch kills random tiles until BatchSize(magnitude) have died or none are
// left, and counts one action. A group kill can overshoot the target.
// It returns the number of tiles killed.
func (c *Controller) Batch(magnitude float64) int {
	want := c.BatchSize(magnitude)
	killed := 0
	for killed < want && c.reg.Live() > 0 {
		killed += c.reg.KillRandomTile(c.rng)
	}
	c.reg.state.Actions++
	return killed
}

// RandomMagnitude draws a uniform integer magnitude from the unit range.
func (c *Controller) RandomMagnitude() float64 {
	if c.unitMax <= c.unitMin {
		return float64(c.unitMin)
	}
	return float64(c.unitMin + c.rng.IntN(c.unitMax-c.unitMin+1))
}
