package rules

import (
	"math"

	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
)

const (
	// doorReachMM is the distance at which the near-door score reaches zero.
	doorReachMM = 3000.0
	// Interior dimensions assumed when the blueprint has none.
	fallbackLengthMM    = 4000.0
	fallbackHalfWidthMM = 1000.0
	fallbackDoorZMM     = 1000.0
)

var reachWeights = map[model.ReachPriority]float64{
	model.ReachHigh:   1,
	model.ReachMedium: 0.6,
	model.ReachLow:    0.3,
}

// ScoreBreakdown holds the four sub-scores of a module, each in [0, 1].
type ScoreBreakdown struct {
	ReachPriority float64 `json:"reachPriority"`
	NearDoor      float64 `json:"nearDoor"`
	CGBalance     float64 `json:"cgBalance"`
	PathClearance float64 `json:"pathClearance"`
}

// ModuleScore rates how well a module is placed. Total is the sum of the
// breakdown and lies in [0, 4].
type ModuleScore struct {
	InstanceID string         `json:"instanceId"`
	Total      float64        `json:"total"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}

// DoorPoints returns the reference points used for door proximity: the
// centre of the rear door and the centre of the sliding door (offset forward
// from the rear). Without any door the rear right corner at 1 m height is
// used.
func DoorPoints(ctx *layout.Context) []geom.Vec3 {
	length, halfWidth := fallbackLengthMM, fallbackHalfWidthMM
	if in := ctx.Vehicle.Interior; in != nil {
		length, halfWidth = in.Length, in.Width/2
	}
	rearX := length / 2

	var pts []geom.Vec3
	if o := ctx.Vehicle.Openings; o != nil {
		if d := o.RearDoor; d != nil {
			pts = append(pts, geom.V(rearX, 0, d.Height/2))
		}
		if d := o.SlidingDoor; d != nil {
			offset := 0.0
			if d.OffsetFromRear != nil {
				offset = *d.OffsetFromRear
			}
			pts = append(pts, geom.V(rearX-offset, halfWidth, d.Height/2))
		}
	}
	if len(pts) == 0 {
		pts = append(pts, geom.V(rearX, halfWidth, fallbackDoorZMM))
	}
	return pts
}

// ScoreModules rates every module, in placement order.
func ScoreModules(ctx *layout.Context, mass MassAnalysis) []ModuleScore {
	doors := DoorPoints(ctx)
	length := fallbackLengthMM
	if in := ctx.Vehicle.Interior; in != nil {
		length = in.Length
	}
	halfLength := length / 2
	if halfLength == 0 {
		halfLength = 1
	}

	scores := make([]ModuleScore, 0, len(ctx.Modules))
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		c := m.OBB.Center

		nearest := math.Inf(1)
		for _, d := range doors {
			nearest = math.Min(nearest, c.Sub(d).Length())
		}

		b := ScoreBreakdown{
			ReachPriority: reachWeights[m.Module.ReachPriority],
			NearDoor:      1 - geom.Clamp(nearest/doorReachMM, 0, 1),
			CGBalance:     1 - geom.Clamp(math.Abs(c.X-mass.CenterOfMassX)/halfLength, 0, 1),
			PathClearance: pathClearance(ctx, m),
		}
		scores = append(scores, ModuleScore{
			InstanceID: m.Placement.InstanceID,
			Total:      b.ReachPriority + b.NearDoor + b.CGBalance + b.PathClearance,
			Breakdown:  b,
		})
	}
	return scores
}

func pathClearance(ctx *layout.Context, m *layout.ModuleInstance) float64 {
	half := ctx.HalfWalkway()
	overlap := math.Max(0, math.Min(m.AABB.Max.Y, half)-math.Max(m.AABB.Min.Y, -half))
	if overlap <= 0 {
		return 1
	}
	return math.Max(0, 1-overlap/ctx.WalkwayMinWidth)
}
