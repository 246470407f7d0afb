package rules

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
)

// broadphasePad inflates every box before it enters or queries the tree. The
// R-tree intersection test is strict, while the narrow phase counts touching
// boxes as overlapping, so candidates must include boxes that merely touch.
const broadphasePad = 1.0

// tree fan-out, as recommended by the rtreego documentation.
const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

type indexedBox struct {
	index int
	rect  rtreego.Rect
}

func (b *indexedBox) Bounds() rtreego.Rect { return b.rect }

// broadphase indexes module AABBs so the narrow-phase SAT test only runs on
// pairs whose boxes are close.
type broadphase struct {
	tree *rtreego.Rtree
}

func newBroadphase(modules []layout.ModuleInstance) *broadphase {
	objs := make([]rtreego.Spatial, 0, len(modules))
	for i := range modules {
		objs = append(objs, &indexedBox{index: i, rect: toRect(modules[i].AABB)})
	}
	return &broadphase{tree: rtreego.NewTree(3, treeMinChildren, treeMaxChildren, objs...)}
}

// candidates returns, in ascending order, the indices of modules whose boxes
// may touch or overlap box.
func (bp *broadphase) candidates(box geom.AABB) []int {
	hits := bp.tree.SearchIntersect(toRect(box))
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*indexedBox).index)
	}
	sort.Ints(out)
	return out
}

func toRect(box geom.AABB) rtreego.Rect {
	b := box.Expand(broadphasePad)
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z},
		rtreego.Point{b.Max.X, b.Max.Y, b.Max.Z},
	)
	if err != nil {
		// Both points always have three coordinates.
		panic(err)
	}
	return r
}
