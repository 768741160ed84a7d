package layout

import "xclower/internal/types"

// Target describes the data layout of the procedural target.
type Target struct {
	PtrSize  int // bytes
	MaxAlign int // bytes; 1 packs every aggregate
}

// TargetFor derives the target from a data model. 8/16-bit parts align
// nothing beyond a byte unless maxAlign says otherwise.
func TargetFor(dm types.DataModel, maxAlign int) Target {
	ptr := int(dm.PointerWidth) / 8
	if ptr <= 0 {
		ptr = 2
	}
	if maxAlign <= 0 {
		maxAlign = 1
	}
	return Target{PtrSize: ptr, MaxAlign: maxAlign}
}
