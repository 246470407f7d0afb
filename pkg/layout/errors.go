package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound matches a ResolutionError for an unknown module SKU.
	ErrModuleNotFound = errors.New("module not found")
	// ErrVehicleNotFound matches a ResolutionError for an unknown blueprint.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrUnsortedAxles is wrapped by BlueprintError when axles are not listed
	// front to rear.
	ErrUnsortedAxles = errors.New("axles not sorted by longitudinal position")
)

// ResolutionKind says what kind of reference failed to resolve.
type ResolutionKind int

const (
	KindModule ResolutionKind = iota
	KindVehicle
)

func (k ResolutionKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindVehicle:
		return "vehicle"
	default:
		return fmt.Sprintf("ResolutionKind(%d)", int(k))
	}
}

// ResolutionError reports a placement SKU or blueprint id that is in neither
// the project's inline catalog nor the shared catalog. It aborts evaluation.
type ResolutionError struct {
	Kind       ResolutionKind
	ID         string // SKU or blueprint id
	InstanceID string // placement that referenced it, for modules
}

func (e *ResolutionError) Error() string {
	if e.Kind == KindModule && e.InstanceID != "" {
		return fmt.Sprintf("unknown module SKU %q (placement %q)", e.ID, e.InstanceID)
	}
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// Is lets errors.Is match ErrModuleNotFound and ErrVehicleNotFound.
func (e *ResolutionError) Is(target error) bool {
	switch target {
	case ErrModuleNotFound:
		return e.Kind == KindModule
	case ErrVehicleNotFound:
		return e.Kind == KindVehicle
	}
	return false
}

// BlueprintError reports a vehicle blueprint the engine cannot evaluate.
type BlueprintError struct {
	VehicleID string
	Err       error
}

func (e *BlueprintError) Error() string {
	return fmt.Sprintf("vehicle %q: %v", e.VehicleID, e.Err)
}

func (e *BlueprintError) Unwrap() error { return e.Err }
