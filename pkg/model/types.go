// Package model defines the persisted data model of an upfit project: the
// equipment module catalog entries, vehicle blueprints, and the project that
// places modules inside a vehicle. Types carry JSON and YAML tags matching the
// on-disk document format; lengths are millimetres, masses kilograms and
// angles degrees.
package model

// ReachPriority ranks how often crews need to reach a module.
type ReachPriority string

const (
	ReachHigh   ReachPriority = "high"
	ReachMedium ReachPriority = "med"
	ReachLow    ReachPriority = "low"
)

// MountingType describes how a module is fixed to the vehicle.
type MountingType string

const (
	MountFloor   MountingType = "floor"
	MountWall    MountingType = "wall"
	MountCeiling MountingType = "ceiling"
	MountRail    MountingType = "rail"
	MountMixed   MountingType = "mixed"
)

// Dimensions is a module's bounding box before rotation.
type Dimensions struct {
	Length float64 `json:"length_mm" yaml:"length_mm"`
	Width  float64 `json:"width_mm" yaml:"width_mm"`
	Height float64 `json:"height_mm" yaml:"height_mm"`
}

// Clearances lists the free space a module needs around each local face.
// A nil entry means no requirement on that side. Extend is the travel of a
// drawer or slide along local +X.
type Clearances struct {
	Front  *float64 `json:"front_mm,omitempty" yaml:"front_mm,omitempty"`
	Rear   *float64 `json:"rear_mm,omitempty" yaml:"rear_mm,omitempty"`
	Left   *float64 `json:"left_mm,omitempty" yaml:"left_mm,omitempty"`
	Right  *float64 `json:"right_mm,omitempty" yaml:"right_mm,omitempty"`
	Top    *float64 `json:"top_mm,omitempty" yaml:"top_mm,omitempty"`
	Bottom *float64 `json:"bottom_mm,omitempty" yaml:"bottom_mm,omitempty"`
	Extend *float64 `json:"extend_mm,omitempty" yaml:"extend_mm,omitempty"`
}

// Mounting describes fixing hardware.
type Mounting struct {
	Type     MountingType `json:"type" yaml:"type"`
	Hardware []string     `json:"hardware,omitempty" yaml:"hardware,omitempty"`
	Notes    string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ModuleDefinition is a catalog entry for one piece of equipment.
type ModuleDefinition struct {
	SKU           string        `json:"sku" yaml:"sku"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	BBox          Dimensions    `json:"bbox_mm" yaml:"bbox_mm"`
	Mass          float64       `json:"mass_kg" yaml:"mass_kg"`
	Clearances    *Clearances   `json:"clearances_mm,omitempty" yaml:"clearances_mm,omitempty"`
	Mounting      Mounting      `json:"mounting" yaml:"mounting"`
	ReachPriority ReachPriority `json:"reachPriority" yaml:"reachPriority"`
	Tags          []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// InteriorBox is the usable cargo volume. It is centred on the vehicle origin
// in X and Y and rests on the floor at Z = 0.
type InteriorBox struct {
	Length float64 `json:"length_mm" yaml:"length_mm"`
	Width  float64 `json:"width_mm" yaml:"width_mm"`
	Height float64 `json:"height_mm" yaml:"height_mm"`
}

// DoorOpening describes a door aperture.
type DoorOpening struct {
	Width          float64  `json:"width_mm" yaml:"width_mm"`
	Height         float64  `json:"height_mm" yaml:"height_mm"`
	OpeningAngle   *float64 `json:"openingAngle_deg,omitempty" yaml:"openingAngle_deg,omitempty"`
	OffsetFromRear *float64 `json:"offsetFromRear_mm,omitempty" yaml:"offsetFromRear_mm,omitempty"`
}

// Openings groups the doors of a vehicle.
type Openings struct {
	SlidingDoor *DoorOpening `json:"slidingDoor,omitempty" yaml:"slidingDoor,omitempty"`
	RearDoor    *DoorOpening `json:"rearDoor,omitempty" yaml:"rearDoor,omitempty"`
}

// Axle is a load-bearing axle at longitudinal position X.
type Axle struct {
	Index   int      `json:"index" yaml:"index"`
	X       float64  `json:"x_mm" yaml:"x_mm"`
	MaxLoad *float64 `json:"maxLoad_kg,omitempty" yaml:"maxLoad_kg,omitempty"`
}

// ForbiddenZone is a box, given by its centre and size, that equipment must
// stay out of (wheel arches, battery packs, seats).
type ForbiddenZone struct {
	ID       string     `json:"id" yaml:"id"`
	Origin   [3]float64 `json:"origin_mm" yaml:"origin_mm"`
	Size     [3]float64 `json:"size_mm" yaml:"size_mm"`
	Critical bool       `json:"critical,omitempty" yaml:"critical,omitempty"`
	Note     string     `json:"note,omitempty" yaml:"note,omitempty"`
}

// VehicleBlueprint is the static description of a vehicle.
type VehicleBlueprint struct {
	ID             string          `json:"id" yaml:"id"`
	Label          string          `json:"label" yaml:"label"`
	Maker          string          `json:"maker" yaml:"maker"`
	Family         string          `json:"family,omitempty" yaml:"family,omitempty"`
	Variant        string          `json:"variant,omitempty" yaml:"variant,omitempty"`
	GVW            float64         `json:"gvw_kg" yaml:"gvw_kg"`
	Wheelbase      float64         `json:"wheelbase_mm" yaml:"wheelbase_mm"`
	Interior       *InteriorBox    `json:"interiorBox,omitempty" yaml:"interiorBox,omitempty"`
	Openings       *Openings       `json:"openings,omitempty" yaml:"openings,omitempty"`
	Axles          []Axle          `json:"axles" yaml:"axles"`
	ForbiddenZones []ForbiddenZone `json:"forbiddenZones" yaml:"forbiddenZones"`
	Notes          string          `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Placement positions one module instance in the vehicle frame.
type Placement struct {
	InstanceID string     `json:"instanceId" yaml:"instanceId"`
	ModuleSKU  string     `json:"moduleSku" yaml:"moduleSku"`
	Position   [3]float64 `json:"position_mm" yaml:"position_mm"`
	Rotation   [3]float64 `json:"rotation_deg" yaml:"rotation_deg"`
	Locked     bool       `json:"locked" yaml:"locked"`
	GroupID    string     `json:"groupId,omitempty" yaml:"groupId,omitempty"`
}

// ProjectVehicle selects the vehicle blueprint for a project.
type ProjectVehicle struct {
	BlueprintID    string   `json:"blueprintId" yaml:"blueprintId"`
	PayloadReserve *float64 `json:"payloadReserve_kg,omitempty" yaml:"payloadReserve_kg,omitempty"`
}

// WalkwaySettings configures the central corridor check.
type WalkwaySettings struct {
	MinWidth    float64 `json:"minWidth_mm,omitempty" yaml:"minWidth_mm,omitempty"`
	ShowOverlay bool    `json:"showOverlay,omitempty" yaml:"showOverlay,omitempty"`
}

// Settings holds per-project options that affect evaluation.
type Settings struct {
	Walkway WalkwaySettings `json:"walkway" yaml:"walkway"`
}

// Project is a vehicle layout document.
type Project struct {
	ID             string             `json:"id" yaml:"id"`
	Name           string             `json:"name" yaml:"name"`
	Description    string             `json:"description,omitempty" yaml:"description,omitempty"`
	Version        string             `json:"version,omitempty" yaml:"version,omitempty"`
	Vehicle        ProjectVehicle     `json:"vehicle" yaml:"vehicle"`
	Placements     []Placement        `json:"placements" yaml:"placements"`
	ModulesCatalog []ModuleDefinition `json:"modulesCatalog,omitempty" yaml:"modulesCatalog,omitempty"`
	Settings       Settings           `json:"settings" yaml:"settings"`
	Notes          string             `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 { return &v }
