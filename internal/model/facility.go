package model

import "time"

// Facility is a reservable room or space. Type and building names are only
// populated by the joined detail queries.
//
// Fields:
//  ID                – primary key identifier.
//  TypeID/BuildingID – foreign keys, nullable.
//  Capacity          – maximum attendees, nullable when unknown.
//  IsActive          – inactive facilities are hidden from public listings.
//  MaintenanceUntil  – while in the future the facility cannot be booked.
type Facility struct {
	ID                int64      `json:"facility_id"`             // facilities.facility_id
	TypeID            *int64     `json:"type_id"`                 // facilities.type_id
	BuildingID        *int64     `json:"building_id"`             // facilities.building_id
	Name              string     `json:"name"`                    // facilities.name
	RoomNumber        *string    `json:"room_number"`             // facilities.room_number
	Capacity          *int       `json:"capacity"`                // facilities.capacity
	Floor             *int       `json:"floor"`                   // facilities.floor
	Description       *string    `json:"description"`             // facilities.description
	LayoutDescription *string    `json:"layout_description"`      // facilities.layout_description
	PhotoURL          *string    `json:"photo_url"`               // facilities.photo_url
	IsActive          bool       `json:"is_active"`               // facilities.is_active
	MaintenanceUntil  *time.Time `json:"maintenance_until"`       // facilities.maintenance_until
	MaintenanceReason *string    `json:"maintenance_reason"`      // facilities.maintenance_reason
	CreatedAt         time.Time  `json:"created_at"`              // facilities.created_at
	UpdatedAt         time.Time  `json:"updated_at"`              // facilities.updated_at
	TypeName          *string    `json:"type_name,omitempty"`     // facility_types.name (joined)
	BuildingName      *string    `json:"building_name,omitempty"` // buildings.name (joined)
	BuildingCode      *string    `json:"building_code,omitempty"` // buildings.code (joined)
	Slug              string     `json:"slug,omitempty"`          // derived from name
}

// UnderMaintenance reports whether the facility is blocked at t.
func (f Facility) UnderMaintenance(t time.Time) bool {
	return f.MaintenanceUntil != nil && f.MaintenanceUntil.After(t)
}
