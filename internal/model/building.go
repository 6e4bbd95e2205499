package model

import "time"

// Building represents a campus building that hosts facilities. It
// corresponds to a row in the `buildings` table.
//
// Fields:
//  ID                  – primary key identifier.
//  Name                – unique display name.
//  Code                – short unique code (e.g. "GKU").
//  LocationDescription – free-form directions, nullable.
//  ImageURL            – cover image, nullable.
//  CreatedAt/UpdatedAt – timestamps.
type Building struct {
	ID                  int64     `json:"building_id"`          // buildings.building_id
	Name                string    `json:"name"`                 // buildings.name
	Code                *string   `json:"code"`                 // buildings.code
	LocationDescription *string   `json:"location_description"` // buildings.location_description
	ImageURL            *string   `json:"image_url"`            // buildings.image_url
	CreatedAt           time.Time `json:"created_at"`           // buildings.created_at
	UpdatedAt           time.Time `json:"updated_at"`           // buildings.updated_at
}

// FacilityType classifies facilities (classroom, laboratory, hall...).
type FacilityType struct {
	ID          int64   `json:"type_id"`     // facility_types.type_id
	Name        string  `json:"name"`        // facility_types.name
	Description *string `json:"description"` // facility_types.description
}
