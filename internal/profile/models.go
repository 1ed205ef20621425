// internal/profile/models.go

package profile

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SkillLevel is a self-declared skill rating for one sport
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
)

// Sports a profile can declare
var SportOptions = []string{
	"Soccer",
	"Basketball",
	"Tennis",
	"Volleyball",
	"Running",
}

// SportEntry is one declared sport with skill and experience
type SportEntry struct {
	Sport        string     `json:"sport"`
	SkillLevel   SkillLevel `json:"skill_level"`
	YearsPlaying int        `json:"years_playing"`
}

// SportList is the ordered list of a profile's sport entries,
// persisted as a JSONB column
type SportList []SportEntry

// Scan implements the sql.Scanner interface for SportList
func (s *SportList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected sports column type %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for SportList
func (s SportList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal(SportList{})
	}
	return json.Marshal(s)
}

// IDList is a set of user ids persisted as a BIGINT[] column
type IDList []int64

// Scan implements the sql.Scanner interface for IDList
func (l *IDList) Scan(value interface{}) error {
	var arr pq.Int64Array
	if err := arr.Scan(value); err != nil {
		return err
	}
	*l = IDList(arr)
	return nil
}

// Value implements the driver.Valuer interface for IDList
func (l IDList) Value() (driver.Value, error) {
	return pq.Int64Array(l).Value()
}

// Contains reports whether id is in the list
func (l IDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Profile represents a user's sport/skill profile and follow edges
type Profile struct {
	ID            int64      `json:"id" db:"id"`
	Username      string     `json:"username" db:"username"`
	DisplayName   string     `json:"display_name" db:"display_name"`
	Location      *string    `json:"location" db:"location"`
	Bio           *string    `json:"bio" db:"bio"`
	Sports        SportList  `json:"sports" db:"sports"`
	Following     IDList     `json:"following" db:"following"`
	Followers     IDList     `json:"followers" db:"followers"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the profile is live (soft lifecycle)
func (p *Profile) IsActive() bool {
	return p.DeactivatedAt == nil
}

// CreateProfileRequest represents a signup-time profile creation
type CreateProfileRequest struct {
	Username    string    `json:"username" validate:"required,alphanum,min=3,max=30"`
	DisplayName string    `json:"display_name" validate:"required,min=2,max=100"`
	Location    *string   `json:"location" validate:"omitempty,max=100"`
	Bio         *string   `json:"bio" validate:"omitempty,max=500"`
	Sports      SportList `json:"sports"`
}

// UpdateProfileRequest represents a merge-style profile update:
// nil fields are left untouched
type UpdateProfileRequest struct {
	DisplayName *string    `json:"display_name" validate:"omitempty,min=2,max=100"`
	Location    *string    `json:"location" validate:"omitempty,max=100"`
	Bio         *string    `json:"bio" validate:"omitempty,max=500"`
	Sports      *SportList `json:"sports"`
}
