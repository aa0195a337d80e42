package patient

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient is a directory record for a person receiving care.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	MRN         string     `db:"mrn" json:"mrn"` // medical record number
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      Gender     `db:"gender" json:"gender,omitempty"`
	BloodGroup  string     `db:"blood_group" json:"blood_group,omitempty"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	Email       string     `db:"email" json:"email,omitempty"`
	Address     string     `db:"address" json:"address,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts for display and logging.
func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Doctor is a directory record for a practitioner.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Specialization string    `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber  string    `db:"license_number" json:"license_number,omitempty"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	Email          string    `db:"email" json:"email,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
