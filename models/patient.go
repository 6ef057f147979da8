package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Patient struct {
	ID            string    `json:"_id" gorm:"primaryKey;size:36"`
	FullName      string    `json:"fullname" gorm:"index;size:255;not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password      string    `json:"-" gorm:"size:255;not null"`
	PhoneNumber   string    `json:"phonenumber" gorm:"size:32"`
	ProfilePhoto  string    `json:"profilephoto" gorm:"size:1024"`
	Reports       []string  `json:"reports" gorm:"type:text;serializer:json"`
	HiddenReports []string  `json:"hiddenreports" gorm:"type:text;serializer:json"`
	DOB           string    `json:"dob" gorm:"size:32"`
	BloodGroup    string    `json:"bloodgroup" gorm:"size:8"`
	Gender        string    `json:"gender" gorm:"size:32"`
	RefreshToken  *string   `json:"-" gorm:"type:text"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Patient) Credentials() *Credentials {
	c := &Credentials{
		ID:           p.ID,
		Kind:         KindPatient,
		Email:        p.Email,
		PasswordHash: p.Password,
	}
	if p.RefreshToken != nil {
		c.RefreshToken = *p.RefreshToken
	}
	return c
}
