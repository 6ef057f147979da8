package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Hospital struct {
	ID              string    `json:"_id" gorm:"primaryKey;size:36"`
	Email           string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	HospitalName    string    `json:"hospitalname" gorm:"index;size:255;not null"`
	ProfilePhoto    string    `json:"profilephoto" gorm:"size:1024"`
	OtherPhotos     []string  `json:"otherphotos" gorm:"type:text;serializer:json"`
	HelplineNumbers []string  `json:"helplinenumbers" gorm:"type:text;serializer:json"`
	Specializations []string  `json:"specializations" gorm:"type:text;serializer:json"`
	OpeningTime     string    `json:"openingtime" gorm:"size:32"`
	ClosingTime     string    `json:"closingtime" gorm:"size:32"`
	Description     string    `json:"description" gorm:"type:text"`
	Location        string    `json:"location" gorm:"index;size:255;not null"`
	Password        string    `json:"-" gorm:"size:255;not null"`
	RefreshToken    *string   `json:"-" gorm:"type:text"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Hospital) TableName() string {
	return "hospitals"
}

func (h *Hospital) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

func (h *Hospital) Credentials() *Credentials {
	c := &Credentials{
		ID:           h.ID,
		Kind:         KindHospital,
		Email:        h.Email,
		PasswordHash: h.Password,
	}
	if h.RefreshToken != nil {
		c.RefreshToken = *h.RefreshToken
	}
	return c
}
