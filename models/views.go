package models

import "time"

// PatientSummary is how a patient appears inside a hospital's own profile.
type PatientSummary struct {
	ID           string    `json:"_id"`
	FullName     string    `json:"fullname"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phonenumber"`
	ProfilePhoto string    `json:"profilephoto"`
	Reports      []string  `json:"reports"`
	DOB          string    `json:"dob"`
	BloodGroup   string    `json:"bloodgroup"`
	Gender       string    `json:"gender"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p *Patient) Summary() PatientSummary {
	return PatientSummary{
		ID:           p.ID,
		FullName:     p.FullName,
		Email:        p.Email,
		PhoneNumber:  p.PhoneNumber,
		ProfilePhoto: p.ProfilePhoto,
		Reports:      nonNil(p.Reports),
		DOB:          p.DOB,
		BloodGroup:   p.BloodGroup,
		Gender:       p.Gender,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// HospitalSummary is how a hospital appears inside a patient's own profile.
type HospitalSummary struct {
	ID              string    `json:"_id"`
	Email           string    `json:"email"`
	HospitalName    string    `json:"hospitalname"`
	ProfilePhoto    string    `json:"profilephoto"`
	HelplineNumbers []string  `json:"helplinenumbers"`
	Specializations []string  `json:"specializations"`
	OpeningTime     string    `json:"openingtime"`
	ClosingTime     string    `json:"closingtime"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (h *Hospital) Summary() HospitalSummary {
	return HospitalSummary{
		ID:              h.ID,
		Email:           h.Email,
		HospitalName:    h.HospitalName,
		ProfilePhoto:    h.ProfilePhoto,
		HelplineNumbers: nonNil(h.HelplineNumbers),
		Specializations: nonNil(h.Specializations),
		OpeningTime:     h.OpeningTime,
		ClosingTime:     h.ClosingTime,
		Description:     h.Description,
		Location:        h.Location,
		CreatedAt:       h.CreatedAt,
		UpdatedAt:       h.UpdatedAt,
	}
}

type HospitalProfile struct {
	Hospital
	Patients []PatientSummary `json:"patients"`
}

type PatientProfile struct {
	Patient
	Hospitals []HospitalSummary `json:"hospitals"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
