package models

import "time"

// HospitalPatient links a patient to a hospital. One row is the whole relation,
// so both sides always agree.
type HospitalPatient struct {
	HospitalID string    `json:"hospitalId" gorm:"primaryKey;size:36"`
	PatientID  string    `json:"patientId" gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (HospitalPatient) TableName() string {
	return "hospital_patients"
}

// All returns every model that needs a table.
func All() []any {
	return []any{&Hospital{}, &Patient{}, &HospitalPatient{}}
}
