package model

import "time"

// MedicalRecord is a clinical entry owned by exactly one patient and
// authored by exactly one doctor. Ownership and authorship are set at
// creation time and never change afterwards.
// This is a pure domain model with no database-specific dependencies or tags.
type MedicalRecord struct {
	ID          string    `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DoctorID    int64     `json:"doctor_id"`
	RecordType  string    `json:"record_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Attachment is a file attached to a medical record. The metadata row and
// the backing object in storage must not outlive each other past a
// completed operation; StorageKey is internal and never serialized.
type Attachment struct {
	ID         string    `json:"id"`
	RecordID   string    `json:"record_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
