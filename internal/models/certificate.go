package models

import "time"

const (
	CertificateKindSection = "section"
	CertificateKindMaster  = "master"
)

type CertificateRecord struct {
	ID                int64      `json:"id"`
	UserEmail         string     `json:"user_email"`
	Kind              string     `json:"kind"`
	SectionID         int        `json:"section_id"`
	CertificateNumber string     `json:"certificate_number,omitempty"`
	Accuracy          int        `json:"accuracy"`
	Eligible          bool       `json:"eligible"`
	AwardedAt         *time.Time `json:"awarded_at,omitempty"`
	DownloadCount     int        `json:"download_count"`
	LastDownloadedAt  *time.Time `json:"last_downloaded_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type MasterStatus struct {
	Eligible          bool   `json:"eligible"`
	SectionsCompleted int    `json:"sections_completed"`
	OverallAccuracy   int    `json:"overall_accuracy"`
	Reason            string `json:"reason,omitempty"`
}
