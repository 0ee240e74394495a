package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subject struct {
	SubjectID          uuid.UUID `gorm:"column:subject_id;type:uuid;primaryKey" json:"subject_id"`
	SubjectCode        string    `gorm:"column:subject_code;type:varchar(10);not null;unique" json:"subject_code"`
	SubjectDescription string    `gorm:"column:subject_description;type:text" json:"subject_description"`
	SubjectActive      bool      `gorm:"column:subject_active" json:"subject_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Subject) TableName() string { return "subjects" }

func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.SubjectID == uuid.Nil {
		s.SubjectID = uuid.New()
	}
	return nil
}

type ExamSession struct {
	ExamSessionID        uuid.UUID `gorm:"column:exam_session_id;type:uuid;primaryKey" json:"exam_session_id"`
	ExamSessionCode      string    `gorm:"column:exam_session_code;type:varchar(20);not null;unique" json:"exam_session_code"`
	ExamSessionStartDate time.Time `gorm:"column:exam_session_start_date" json:"exam_session_start_date"`
	ExamSessionEndDate   time.Time `gorm:"column:exam_session_end_date" json:"exam_session_end_date"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ExamSession) TableName() string { return "exam_sessions" }

func (s *ExamSession) BeforeCreate(tx *gorm.DB) error {
	if s.ExamSessionID == uuid.Nil {
		s.ExamSessionID = uuid.New()
	}
	return nil
}

// ExamSessionSubject (ESS) ties one subject into one exam session.
// Store products are sold per ESS.
type ExamSessionSubject struct {
	ESSID            uuid.UUID `gorm:"column:ess_id;type:uuid;primaryKey" json:"ess_id"`
	ESSExamSessionID uuid.UUID `gorm:"column:ess_exam_session_id;type:uuid;not null;uniqueIndex:uq_ess_session_subject" json:"ess_exam_session_id"`
	ESSSubjectID     uuid.UUID `gorm:"column:ess_subject_id;type:uuid;not null;uniqueIndex:uq_ess_session_subject" json:"ess_subject_id"`

	ExamSession *ExamSession `gorm:"foreignKey:ESSExamSessionID;references:ExamSessionID" json:"exam_session,omitempty"`
	Subject     *Subject     `gorm:"foreignKey:ESSSubjectID;references:SubjectID" json:"subject,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ExamSessionSubject) TableName() string { return "exam_session_subjects" }

func (e *ExamSessionSubject) BeforeCreate(tx *gorm.DB) error {
	if e.ESSID == uuid.Nil {
		e.ESSID = uuid.New()
	}
	return nil
}
