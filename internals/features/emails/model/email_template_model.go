package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Placeholder insert positions.
const (
	InsertReplace = "replace"
	InsertBefore  = "before"
	InsertAfter   = "after"
	InsertAppend  = "append"
	InsertPrepend = "prepend"
)

// Content rule condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpGTE         = "greater_equal"
	OpLTE         = "less_equal"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpRegexMatch  = "regex_match"
	OpExists      = "exists"
	OpNotExists   = "not_exists"
)

type EmailTemplate struct {
	TemplateID   uuid.UUID `gorm:"column:template_id;type:uuid;primaryKey" json:"template_id"`
	TemplateName string    `gorm:"column:template_name;type:varchar(100);not null;unique" json:"template_name"`
	TemplateType string    `gorm:"column:template_type;type:varchar(50)" json:"template_type"`

	SubjectTemplate     string `gorm:"column:subject_template;type:varchar(255);not null" json:"subject_template"`
	ContentTemplateName string `gorm:"column:content_template_name;type:varchar(100)" json:"content_template_name"`
	UseMasterTemplate   bool   `gorm:"column:use_master_template" json:"use_master_template"`

	EnableQueue                 bool `gorm:"column:enable_queue" json:"enable_queue"`
	MaxRetryAttempts            int  `gorm:"column:max_retry_attempts;default:3" json:"max_retry_attempts"`
	RetryDelayMinutes           int  `gorm:"column:retry_delay_minutes;default:5" json:"retry_delay_minutes"`
	EnhanceOutlookCompatibility bool `gorm:"column:enhance_outlook_compatibility" json:"enhance_outlook_compatibility"`
	TemplateIsActive            bool `gorm:"column:template_is_active" json:"template_is_active"`

	Attachments []EmailAttachment `gorm:"foreignKey:AttachmentTemplateID;references:TemplateID" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EmailTemplate) TableName() string { return "email_templates" }

func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.TemplateID == uuid.Nil {
		t.TemplateID = uuid.New()
	}
	return nil
}

// EmailContentPlaceholder names a slot in the master shell that rules
// may fill.
type EmailContentPlaceholder struct {
	PlaceholderID   uuid.UUID `gorm:"column:placeholder_id;type:uuid;primaryKey" json:"placeholder_id"`
	PlaceholderName string    `gorm:"column:placeholder_name;type:varchar(100);not null;unique" json:"placeholder_name"`

	DefaultContentTemplate string         `gorm:"column:default_content_template;type:text" json:"default_content_template"`
	ContentVariables       datatypes.JSON `gorm:"column:content_variables;type:jsonb" json:"content_variables,omitempty"`
	InsertPosition         string         `gorm:"column:insert_position;type:varchar(20);default:'replace'" json:"insert_position"`
	AllowMultipleRules     bool           `gorm:"column:allow_multiple_rules;default:false" json:"allow_multiple_rules"`
	ContentSeparator       string         `gorm:"column:content_separator;type:varchar(20);default:'\n'" json:"content_separator"`

	Rules []EmailContentRule `gorm:"foreignKey:RulePlaceholderID;references:PlaceholderID" json:"rules,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EmailContentPlaceholder) TableName() string { return "email_content_placeholders" }

func (p *EmailContentPlaceholder) BeforeCreate(tx *gorm.DB) error {
	if p.PlaceholderID == uuid.Nil {
		p.PlaceholderID = uuid.New()
	}
	return nil
}

// EmailContentRule produces a fragment for its placeholder when its
// conditions match the render context.
type EmailContentRule struct {
	RuleID            uuid.UUID `gorm:"column:rule_id;type:uuid;primaryKey" json:"rule_id"`
	RulePlaceholderID uuid.UUID `gorm:"column:rule_placeholder_id;type:uuid;not null;index" json:"rule_placeholder_id"`
	RuleType          string    `gorm:"column:rule_type;type:varchar(50)" json:"rule_type"`

	ConditionField    string `gorm:"column:condition_field;type:varchar(255);not null" json:"condition_field"`
	ConditionOperator string `gorm:"column:condition_operator;type:varchar(30);not null" json:"condition_operator"`
	ConditionValue    string `gorm:"column:condition_value;type:text" json:"condition_value"`

	// AdditionalConditions: [{field, operator, value, logic}] with
	// explicit AND/OR logic per entry.
	AdditionalConditions datatypes.JSON `gorm:"column:additional_conditions;type:jsonb" json:"additional_conditions,omitempty"`

	ContentTemplate string `gorm:"column:content_template;type:text" json:"content_template"`
	RulePriority    int    `gorm:"column:rule_priority;default:0" json:"rule_priority"`
	RuleIsExclusive bool   `gorm:"column:rule_is_exclusive;default:false" json:"rule_is_exclusive"`
	RuleIsActive    bool   `gorm:"column:rule_is_active" json:"rule_is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EmailContentRule) TableName() string { return "email_content_rules" }

func (r *EmailContentRule) BeforeCreate(tx *gorm.DB) error {
	if r.RuleID == uuid.Nil {
		r.RuleID = uuid.New()
	}
	return nil
}

type EmailAttachment struct {
	AttachmentID         uuid.UUID `gorm:"column:attachment_id;type:uuid;primaryKey" json:"attachment_id"`
	AttachmentTemplateID uuid.UUID `gorm:"column:attachment_template_id;type:uuid;not null;index" json:"attachment_template_id"`

	AttachmentName     string `gorm:"column:attachment_name;type:varchar(255);not null" json:"attachment_name"`
	AttachmentFilePath string `gorm:"column:attachment_file_path;type:text" json:"attachment_file_path"`
	AttachmentFileURL  string `gorm:"column:attachment_file_url;type:text" json:"attachment_file_url"`
	AttachmentMimeType string `gorm:"column:attachment_mime_type;type:varchar(100)" json:"attachment_mime_type"`

	AttachmentIsRequired    bool           `gorm:"column:attachment_is_required;default:false" json:"attachment_is_required"`
	AttachmentIsConditional bool           `gorm:"column:attachment_is_conditional;default:false" json:"attachment_is_conditional"`
	ConditionRules          datatypes.JSON `gorm:"column:condition_rules;type:jsonb" json:"condition_rules,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (EmailAttachment) TableName() string { return "email_attachments" }

func (a *EmailAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.AttachmentID == uuid.Nil {
		a.AttachmentID = uuid.New()
	}
	return nil
}
