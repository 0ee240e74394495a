package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FilterGroup is a hierarchical tag used both as a catalog category
// and as a facet value.
type FilterGroup struct {
	FilterGroupID       uuid.UUID  `gorm:"column:filter_group_id;type:uuid;primaryKey" json:"filter_group_id"`
	FilterGroupName     string     `gorm:"column:filter_group_name;type:varchar(100);not null;unique" json:"filter_group_name"`
	FilterGroupCode     string     `gorm:"column:filter_group_code;type:varchar(30)" json:"filter_group_code"`
	FilterGroupParentID *uuid.UUID `gorm:"column:filter_group_parent_id;type:uuid;index" json:"filter_group_parent_id,omitempty"`
	FilterGroupIsActive bool       `gorm:"column:filter_group_is_active" json:"filter_group_is_active"`

	Children []FilterGroup `gorm:"foreignKey:FilterGroupParentID;references:FilterGroupID" json:"children,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (FilterGroup) TableName() string { return "filter_groups" }

func (g *FilterGroup) BeforeCreate(tx *gorm.DB) error {
	if g.FilterGroupID == uuid.Nil {
		g.FilterGroupID = uuid.New()
	}
	return nil
}

// FilterConfiguration describes one facet dimension the storefront
// renders (key, display order, widget).
type FilterConfiguration struct {
	FilterConfigID           uuid.UUID `gorm:"column:filter_config_id;type:uuid;primaryKey" json:"filter_config_id"`
	FilterConfigName         string    `gorm:"column:filter_config_name;type:varchar(100);not null" json:"filter_config_name"`
	FilterConfigKey          string    `gorm:"column:filter_config_key;type:varchar(50);not null;unique" json:"filter_config_key"`
	FilterConfigDisplayOrder int       `gorm:"column:filter_config_display_order;default:0" json:"filter_config_display_order"`
	FilterConfigUIComponent  string    `gorm:"column:filter_config_ui_component;type:varchar(50)" json:"filter_config_ui_component"`
	FilterConfigIsActive     bool      `gorm:"column:filter_config_is_active" json:"filter_config_is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (FilterConfiguration) TableName() string { return "filter_configurations" }

func (f *FilterConfiguration) BeforeCreate(tx *gorm.DB) error {
	if f.FilterConfigID == uuid.Nil {
		f.FilterConfigID = uuid.New()
	}
	return nil
}

// FilterConfigurationGroup binds a root filter group under a facet
// dimension; descendants come along via the closure.
type FilterConfigurationGroup struct {
	FCGID            uuid.UUID `gorm:"column:fcg_id;type:uuid;primaryKey" json:"fcg_id"`
	FCGConfigID      uuid.UUID `gorm:"column:fcg_config_id;type:uuid;not null;uniqueIndex:uq_fcg" json:"fcg_config_id"`
	FCGFilterGroupID uuid.UUID `gorm:"column:fcg_filter_group_id;type:uuid;not null;uniqueIndex:uq_fcg" json:"fcg_filter_group_id"`
	FCGDisplayOrder  int       `gorm:"column:fcg_display_order;default:0" json:"fcg_display_order"`
}

func (FilterConfigurationGroup) TableName() string { return "filter_configuration_groups" }

func (f *FilterConfigurationGroup) BeforeCreate(tx *gorm.DB) error {
	if f.FCGID == uuid.Nil {
		f.FCGID = uuid.New()
	}
	return nil
}
