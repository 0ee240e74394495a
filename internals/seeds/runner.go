package seeds

import (
	"log"

	"gorm.io/gorm"

	filterModel "examstore_backend/internals/features/catalog/filters/model"
	emailModel "examstore_backend/internals/features/emails/model"
)

// RunAllSeeds loads the baseline reference data on an empty database:
// the filter taxonomy and the core email templates. Existing rows are
// left alone, so the runner is safe on every boot.
func RunAllSeeds(db *gorm.DB) {
	seedFilterGroups(db)
	seedFilterConfigurations(db)
	seedEmailTemplates(db)
}

func seedFilterGroups(db *gorm.DB) {
	var count int64
	db.Model(&filterModel.FilterGroup{}).Count(&count)
	if count > 0 {
		return
	}

	// Roots, then children keyed by parent name.
	roots := []filterModel.FilterGroup{
		{FilterGroupName: "Material", FilterGroupCode: "1", FilterGroupIsActive: true},
		{FilterGroupName: "Tutorial", FilterGroupCode: "2", FilterGroupIsActive: true},
		{FilterGroupName: "Revision", FilterGroupCode: "3", FilterGroupIsActive: true},
		{FilterGroupName: "Marking", FilterGroupCode: "8", FilterGroupIsActive: true},
	}
	for i := range roots {
		if err := db.Create(&roots[i]).Error; err != nil {
			log.Printf("[SEED] filter group %q: %v", roots[i].FilterGroupName, err)
			return
		}
	}

	children := map[string][]string{
		"Material": {"Core Study Materials", "Revision Materials", "Online Classroom"},
		"Tutorial": {"Face-to-face Tutorial", "Live Online Tutorial"},
		"Marking":  {"Marking Products", "Marking Vouchers"},
	}
	byName := map[string]*filterModel.FilterGroup{}
	for i := range roots {
		byName[roots[i].FilterGroupName] = &roots[i]
	}
	for parent, names := range children {
		p := byName[parent]
		for _, name := range names {
			child := filterModel.FilterGroup{FilterGroupName: name, FilterGroupParentID: &p.FilterGroupID, FilterGroupIsActive: true}
			if err := db.Create(&child).Error; err != nil {
				log.Printf("[SEED] filter group %q: %v", name, err)
			}
		}
	}
	log.Println("[SEED] filter groups loaded")
}

func seedFilterConfigurations(db *gorm.DB) {
	var count int64
	db.Model(&filterModel.FilterConfiguration{}).Count(&count)
	if count > 0 {
		return
	}

	configs := []filterModel.FilterConfiguration{
		{FilterConfigName: "Categories", FilterConfigKey: "categories", FilterConfigDisplayOrder: 1, FilterConfigIsActive: true},
		{FilterConfigName: "Product types", FilterConfigKey: "product_types", FilterConfigDisplayOrder: 2, FilterConfigIsActive: true},
	}
	for i := range configs {
		if err := db.Create(&configs[i]).Error; err != nil {
			log.Printf("[SEED] filter configuration %q: %v", configs[i].FilterConfigKey, err)
		}
	}
	log.Println("[SEED] filter configurations loaded")
}

func seedEmailTemplates(db *gorm.DB) {
	var count int64
	db.Model(&emailModel.EmailTemplate{}).Count(&count)
	if count > 0 {
		return
	}

	templates := []emailModel.EmailTemplate{
		{
			TemplateName:                "order_confirmation",
			TemplateType:                "transactional",
			SubjectTemplate:             "Order {{.order_reference}} confirmed",
			ContentTemplateName:         "order_confirmation",
			UseMasterTemplate:           true,
			EnableQueue:                 true,
			MaxRetryAttempts:            3,
			RetryDelayMinutes:           5,
			EnhanceOutlookCompatibility: true,
			TemplateIsActive:            true,
		},
		{
			TemplateName:                "password_reset",
			TemplateType:                "transactional",
			SubjectTemplate:             "Reset your password",
			ContentTemplateName:         "password_reset",
			UseMasterTemplate:           true,
			EnableQueue:                 true,
			MaxRetryAttempts:            3,
			RetryDelayMinutes:           5,
			EnhanceOutlookCompatibility: true,
			TemplateIsActive:            true,
		},
	}
	for i := range templates {
		if err := db.Create(&templates[i]).Error; err != nil {
			log.Printf("[SEED] email template %q: %v", templates[i].TemplateName, err)
		}
	}
	log.Println("[SEED] email templates loaded")
}
