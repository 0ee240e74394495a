package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"examstore_backend/internals/features/emails/model"
)

func newTestRenderer(t *testing.T, db *gorm.DB, files map[string]string) *Renderer {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".html"), []byte(body), 0o644))
	}
	return &Renderer{DB: db, TemplateDir: dir}
}

func TestRenderSubject(t *testing.T) {
	r := &Renderer{}
	got, err := r.RenderSubject("Order {{.order_reference}} confirmed", map[string]interface{}{
		"order_reference": "ORD-20250901-abcd1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "Order ORD-20250901-abcd1234 confirmed", got)
}

func TestRenderStandaloneTemplate(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, map[string]string{
		"welcome": "<p>Hello {{.user_name}}</p>",
	})

	tpl := &model.EmailTemplate{TemplateName: "welcome", UseMasterTemplate: false}
	html, text, err := r.Render(tpl, map[string]interface{}{"user_name": "Priya"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello Priya</p>", html)
	assert.Equal(t, "Hello Priya", text)
}

func TestRenderWithMasterShell(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, map[string]string{
		"master":  "<html><body>[[HEADER_CONTENT]]<div>[[MAIN_CONTENT]]</div></body></html>",
		"welcome": "<p>Hello {{.user_name}}</p>",
	})

	tpl := &model.EmailTemplate{TemplateName: "welcome", UseMasterTemplate: true}
	html, _, err := r.Render(tpl, map[string]interface{}{"user_name": "Priya"})
	require.NoError(t, err)
	assert.Contains(t, html, "<div><p>Hello Priya</p></div>")
	// Unconfigured placeholder empties its slot.
	assert.NotContains(t, html, "[[HEADER_CONTENT]]")
	assert.NotContains(t, html, "[[MAIN_CONTENT]]")
}

func TestRenderMissingMasterFallsBackStandalone(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, map[string]string{
		"welcome": "<p>Hi</p>",
	})

	tpl := &model.EmailTemplate{TemplateName: "welcome", UseMasterTemplate: true}
	html, _, err := r.Render(tpl, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", html)
}

func TestRenderContentTemplateNameOverride(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, map[string]string{
		"shared_body": "<p>shared</p>",
	})

	tpl := &model.EmailTemplate{TemplateName: "order_confirmation", ContentTemplateName: "shared_body"}
	html, _, err := r.Render(tpl, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>shared</p>", html)
}

func TestRenderMissingContentFileFails(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, nil)

	tpl := &model.EmailTemplate{TemplateName: "nope"}
	_, _, err := r.Render(tpl, nil)
	require.Error(t, err)
}

func TestResolvePlaceholderDefaultContent(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, nil)

	require.NoError(t, db.Create(&model.EmailContentPlaceholder{
		PlaceholderName:        "FOOTER_CONTENT",
		DefaultContentTemplate: "<p>Contact {{.support_email}}</p>",
	}).Error)

	got, err := r.resolvePlaceholder("FOOTER_CONTENT", map[string]interface{}{"support_email": "help@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Contact help@example.com</p>", got)

	// Unknown placeholders resolve empty without error.
	got, err = r.resolvePlaceholder("NOT_CONFIGURED", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func seedPlaceholder(t *testing.T, db *gorm.DB, ph model.EmailContentPlaceholder, rules ...model.EmailContentRule) {
	t.Helper()
	require.NoError(t, db.Create(&ph).Error)
	for i := range rules {
		rules[i].RulePlaceholderID = ph.PlaceholderID
		rules[i].RuleIsActive = true
		require.NoError(t, db.Create(&rules[i]).Error)
	}
}

func TestResolvePlaceholderRulePriorityAndExclusivity(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, nil)

	seedPlaceholder(t, db,
		model.EmailContentPlaceholder{
			PlaceholderName:        "TUTORIAL_CONTENT",
			DefaultContentTemplate: "<p>default</p>",
			AllowMultipleRules:     true,
		},
		model.EmailContentRule{
			ConditionField:    "region",
			ConditionOperator: model.OpEquals,
			ConditionValue:    "UK",
			ContentTemplate:   "<p>low priority</p>",
			RulePriority:      1,
		},
		model.EmailContentRule{
			ConditionField:    "region",
			ConditionOperator: model.OpEquals,
			ConditionValue:    "UK",
			ContentTemplate:   "<p>exclusive winner</p>",
			RulePriority:      10,
			RuleIsExclusive:   true,
		},
	)

	got, err := r.resolvePlaceholder("TUTORIAL_CONTENT", map[string]interface{}{"region": "UK"})
	require.NoError(t, err)
	// The exclusive high-priority rule wins and stops evaluation.
	assert.Equal(t, "<p>exclusive winner</p>", got)

	// No rule matches: the default survives.
	got, err = r.resolvePlaceholder("TUTORIAL_CONTENT", map[string]interface{}{"region": "ROW"})
	require.NoError(t, err)
	assert.Equal(t, "<p>default</p>", got)
}

func TestResolvePlaceholderMultipleRulesJoin(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, nil)

	seedPlaceholder(t, db,
		model.EmailContentPlaceholder{
			PlaceholderName:    "HEADER_CONTENT",
			AllowMultipleRules: true,
			ContentSeparator:   "<hr>",
		},
		model.EmailContentRule{
			ConditionField:    "region",
			ConditionOperator: model.OpEquals,
			ConditionValue:    "UK",
			ContentTemplate:   "<p>two</p>",
			RulePriority:      1,
		},
		model.EmailContentRule{
			ConditionField:    "region",
			ConditionOperator: model.OpEquals,
			ConditionValue:    "UK",
			ContentTemplate:   "<p>one</p>",
			RulePriority:      2,
		},
	)

	got, err := r.resolvePlaceholder("HEADER_CONTENT", map[string]interface{}{"region": "UK"})
	require.NoError(t, err)
	assert.Equal(t, "<p>one</p><hr><p>two</p>", got)
}

func TestResolvePlaceholderInsertPositions(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, nil)
	ctx := map[string]interface{}{"region": "UK"}

	cases := []struct {
		position string
		want     string
	}{
		{model.InsertReplace, "<p>rule</p>"},
		{model.InsertBefore, "<p>rule</p>\n<p>base</p>"},
		{model.InsertAfter, "<p>base</p>\n<p>rule</p>"},
		{model.InsertPrepend, "<p>rule</p><p>base</p>"},
		{model.InsertAppend, "<p>base</p><p>rule</p>"},
	}
	for i, tc := range cases {
		name := "SLOT_" + string(rune('A'+i))
		seedPlaceholder(t, db,
			model.EmailContentPlaceholder{
				PlaceholderName:        name,
				DefaultContentTemplate: "<p>base</p>",
				InsertPosition:         tc.position,
			},
			model.EmailContentRule{
				ConditionField:    "region",
				ConditionOperator: model.OpEquals,
				ConditionValue:    "UK",
				ContentTemplate:   "<p>rule</p>",
			},
		)

		got, err := r.resolvePlaceholder(name, ctx)
		require.NoError(t, err, tc.position)
		assert.Equal(t, tc.want, got, tc.position)
	}
}

func TestResolvePlaceholderIgnoresInactiveRules(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, nil)

	ph := model.EmailContentPlaceholder{
		PlaceholderName:        "SIDE_CONTENT",
		DefaultContentTemplate: "<p>default</p>",
	}
	require.NoError(t, db.Create(&ph).Error)
	require.NoError(t, db.Create(&model.EmailContentRule{
		RulePlaceholderID: ph.PlaceholderID,
		ConditionField:    "region",
		ConditionOperator: model.OpEquals,
		ConditionValue:    "UK",
		ContentTemplate:   "<p>inactive</p>",
		RuleIsActive:      false,
	}).Error)

	got, err := r.resolvePlaceholder("SIDE_CONTENT", map[string]interface{}{"region": "UK"})
	require.NoError(t, err)
	assert.Equal(t, "<p>default</p>", got)
}

func TestRenderAppliesOutlookPass(t *testing.T) {
	db := newEmailTestDB(t)
	r := newTestRenderer(t, db, map[string]string{
		"plain": "<html><head></head><body><table><tr><td>x</td></tr></table></body></html>",
	})

	tpl := &model.EmailTemplate{TemplateName: "plain", EnhanceOutlookCompatibility: true}
	html, _, err := r.Render(tpl, nil)
	require.NoError(t, err)
	assert.Contains(t, html, xhtmlDoctype)
	assert.Contains(t, html, `cellpadding="0"`)
}

func TestHTMLToText(t *testing.T) {
	got := htmlToText("<html><body><h1>Order&nbsp;confirmed</h1>\n<p>Net &amp; VAT</p></body></html>")
	assert.Equal(t, "Order confirmed Net & VAT", got)
}

func TestExecuteMissingKeysRenderEmpty(t *testing.T) {
	r := &Renderer{}
	got, err := r.execute("t", "Hi {{.missing_name}}!", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Hi !", got)
}
