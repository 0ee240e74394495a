package service

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/emails/model"
)

/* =========================================================
   Template rendering
   ========================================================= */

// Placeholder markers in the master shell look like [[TUTORIAL_CONTENT]].
var placeholderMarkerRe = regexp.MustCompile(`\[\[([A-Z0-9_]+)\]\]`)

var tagStripRe = regexp.MustCompile(`(?s)<[^>]*>`)

// Renderer turns a template + context into the final HTML and text
// bodies. Rendering is pure given the same rows and context, so a
// stored context can reproduce a past body exactly.
type Renderer struct {
	DB          *gorm.DB
	TemplateDir string
}

func NewRenderer(db *gorm.DB) *Renderer {
	return &Renderer{
		DB:          db,
		TemplateDir: configs.GetEnv("EMAIL_TEMPLATE_DIR", "templates/emails"),
	}
}

// RenderSubject executes the subject line as a template over the
// context.
func (r *Renderer) RenderSubject(subjectTemplate string, ctx map[string]interface{}) (string, error) {
	return r.execute("subject", subjectTemplate, ctx)
}

// Render produces the HTML body. Master-template path: render the
// content file, resolve every placeholder marker in the shell, then
// drop the content into [[MAIN_CONTENT]]. Standalone path: the
// content file is the whole body.
func (r *Renderer) Render(tpl *model.EmailTemplate, ctx map[string]interface{}) (htmlBody, textBody string, err error) {
	contentName := tpl.ContentTemplateName
	if contentName == "" {
		contentName = tpl.TemplateName
	}

	content, err := r.renderFile(contentName, ctx)
	if err != nil {
		return "", "", err
	}

	if tpl.UseMasterTemplate {
		if shell, shellErr := r.renderFile("master", ctx); shellErr == nil {
			htmlBody, err = r.fillPlaceholders(shell, content, ctx)
			if err != nil {
				return "", "", err
			}
		} else {
			// No master shell on disk: fall back to standalone.
			log.Printf("[EMAIL] master template unavailable, rendering %q standalone: %v", contentName, shellErr)
			htmlBody = content
		}
	} else {
		htmlBody = content
	}

	if tpl.EnhanceOutlookCompatibility {
		htmlBody = EnhanceOutlookCompatibility(htmlBody)
	}

	return htmlBody, htmlToText(htmlBody), nil
}

// fillPlaceholders resolves every [[NAME]] marker in the shell.
// MAIN_CONTENT always receives the rendered content body; the rest go
// through the placeholder/rule tables.
func (r *Renderer) fillPlaceholders(shell, content string, ctx map[string]interface{}) (string, error) {
	names := map[string]struct{}{}
	for _, m := range placeholderMarkerRe.FindAllStringSubmatch(shell, -1) {
		names[m[1]] = struct{}{}
	}

	out := shell
	for name := range names {
		marker := "[[" + name + "]]"
		if name == "MAIN_CONTENT" {
			out = strings.ReplaceAll(out, marker, content)
			continue
		}

		fragment, err := r.resolvePlaceholder(name, ctx)
		if err != nil {
			// A broken placeholder empties its slot rather than
			// failing the whole email.
			log.Printf("[EMAIL] placeholder %s failed: %v", name, err)
			fragment = ""
		}
		out = strings.ReplaceAll(out, marker, fragment)
	}
	return out, nil
}

// resolvePlaceholder evaluates the placeholder's rules (priority
// desc) against the context and combines the winning fragments with
// the default content per insert_position.
func (r *Renderer) resolvePlaceholder(name string, ctx map[string]interface{}) (string, error) {
	var ph model.EmailContentPlaceholder
	err := r.DB.Preload("Rules", "rule_is_active = ?", true).
		First(&ph, "placeholder_name = ?", name).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	defaultContent, err := r.execute("placeholder:"+name, ph.DefaultContentTemplate, ctx)
	if err != nil {
		return "", err
	}

	rules := ph.Rules
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].RulePriority > rules[j].RulePriority })

	fragments := make([]string, 0, len(rules))
	for i := range rules {
		rule := &rules[i]
		if !EvaluateRule(rule, ctx) {
			continue
		}
		frag, err := r.execute("rule:"+rule.RuleID.String(), rule.ContentTemplate, ctx)
		if err != nil {
			log.Printf("[EMAIL] rule %s render failed: %v", rule.RuleID, err)
			continue
		}
		fragments = append(fragments, frag)
		if rule.RuleIsExclusive || !ph.AllowMultipleRules {
			break
		}
	}

	if len(fragments) == 0 {
		return defaultContent, nil
	}

	sep := ph.ContentSeparator
	if sep == "" {
		sep = "\n"
	}
	joined := strings.Join(fragments, sep)

	switch ph.InsertPosition {
	case model.InsertBefore:
		return joined + sep + defaultContent, nil
	case model.InsertAfter:
		return defaultContent + sep + joined, nil
	case model.InsertPrepend:
		return joined + defaultContent, nil
	case model.InsertAppend:
		return defaultContent + joined, nil
	default: // replace
		return joined, nil
	}
}

// renderFile loads and executes <name>.html from the template dir.
func (r *Renderer) renderFile(name string, ctx map[string]interface{}) (string, error) {
	path := filepath.Join(r.TemplateDir, name+".html")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("template file %s: %w", path, err)
	}
	return r.execute(name, string(raw), ctx)
}

func (r *Renderer) execute(name, text string, ctx map[string]interface{}) (string, error) {
	if text == "" {
		return "", nil
	}
	tpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// htmlToText is the plain-text fallback body: tags stripped,
// whitespace collapsed.
func htmlToText(html string) string {
	text := tagStripRe.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	lines := strings.Fields(text)
	return strings.Join(lines, " ")
}
