package service

import (
	"regexp"
	"strings"
)

/* =========================================================
   Outlook compatibility pass
   ========================================================= */

const xhtmlDoctype = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`

const msoMetaBlock = `<!--[if mso]>
<noscript>
<xml>
<o:OfficeDocumentSettings>
<o:PixelsPerInch>96</o:PixelsPerInch>
</o:OfficeDocumentSettings>
</xml>
</noscript>
<![endif]-->`

var (
	doctypeRe    = regexp.MustCompile(`(?is)^\s*<!DOCTYPE[^>]*>`)
	headOpenRe   = regexp.MustCompile(`(?i)<head[^>]*>`)
	tableOpenRe  = regexp.MustCompile(`(?i)<table([^>]*)>`)
	imgOpenRe    = regexp.MustCompile(`(?i)<img([^>]*?)(/?)>`)
	lineHeightRe = regexp.MustCompile(`(?i)(^|[;"\s])line-height\s*:\s*([^;"']+)`)
)

// EnhanceOutlookCompatibility applies the fixed sequence of rewrites
// Outlook's rendering engine needs: XHTML doctype, the conditional
// MSO settings block, explicit cellpadding/cellspacing/border on
// tables and images, and mso-line-height-rule ahead of every
// line-height declaration. Running the pass again on its own output
// is a no-op.
func EnhanceOutlookCompatibility(html string) string {
	out := html

	// 1. Doctype.
	if doctypeRe.MatchString(out) {
		out = doctypeRe.ReplaceAllString(out, xhtmlDoctype)
	} else {
		out = xhtmlDoctype + "\n" + out
	}

	// 2. MSO meta block, once, right after <head>.
	if !strings.Contains(out, "<o:OfficeDocumentSettings>") {
		if loc := headOpenRe.FindStringIndex(out); loc != nil {
			out = out[:loc[1]] + "\n" + msoMetaBlock + out[loc[1]:]
		}
	}

	// 3. Table and image attributes.
	out = tableOpenRe.ReplaceAllStringFunc(out, func(tag string) string {
		return ensureAttrs(tag, "table", []string{`cellpadding="0"`, `cellspacing="0"`, `border="0"`})
	})
	out = imgOpenRe.ReplaceAllStringFunc(out, func(tag string) string {
		return ensureAttrs(tag, "img", []string{`border="0"`})
	})

	// 4. line-height -> mso-line-height-rule:exactly;line-height.
	out = lineHeightRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := lineHeightRe.FindStringSubmatch(m)
		prefix, value := sub[1], sub[2]
		if strings.Contains(strings.ToLower(prefix), "mso-line-height-rule") {
			return m
		}
		return prefix + "mso-line-height-rule:exactly;line-height:" + strings.TrimSpace(value)
	})
	// Collapse duplicates produced by a prior pass.
	out = strings.ReplaceAll(out, "mso-line-height-rule:exactly;mso-line-height-rule:exactly;", "mso-line-height-rule:exactly;")

	return out
}

// ensureAttrs appends only the attributes the tag lacks.
func ensureAttrs(tag, name string, attrs []string) string {
	lower := strings.ToLower(tag)
	missing := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		key := attr[:strings.Index(attr, "=")]
		if !strings.Contains(lower, key+"=") {
			missing = append(missing, attr)
		}
	}
	if len(missing) == 0 {
		return tag
	}

	insert := " " + strings.Join(missing, " ")
	if strings.HasSuffix(tag, "/>") {
		return tag[:len(tag)-2] + insert + "/>"
	}
	return tag[:len(tag)-1] + insert + ">"
}
