package service

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Substitute 用 data 替换 {{key}}，找不到的 token 原样保留
func Substitute(tpl string, data map[string]any) string {
	return substitute(tpl, data, nil)
}

// SubstituteHTML 替换值做 HTML 转义
func SubstituteHTML(tpl string, data map[string]any) string {
	return substitute(tpl, data, html.EscapeString)
}

func substitute(tpl string, data map[string]any, escape func(string) string) string {
	return tokenPattern.ReplaceAllStringFunc(tpl, func(tok string) string {
		key := tokenPattern.FindStringSubmatch(tok)[1]
		v, ok := lookup(data, key)
		if !ok {
			return tok
		}
		s := fmt.Sprint(v)
		if escape != nil {
			s = escape(s)
		}
		return s
	})
}

// lookup 支持 a.b 访问嵌套 map
func lookup(data map[string]any, key string) (any, bool) {
	if v, ok := data[key]; ok {
		return v, v != nil
	}
	parts := strings.Split(key, ".")
	var cur any = data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// TemplateVariables 模板中出现的全部变量名，去重排序
func TemplateVariables(parts ...string) []string {
	seen := map[string]struct{}{}
	for _, p := range parts {
		for _, m := range tokenPattern.FindAllStringSubmatch(p, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// legacyTemplate 代码内置的邮件模板，正文用 html/template 渲染
type legacyTemplate struct {
	Subject  string
	Category string
	Vars     []string
	Body     *template.Template
}

const layoutHead = `<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:600px;margin:0 auto">` +
	`<div style="background:#b91c1c;color:#fff;padding:16px 24px"><h1 style="margin:0;font-size:20px">RedrowExposed</h1></div>` +
	`<div style="padding:24px">`

const layoutFoot = `</div><div style="padding:16px 24px;font-size:12px;color:#6b7280">` +
	`You are receiving this email at {{.email}} because you registered with RedrowExposed.</div></body></html>`

func mustLegacy(name, subject, category, body string, vars ...string) legacyTemplate {
	return legacyTemplate{
		Subject:  subject,
		Category: category,
		Vars:     append(vars, "email"),
		Body:     template.Must(template.New(name).Parse(layoutHead + body + layoutFoot)),
	}
}

var legacyTemplates = map[string]legacyTemplate{
	"welcome": mustLegacy("welcome", "Welcome to RedrowExposed, {{name}}", "account",
		`<p>Hi {{.name}},</p><p>Thank you for joining RedrowExposed. You can now document defects, upload photo and video evidence and track your claims.</p>`,
		"name"),
	"claim-update": mustLegacy("claim-update", "Update on your claim #{{claim_id}}", "claims",
		`<p>Hi {{.name}},</p><p>Your claim <strong>#{{.claim_id}}</strong> is now <strong>{{.status}}</strong>.</p><p>{{.message}}</p>`,
		"name", "claim_id", "status", "message"),
	"glo-update": mustLegacy("glo-update", "Group litigation update: {{headline}}", "glo",
		`<p>Hi {{.name}},</p><h2>{{.headline}}</h2><p>{{.message}}</p>`,
		"name", "headline", "message"),
	"evidence-approved": mustLegacy("evidence-approved", "Your evidence \"{{title}}\" is now live", "evidence",
		`<p>Hi {{.name}},</p><p>Your evidence <strong>{{.title}}</strong> has been approved and is now visible to the public.</p>`,
		"name", "title"),
	"evidence-rejected": mustLegacy("evidence-rejected", "Your evidence \"{{title}}\" needs changes", "evidence",
		`<p>Hi {{.name}},</p><p>Your evidence <strong>{{.title}}</strong> was not approved.</p><p>Reason: {{.reason}}</p>`,
		"name", "title", "reason"),
	"newsletter": mustLegacy("newsletter", "{{subject}}", "newsletter",
		`<h2>{{.headline}}</h2><div>{{.message}}</div>`,
		"subject", "headline", "message"),
}

// LegacyTemplateNames 排序后的内置模板名
func LegacyTemplateNames() []string {
	names := make([]string, 0, len(legacyTemplates))
	for n := range legacyTemplates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// renderLegacy 渲染内置模板；未提供的变量按空串处理
func renderLegacy(name string, data map[string]any) (subject, body string, err error) {
	lt, ok := legacyTemplates[name]
	if !ok {
		return "", "", ErrTemplateNotFound
	}
	full := make(map[string]any, len(data)+len(lt.Vars))
	for _, v := range lt.Vars {
		full[v] = ""
	}
	for k, v := range data {
		full[k] = v
	}
	var buf bytes.Buffer
	if err := lt.Body.Execute(&buf, full); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return Substitute(lt.Subject, full), buf.String(), nil
}

// placeholderData 每个变量渲染为 {{var}}，用于同步到数据库模板
func placeholderData(vars []string) map[string]any {
	m := make(map[string]any, len(vars))
	for _, v := range vars {
		m[v] = "{{" + v + "}}"
	}
	return m
}
