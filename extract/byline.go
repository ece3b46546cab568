// Package extract recovers bylines and keywords from article text.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/textnorm"
)

// BylineConfig holds the byline extraction rules and validator thresholds.
// Patterns are tried in order; the first capture group is the candidate.
type BylineConfig struct {
	Patterns       []string `yaml:"patterns"`
	ForbiddenRunes string   `yaml:"forbidden_runes"`
	MinLength      int      `yaml:"min_length"`
	MaxLength      int      `yaml:"max_length"`
	BlockList      []string `yaml:"block_list"`
	ImageGlyphs    string   `yaml:"image_glyphs"`
}

// DefaultBylineConfig returns the rules tuned for ETtoday article text.
func DefaultBylineConfig() BylineConfig {
	return BylineConfig{
		Patterns: []string{
			`記者(.*?)[／|/]`,
			`文[／|/](.*?)[\s|，。]`,
			`圖、文[／|/](.*?)\)`,
		},
		ForbiddenRunes: "()（）／/:：、，。「」《》【】！？；|",
		MinLength:      2,
		MaxLength:      10,
		BlockList: []string{
			"中心", "報導", "綜合", "記者", "攝影", "翻攝", "圖文", "來源",
			"編輯", "新聞", "採訪", "整理", "社會", "國際", "外電", "專題",
			"特派", "實習", "主播", "網搜", "ETtoday", "新聞雲",
		},
		ImageGlyphs: "圖",
	}
}

// BylineRule is one compiled extraction pattern.
type BylineRule struct {
	Pattern *regexp.Regexp
}

// Validator accepts or rejects a trimmed candidate.
type Validator func(candidate string) bool

// BylineRules is an ordered fallback pipeline: the first rule whose
// candidate passes every validator wins.
type BylineRules struct {
	rules      []BylineRule
	validators []Validator
}

// NewBylineRules compiles cfg into a pipeline.
func NewBylineRules(cfg BylineConfig) (*BylineRules, error) {
	if len(cfg.Patterns) == 0 {
		return nil, fmt.Errorf("byline rules: no patterns configured")
	}

	rules := make([]BylineRule, 0, len(cfg.Patterns))
	for _, pattern := range cfg.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile byline pattern %q: %w", pattern, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("byline pattern %q has no capture group", pattern)
		}
		rules = append(rules, BylineRule{Pattern: re})
	}

	return &BylineRules{
		rules: rules,
		validators: []Validator{
			func(c string) bool { return !textnorm.HasAnyRune(c, cfg.ForbiddenRunes) },
			func(c string) bool {
				n := textnorm.RuneLen(c)
				return n >= cfg.MinLength && n <= cfg.MaxLength
			},
			func(c string) bool { return !textnorm.ContainsAny(c, cfg.BlockList) },
			func(c string) bool { return !textnorm.HasAnyRune(c, cfg.ImageGlyphs) },
		},
	}, nil
}

// DefaultBylineRules returns the compiled default pipeline.
func DefaultBylineRules() *BylineRules {
	rules, err := NewBylineRules(DefaultBylineConfig())
	if err != nil {
		panic(err)
	}
	return rules
}

// Accept reports whether candidate passes every validator.
func (b *BylineRules) Accept(candidate string) bool {
	for _, valid := range b.validators {
		if !valid(candidate) {
			return false
		}
	}
	return true
}

// Extract returns the byline of body, or newsdesk.UnknownByline. Each rule
// considers only its first match; a rejected candidate falls through to the
// next rule.
func (b *BylineRules) Extract(body string) string {
	for _, rule := range b.rules {
		match := rule.Pattern.FindStringSubmatch(body)
		if match == nil {
			continue
		}
		candidate := strings.TrimSpace(match[1])
		if b.Accept(candidate) {
			return candidate
		}
	}
	return newsdesk.UnknownByline
}

var defaultBylineRules = DefaultBylineRules()

// ExtractByline applies the default rules to body.
func ExtractByline(body string) string {
	return defaultBylineRules.Extract(body)
}
