// Package matching 实现两阶段的候选人-职位匹配：先对全量候选人做
// 廉价召回过滤，再对幸存者做加权多因子排序。
package matching

import "strings"

// skillAliases 把规范技能名映射到常见别名。匹配是双向的：
// 职位要求 "k8s" 能命中候选人的 "kubernetes"，反之亦然。
var skillAliases = map[string][]string{
	"javascript": {"js", "ecmascript", "es6", "es2015"},
	"typescript": {"ts"},
	"react":      {"reactjs", "react.js"},
	"vue":        {"vuejs", "vue.js"},
	"angular":    {"angularjs"},
	"node":       {"nodejs", "node.js"},
	"python":     {"py"},
	"golang":     {"go"},
	"postgresql": {"postgres", "psql"},
	"mysql":      {"mariadb"},
	"mongodb":    {"mongo"},
	"redis":      {"valkey"},
	"kubernetes": {"k8s"},
	"docker":     {"containers"},
	"aws":        {"amazon web services"},
	"gcp":        {"google cloud"},
	"azure":      {"microsoft azure"},
}

// SkillMatch 把每个必需技能归入唯一分组。名称按职位要求列表原样、
// 按原顺序返回；输入中的重复项各自独立匹配。
type SkillMatch struct {
	Matching []string
	Partial  []string
	Missing  []string
}

// ResolveSkills 把候选人的自由文本技能与职位必需技能比对。
// 每个必需技能按序尝试：规范化全等、别名表命中、子串命中（部分）、
// 否则记为缺失。
func ResolveSkills(candidateSkills, requiredSkills []string) SkillMatch {
	normalized := make([]string, len(candidateSkills))
	for i, s := range candidateSkills {
		normalized[i] = normalizeSkill(s)
	}

	var match SkillMatch
	for _, required := range requiredSkills {
		requiredNorm := normalizeSkill(required)

		if containsString(normalized, requiredNorm) {
			match.Matching = append(match.Matching, required)
			continue
		}
		if aliasMatch(normalized, requiredNorm) {
			match.Matching = append(match.Matching, required)
			continue
		}
		if substringMatch(normalized, requiredNorm) {
			match.Partial = append(match.Partial, required)
			continue
		}
		match.Missing = append(match.Missing, required)
	}
	return match
}

func normalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// aliasMatch 判断必需技能与任一候选技能是否落在同一别名组。
func aliasMatch(candidateNorm []string, requiredNorm string) bool {
	for base, aliases := range skillAliases {
		if requiredNorm != base && !containsString(aliases, requiredNorm) {
			continue
		}
		for _, c := range candidateNorm {
			if c == base || containsString(aliases, c) {
				return true
			}
		}
	}
	return false
}

func substringMatch(candidateNorm []string, requiredNorm string) bool {
	if requiredNorm == "" {
		return false
	}
	for _, c := range candidateNorm {
		if c == "" {
			continue
		}
		if strings.Contains(c, requiredNorm) || strings.Contains(requiredNorm, c) {
			return true
		}
	}
	return false
}
