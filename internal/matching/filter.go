package matching

// PassesMinimum 是第一阶段召回闸门：廉价的布尔检查，剔除技能命中
// 太少或经验远超职位区间的候选人。通过者进入昂贵的第二阶段排序。
func (cfg Config) PassesMinimum(candidate Candidate, job Job) bool {
	match := ResolveSkills(candidate.Skills, job.RequiredSkills)

	required := len(job.RequiredSkills)
	if required == 0 {
		required = 1
	}
	overlap := float64(len(match.Matching)) / float64(required)
	if overlap < cfg.MinSkillOverlap {
		return false
	}

	bounds, ok := experienceRanges[job.ExperienceLevel]
	if !ok {
		return false
	}
	years := candidate.experienceYears()
	if years < bounds.min-cfg.ExperienceSlackBelow {
		return false
	}
	if years > bounds.max+cfg.ExperienceSlackAbove {
		return false
	}

	return true
}
