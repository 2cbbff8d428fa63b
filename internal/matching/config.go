package matching

// Config 汇集两个匹配阶段的启发式参数。默认值是线上调优的结果；
// 它们都不是硬性约束，部署时可以调整。
type Config struct {
	// MinSkillOverlap 是第一阶段的技能命中比例下限。
	MinSkillOverlap float64
	// ExperienceSlackBelow/Above 放宽第一阶段的经验窗口。
	// 刻意不对称：略微资深的候选人值得召回，严重不够格的则不值得。
	ExperienceSlackBelow int
	ExperienceSlackAbove int

	// LevelWeights 按候选人达到的面试级别缩放面试质量分。
	LevelWeights map[InterviewLevel]float64

	// 新鲜度加分参数。
	InterviewActivityBonus int
	FreshAnalysisDays      int
	FreshAnalysisBonus     int
	RecentAnalysisDays     int
	RecentAnalysisBonus    int
	RecencyCap             int

	// 置信度阈值，按有效数据信号的数量划分。
	HighConfidenceSignals   int
	MediumConfidenceSignals int
}

// DefaultConfig 返回线上默认参数。
func DefaultConfig() Config {
	return Config{
		MinSkillOverlap:      0.25,
		ExperienceSlackBelow: 1,
		ExperienceSlackAbove: 3,
		LevelWeights: map[InterviewLevel]float64{
			InterviewL1: 0.7,
			InterviewL2: 0.85,
			InterviewL3: 1.0,
		},
		InterviewActivityBonus:  2,
		FreshAnalysisDays:       30,
		FreshAnalysisBonus:      3,
		RecentAnalysisDays:      90,
		RecentAnalysisBonus:     1,
		RecencyCap:              5,
		HighConfidenceSignals:   4,
		MediumConfidenceSignals: 2,
	}
}

// experienceRange 是某职位级别可接受与理想的年限。
type experienceRange struct {
	min   int
	max   int
	ideal int
}

var experienceRanges = map[ExperienceLevel]experienceRange{
	LevelEntry:  {min: 0, max: 3, ideal: 1},
	LevelMid:    {min: 2, max: 7, ideal: 4},
	LevelSenior: {min: 5, max: 50, ideal: 8},
}
