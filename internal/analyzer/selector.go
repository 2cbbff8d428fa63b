package analyzer

import (
	"sort"
	"time"
)

const (
	maxTopProjects    = 3
	highStarThreshold = 10
)

// SelectTopProjects 挑选最多三个最能展示候选人的仓库，按优先级依次尝试：
//
//  1. star 数 >=10 的仓库，按 star 排序
//  2. 开源贡献按工作分排序，不足时用原创项目补齐
//  3. 原创仓库按工作分排序
//
// 空仓库与已归档仓库被剔除；没有实质贡献的 fork 以及非本人所有的仓库同样剔除。
func SelectTopProjects(repos []Repository, now time.Time) []ScoredRepo {
	if len(repos) == 0 {
		return nil
	}

	scored := make([]ScoredRepo, 0, len(repos))
	for _, r := range repos {
		if r.SizeKB <= 0 || r.Archived {
			continue
		}
		ws := WorkScore(r, now)
		scored = append(scored, ScoredRepo{
			Repository: r,
			WorkScore:  ws,
			Category:   Categorize(r, ws, now),
		})
	}

	meaningful := scored[:0]
	for _, r := range scored {
		if r.Fork {
			if r.UserCommits < ossCommitThreshold {
				continue
			}
			meaningful = append(meaningful, r)
			continue
		}
		if !r.Owned {
			continue
		}
		meaningful = append(meaningful, r)
	}

	// 策略一：有 star 的仓库不言自明。
	var highStar []ScoredRepo
	for _, r := range meaningful {
		if r.Stars >= highStarThreshold {
			highStar = append(highStar, r)
		}
	}
	if len(highStar) > 0 {
		sort.SliceStable(highStar, func(i, j int) bool {
			return highStar[i].Stars > highStar[j].Stars
		})
		return truncate(highStar)
	}

	// 策略二：优先展示开源贡献，不足时用原创项目补齐。
	var oss, rest []ScoredRepo
	for _, r := range meaningful {
		if r.Category == CategoryOSS {
			oss = append(oss, r)
		} else {
			rest = append(rest, r)
		}
	}
	if len(oss) > 0 {
		byWorkScoreDesc(oss)
		if len(oss) >= maxTopProjects {
			return truncate(oss)
		}
		var originals []ScoredRepo
		for _, r := range rest {
			if !r.Fork {
				originals = append(originals, r)
			}
		}
		byWorkScoreDesc(originals)
		return truncate(append(oss, originals...))
	}

	// 策略三：最常见的情况，原创项目按工作分排序。
	var originals []ScoredRepo
	for _, r := range meaningful {
		if !r.Fork {
			originals = append(originals, r)
		}
	}
	byWorkScoreDesc(originals)
	return truncate(originals)
}

func byWorkScoreDesc(repos []ScoredRepo) {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].WorkScore > repos[j].WorkScore
	})
}

func truncate(repos []ScoredRepo) []ScoredRepo {
	if len(repos) > maxTopProjects {
		return repos[:maxTopProjects]
	}
	return repos
}
