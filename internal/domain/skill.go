package domain

import "time"

// LanguageSkill 推断出的语言技能
type LanguageSkill struct {
	Name       string          `json:"name"`
	Level      ExperienceLevel `json:"level"`
	Confidence int             `json:"confidence"`
}

// FrameworkSkill 推断出的框架/工具技能
type FrameworkSkill struct {
	Name       string          `json:"name"`
	Level      ExperienceLevel `json:"level"`
	Confidence int             `json:"confidence"`
}

type AnalysisSummary struct {
	TotalRepositories  int    `json:"totalRepositories"`
	PublicRepositories int    `json:"publicRepositories"`
	EstimatedCommits   int    `json:"estimatedCommits"`
	RecentActivity     string `json:"recentActivity"`
}

// SkillAnalysis 技能分析结果
type SkillAnalysis struct {
	Confidence      int              `json:"confidence"`
	Languages       []LanguageSkill  `json:"languages"`
	Frameworks      []FrameworkSkill `json:"frameworks"`
	Interests       []string         `json:"interests"`
	ExperienceLevel ExperienceLevel  `json:"experienceLevel"`
	Summary         AnalysisSummary  `json:"summary"`
}

// Profile 把分析结果转换成推荐所需的技能画像
func (a *SkillAnalysis) Profile() SkillProfile {
	p := SkillProfile{ExperienceLevel: a.ExperienceLevel}
	for _, l := range a.Languages {
		p.Languages = append(p.Languages, l.Name)
	}
	for _, f := range a.Frameworks {
		p.Frameworks = append(p.Frameworks, f.Name)
	}
	p.Interests = append(p.Interests, a.Interests...)
	return p
}

// StoredAnalysis 缓存的分析结果，JSON 中分析字段与元数据平铺
type StoredAnalysis struct {
	SkillAnalysis
	AnalyzedAt time.Time    `json:"analyzedAt"`
	GitHubUser AnalyzedUser `json:"githubUser"`
}

// AnalyzedUser 被分析的 GitHub 用户
type AnalyzedUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}
