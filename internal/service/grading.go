package service

import (
	"english_club_backend/internal/config"
	"english_club_backend/internal/model"
)

// XPRules 评分与奖励规则
type XPRules struct {
	CompletionBonus   int
	PerfectScoreBonus int
	Attendance        int
	DefaultRewards    map[string]int
}

// NewXPRules 从配置构造规则，未配置的难度默认值按 0 处理
func NewXPRules(cfg config.XPConfig) XPRules {
	rewards := make(map[string]int, len(cfg.DefaultRewards))
	for k, v := range cfg.DefaultRewards {
		rewards[k] = v
	}
	return XPRules{
		CompletionBonus:   cfg.QuizCompletion,
		PerfectScoreBonus: cfg.PerfectScore,
		Attendance:        cfg.Attendance,
		DefaultRewards:    rewards,
	}
}

// RewardFor 题目自身 xp_reward 为 0 时使用难度默认值
func (r XPRules) RewardFor(q model.Question) int {
	if q.XPReward > 0 {
		return q.XPReward
	}
	return r.DefaultRewards[q.Difficulty]
}

// SubmittedAnswer 提交的单题答案
type SubmittedAnswer struct {
	QuestionID     uint `json:"question_id" binding:"required"`
	SelectedAnswer *int `json:"selected_answer" binding:"required"`
	TimeTaken      *int `json:"time_taken" binding:"omitempty,min=0"`
}

// GradedAnswer 已判分的答案，Question 为测验中的原题
type GradedAnswer struct {
	Question       model.Question
	SelectedAnswer int
	IsCorrect      bool
	TimeTaken      int
	Awarded        int
}

type GradeResult struct {
	Score           int
	CorrectAnswers  int
	TotalQuestions  int
	Bonus           int
	CompletionBonus int
	XPEarned        int
	Answers         []GradedAnswer
}

// Grade 按测验题目顺序评分，不属于测验的答案被忽略，同一题只取第一次作答
func Grade(questions []model.Question, answers []SubmittedAnswer, rules XPRules) GradeResult {
	byID := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	result := GradeResult{
		TotalQuestions:  len(questions),
		CompletionBonus: rules.CompletionBonus,
		Answers:         make([]GradedAnswer, 0, len(answers)),
	}

	seen := make(map[uint]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || seen[a.QuestionID] || a.SelectedAnswer == nil {
			continue
		}
		seen[a.QuestionID] = true

		graded := GradedAnswer{
			Question:       q,
			SelectedAnswer: *a.SelectedAnswer,
			IsCorrect:      *a.SelectedAnswer == q.CorrectAnswer,
		}
		if a.TimeTaken != nil {
			graded.TimeTaken = *a.TimeTaken
		}
		if graded.IsCorrect {
			graded.Awarded = rules.RewardFor(q)
			result.Score += graded.Awarded
			result.CorrectAnswers++
		}
		result.Answers = append(result.Answers, graded)
	}

	if result.TotalQuestions > 0 && result.CorrectAnswers == result.TotalQuestions {
		result.Bonus = rules.PerfectScoreBonus
	}

	result.XPEarned = result.Score + result.CompletionBonus + result.Bonus
	if result.XPEarned < 0 {
		result.XPEarned = 0
	}
	return result
}

// StoredAnswers 把已保存的答案还原为提交格式，用于重新评分
func StoredAnswers(stored []model.QuizAnswer) []SubmittedAnswer {
	out := make([]SubmittedAnswer, 0, len(stored))
	for i := range stored {
		selected := stored[i].SelectedAnswer
		taken := stored[i].TimeTaken
		out = append(out, SubmittedAnswer{
			QuestionID:     stored[i].QuestionID,
			SelectedAnswer: &selected,
			TimeTaken:      &taken,
		})
	}
	return out
}
