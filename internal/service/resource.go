package service

import (
	"english_club_backend/internal/model"
	"time"
)

// UserProfile 对外输出的用户信息
// swagger:model UserProfile
type UserProfile struct {
	ID       uint           `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Role     model.UserRole `json:"role"`
	FullName string         `json:"fullName"`
	Avatar   string         `json:"avatar"`
	Level    int            `json:"level"`
	XP       int            `json:"xp"`
	TotalXP  int            `json:"totalXP"`
	Streak   int            `json:"streak"`
	Badges   []string       `json:"badges"`
	JoinedAt time.Time      `json:"joinedAt"`
}

func NewUserProfile(u *model.User) *UserProfile {
	if u == nil {
		return nil
	}
	return &UserProfile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		FullName: u.Name,
		Avatar:   u.Avatar,
		Level:    u.Level,
		XP:       u.XP,
		TotalXP:  u.TotalXP,
		Streak:   u.Streak,
		Badges:   []string{},
		JoinedAt: u.CreatedAt,
	}
}

func NewUserProfiles(users []model.User) []*UserProfile {
	out := make([]*UserProfile, 0, len(users))
	for i := range users {
		out = append(out, NewUserProfile(&users[i]))
	}
	return out
}

// QuestionView 题目输出，学员视图不含答案与解析
// swagger:model QuestionView
type QuestionView struct {
	ID            uint     `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	XPReward      int      `json:"xpReward"`
	Explanation   string   `json:"explanation,omitempty"`
	SortOrder     int      `json:"sortOrder,omitempty"`
	Points        int      `json:"points,omitempty"`
}

func NewQuestionView(q *model.Question, withAnswer bool) QuestionView {
	v := QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Options:    append([]string{}, q.Options...),
		Category:   q.Category,
		Difficulty: q.Difficulty,
		XPReward:   q.XPReward,
	}
	if withAnswer {
		correct := q.CorrectAnswer
		v.CorrectAnswer = &correct
		v.Explanation = q.Explanation
	}
	return v
}

// QuizView 测验输出
// swagger:model QuizView
type QuizView struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Difficulty    string         `json:"difficulty"`
	TimeLimit     *int           `json:"timeLimit"`
	TotalXP       int            `json:"totalXP"`
	QuestionCount int            `json:"questionCount"`
	Questions     []QuestionView `json:"questions,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// NewQuizView quiz.Questions 需已预加载
func NewQuizView(quiz *model.Quiz, withAnswers bool) *QuizView {
	v := &QuizView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Category:    quiz.Category,
		Difficulty:  quiz.Difficulty,
		TimeLimit:   quiz.TimeLimit,
		TotalXP:     quiz.TotalXP,
		Questions:   make([]QuestionView, 0, len(quiz.Questions)),
		CreatedAt:   quiz.CreatedAt,
	}
	for i := range quiz.Questions {
		link := &quiz.Questions[i]
		if link.Question.ID == 0 {
			continue
		}
		qv := NewQuestionView(&link.Question, withAnswers)
		qv.SortOrder = link.SortOrder
		qv.Points = link.Points
		v.Questions = append(v.Questions, qv)
	}
	v.QuestionCount = len(v.Questions)
	return v
}
