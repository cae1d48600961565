package database

import (
	"english_club_backend/internal/model"
	"english_club_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedUser struct {
	user     model.User
	password string
}

type seedQuiz struct {
	quiz      model.Quiz
	questions []int // 题目下标
	points    []int
}

// Seed 写入默认账号与示例题库，已存在的账号不会被覆盖
func Seed(db *gorm.DB) error {
	users := []seedUser{
		{model.User{Name: "Admin User", Username: "admin", Email: "admin@englishclub.com", Role: model.Admin, Level: 30, XP: 2500, TotalXP: 45000, Streak: 15}, "admin123"},
		{model.User{Name: "Sarah Pengurus", Username: "staff1", Email: "staff@englishclub.com", Role: model.Staff, Level: 25, XP: 1800, TotalXP: 38000, Streak: 10}, "staff123"},
		{model.User{Name: "Alex Student", Username: "member1", Email: "member1@student.com", Role: model.Member, Level: 20, XP: 1200, TotalXP: 30000, Streak: 7}, "member123"},
		{model.User{Name: "Emma Learner", Username: "member2", Email: "member2@student.com", Role: model.Member, Level: 18, XP: 800, TotalXP: 27000, Streak: 5}, "member123"},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, su := range users {
			var count int64
			if err := tx.Model(&model.User{}).Where("email = ?", su.user.Email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u := su.user
			u.Password = string(hashed)
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
		}

		var questionCount int64
		if err := tx.Model(&model.Question{}).Count(&questionCount).Error; err != nil {
			return err
		}
		if questionCount > 0 {
			logger.Log.Info("Seed: questions already present, skipping quiz content")
			return nil
		}

		questions := []model.Question{
			{Text: "She ___ to school every day.", Options: datatypes.JSONSlice[string]{"go", "goes", "going", "gone"}, CorrectAnswer: 1, Category: "grammar", Difficulty: model.DifficultyEasy, XPReward: 10, Explanation: `Use "goes" for third person singular in present simple tense.`},
			{Text: "I have ___ finished my homework.", Options: datatypes.JSONSlice[string]{"yet", "already", "still", "never"}, CorrectAnswer: 1, Category: "grammar", Difficulty: model.DifficultyMedium, XPReward: 20, Explanation: `"Already" is used in positive sentences with present perfect.`},
			{Text: "If I ___ rich, I would travel the world.", Options: datatypes.JSONSlice[string]{"am", "was", "were", "will be"}, CorrectAnswer: 2, Category: "tenses", Difficulty: model.DifficultyHard, XPReward: 30, Explanation: `Second conditional uses "were" for all persons.`},
			{Text: "The book is ___ the table.", Options: datatypes.JSONSlice[string]{"in", "on", "at", "by"}, CorrectAnswer: 1, Category: "preposition", Difficulty: model.DifficultyEasy, XPReward: 10, Explanation: `Use "on" for objects on surfaces.`},
			{Text: `What does "meticulous" mean?`, Options: datatypes.JSONSlice[string]{"Careless", "Very careful", "Quick", "Lazy"}, CorrectAnswer: 1, Category: "vocabulary", Difficulty: model.DifficultyMedium, XPReward: 20, Explanation: "Meticulous means showing great attention to detail; very careful."},
		}
		if err := tx.Create(&questions).Error; err != nil {
			return err
		}

		limit := func(m int) *int { return &m }
		quizzes := []seedQuiz{
			{model.Quiz{Title: "Present Simple Tense", Description: "Test your knowledge of present simple tense", Category: "grammar", Difficulty: model.DifficultyEasy, TimeLimit: limit(120), TotalXP: 100}, []int{0, 1}, []int{50, 50}},
			{model.Quiz{Title: "Advanced Grammar", Description: "Challenge yourself with advanced grammar questions", Category: "grammar", Difficulty: model.DifficultyHard, TimeLimit: limit(180), TotalXP: 200}, []int{2, 3}, []int{100, 100}},
			{model.Quiz{Title: "Vocabulary Builder", Description: "Expand your English vocabulary", Category: "vocabulary", Difficulty: model.DifficultyMedium, TimeLimit: limit(60), TotalXP: 150}, []int{4}, []int{150}},
		}
		for _, sq := range quizzes {
			quiz := sq.quiz
			if err := tx.Create(&quiz).Error; err != nil {
				return err
			}
			links := make([]model.QuizQuestion, 0, len(sq.questions))
			for i, idx := range sq.questions {
				links = append(links, model.QuizQuestion{
					QuizID:     quiz.ID,
					QuestionID: questions[idx].ID,
					SortOrder:  i + 1,
					Points:     sq.points[i],
				})
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		logger.Log.Info("Seed completed")
		return nil
	})
}
