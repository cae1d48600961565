package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"english_club_backend/pkg/logger"
	"english_club_backend/pkg/monitoring"
	"english_club_backend/pkg/tracing"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const backfillBatchSize = 100

// AttemptSummary 提交结果摘要
type AttemptSummary struct {
	ID               uint       `json:"id,omitempty"`
	QuizID           uint       `json:"quiz_id"`
	Score            int        `json:"score"`
	CorrectAnswers   int        `json:"correct_answers"`
	TotalQuestions   int        `json:"total_questions"`
	XPEarned         int        `json:"xp_earned"`
	Bonus            int        `json:"bonus"`
	CompletionBonus  int        `json:"completion_bonus"`
	AlreadyAttempted bool       `json:"already_attempted"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// AnswerReview 单题回顾
type AnswerReview struct {
	QuestionID     uint     `json:"question_id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	SelectedAnswer int      `json:"selected_answer"`
	CorrectAnswer  int      `json:"correct_answer"`
	IsCorrect      bool     `json:"is_correct"`
	Explanation    string   `json:"explanation"`
	TimeTaken      int      `json:"time_taken"`
}

// AttemptResult 提交接口的完整响应
// swagger:model AttemptResult
type AttemptResult struct {
	Attempt AttemptSummary `json:"attempt"`
	Answers []AnswerReview `json:"answers"`
	User    *UserProfile   `json:"user,omitempty"`
}

// BackfillReport 批量对账结果
type BackfillReport struct {
	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
	Credited  int `json:"credited"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type attemptInput struct {
	Answers []SubmittedAnswer `json:"answers" binding:"required,min=1,dive"`
}

// AttemptService 处理测验提交、评分和经验对账
type AttemptService struct {
	DB           *gorm.DB
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.QuizAttemptRepository
	LedgerRepo   *repository.XPTransactionRepository
	UserRepo     *repository.UserRepository
	XP           *XPService
	Rules        *RulesHolder
}

func NewAttemptService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.QuizAttemptRepository,
	ledgerRepo *repository.XPTransactionRepository,
	userRepo *repository.UserRepository,
	xp *XPService,
	rules *RulesHolder,
) *AttemptService {
	return &AttemptService{
		DB:           db,
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		LedgerRepo:   ledgerRepo,
		UserRepo:     userRepo,
		XP:           xp,
		Rules:        rules,
	}
}

// SubmitAttempt 每个用户对每个测验只评分一次；已有记录时先对账再返回原结果，
// 没有记录且未提交答案时返回全零结果
func (s *AttemptService) SubmitAttempt(ctx context.Context, userID, quizID uint, answers []SubmittedAnswer) (*AttemptResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService.SubmitAttempt", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("quiz.id", int64(quizID)),
		attribute.Int("answers.count", len(answers)),
	))
	defer span.End()

	result, outcome, err := s.submit(ctx, userID, quizID, answers)
	monitoring.QuizAttempts.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("attempt.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (s *AttemptService) submit(ctx context.Context, userID, quizID uint, answers []SubmittedAnswer) (*AttemptResult, string, error) {
	quiz, err := s.QuizRepo.FindWithQuestions(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, monitoring.OutcomeInvalid, util.ErrQuizNotFound
		}
		return nil, monitoring.OutcomeFailed, err
	}

	existing, err := s.AttemptRepo.FindByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, monitoring.OutcomeFailed, err
	}
	if existing != nil {
		result, err := s.existingResult(ctx, quiz, existing)
		if err != nil {
			return nil, monitoring.OutcomeFailed, err
		}
		return result, monitoring.OutcomeExisting, nil
	}

	if len(answers) == 0 {
		return &AttemptResult{
			Attempt: AttemptSummary{QuizID: quizID},
			Answers: []AnswerReview{},
		}, monitoring.OutcomeProbe, nil
	}

	if err := s.validateAnswers(ctx, answers); err != nil {
		return nil, monitoring.OutcomeInvalid, err
	}

	rules := s.Rules.Get()
	graded := Grade(quiz.OrderedQuestions(), answers, rules)

	attempt := &model.QuizAttempt{
		UserID:          userID,
		QuizID:          quizID,
		Score:           graded.Score,
		CorrectAnswers:  graded.CorrectAnswers,
		TotalQuestions:  graded.TotalQuestions,
		Bonus:           graded.Bonus,
		CompletionBonus: graded.CompletionBonus,
		XPEarned:        graded.XPEarned,
		CompletedAt:     time.Now(),
	}

	var credit Credit
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.AttemptRepo.WithTx(tx).Create(ctx, attempt); err != nil {
			return err
		}

		rows := make([]model.QuizAnswer, 0, len(graded.Answers))
		for _, a := range graded.Answers {
			rows = append(rows, model.QuizAnswer{
				QuizAttemptID:  attempt.ID,
				QuestionID:     a.Question.ID,
				SelectedAnswer: a.SelectedAnswer,
				IsCorrect:      a.IsCorrect,
				TimeTaken:      a.TimeTaken,
			})
		}
		if err := s.AttemptRepo.WithTx(tx).CreateAnswers(ctx, rows); err != nil {
			return err
		}

		credit = Credit{
			UserID:       userID,
			Source:       model.XPSourceQuizAttempt,
			ReferenceID:  attempt.ID,
			Delta:        graded.XPEarned,
			LedgerAmount: graded.XPEarned,
			Description:  fmt.Sprintf("Quiz completed: %s", quiz.Title),
		}
		return s.XP.ApplyTx(ctx, tx, credit)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发提交中落败的一方，返回已存在的记录
			winner, findErr := s.AttemptRepo.FindByUserAndQuiz(ctx, userID, quizID)
			if findErr == nil && winner != nil {
				result, err := s.buildStoredResult(ctx, winner)
				if err != nil {
					return nil, monitoring.OutcomeFailed, err
				}
				return result, monitoring.OutcomeExisting, nil
			}
		}
		logger.Log.Error("Failed to save quiz attempt",
			zap.Uint("quiz_id", quizID),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, monitoring.OutcomeFailed, fmt.Errorf("%w: %v", util.ErrAttemptNotSaved, err)
	}
	s.XP.Committed(ctx, credit)

	result := &AttemptResult{
		Attempt: summaryOf(attempt, false),
		Answers: make([]AnswerReview, 0, len(graded.Answers)),
	}
	for _, a := range graded.Answers {
		result.Answers = append(result.Answers, AnswerReview{
			QuestionID:     a.Question.ID,
			Question:       a.Question.Text,
			Options:        append([]string{}, a.Question.Options...),
			SelectedAnswer: a.SelectedAnswer,
			CorrectAnswer:  a.Question.CorrectAnswer,
			IsCorrect:      a.IsCorrect,
			Explanation:    a.Question.Explanation,
			TimeTaken:      a.TimeTaken,
		})
	}
	if err := s.attachUser(ctx, result, userID); err != nil {
		return nil, monitoring.OutcomeFailed, err
	}
	return result, monitoring.OutcomeGraded, nil
}

// validateAnswers 校验答案结构，并确认每个 question_id 存在
func (s *AttemptService) validateAnswers(ctx context.Context, answers []SubmittedAnswer) error {
	if err := util.ValidateStruct(attemptInput{Answers: answers}); err != nil {
		return util.NewValidationErrorFrom(err)
	}

	ids := make([]uint, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.QuestionID)
	}
	found, err := s.QuestionRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}

	verr := util.NewValidationError()
	for i, a := range answers {
		if !found[a.QuestionID] {
			field := fmt.Sprintf("answers.%d.question_id", i)
			verr.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (s *AttemptService) existingResult(ctx context.Context, quiz *model.Quiz, attempt *model.QuizAttempt) (*AttemptResult, error) {
	reconciled, _, err := s.reconcile(ctx, quiz, attempt)
	if err != nil {
		logger.Log.Error("Failed to reconcile quiz attempt",
			zap.Uint("attempt_id", attempt.ID),
			zap.Error(err),
		)
		return nil, err
	}
	return s.buildStoredResult(ctx, reconciled)
}

// buildStoredResult 用已保存的记录构造响应，bonus 取自记录本身
func (s *AttemptService) buildStoredResult(ctx context.Context, attempt *model.QuizAttempt) (*AttemptResult, error) {
	stored, err := s.AttemptRepo.GetAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(stored))
	for _, a := range stored {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.QuestionRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	result := &AttemptResult{
		Attempt: summaryOf(attempt, true),
		Answers: make([]AnswerReview, 0, len(stored)),
	}
	for _, a := range stored {
		review := AnswerReview{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.IsCorrect,
			TimeTaken:      a.TimeTaken,
			Options:        []string{},
		}
		if q, ok := byID[a.QuestionID]; ok {
			review.Question = q.Text
			review.Options = append(review.Options, q.Options...)
			review.CorrectAnswer = q.CorrectAnswer
			review.Explanation = q.Explanation
		}
		result.Answers = append(result.Answers, review)
	}

	if err := s.attachUser(ctx, result, attempt.UserID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AttemptService) attachUser(ctx context.Context, result *AttemptResult, userID uint) error {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	result.User = NewUserProfile(user)
	return nil
}

func summaryOf(a *model.QuizAttempt, already bool) AttemptSummary {
	completed := a.CompletedAt
	return AttemptSummary{
		ID:               a.ID,
		QuizID:           a.QuizID,
		Score:            a.Score,
		CorrectAnswers:   a.CorrectAnswers,
		TotalQuestions:   a.TotalQuestions,
		XPEarned:         a.XPEarned,
		Bonus:            a.Bonus,
		CompletionBonus:  a.CompletionBonus,
		AlreadyAttempted: already,
		CompletedAt:      &completed,
	}
}

// Backfill 对单个测验记录做经验对账，返回是否发生修正
func (s *AttemptService) Backfill(ctx context.Context, attemptID uint) (bool, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrAttemptNotFound
		}
		return false, err
	}
	quiz, err := s.QuizRepo.FindWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrQuizNotFound
		}
		return false, err
	}
	_, changed, err := s.reconcile(ctx, quiz, attempt)
	return changed, err
}

// reconcile 流水已存在且金额为正、记录经验也为正时不做处理；
// 否则按当前题目重新评分，只补发新旧经验之间的正差额
func (s *AttemptService) reconcile(ctx context.Context, quiz *model.Quiz, attempt *model.QuizAttempt) (*model.QuizAttempt, bool, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService.Reconcile", trace.WithAttributes(
		attribute.Int64("attempt.id", int64(attempt.ID)),
	))
	defer span.End()

	entry, err := s.LedgerRepo.FindBySourceAndReference(ctx, model.XPSourceQuizAttempt, attempt.ID)
	if err != nil {
		return nil, false, err
	}
	if ledgerSettled(entry, attempt) {
		return attempt, false, nil
	}

	stored, err := s.AttemptRepo.GetAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, false, err
	}
	graded := Grade(quiz.OrderedQuestions(), StoredAnswers(stored), s.Rules.Get())
	if graded.XPEarned <= 0 {
		return attempt, false, nil
	}

	var (
		updated *model.QuizAttempt
		credit  Credit
		changed bool
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.AttemptRepo.WithTx(tx).LockByID(ctx, attempt.ID)
		if err != nil {
			return err
		}
		entry, err := s.LedgerRepo.WithTx(tx).FindBySourceAndReference(ctx, model.XPSourceQuizAttempt, locked.ID)
		if err != nil {
			return err
		}
		if ledgerSettled(entry, locked) {
			updated = locked
			return nil
		}

		delta := graded.XPEarned - locked.XPEarned
		if delta < 0 {
			delta = 0
		}

		locked.Score = graded.Score
		locked.CorrectAnswers = graded.CorrectAnswers
		locked.TotalQuestions = graded.TotalQuestions
		locked.Bonus = graded.Bonus
		locked.CompletionBonus = graded.CompletionBonus
		locked.XPEarned = graded.XPEarned
		if err := s.AttemptRepo.WithTx(tx).UpdateResult(ctx, locked); err != nil {
			return err
		}

		credit = Credit{
			UserID:       locked.UserID,
			Source:       model.XPSourceQuizAttempt,
			ReferenceID:  locked.ID,
			Delta:        delta,
			LedgerAmount: graded.XPEarned,
			Description:  fmt.Sprintf("Quiz completed (backfill): %s", quiz.Title),
		}
		if err := s.XP.ApplyTx(ctx, tx, credit); err != nil {
			return err
		}
		updated = locked
		changed = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	if changed {
		s.XP.Committed(ctx, credit)
		logger.Log.Info("Quiz attempt XP backfilled",
			zap.Uint("attempt_id", updated.ID),
			zap.Uint("user_id", updated.UserID),
			zap.Int("xp_earned", updated.XPEarned),
			zap.Int("credited", credit.Delta),
		)
	}
	span.SetAttributes(attribute.Bool("backfill.changed", changed), attribute.Int("backfill.credited", credit.Delta))
	return updated, changed, nil
}

func ledgerSettled(entry *model.XPTransaction, attempt *model.QuizAttempt) bool {
	return entry != nil && entry.Amount > 0 && attempt.XPEarned > 0
}

// BackfillAll 遍历测验记录逐条对账，userID 为 0 时处理全部用户
func (s *AttemptService) BackfillAll(ctx context.Context, userID uint) (*BackfillReport, error) {
	report := &BackfillReport{}
	quizzes := make(map[uint]*model.Quiz)

	err := s.AttemptRepo.EachBatch(ctx, userID, backfillBatchSize, func(batch []model.QuizAttempt) error {
		for i := range batch {
			attempt := batch[i]
			report.Scanned++

			quiz, ok := quizzes[attempt.QuizID]
			if !ok {
				q, err := s.QuizRepo.FindWithQuestions(ctx, attempt.QuizID)
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				quiz = q
				quizzes[attempt.QuizID] = q
			}
			if quiz == nil {
				report.Skipped++
				continue
			}

			before := attempt.XPEarned
			updated, changed, err := s.reconcile(ctx, quiz, &attempt)
			if err != nil {
				report.Failed++
				logger.Log.Error("Backfill failed",
					zap.Uint("attempt_id", attempt.ID),
					zap.Error(err),
				)
				continue
			}
			if changed {
				report.Corrected++
				if updated.XPEarned > before {
					report.Credited += updated.XPEarned - before
				}
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}
