package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/messaging"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

type surveyFixture struct {
	survey    models.Survey
	choice    models.SurveyQuestion
	text      models.SurveyQuestion
	multi     models.SurveyQuestion
	student   models.User
	otherUser models.User
}

func seedSurvey(t *testing.T, db *gorm.DB, status string) surveyFixture {
	t.Helper()

	author := seedUser(t, db, "surveyadmin", models.RoleAdmin)
	survey := models.Survey{
		Title:     "Course feedback",
		Status:    status,
		CreatorID: author.ID,
		Questions: []models.SurveyQuestion{
			{Position: 1, QuestionText: "How was the course?", QuestionType: models.QuestionTypeSingleChoice, Options: []models.QuestionOption{{OptionText: "Good"}, {OptionText: "Bad"}}},
			{Position: 2, QuestionText: "Any comments?", QuestionType: models.QuestionTypeText},
			{Position: 3, QuestionText: "Which sessions did you attend?", QuestionType: models.QuestionTypeMultipleChoice, Options: []models.QuestionOption{{OptionText: "Morning"}, {OptionText: "Afternoon"}, {OptionText: "Evening"}}},
		},
	}
	require.NoError(t, repository.NewSurveyRepository(db).CreateWithQuestions(context.Background(), &survey))

	return surveyFixture{
		survey:    survey,
		choice:    survey.Questions[0],
		text:      survey.Questions[1],
		multi:     survey.Questions[2],
		student:   seedUser(t, db, "alice", models.RoleStudent),
		otherUser: seedUser(t, db, "bob", models.RoleStudent),
	}
}

func newSubmissionService(db *gorm.DB, store repository.SubmissionStore, publisher messaging.Publisher) SurveySubmissionService {
	return NewSurveySubmissionService(repository.NewSurveyRepository(db), store, publisher, newValidator(), zerolog.Nop())
}

func countSubmissionRows(t *testing.T, db *gorm.DB, surveyID uint) (submissions, answers int64) {
	t.Helper()
	require.NoError(t, db.Model(&models.SurveySubmission{}).Where("survey_id = ?", surveyID).Count(&submissions).Error)
	require.NoError(t, db.Model(&models.SurveyAnswer{}).Count(&answers).Error)
	return submissions, answers
}

func TestSubmitStoresAnswersOnceThenRejectsRepeat(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusActive)
	publisher := &recordingPublisher{}
	svc := newSubmissionService(db, repository.NewSubmissionStore(db), publisher)

	req := dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{
		{QuestionID: fx.choice.ID, OptionID: &fx.choice.Options[0].ID},
		{QuestionID: fx.text.ID, AnswerText: stringPtr("ok")},
	}}

	resp, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.NoError(t, err)
	require.Equal(t, 2, resp.AnswerCount)
	require.Equal(t, []string{messaging.SubjectSurveySubmitted}, publisher.subjects())

	var answers []models.SurveyAnswer
	require.NoError(t, db.Where("submission_id = ?", resp.SubmissionID).Order("id").Find(&answers).Error)
	require.Len(t, answers, 2)
	require.Equal(t, fx.choice.Options[0].ID, *answers[0].OptionID)
	require.Nil(t, answers[0].AnswerText)
	require.Equal(t, "ok", *answers[1].AnswerText)
	require.Nil(t, answers[1].OptionID)

	_, err = svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	submissions, answerRows := countSubmissionRows(t, db, fx.survey.ID)
	require.EqualValues(t, 1, submissions)
	require.EqualValues(t, 2, answerRows)
}

type failingSubmissionStore struct {
	inner  repository.SubmissionStore
	failAt int
}

func (s failingSubmissionStore) RunInTx(ctx context.Context, fn func(tx repository.SubmissionTx) error) error {
	return s.inner.RunInTx(ctx, func(tx repository.SubmissionTx) error {
		return fn(&failingSubmissionTx{SubmissionTx: tx, failAt: s.failAt})
	})
}

type failingSubmissionTx struct {
	repository.SubmissionTx
	failAt  int
	written int
}

var errAnswerWrite = errors.New("disk full")

func (t *failingSubmissionTx) CreateAnswer(ctx context.Context, answer *models.SurveyAnswer) error {
	t.written++
	if t.written == t.failAt {
		return errAnswerWrite
	}
	return t.SubmissionTx.CreateAnswer(ctx, answer)
}

func TestSubmitRollsBackWhenAnAnswerFails(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusActive)
	store := failingSubmissionStore{inner: repository.NewSubmissionStore(db), failAt: 3}
	svc := newSubmissionService(db, store, nil)

	req := dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{
		{QuestionID: fx.choice.ID, OptionID: &fx.choice.Options[1].ID},
		{QuestionID: fx.text.ID, AnswerText: stringPtr("fine")},
		{QuestionID: fx.multi.ID, OptionID: &fx.multi.Options[0].ID},
		{QuestionID: fx.multi.ID, OptionID: &fx.multi.Options[2].ID},
	}}

	_, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.ErrorIs(t, err, errAnswerWrite)

	submissions, answers := countSubmissionRows(t, db, fx.survey.ID)
	require.Zero(t, submissions)
	require.Zero(t, answers)

	// Nothing was committed, so a clean retry succeeds.
	clean := newSubmissionService(db, repository.NewSubmissionStore(db), nil)
	resp, err := clean.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.NoError(t, err)
	require.Equal(t, 4, resp.AnswerCount)
}

func TestSubmitConcurrentDuplicatesKeepOneSubmission(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusActive)
	svc := newSubmissionService(db, repository.NewSubmissionStore(db), nil)

	req := dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{
		{QuestionID: fx.text.ID, AnswerText: stringPtr("same")},
	}}

	var confirmed, duplicate int64
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
			switch {
			case err == nil:
				atomic.AddInt64(&confirmed, 1)
			case errors.Is(err, ErrAlreadySubmitted):
				atomic.AddInt64(&duplicate, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, confirmed)
	require.EqualValues(t, 5, duplicate)
	submissions, answers := countSubmissionRows(t, db, fx.survey.ID)
	require.EqualValues(t, 1, submissions)
	require.EqualValues(t, 1, answers)
}

func TestSubmitValidatesAnswerShape(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusActive)
	svc := newSubmissionService(db, repository.NewSubmissionStore(db), nil)

	foreignOption := fx.multi.Options[0].ID
	cases := map[string][]dto.SurveyAnswerRequest{
		"unknown question":         {{QuestionID: 4242, AnswerText: stringPtr("x")}},
		"option on text question":  {{QuestionID: fx.text.ID, OptionID: &fx.choice.Options[0].ID, AnswerText: stringPtr("x")}},
		"empty text answer":        {{QuestionID: fx.text.ID, AnswerText: stringPtr("   ")}},
		"text on choice question":  {{QuestionID: fx.choice.ID, OptionID: &fx.choice.Options[0].ID, AnswerText: stringPtr("x")}},
		"missing option":           {{QuestionID: fx.choice.ID}},
		"option of other question": {{QuestionID: fx.choice.ID, OptionID: &foreignOption}},
		"two answers single choice": {
			{QuestionID: fx.choice.ID, OptionID: &fx.choice.Options[0].ID},
			{QuestionID: fx.choice.ID, OptionID: &fx.choice.Options[1].ID},
		},
		"same option twice": {
			{QuestionID: fx.multi.ID, OptionID: &fx.multi.Options[1].ID},
			{QuestionID: fx.multi.ID, OptionID: &fx.multi.Options[1].ID},
		},
	}

	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, dto.SurveySubmitRequest{Answers: answers})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
		})
	}

	_, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, dto.SurveySubmitRequest{})
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)

	submissions, _ := countSubmissionRows(t, db, fx.survey.ID)
	require.Zero(t, submissions)
}

func TestSubmitRequiresActiveSurvey(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusDraft)
	svc := newSubmissionService(db, repository.NewSubmissionStore(db), nil)

	req := dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{{QuestionID: fx.text.ID, AnswerText: stringPtr("hi")}}}

	_, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.ErrorIs(t, err, ErrSurveyNotActive)

	_, err = svc.Submit(context.Background(), 9999, fx.student.ID, req)
	require.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestSubmitRepeatAfterSurveyClosesIsAlreadySubmitted(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusActive)
	svc := newSubmissionService(db, repository.NewSubmissionStore(db), nil)

	req := dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{{QuestionID: fx.text.ID, AnswerText: stringPtr("first")}}}
	_, err := svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Survey{}).Where("id = ?", fx.survey.ID).Update("status", models.SurveyStatusClosed).Error)

	_, err = svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, req)
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = svc.Submit(context.Background(), fx.survey.ID, fx.student.ID, dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{
		{QuestionID: fx.choice.ID, OptionID: &fx.multi.Options[0].ID},
	}})
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = svc.Submit(context.Background(), fx.survey.ID, fx.otherUser.ID, req)
	require.ErrorIs(t, err, ErrSurveyNotActive)
}

func TestSubmitSanitisesFreeText(t *testing.T) {
	db := newTestDB(t)
	fx := seedSurvey(t, db, models.SurveyStatusActive)
	svc := newSubmissionService(db, repository.NewSubmissionStore(db), nil)

	req := dto.SurveySubmitRequest{Answers: []dto.SurveyAnswerRequest{
		{QuestionID: fx.text.ID, AnswerText: stringPtr("<script>alert(1)</script>great <b>course</b>")},
	}}
	resp, err := svc.Submit(context.Background(), fx.survey.ID, fx.otherUser.ID, req)
	require.NoError(t, err)

	var answer models.SurveyAnswer
	require.NoError(t, db.Where("submission_id = ?", resp.SubmissionID).First(&answer).Error)
	require.Equal(t, "great course", *answer.AnswerText)
}
