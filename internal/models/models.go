package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Event{},
		&EventRegistration{},
		&Survey{},
		&SurveyQuestion{},
		&QuestionOption{},
		&SurveySubmission{},
		&SurveyAnswer{},
		&Complaint{},
		&ComplaintResponse{},
		&NewsArticle{},
		&ArticleAttachment{},
		&DownloadableFile{},
		&ActivityLog{},
	}
}
