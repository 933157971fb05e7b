package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

func TestUserListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "admin", models.RoleAdmin)
	for _, name := range []string{"alice", "alfred", "bob"} {
		seedUser(t, db, name, models.RoleStudent)
	}
	svc := NewUserService(repository.NewUserRepository(db), nil, newValidator(), zerolog.Nop())

	page, err := svc.List(context.Background(), dto.UserListRequest{Page: 1, PageSize: 2, Role: "student"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.EqualValues(t, 3, page.Pagination.TotalItems)
	require.Equal(t, 2, page.Pagination.TotalPages)

	search, err := svc.List(context.Background(), dto.UserListRequest{Search: "AL"})
	require.NoError(t, err)
	require.Len(t, search.Items, 2)

	_, err = svc.List(context.Background(), dto.UserListRequest{Role: "wizard"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestUserUpdateBansAndPromotes(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	seedUser(t, db, "bob", models.RoleStudent)
	activity := &stubActivityRecorder{}
	svc := NewUserService(repository.NewUserRepository(db), activity, newValidator(), zerolog.Nop())

	banned := true
	updated, err := svc.Update(context.Background(), identityOf(admin), student.ID, dto.UserUpdateRequest{
		IsBanned:  &banned,
		BanReason: stringPtr(" repeated spam "),
		Role:      stringPtr("editor"),
	})
	require.NoError(t, err)
	require.True(t, updated.IsBanned)
	require.Equal(t, "repeated spam", *updated.BanReason)
	require.Equal(t, "editor", updated.Role)

	unbanned := false
	updated, err = svc.Update(context.Background(), identityOf(admin), student.ID, dto.UserUpdateRequest{IsBanned: &unbanned})
	require.NoError(t, err)
	require.False(t, updated.IsBanned)
	require.Nil(t, updated.BanReason)

	_, err = svc.Update(context.Background(), identityOf(admin), student.ID, dto.UserUpdateRequest{Username: stringPtr("bob")})
	require.ErrorIs(t, err, ErrAccountExists)

	_, err = svc.Update(context.Background(), identityOf(admin), 999, dto.UserUpdateRequest{FullName: stringPtr("Nobody")})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Update(context.Background(), identityOf(admin), student.ID, dto.UserUpdateRequest{Email: stringPtr("nope")})
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	require.Equal(t, []string{ActionUserUpdated, ActionUserUpdated}, activity.actions())
}

func TestProfileAggregatesActivityAndChangesPassword(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	event := seedEvent(t, db, admin, nil)

	regs, _ := setupRegistrationService(t, db)
	_, err := regs.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	complaints := NewComplaintService(repository.NewComplaintRepository(db), nil, nil, newValidator(), zerolog.Nop())
	_, err = complaints.Create(context.Background(), identityOf(student), dto.ComplaintCreateRequest{Title: "Wifi down", Category: "it", Description: "Library wifi is down"})
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	svc := NewProfileService(users, repository.NewEventRepository(db), repository.NewComplaintRepository(db), repository.NewSurveyRepository(db), nil, newValidator(), zerolog.Nop())

	profile, err := svc.Me(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", profile.User.Username)
	require.Len(t, profile.Registrations, 1)
	require.Equal(t, event.Title, profile.Registrations[0].Title)
	require.Len(t, profile.Complaints, 1)
	require.Empty(t, profile.Surveys)

	err = svc.ChangePassword(context.Background(), student.ID, dto.PasswordChangeRequest{CurrentPassword: "wrong-password", NewPassword: "brand-new-secret"})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	require.NoError(t, svc.ChangePassword(context.Background(), student.ID, dto.PasswordChangeRequest{CurrentPassword: "secret-password", NewPassword: "brand-new-secret"}))
	stored, err := users.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.True(t, auth.CheckPassword(stored.PasswordHash, "brand-new-secret"))

	_, err = svc.Me(context.Background(), 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestActivityRecordAndFilter(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	moderator := seedUser(t, db, "moderator", models.RoleModerator)
	svc := NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())

	require.NoError(t, svc.Record(context.Background(), ActivityEntry{Actor: identityOf(admin), Action: " Event.Created ", EntityType: "Event", EntityID: uintPtr(1)}))
	require.NoError(t, svc.Record(context.Background(), ActivityEntry{Actor: identityOf(moderator), Action: ActionComplaintResponded, EntityType: "complaint", Metadata: map[string]interface{}{"note": "ok"}}))
	require.Error(t, svc.Record(context.Background(), ActivityEntry{Actor: identityOf(admin), EntityType: "event"}))

	all, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Pagination.TotalItems)

	byAction, err := svc.List(context.Background(), dto.ActivityListRequest{Action: "EVENT.CREATED"})
	require.NoError(t, err)
	require.Len(t, byAction.Items, 1)
	require.Equal(t, "Admin", byAction.Items[0].ActorName)
	require.Equal(t, "event", byAction.Items[0].EntityType)

	byActor, err := svc.List(context.Background(), dto.ActivityListRequest{ActorID: moderator.ID})
	require.NoError(t, err)
	require.Len(t, byActor.Items, 1)
	require.Equal(t, "moderator", byActor.Items[0].ActorRole)
	require.Equal(t, "ok", byActor.Items[0].Metadata["note"])
}
