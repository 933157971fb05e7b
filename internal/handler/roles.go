package handler

import (
	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/models"
)

// Allow-lists shared by the route registrations.
var (
	administrators  = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin)
	articleEditors  = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleEditor)
	articleReaders  = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleEditor, models.RoleManager)
	eventReaders    = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleEditor, models.RoleManager)
	eventInspectors = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleEditor)
	surveyReaders   = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)
	complaintStaff  = auth.Roles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleModerator)
)

var (
	requireAdministrators  = middleware.RequireRoles(administrators)
	requireArticleEditors  = middleware.RequireRoles(articleEditors)
	requireArticleReaders  = middleware.RequireRoles(articleReaders)
	requireEventReaders    = middleware.RequireRoles(eventReaders)
	requireEventInspectors = middleware.RequireRoles(eventInspectors)
	requireSurveyReaders   = middleware.RequireRoles(surveyReaders)
	requireComplaintStaff  = middleware.RequireRoles(complaintStaff)
)
