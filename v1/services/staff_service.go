package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/library-server-go/idp"
	"github.com/openshelf/library-server-go/monitoring"
	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"gorm.io/gorm"
)

// StaffService provisions staff accounts across the identity provider
// and the local database. Provisioning is a saga: create the IdP user,
// add it to the role group, insert the local row; a failure at any step
// unwinds the earlier ones.
type StaffService struct {
	db  *gorm.DB
	idp idp.IdentityProviderAPI
}

// NewStaffService creates a new staff service
func NewStaffService(db *gorm.DB, provider idp.IdentityProviderAPI) *StaffService {
	return &StaffService{db: db, idp: provider}
}

// groupForRole maps a staff role to its identity-provider group
func groupForRole(role models.StaffRole) (models.UserGroup, error) {
	switch role {
	case models.StaffRoleAdmin:
		return models.UserGroupAdmin, nil
	case models.StaffRoleLibrarian:
		return models.UserGroupLibrarian, nil
	default:
		return "", apierrors.Validation("invalid staff role")
	}
}

func splitName(name string) (string, string) {
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// CreateStaff provisions a staff account. When the database insert fails
// after the IdP side succeeded, the group membership and user are removed
// again; a compensation failure is surfaced for manual cleanup.
func (s *StaffService) CreateStaff(ctx context.Context, req *models.CreateStaffRequest) (*models.StaffResponse, error) {
	if req.Name == "" || req.Email == "" {
		return nil, apierrors.Validation("name and email are required")
	}

	group, err := groupForRole(req.Role)
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(req.Name)
	start := time.Now()
	createdUser, err := s.idp.CreateUser(ctx, &idp.User{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	monitoring.RecordExternalCall(ctx, "idp", "create_user", time.Since(start), err)
	if err != nil {
		return nil, apierrors.Internal("failed to create user in identity provider", err)
	}

	slog.Info("Created staff user in IdP", "idpUserId", createdUser.Id)

	groupID, err := s.idp.AddMemberToGroupByGroupName(ctx, string(group), &idp.GroupMember{
		Value:   createdUser.Id,
		Display: req.Email,
	})
	if err != nil {
		if delErr := s.idp.DeleteUser(ctx, createdUser.Id); delErr != nil {
			return nil, apierrors.Internal(
				fmt.Sprintf("failed to assign role group and could not remove IdP user %s", createdUser.Id),
				errors.Join(err, delErr))
		}
		return nil, apierrors.Internal("failed to assign role group", err)
	}

	staff := models.StaffAccount{
		StaffID:   "staff_" + uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		IdpUserID: createdUser.Id,
	}

	if err := s.db.Create(&staff).Error; err != nil {
		var compErrs []error
		if remErr := s.idp.RemoveMemberFromGroup(ctx, *groupID, createdUser.Id); remErr != nil {
			compErrs = append(compErrs, remErr)
		}
		if delErr := s.idp.DeleteUser(ctx, createdUser.Id); delErr != nil {
			compErrs = append(compErrs, delErr)
		}
		if len(compErrs) > 0 {
			return nil, apierrors.Internal(
				fmt.Sprintf("failed to store staff account and could not unwind IdP user %s", createdUser.Id),
				errors.Join(append([]error{err}, compErrs...)...))
		}
		return nil, apierrors.Database("create staff account", err)
	}

	slog.Info("Created staff account", "staffId", staff.StaffID, "role", staff.Role)
	return models.NewStaffResponse(&staff), nil
}

// GetStaff retrieves a staff account by ID
func (s *StaffService) GetStaff(staffID string) (*models.StaffResponse, error) {
	var staff models.StaffAccount
	if err := s.db.First(&staff, "staff_id = ?", staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("staff account")
		}
		return nil, apierrors.Database("get staff account", err)
	}
	return models.NewStaffResponse(&staff), nil
}

// GetAllStaff retrieves all staff accounts
func (s *StaffService) GetAllStaff() ([]models.StaffResponse, error) {
	var accounts []models.StaffAccount
	if err := s.db.Order("name").Find(&accounts).Error; err != nil {
		return nil, apierrors.Database("list staff accounts", err)
	}

	response := make([]models.StaffResponse, len(accounts))
	for i := range accounts {
		response[i] = *models.NewStaffResponse(&accounts[i])
	}
	return response, nil
}

// UpdateStaff edits a staff account. A role change moves the IdP user
// between role groups before the local row is saved.
func (s *StaffService) UpdateStaff(ctx context.Context, staffID string, req *models.UpdateStaffRequest) (*models.StaffResponse, error) {
	var staff models.StaffAccount
	if err := s.db.First(&staff, "staff_id = ?", staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("staff account")
		}
		return nil, apierrors.Database("get staff account", err)
	}

	if req.Name != nil {
		staff.Name = *req.Name
	}

	if req.Role != nil && *req.Role != staff.Role {
		newGroup, err := groupForRole(*req.Role)
		if err != nil {
			return nil, err
		}
		oldGroup, err := groupForRole(staff.Role)
		if err != nil {
			return nil, err
		}

		if _, err := s.idp.AddMemberToGroupByGroupName(ctx, string(newGroup), &idp.GroupMember{
			Value:   staff.IdpUserID,
			Display: staff.Email,
		}); err != nil {
			return nil, apierrors.Internal("failed to assign new role group", err)
		}

		oldGroupID, err := s.idp.GetGroupByName(ctx, string(oldGroup))
		if err != nil {
			return nil, apierrors.Internal("failed to resolve previous role group", err)
		}
		if err := s.idp.RemoveMemberFromGroup(ctx, *oldGroupID, staff.IdpUserID); err != nil {
			return nil, apierrors.Internal("failed to leave previous role group", err)
		}

		staff.Role = *req.Role
	}

	if err := s.db.Save(&staff).Error; err != nil {
		return nil, apierrors.Database("update staff account", err)
	}

	return models.NewStaffResponse(&staff), nil
}

// DeleteStaff removes a staff account from the IdP and the database.
// The IdP user goes first so a failure leaves the local row intact.
func (s *StaffService) DeleteStaff(ctx context.Context, staffID string) error {
	var staff models.StaffAccount
	if err := s.db.First(&staff, "staff_id = ?", staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NotFound("staff account")
		}
		return apierrors.Database("get staff account", err)
	}

	start := time.Now()
	err := s.idp.DeleteUser(ctx, staff.IdpUserID)
	monitoring.RecordExternalCall(ctx, "idp", "delete_user", time.Since(start), err)
	if err != nil {
		return apierrors.Internal("failed to delete user in identity provider", err)
	}

	if err := s.db.Delete(&staff).Error; err != nil {
		return apierrors.Database("delete staff account", err)
	}

	slog.Info("Deleted staff account", "staffId", staffID)
	return nil
}
