package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"gorm.io/gorm"
)

// MemberService handles the member registry
type MemberService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db, now: time.Now}
}

// GenerateMemberID produces the next sequential member identifier for the
// current year (LIB-<year>-NNNN). The candidate is re-checked against the
// table so concurrent registrations step past each other.
func (s *MemberService) GenerateMemberID(tx *gorm.DB) (string, error) {
	year := s.now().Year()
	prefix := fmt.Sprintf("%s-%d-", models.MemberIDPrefix, year)

	var count int64
	if err := tx.Model(&models.Member{}).Where("member_id LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", apierrors.Database("count members", err)
	}

	for seq := count + 1; ; seq++ {
		candidate := fmt.Sprintf("%s%04d", prefix, seq)

		var existing int64
		if err := tx.Model(&models.Member{}).Where("member_id = ?", candidate).Count(&existing).Error; err != nil {
			return "", apierrors.Database("check member id", err)
		}
		if existing == 0 {
			return candidate, nil
		}
	}
}

// CreateMember registers a member and assigns a generated member ID
func (s *MemberService) CreateMember(req *models.CreateMemberRequest) (*models.MemberResponse, error) {
	if req.Name == "" || req.Email == "" {
		return nil, apierrors.Validation("name and email are required")
	}
	if len(req.Email) > models.MaxEmailLength {
		return nil, apierrors.Validation("email exceeds maximum length")
	}

	var member models.Member

	err := s.db.Transaction(func(tx *gorm.DB) error {
		memberID, err := s.GenerateMemberID(tx)
		if err != nil {
			return err
		}

		member = models.Member{
			MemberID:    memberID,
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Status:      models.MemberStatusActive,
			IdpUserID:   req.IdpUserID,
		}

		if err := tx.Create(&member).Error; err != nil {
			return apierrors.Database("create member", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created member", "memberId", member.MemberID)
	return models.NewMemberResponse(&member), nil
}

// GetMember retrieves a member by ID
func (s *MemberService) GetMember(memberID string) (*models.MemberResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("member")
		}
		return nil, apierrors.Database("get member", err)
	}
	return models.NewMemberResponse(&member), nil
}

// GetMemberByIdpUserID resolves the member row linked to an authenticated
// identity. Backs the self-service endpoints.
func (s *MemberService) GetMemberByIdpUserID(idpUserID string) (*models.Member, error) {
	if idpUserID == "" {
		return nil, apierrors.AuthRequired("no identity on request")
	}

	var member models.Member
	if err := s.db.First(&member, "idp_user_id = ?", idpUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("member")
		}
		return nil, apierrors.Database("get member", err)
	}
	return &member, nil
}

// GetAllMembers retrieves all members
func (s *MemberService) GetAllMembers() ([]models.MemberResponse, error) {
	var members []models.Member
	if err := s.db.Order("member_id").Find(&members).Error; err != nil {
		return nil, apierrors.Database("list members", err)
	}

	response := make([]models.MemberResponse, len(members))
	for i := range members {
		response[i] = *models.NewMemberResponse(&members[i])
	}
	return response, nil
}

// UpdateMember edits a member; nil request fields are left unchanged
func (s *MemberService) UpdateMember(memberID string, req *models.UpdateMemberRequest) (*models.MemberResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("member")
		}
		return nil, apierrors.Database("get member", err)
	}

	if req.Name != nil {
		member.Name = *req.Name
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		member.PhoneNumber = *req.PhoneNumber
	}
	if req.Status != nil {
		switch *req.Status {
		case models.MemberStatusActive, models.MemberStatusInactive, models.MemberStatusSuspended:
			member.Status = *req.Status
		default:
			return nil, apierrors.Validation("invalid member status")
		}
	}

	if err := s.db.Save(&member).Error; err != nil {
		return nil, apierrors.Database("update member", err)
	}

	return models.NewMemberResponse(&member), nil
}
