package idp

import "context"

// ProviderType selects the identity provider implementation
type ProviderType string

const (
	ProviderAsgardeo ProviderType = "asgardeo"
)

// IdentityProviderAPI is the contract the staff-provisioning saga runs
// against: user lifecycle plus role-group membership.
type IdentityProviderAPI interface {
	UserManager
	GroupManager
}

type UserManager interface {
	CreateUser(ctx context.Context, userInfo *User) (*UserInfo, error)
	GetUser(ctx context.Context, userId string) (*UserInfo, error)
	UpdateUser(ctx context.Context, userId string, userInfo *User) (*UserInfo, error)
	DeleteUser(ctx context.Context, userId string) error
}

type GroupManager interface {
	GetGroupByName(ctx context.Context, groupName string) (*string, error)
	AddMemberToGroupByGroupName(ctx context.Context, groupName string, memberInfo *GroupMember) (*string, error) // Returns groupId
	RemoveMemberFromGroup(ctx context.Context, groupId string, userId string) error
}

type User struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

type UserInfo struct {
	Id          string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
}

type GroupMember struct {
	Value   string
	Display string
}
