// file: internals/features/events/events/model/organization_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Tabel organisasi & membership dikelola service lain; di sini hanya dibaca.

type OrganizationModel struct {
	OrganizationID        uuid.UUID `gorm:"type:uuid;primaryKey;column:organization_id" json:"organization_id"`
	OrganizationName      string    `gorm:"column:organization_name;type:varchar(255);not null" json:"organization_name"`
	OrganizationCreatedAt time.Time `gorm:"column:organization_created_at;autoCreateTime" json:"organization_created_at"`
}

func (OrganizationModel) TableName() string { return "organizations" }

type MembershipRole string

const (
	MembershipRegular       MembershipRole = "regular"
	MembershipAdministrator MembershipRole = "administrator"
)

type OrganizationMembershipModel struct {
	MembershipUserID         uuid.UUID `gorm:"type:uuid;primaryKey;column:membership_user_id" json:"membership_user_id"`
	MembershipOrganizationID uuid.UUID `gorm:"type:uuid;primaryKey;column:membership_organization_id" json:"membership_organization_id"`
	MembershipRole           string    `gorm:"column:membership_role;type:varchar(32)" json:"membership_role"`
	MembershipCreatedAt      time.Time `gorm:"column:membership_created_at;autoCreateTime" json:"membership_created_at"`
}

func (OrganizationMembershipModel) TableName() string { return "organization_memberships" }
