// file: internals/features/events/events/service/authz.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
)

/* =========================
   Authorization gate
========================= */

// Gate menentukan event mana yang boleh dilihat caller.
//
//  1. platform administrator: semua.
//  2. selain itu wajib punya membership di organisasi event (tidak ada = tolak).
//  3. event invite-only: wajib punya record attendee invited/registered untuk
//     standalone event / instance tsb. Admin organisasi dan pembuat event
//     dikecualikan dari langkah ini.
//
// Data yang hilang atau tidak dikenali selalu berakhir "tolak".
type Gate struct {
	Access store.AccessStore
}

func NewGate(access store.AccessStore) *Gate { return &Gate{Access: access} }

type orgRole int

const (
	roleNone orgRole = iota
	roleRegular
	roleAdmin
)

func parseRole(raw string) orgRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(model.MembershipAdministrator):
		return roleAdmin
	case string(model.MembershipRegular):
		return roleRegular
	default:
		// role kosong / tidak dikenal diperlakukan seperti bukan anggota
		return roleNone
	}
}

// Filter mengembalikan subset views yang boleh dilihat, urutan dipertahankan.
func (g *Gate) Filter(ctx context.Context, caller Caller, views []dto.EventView) ([]dto.EventView, error) {
	if len(views) == 0 {
		return views, nil
	}
	if caller.PlatformAdmin {
		return views, nil
	}
	if caller.UserID == uuid.Nil {
		return nil, nil
	}

	roles, err := g.roles(ctx, caller, views)
	if err != nil {
		return nil, err
	}

	// event invite-only yang butuh cek undangan
	var eventIDs, instanceIDs []uuid.UUID
	for _, v := range views {
		if !v.IsInviteOnly || roles[v.OrganizationID] != roleRegular || isCreator(caller, v) {
			continue
		}
		if v.Kind == dto.KindRecurringInstance {
			instanceIDs = append(instanceIDs, v.ID)
		} else {
			eventIDs = append(eventIDs, v.ID)
		}
	}
	invited := map[uuid.UUID]bool{}
	if len(eventIDs) > 0 || len(instanceIDs) > 0 {
		invited, err = g.Access.InvitedTargets(ctx, caller.UserID, eventIDs, instanceIDs)
		if err != nil {
			return nil, err
		}
	}

	out := make([]dto.EventView, 0, len(views))
	for _, v := range views {
		if canSee(caller, v, roles[v.OrganizationID], invited) {
			out = append(out, v)
		}
	}
	return out, nil
}

// CanSee: versi satu event dari Filter.
func (g *Gate) CanSee(ctx context.Context, caller Caller, v dto.EventView) (bool, error) {
	out, err := g.Filter(ctx, caller, []dto.EventView{v})
	if err != nil {
		return false, err
	}
	return len(out) == 1, nil
}

// IsMember: caller boleh melihat organisasi (tanpa memandang invite-only).
func (g *Gate) IsMember(ctx context.Context, caller Caller, orgID uuid.UUID) (bool, error) {
	if caller.PlatformAdmin {
		return true, nil
	}
	if caller.UserID == uuid.Nil {
		return false, nil
	}
	roles, err := g.Access.Memberships(ctx, caller.UserID, []uuid.UUID{orgID})
	if err != nil {
		return false, err
	}
	return parseRole(roles[orgID]) != roleNone, nil
}

// CanManage: platform admin, admin organisasi, atau pembuat event yang
// masih anggota organisasi.
func (g *Gate) CanManage(ctx context.Context, caller Caller, orgID uuid.UUID, creator *uuid.UUID) (bool, error) {
	if caller.PlatformAdmin {
		return true, nil
	}
	if caller.UserID == uuid.Nil {
		return false, nil
	}
	roles, err := g.Access.Memberships(ctx, caller.UserID, []uuid.UUID{orgID})
	if err != nil {
		return false, err
	}
	switch parseRole(roles[orgID]) {
	case roleAdmin:
		return true, nil
	case roleRegular:
		return creator != nil && *creator == caller.UserID, nil
	default:
		return false, nil
	}
}

func (g *Gate) roles(ctx context.Context, caller Caller, views []dto.EventView) (map[uuid.UUID]orgRole, error) {
	seen := map[uuid.UUID]struct{}{}
	var orgIDs []uuid.UUID
	for _, v := range views {
		if _, ok := seen[v.OrganizationID]; ok {
			continue
		}
		seen[v.OrganizationID] = struct{}{}
		orgIDs = append(orgIDs, v.OrganizationID)
	}
	raw, err := g.Access.Memberships(ctx, caller.UserID, orgIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]orgRole, len(raw))
	for org, r := range raw {
		out[org] = parseRole(r)
	}
	return out, nil
}

func isCreator(caller Caller, v dto.EventView) bool {
	return v.CreatorID != nil && *v.CreatorID == caller.UserID
}

func canSee(caller Caller, v dto.EventView, role orgRole, invited map[uuid.UUID]bool) bool {
	switch role {
	case roleAdmin:
		return true
	case roleRegular:
		if !v.IsInviteOnly || isCreator(caller, v) {
			return true
		}
		return invited[v.ID]
	default:
		return false
	}
}
