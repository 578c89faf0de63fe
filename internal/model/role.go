package model

// RoleName is the value stored in roles.nombre_rol.
type RoleName string

const (
	RoleEngineer      RoleName = "ingeniero"
	RoleIntern        RoleName = "becario"
	RoleStudent       RoleName = "estudiante"
	RoleAdministrator RoleName = "administrador"
	RoleStaff         RoleName = "staff"
)

// AccessRole is the coarse role carried in access tokens and checked by the
// route guards.
type AccessRole string

const (
	AccessAdmin AccessRole = "admin"
	AccessStaff AccessRole = "staff"
	AccessUser  AccessRole = "user"
)

// Role represents a row in the `roles` table. Roles are static reference
// data seeded with the schema; attendees point at them through
// asistentes.id_rol.
//
// Fields:
//  ID        – roles.id_rol
//  Name      – unique role name
//  EventCost – cost charged per event, kept as the decimal string MySQL returns
type Role struct {
	ID        int16    // roles.id_rol
	Name      RoleName // roles.nombre_rol
	EventCost string   // roles.costo_evento
}

// AccessRoleFor maps a stored role name to the access role used in tokens.
// A person without an attendee row (nil role) is a plain user.
func AccessRoleFor(name *RoleName) AccessRole {
	if name == nil {
		return AccessUser
	}
	switch *name {
	case RoleAdministrator:
		return AccessAdmin
	case RoleStaff:
		return AccessStaff
	}
	return AccessUser
}
