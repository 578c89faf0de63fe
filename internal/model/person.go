package model

import "time"

// Person mirrors the `personas` table. Email is unique across persons and
// Credential holds whatever the person authenticates with (see
// utils.VerifyCredential for the accepted formats).
type Person struct {
	ID         uint64     // personas.id_persona
	FullName   string     // personas.nombre_completo
	Email      string     // personas.correo
	Credential string     // personas.password_hash
	Phone      *string    // personas.telefono
	Company    *string    // personas.empresa
	JobTitle   *string    // personas.puesto
	Program    *string    // personas.carrera
	CreatedAt  time.Time  // personas.creado_en
	UpdatedAt  *time.Time // personas.actualizado_en
}

// WalkInCredential is stored for persons created at the door. It is not a
// password anybody knows and login with it is refused.
const WalkInCredential = "SinLogin"
