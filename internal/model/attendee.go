package model

// Attendee is the 1:1 extension of a Person registered as a member. Its ID
// equals the person ID.
type Attendee struct {
	ID         uint64  // asistentes.id_asistente (= personas.id_persona)
	RoleID     *int16  // asistentes.id_rol
	Cohort     *string // asistentes.generacion
	BirthMonth *int16  // asistentes.mes_cumple
	BirthDay   *int16  // asistentes.dia_cumple
	Experience *string // asistentes.experiencia
	Active     bool    // asistentes.activo
}

// Medical is the optional 1:1 medical/emergency record of an attendee. It is
// created lazily on first write.
type Medical struct {
	AttendeeID            uint64  // asistentes_medicos.id_asistente
	BloodType             *string // tipo_sangre
	Allergies             *string // alergias
	CurrentMedications    *string // medicamentos_actuales
	Conditions            *string // padecimientos
	EmergencyContactName  *string // contacto_emergencia_nombre
	EmergencyContactPhone *string // contacto_emergencia_telefono
}

// AttendeeProfile is an attendee joined with its person, role and, when
// present, medical record.
type AttendeeProfile struct {
	Person   Person
	Attendee Attendee
	Role     *Role
	Medical  *Medical
}

// AttendeeSummary is a row of the attendee listing.
type AttendeeSummary struct {
	AttendeeID uint64
	FullName   string
	Email      string
	Company    *string
	RoleName   RoleName
}
