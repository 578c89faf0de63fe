// Package queue carries check-in notifications over RabbitMQ: the payload,
// a publisher used by the API after a check-in commits and a consumer run by
// cmd/checkin-consumer.
package queue

// CheckInQueue is the durable queue check-in notifications are published to.
const CheckInQueue = "checkin.recorded"

// Notification kinds.
const (
	KindCheckIn = "checkin"
	KindWalkIn  = "walkin"
)

// CheckInRecordedEvent is published after a check-in or walk-in has been
// committed. It carries enough for downstream consumers to log or notify
// without querying the database.
type CheckInRecordedEvent struct {
	Kind              string `json:"kind"`
	EventID           uint64 `json:"id_evento"`
	AttendeeID        uint64 `json:"id_asistente"`
	RegistrationID    uint64 `json:"id_registro"`
	AttendanceID      uint64 `json:"id_asistencia"`
	AttendeeName      string `json:"nombre"`
	BadgeCode         string `json:"codigo_qr"`
	EntryAt           string `json:"hora_entrada"`
	AttendanceCreated bool   `json:"asistencia_creada"`
	Actor             string `json:"actor"`
	RecordedAt        string `json:"registrado_en"`
}
