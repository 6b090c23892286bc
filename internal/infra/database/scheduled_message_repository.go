package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type ScheduledMessageRepository struct {
	DB *sql.DB
}

func NewScheduledMessageRepository(db *sql.DB) *ScheduledMessageRepository {
	return &ScheduledMessageRepository{DB: db}
}

func (r *ScheduledMessageRepository) Create(ctx context.Context, m *entity.ScheduledMessage) error {
	query := `
		INSERT INTO mensagens_agendadas (id, id_clinica, id_lead, id_etapa, id_mensagem, conteudo, due_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		m.ID, m.ClinicID, m.LeadID, m.StageID, m.MessageID, m.Content, m.DueAt, m.Status, m.CreatedAt)
	return err
}

// SendingLease é quanto uma mensagem pode ficar em "enviando" antes de outra
// réplica reivindicá-la de novo (processo que caiu antes do MarkStatus).
const SendingLease = 10 * time.Minute

const claimDueQuery = `
		UPDATE mensagens_agendadas
		SET status = $1, updated_at = $3
		WHERE id IN (
			SELECT id FROM mensagens_agendadas
			WHERE (status = $2 AND due_at <= $3)
			   OR (status = $1 AND updated_at < $5)
			ORDER BY due_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, id_clinica, id_lead, id_etapa, id_mensagem, conteudo, due_at, status, created_at
	`

// ClaimDue marca como "enviando" e devolve as pendentes vencidas, junto com as
// que estão em "enviando" há mais que SendingLease. SKIP LOCKED deixa mais de
// uma réplica rodar o scheduler sem enviar em dobro.
func (r *ScheduledMessageRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]entity.ScheduledMessage, error) {
	rows, err := r.DB.QueryContext(ctx, claimDueQuery, claimDueArgs(now, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []entity.ScheduledMessage
	for rows.Next() {
		var m entity.ScheduledMessage
		if err := rows.Scan(&m.ID, &m.ClinicID, &m.LeadID, &m.StageID, &m.MessageID, &m.Content, &m.DueAt, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		due = append(due, m)
	}
	return due, rows.Err()
}

func (r *ScheduledMessageRepository) MarkStatus(ctx context.Context, id string, status entity.ScheduledStatus, lastError string) error {
	query := `UPDATE mensagens_agendadas SET status = $1, last_error = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, nullString(lastError), id)
	return err
}

func claimDueArgs(now time.Time, limit int) []interface{} {
	return []interface{}{entity.ScheduledSending, entity.ScheduledPending, now, limit, now.Add(-SendingLease)}
}
