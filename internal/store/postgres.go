package store

import (
	"context"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aedentek-pro/lms004/internal/models"
)

// Advisory lock keys, one per collection. Every full-collection overwrite
// takes the collection's lock for the duration of its transaction so that
// concurrent read-modify-write cycles cannot interleave.
const (
	lockUsers            = int64(3001)
	lockOneToOneSessions = int64(3002)
	lockLiveSessions     = int64(3003)
	lockNotifications    = int64(3004)
	lockChatMessages     = int64(3005)
)

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	pool  *pgxpool.Pool
	ready atomic.Bool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Ready(ctx context.Context) bool {
	if p.ready.Load() {
		return true
	}
	if err := p.pool.Ping(ctx); err != nil {
		return false
	}
	p.ready.Store(true)
	return true
}

// withCollectionLock runs fn inside a transaction holding the collection's
// advisory lock. The lock is released on commit or rollback.
func (p *Postgres) withCollectionLock(ctx context.Context, lockKey int64, fn func(tx pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- users ---

func (p *Postgres) GetUsers(ctx context.Context) ([]models.User, error) {
	return getUsers(ctx, p.pool)
}

func (p *Postgres) SaveUsers(ctx context.Context, users []models.User) error {
	return p.withCollectionLock(ctx, lockUsers, func(tx pgx.Tx) error {
		return replaceUsers(ctx, tx, users)
	})
}

func getUsers(ctx context.Context, db dbtx) ([]models.User, error) {
	rows, err := db.Query(ctx, `
		SELECT id, name, email, password_hash, role, phone_number, address, created_at, updated_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.PhoneNumber,
			&user.Address,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func replaceUsers(ctx context.Context, tx pgx.Tx, users []models.User) error {
	if _, err := tx.Exec(ctx, "DELETE FROM users"); err != nil {
		return err
	}
	for _, user := range users {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, phone_number, address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
			user.Role,
			user.PhoneNumber,
			user.Address,
			user.CreatedAt,
			user.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// --- one-to-one sessions ---

func (p *Postgres) GetOneToOneSessions(ctx context.Context) ([]models.OneToOneSession, error) {
	return getOneToOneSessions(ctx, p.pool)
}

func (p *Postgres) SaveOneToOneSessions(ctx context.Context, sessions []models.OneToOneSession) error {
	return p.withCollectionLock(ctx, lockOneToOneSessions, func(tx pgx.Tx) error {
		return replaceOneToOneSessions(ctx, tx, sessions)
	})
}

func (p *Postgres) UpdateOneToOneSessions(
	ctx context.Context,
	mutate func([]models.OneToOneSession) ([]models.OneToOneSession, bool, error),
) error {
	return p.withCollectionLock(ctx, lockOneToOneSessions, func(tx pgx.Tx) error {
		sessions, err := getOneToOneSessions(ctx, tx)
		if err != nil {
			return err
		}
		updated, changed, err := mutate(sessions)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return replaceOneToOneSessions(ctx, tx, updated)
	})
}

func getOneToOneSessions(ctx context.Context, db dbtx) ([]models.OneToOneSession, error) {
	rows, err := db.Query(ctx, `
		SELECT id, student_id, instructor_id, date_time, status, requested_by_id, reminder_sent
		FROM one_to_one_sessions
		ORDER BY date_time, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.OneToOneSession, 0)
	for rows.Next() {
		var session models.OneToOneSession
		if err := rows.Scan(
			&session.ID,
			&session.StudentID,
			&session.InstructorID,
			&session.DateTime,
			&session.Status,
			&session.RequestedByID,
			&session.ReminderSent,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func replaceOneToOneSessions(ctx context.Context, tx pgx.Tx, sessions []models.OneToOneSession) error {
	if _, err := tx.Exec(ctx, "DELETE FROM one_to_one_sessions"); err != nil {
		return err
	}
	for _, session := range sessions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO one_to_one_sessions (id, student_id, instructor_id, date_time, status, requested_by_id, reminder_sent)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			session.ID,
			session.StudentID,
			session.InstructorID,
			session.DateTime,
			session.Status,
			session.RequestedByID,
			session.ReminderSent,
		); err != nil {
			return err
		}
	}
	return nil
}

// --- live sessions ---

func (p *Postgres) GetLiveSessions(ctx context.Context) ([]models.LiveSession, error) {
	return getLiveSessions(ctx, p.pool)
}

func (p *Postgres) SaveLiveSessions(ctx context.Context, sessions []models.LiveSession) error {
	return p.withCollectionLock(ctx, lockLiveSessions, func(tx pgx.Tx) error {
		return replaceLiveSessions(ctx, tx, sessions)
	})
}

func (p *Postgres) UpdateLiveSessions(
	ctx context.Context,
	mutate func([]models.LiveSession) ([]models.LiveSession, bool, error),
) error {
	return p.withCollectionLock(ctx, lockLiveSessions, func(tx pgx.Tx) error {
		sessions, err := getLiveSessions(ctx, tx)
		if err != nil {
			return err
		}
		updated, changed, err := mutate(sessions)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return replaceLiveSessions(ctx, tx, updated)
	})
}

func getLiveSessions(ctx context.Context, db dbtx) ([]models.LiveSession, error) {
	rows, err := db.Query(ctx, `
		SELECT id, title, description, instructor_id, date_time, price, attendee_ids, recording_url, reminder_sent
		FROM live_sessions
		ORDER BY date_time, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.LiveSession, 0)
	for rows.Next() {
		var session models.LiveSession
		if err := rows.Scan(
			&session.ID,
			&session.Title,
			&session.Description,
			&session.InstructorID,
			&session.DateTime,
			&session.Price,
			&session.AttendeeIDs,
			&session.RecordingURL,
			&session.ReminderSent,
		); err != nil {
			return nil, err
		}
		if session.AttendeeIDs == nil {
			session.AttendeeIDs = []string{}
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func replaceLiveSessions(ctx context.Context, tx pgx.Tx, sessions []models.LiveSession) error {
	if _, err := tx.Exec(ctx, "DELETE FROM live_sessions"); err != nil {
		return err
	}
	for _, session := range sessions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO live_sessions (id, title, description, instructor_id, date_time, price, attendee_ids, recording_url, reminder_sent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			session.ID,
			session.Title,
			session.Description,
			session.InstructorID,
			session.DateTime,
			session.Price,
			session.AttendeeIDs,
			session.RecordingURL,
			session.ReminderSent,
		); err != nil {
			return err
		}
	}
	return nil
}

// --- notifications ---

func (p *Postgres) GetNotifications(ctx context.Context) ([]models.Notification, error) {
	return getNotifications(ctx, p.pool)
}

func getNotifications(ctx context.Context, db dbtx) ([]models.Notification, error) {
	rows, err := db.Query(ctx, `
		SELECT id, recipient_id, message, created_at, read, type, link
		FROM notifications
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		var link *string
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Message,
			&notification.CreatedAt,
			&notification.Read,
			&notification.Type,
			&link,
		); err != nil {
			return nil, err
		}
		if link != nil {
			notification.Link = *link
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func (p *Postgres) AppendNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return p.withCollectionLock(ctx, lockNotifications, func(tx pgx.Tx) error {
		for _, notification := range notifications {
			var link *string
			if notification.Link != "" {
				link = &notification.Link
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO notifications (id, recipient_id, message, created_at, read, type, link)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				notification.ID,
				notification.RecipientID,
				notification.Message,
				notification.CreatedAt,
				notification.Read,
				notification.Type,
				link,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) UpdateNotifications(
	ctx context.Context,
	mutate func([]models.Notification) ([]models.Notification, bool, error),
) error {
	return p.withCollectionLock(ctx, lockNotifications, func(tx pgx.Tx) error {
		notifications, err := getNotifications(ctx, tx)
		if err != nil {
			return err
		}
		updated, changed, err := mutate(notifications)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if _, err := tx.Exec(ctx, "DELETE FROM notifications"); err != nil {
			return err
		}
		for _, notification := range updated {
			var link *string
			if notification.Link != "" {
				link = &notification.Link
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO notifications (id, recipient_id, message, created_at, read, type, link)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				notification.ID,
				notification.RecipientID,
				notification.Message,
				notification.CreatedAt,
				notification.Read,
				notification.Type,
				link,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- chat messages ---

func (p *Postgres) GetChatMessages(ctx context.Context) ([]models.ChatMessage, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, sender_id, sender_name, text, created_at
		FROM chat_messages
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.SenderName,
			&message.Text,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func (p *Postgres) AppendChatMessage(ctx context.Context, message models.ChatMessage) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, sender_id, sender_name, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		message.ID,
		message.SenderID,
		message.SenderName,
		message.Text,
		message.CreatedAt,
	)
	return err
}
