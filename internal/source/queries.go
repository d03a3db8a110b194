package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Tickets fetches the migratable ticket snapshots ordered by ticket id.
// first/last bound the id range; zero means unbounded on that side.
func (d *DB) Tickets(ctx context.Context, first, last int64) ([]Ticket, error) {
	query := `
	SELECT t.ticket_id, t.number, t.status_id, t.dept_id, t.topic_id,
	       t.staff_id, t.sla_id, t.duedate, t.closed, t.lastupdate, t.created,
	       tc.subject, tc.priority,
	       (SELECT te.body
	        FROM ost_thread_entry te
	        INNER JOIN ost_thread th2 ON th2.id = te.thread_id
	        WHERE th2.object_id = t.ticket_id AND th2.object_type = 'T'
	        ORDER BY te.created, te.id LIMIT 1) AS ticket_body,
	       u.name AS requester_name, ue.address AS requester_email
	FROM ost_ticket t
	LEFT JOIN ost_ticket__cdata tc ON t.ticket_id = tc.ticket_id
	LEFT JOIN ost_user u ON t.user_id = u.id
	LEFT JOIN ost_user_email ue ON t.user_id = ue.user_id
	JOIN ost_thread th ON t.ticket_id = th.object_id AND th.object_type = 'T'`

	var (
		conds []string
		args  []any
	)
	if first > 0 {
		conds = append(conds, "t.ticket_id >= ?")
		args = append(args, first)
	}
	if last > 0 {
		conds = append(conds, "t.ticket_id <= ?")
		args = append(args, last)
	}
	if len(conds) > 0 {
		query += "\n\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\tORDER BY t.ticket_id"

	rows, err := d.rel.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var (
			t              Ticket
			number         sql.NullString
			subject        sql.NullString
			priority       sql.NullInt64
			body           sql.NullString
			requesterName  sql.NullString
			requesterEmail sql.NullString
			dueDate        sql.NullTime
			closed         sql.NullTime
		)
		if err := rows.Scan(
			&t.ID, &number, &t.StatusID, &t.DepartmentID, &t.TopicID,
			&t.StaffID, &t.SLAID, &dueDate, &closed, &t.LastUpdate, &t.Created,
			&subject, &priority, &body, &requesterName, &requesterEmail,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.Number = number.String
		t.Subject = subject.String
		t.Priority = priority.Int64
		t.Body = body.String
		t.RequesterName = requesterName.String
		t.RequesterEmail = strings.TrimSpace(requesterEmail.String)
		t.DueDate = nullableTime(dueDate)
		t.Closed = nullableTime(closed)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

// ThreadEntries fetches a ticket's conversation in ascending creation order.
// The id tiebreak keeps replay deterministic for entries sharing a timestamp.
func (d *DB) ThreadEntries(ctx context.Context, ticketID int64) ([]ThreadEntry, error) {
	rows, err := d.rel.QueryContext(ctx, `
	SELECT te.id, te.staff_id, te.user_id, te.type, te.poster, te.body, te.created,
	       s.firstname AS staff_firstname, s.lastname AS staff_lastname,
	       u.name AS user_name, ue.address AS user_email
	FROM ost_thread_entry te
	JOIN ost_thread th ON te.thread_id = th.id
	LEFT JOIN ost_staff s ON te.staff_id = s.staff_id
	LEFT JOIN ost_user u ON te.user_id = u.id
	LEFT JOIN ost_user_email ue ON u.id = ue.user_id
	WHERE th.object_id = ? AND th.object_type = 'T'
	ORDER BY te.created ASC, te.id ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query thread entries for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var entries []ThreadEntry
	for rows.Next() {
		var (
			e         ThreadEntry
			entryType sql.NullString
			poster    sql.NullString
			body      sql.NullString
			firstname sql.NullString
			lastname  sql.NullString
			userName  sql.NullString
			userEmail sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.StaffID, &e.UserID, &entryType, &poster, &body, &e.Created,
			&firstname, &lastname, &userName, &userEmail,
		); err != nil {
			return nil, fmt.Errorf("scan thread entry: %w", err)
		}
		e.Type = entryType.String
		e.Poster = poster.String
		e.Body = body.String
		e.StaffName = strings.TrimSpace(firstname.String + " " + lastname.String)
		e.UserName = userName.String
		e.UserEmail = strings.TrimSpace(userEmail.String)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread entries: %w", err)
	}
	return entries, nil
}

// Collaborators fetches a ticket's watchers with resolved email and name.
func (d *DB) Collaborators(ctx context.Context, ticketID int64) ([]Collaborator, error) {
	rows, err := d.rel.QueryContext(ctx, `
	SELECT ue.address AS email, u.name, tc.role
	FROM ost_thread_collaborator tc
	JOIN ost_thread th ON tc.thread_id = th.id
	JOIN ost_user u ON tc.user_id = u.id
	JOIN ost_user_email ue ON u.id = ue.user_id
	WHERE th.object_id = ? AND th.object_type = 'T'`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query collaborators for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var collaborators []Collaborator
	for rows.Next() {
		var (
			c     Collaborator
			email sql.NullString
			name  sql.NullString
			role  sql.NullString
		)
		if err := rows.Scan(&email, &name, &role); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		c.Email = strings.TrimSpace(email.String)
		c.Name = name.String
		c.Role = role.String
		collaborators = append(collaborators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collaborators: %w", err)
	}
	return collaborators, nil
}

// Attachments fetches the human-visible attachments of one thread entry.
// System-generated attachments (inline signatures and the like) carry a
// different type code and are excluded.
func (d *DB) Attachments(ctx context.Context, entryID int64) ([]Attachment, error) {
	rows, err := d.rel.QueryContext(ctx, `
	SELECT a.id, a.object_id, a.file_id, a.name AS attachment_name,
	       f.name AS file_name, f.size, te.created
	FROM ost_thread_entry te
	JOIN ost_attachment a ON a.object_id = te.id
	JOIN ost_file f ON a.file_id = f.id
	WHERE te.id = ? AND a.type = 'H'
	ORDER BY a.id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query attachments for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var (
			a        Attachment
			name     sql.NullString
			fileName sql.NullString
			size     sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.EntryID, &a.FileID, &name, &fileName, &size, &a.Created); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.Name = name.String
		a.FileName = fileName.String
		a.Size = size.Int64
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

// FileBacking looks up the storage descriptor for a file id.
func (d *DB) FileBacking(ctx context.Context, fileID int64) (FileBacking, error) {
	var (
		backing FileBacking
		backend sql.NullString
		key     sql.NullString
	)
	row := d.rel.QueryRowContext(ctx,
		"SELECT bk, `key` FROM ost_file WHERE id = ?", fileID)
	if err := row.Scan(&backend, &key); err != nil {
		return FileBacking{}, fmt.Errorf("query file backing %d: %w", fileID, err)
	}
	backing.Backend = backend.String
	backing.Key = key.String
	return backing, nil
}

// FileChunks reads the chunk rows for a database-stored file in sequence
// order. The payloads concatenated in this order form the file's bytes.
func (d *DB) FileChunks(ctx context.Context, fileID int64) ([][]byte, error) {
	rows, err := d.rel.QueryContext(ctx, `
	SELECT filedata
	FROM ost_file_chunk
	WHERE file_id = ?
	ORDER BY chunk_id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("query file chunks %d: %w", fileID, err)
	}
	defer rows.Close()

	var chunks [][]byte
	for rows.Next() {
		var chunk []byte
		if err := rows.Scan(&chunk); err != nil {
			return nil, fmt.Errorf("scan file chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file chunks: %w", err)
	}
	return chunks, nil
}

func nullableTime(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}
