package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

const entryColumns = `id, user_id, work_order_id, date, hours, start_time, end_time, description,
	break_taken, break_duration, is_leave, leave_type, leave_hours, created_at`

func scanEntry(s scanner) (timesheet.Entry, error) {
	var e timesheet.Entry
	var date, leaveType, created string
	if err := s.Scan(
		&e.ID, &e.UserID, &e.WorkOrderID, &date, &e.Hours, &e.StartTime, &e.EndTime, &e.Description,
		&e.BreakTaken, &e.BreakDuration, &e.IsLeave, &leaveType, &e.LeaveHours, &created,
	); err != nil {
		return e, err
	}
	if t, err := timesheet.ParseDateKey(date); err == nil {
		e.Date = t
	}
	e.LeaveType = timesheet.LeaveType(leaveType)
	e.CreatedAt = parseTime(created)
	return e, nil
}

func (db *DB) queryEntries(ctx context.Context, query string, args ...any) ([]timesheet.Entry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (db *DB) GetTimesheetEntries(ctx context.Context, userID int64, start, end time.Time) ([]timesheet.Entry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+`
		 FROM timesheet_entries
		 WHERE user_id = ? AND date >= ? AND date <= ? AND deleted_at IS NULL
		 ORDER BY date ASC, id ASC`,
		userID, timesheet.DateKey(start), timesheet.DateKey(end),
	)
}

func (db *DB) GetTimesheetEntriesByProject(ctx context.Context, projectID int64) ([]timesheet.Entry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+`
		 FROM timesheet_entries
		 WHERE work_order_id IN (SELECT id FROM work_orders WHERE project_id = ?) AND deleted_at IS NULL
		 ORDER BY date ASC, id ASC`,
		projectID,
	)
}

func (db *DB) GetTimesheetEntriesByWorkOrder(ctx context.Context, workOrderID int64) ([]timesheet.Entry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+`
		 FROM timesheet_entries
		 WHERE work_order_id = ? AND deleted_at IS NULL
		 ORDER BY date ASC, id ASC`,
		workOrderID,
	)
}

func (db *DB) GetTimesheetEntry(ctx context.Context, id int64) (*timesheet.Entry, error) {
	e, err := scanEntry(db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM timesheet_entries WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, notFound(err, "timesheet entry", id)
	}
	return &e, nil
}

func (db *DB) CreateTimesheetEntry(ctx context.Context, e *timesheet.Entry) error {
	at := db.timestamp()
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM work_orders WHERE id = ?`, e.WorkOrderID).Scan(&exists); err != nil {
			return notFound(err, "work order", e.WorkOrderID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO timesheet_entries (user_id, work_order_id, date, hours, start_time, end_time, description,
				break_taken, break_duration, is_leave, leave_type, leave_hours, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.UserID, e.WorkOrderID, timesheet.DateKey(e.Date), e.Hours, e.StartTime, e.EndTime, e.Description,
			e.BreakTaken, e.BreakDuration, e.IsLeave, string(e.LeaveType), e.LeaveHours, at,
		)
		if err != nil {
			return fmt.Errorf("inserting entry: %w", err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading entry id: %w", err)
		}
		e.Date = timesheet.NormalizeDate(e.Date)
		e.CreatedAt = parseTime(at)
		return nil
	})
}

func (db *DB) UpdateTimesheetEntry(ctx context.Context, e *timesheet.Entry) error {
	res, err := db.ExecContext(ctx,
		`UPDATE timesheet_entries
		 SET work_order_id = ?, date = ?, hours = ?, start_time = ?, end_time = ?, description = ?,
			break_taken = ?, break_duration = ?, is_leave = ?, leave_type = ?, leave_hours = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		e.WorkOrderID, timesheet.DateKey(e.Date), e.Hours, e.StartTime, e.EndTime, e.Description,
		e.BreakTaken, e.BreakDuration, e.IsLeave, string(e.LeaveType), e.LeaveHours, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entry %d: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating entry %d: %w", e.ID, err)
	} else if n == 0 {
		return missing("timesheet entry", e.ID)
	}
	e.Date = timesheet.NormalizeDate(e.Date)
	return nil
}

func (db *DB) DeleteTimesheetEntry(ctx context.Context, id, actor int64) error {
	at := db.timestamp()
	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE timesheet_entries SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at IS NULL`,
			at, actor, id,
		)
		if err != nil {
			return fmt.Errorf("deleting entry %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("deleting entry %d: %w", id, err)
		} else if n == 0 {
			return missing("timesheet entry", id)
		}
		return insertAudit(ctx, tx, at, timesheet.EntityTimesheet, id, timesheet.AuditDelete, actor, "")
	})
}

func (db *DB) RestoreTimesheetEntry(ctx context.Context, id, actor int64) (*timesheet.Entry, error) {
	at := db.timestamp()
	var restored timesheet.Entry
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE timesheet_entries SET deleted_at = NULL, deleted_by = NULL WHERE id = ? AND deleted_at IS NOT NULL`,
			id,
		)
		if err != nil {
			return fmt.Errorf("restoring entry %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("restoring entry %d: %w", id, err)
		} else if n == 0 {
			return missing("deleted timesheet entry", id)
		}

		restored, err = scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM timesheet_entries WHERE id = ?`, id))
		if err != nil {
			return notFound(err, "timesheet entry", id)
		}
		return insertAudit(ctx, tx, at, timesheet.EntityTimesheet, id, timesheet.AuditRestore, actor, "")
	})
	if err != nil {
		return nil, err
	}
	return &restored, nil
}

func (db *DB) GetDeletedTimesheetEntries(ctx context.Context, userID int64) ([]timesheet.Entry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+`
		 FROM timesheet_entries
		 WHERE user_id = ? AND deleted_at IS NOT NULL
		 ORDER BY deleted_at DESC, id DESC`,
		userID,
	)
}

func (db *DB) GetAuditLogs(ctx context.Context, filter timesheet.AuditFilter) ([]timesheet.AuditLog, error) {
	query := `SELECT id, entity_type, entity_id, action, action_by, details, created_at FROM audit_logs WHERE 1 = 1`
	var args []any
	if filter.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, filter.EntityType)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if !filter.Start.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(filter.Start))
	}
	if !filter.End.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, formatTime(filter.End))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}
	defer rows.Close()

	var logs []timesheet.AuditLog
	for rows.Next() {
		var l timesheet.AuditLog
		var created string
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Action, &l.ActionBy, &l.Details, &created); err != nil {
			return nil, fmt.Errorf("scanning audit log: %w", err)
		}
		l.CreatedAt = parseTime(created)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
