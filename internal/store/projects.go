package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

const projectColumns = `id, title, reference_number, form_code_type, status, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (timesheet.Project, error) {
	var p timesheet.Project
	var status, created string
	if err := s.Scan(&p.ID, &p.Title, &p.ReferenceNumber, &p.FormCodeType, &status, &p.Notes, &created); err != nil {
		return p, err
	}
	p.Status = timesheet.ProjectStatus(status)
	p.CreatedAt = parseTime(created)
	return p, nil
}

func (db *DB) GetProjects(ctx context.Context) ([]timesheet.Project, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []timesheet.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (db *DB) GetProject(ctx context.Context, id int64) (*timesheet.Project, error) {
	p, err := scanProject(db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return &p, nil
}

func (db *DB) GetProjectByReference(ctx context.Context, ref string) (*timesheet.Project, error) {
	p, err := scanProject(db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE reference_number = ? COLLATE NOCASE`, ref))
	if err != nil {
		return nil, notFound(err, "project", ref)
	}
	return &p, nil
}

func (db *DB) CreateProject(ctx context.Context, p *timesheet.Project, actor int64) error {
	now := db.now()
	at := formatTime(now)

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if taken, err := referenceTaken(ctx, tx, p.ReferenceNumber, 0); err != nil {
			return err
		} else if taken {
			return duplicate("project", p.ReferenceNumber)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects (title, reference_number, form_code_type, status, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.Title, p.ReferenceNumber, p.FormCodeType, string(p.Status), p.Notes, at,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return duplicate("project", p.ReferenceNumber)
			}
			return fmt.Errorf("inserting project: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading project id: %w", err)
		}

		for _, wo := range workOrdersFor(p, now) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO work_orders (project_id, type, identifier, description, created_at) VALUES (?, ?, ?, ?, ?)`,
				wo.ProjectID, string(wo.Type), wo.Identifier, wo.Description, at,
			); err != nil {
				if isUniqueViolation(err) {
					return duplicate("work order", wo.Identifier)
				}
				return fmt.Errorf("inserting work order: %w", err)
			}
		}

		if err := insertEvent(ctx, tx, p.ID, timesheet.EventCreated, createdEventContent(p.Title), actor, at); err != nil {
			return err
		}
		return insertAudit(ctx, tx, at, timesheet.EntityProject, p.ID, timesheet.AuditCreate, actor, p.ReferenceNumber)
	})
	if err != nil {
		return err
	}
	p.CreatedAt = parseTime(at)
	return nil
}

func (db *DB) UpdateProject(ctx context.Context, p *timesheet.Project, actor int64) error {
	at := db.timestamp()
	return db.inTx(ctx, func(tx *sql.Tx) error {
		current, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, p.ID))
		if err != nil {
			return notFound(err, "project", p.ID)
		}

		if taken, err := referenceTaken(ctx, tx, p.ReferenceNumber, p.ID); err != nil {
			return err
		} else if taken {
			return duplicate("project", p.ReferenceNumber)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET title = ?, reference_number = ?, form_code_type = ?, status = ?, notes = ? WHERE id = ?`,
			p.Title, p.ReferenceNumber, p.FormCodeType, string(p.Status), p.Notes, p.ID,
		); err != nil {
			if isUniqueViolation(err) {
				return duplicate("project", p.ReferenceNumber)
			}
			return fmt.Errorf("updating project: %w", err)
		}

		if current.ReferenceNumber != p.ReferenceNumber {
			if err := renameWorkOrders(ctx, tx, p); err != nil {
				return err
			}
		}

		if current.Status != p.Status {
			content := statusEventContent(current.Status, p.Status)
			if err := insertEvent(ctx, tx, p.ID, timesheet.EventStatusChange, content, actor, at); err != nil {
				return err
			}
		}
		p.CreatedAt = current.CreatedAt
		return insertAudit(ctx, tx, at, timesheet.EntityProject, p.ID, timesheet.AuditUpdate, actor, "")
	})
}

func (db *DB) DeleteProject(ctx context.Context, id, actor int64) error {
	at := db.timestamp()
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var ref string
		if err := tx.QueryRowContext(ctx, `SELECT reference_number FROM projects WHERE id = ?`, id).Scan(&ref); err != nil {
			return notFound(err, "project", id)
		}

		cascade := []string{
			`DELETE FROM timesheet_entries WHERE work_order_id IN (SELECT id FROM work_orders WHERE project_id = ?)`,
			`DELETE FROM work_orders WHERE project_id = ?`,
			`DELETE FROM project_events WHERE project_id = ?`,
			`DELETE FROM projects WHERE id = ?`,
		}
		for _, q := range cascade {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("deleting project %d: %w", id, err)
			}
		}
		return insertAudit(ctx, tx, at, timesheet.EntityProject, id, timesheet.AuditDelete, actor, ref)
	})
}

// renameWorkOrders keeps the work order identifiers in step with the
// project's reference number.
func renameWorkOrders(ctx context.Context, tx *sql.Tx, p *timesheet.Project) error {
	for _, t := range []timesheet.WorkOrderType{timesheet.WorkOrderValidation, timesheet.WorkOrderInternalDesign} {
		identifier := timesheet.WorkOrderIdentifier(t, p.ReferenceNumber)
		if _, err := tx.ExecContext(ctx,
			`UPDATE work_orders SET identifier = ? WHERE project_id = ? AND type = ?`,
			identifier, p.ID, string(t),
		); err != nil {
			if isUniqueViolation(err) {
				return duplicate("work order", identifier)
			}
			return fmt.Errorf("renaming work orders: %w", err)
		}
	}
	return nil
}

func referenceTaken(ctx context.Context, tx *sql.Tx, ref string, exceptID int64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE reference_number = ? COLLATE NOCASE AND id != ?`,
		strings.TrimSpace(ref), exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking reference number: %w", err)
	}
	return n > 0, nil
}

const workOrderColumns = `id, project_id, type, identifier, description, created_at`

func scanWorkOrder(s scanner) (timesheet.WorkOrder, error) {
	var wo timesheet.WorkOrder
	var typ, created string
	if err := s.Scan(&wo.ID, &wo.ProjectID, &typ, &wo.Identifier, &wo.Description, &created); err != nil {
		return wo, err
	}
	wo.Type = timesheet.WorkOrderType(typ)
	wo.CreatedAt = parseTime(created)
	return wo, nil
}

func (db *DB) queryWorkOrders(ctx context.Context, query string, args ...any) ([]timesheet.WorkOrder, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying work orders: %w", err)
	}
	defer rows.Close()

	var wos []timesheet.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning work order: %w", err)
		}
		wos = append(wos, wo)
	}
	return wos, rows.Err()
}

func (db *DB) GetWorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrder, error) {
	return db.queryWorkOrders(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE project_id = ? ORDER BY id ASC`, projectID)
}

func (db *DB) ListWorkOrders(ctx context.Context) ([]timesheet.WorkOrder, error) {
	return db.queryWorkOrders(ctx, `SELECT `+workOrderColumns+` FROM work_orders ORDER BY id ASC`)
}

func (db *DB) GetWorkOrder(ctx context.Context, id int64) (*timesheet.WorkOrder, error) {
	wo, err := scanWorkOrder(db.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "work order", id)
	}
	return &wo, nil
}

func insertEvent(ctx context.Context, ex execer, projectID int64, typ timesheet.EventType, content string, actor int64, at string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO project_events (project_id, type, content, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		projectID, string(typ), content, actor, at,
	)
	if err != nil {
		return fmt.Errorf("inserting project event: %w", err)
	}
	return nil
}

func (db *DB) CreateProjectEvent(ctx context.Context, ev *timesheet.ProjectEvent) error {
	at := db.timestamp()
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, ev.ProjectID).Scan(&exists); err != nil {
			return notFound(err, "project", ev.ProjectID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO project_events (project_id, type, content, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
			ev.ProjectID, string(ev.Type), ev.Content, ev.CreatedBy, at,
		)
		if err != nil {
			return fmt.Errorf("inserting project event: %w", err)
		}
		if ev.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading event id: %w", err)
		}
		ev.CreatedAt = parseTime(at)
		return insertAudit(ctx, tx, at, timesheet.EntityProjectEvent, ev.ID, timesheet.AuditCreate, ev.CreatedBy, string(ev.Type))
	})
}

func (db *DB) GetProjectEvents(ctx context.Context, projectID int64) ([]timesheet.ProjectEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, project_id, type, content, created_by, created_at
		 FROM project_events
		 WHERE project_id = ?
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying project events: %w", err)
	}
	defer rows.Close()

	var events []timesheet.ProjectEvent
	for rows.Next() {
		var ev timesheet.ProjectEvent
		var typ, created string
		if err := rows.Scan(&ev.ID, &ev.ProjectID, &typ, &ev.Content, &ev.CreatedBy, &created); err != nil {
			return nil, fmt.Errorf("scanning project event: %w", err)
		}
		ev.Type = timesheet.EventType(typ)
		ev.CreatedAt = parseTime(created)
		events = append(events, ev)
	}
	return events, rows.Err()
}
