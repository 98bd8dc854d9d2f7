package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/store"
)

const (
	taskEntity  = "task"
	taskColumns = "id, title, description, status"
)

// TaskDAO implements store.TaskStore on top of an Engine.
type TaskDAO struct {
	engine *Engine
	table  string
	logger *slog.Logger
}

// Ensure TaskDAO implements store.TaskStore interface
var _ store.TaskStore = (*TaskDAO)(nil)

// NewTaskDAO creates a TaskDAO reading and writing the task table in schema.
// An empty schema leaves the table name unqualified.
func NewTaskDAO(engine *Engine, schema string, logger *slog.Logger) *TaskDAO {
	if engine == nil {
		panic("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ident := pgx.Identifier{"task"}
	if schema != "" {
		ident = pgx.Identifier{schema, "task"}
	}

	return &TaskDAO{
		engine: engine,
		table:  ident.Sanitize(),
		logger: logger.With(slog.String("component", "task_dao")),
	}
}

// taskRow is a task as read from the database, before validation.
type taskRow struct {
	ID          sql.NullInt64
	Title       sql.NullString
	Description sql.NullString
	Status      sql.NullString
}

func (r *taskRow) dest() []any {
	return []any{&r.ID, &r.Title, &r.Description, &r.Status}
}

func (r taskRow) toTask() (*domain.Task, error) {
	if !r.ID.Valid {
		return nil, errors.New("id is null")
	}
	if !r.Title.Valid {
		return nil, fmt.Errorf("title of task %d is null", r.ID.Int64)
	}
	status, err := domain.ParseTaskStatus(r.Status.String)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", r.ID.Int64, err)
	}

	task := &domain.Task{
		ID:     r.ID.Int64,
		Title:  r.Title.String,
		Status: status,
	}
	if r.Description.Valid {
		desc := r.Description.String
		task.Description = &desc
	}
	return task, nil
}

// Get implements store.TaskStore.Get.
func (d *TaskDAO) Get(ctx context.Context, id int64) (*domain.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", taskColumns, d.table)

	var (
		row   taskRow
		found bool
	)
	err := d.engine.WithConnection(ctx, func(ctx context.Context, conn *Conn) error {
		var err error
		found, err = scanOptional(conn.QueryRowContext(ctx, query, id), &row)
		return err
	})
	if err != nil {
		return nil, d.operationError(ctx, "get", err, slog.Int64("task_id", id))
	}
	if !found {
		return nil, nil
	}
	return d.mapRow(ctx, "get", row)
}

// List implements store.TaskStore.List.
func (d *TaskDAO) List(ctx context.Context, filter domain.ListTasksRequest) ([]domain.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", taskColumns, d.table)
	var args []any
	if filter.Status != nil {
		query += " WHERE status = $1"
		args = append(args, string(*filter.Status))
	}
	query += " ORDER BY id"

	var rows []taskRow
	err := d.engine.WithConnection(ctx, func(ctx context.Context, conn *Conn) error {
		rs, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rs.Close() }()

		for rs.Next() {
			var row taskRow
			if err := rs.Scan(row.dest()...); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, d.operationError(ctx, "list", err)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := d.mapRow(ctx, "list", row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

// Create implements store.TaskStore.Create.
func (d *TaskDAO) Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error) {
	req = req.WithDefaults()
	query := fmt.Sprintf(
		"INSERT INTO %s (title, description, status) VALUES ($1, $2, $3) RETURNING %s",
		d.table, taskColumns,
	)

	var description any
	if req.Description != nil {
		description = *req.Description
	}

	var row taskRow
	err := d.engine.WithConnection(ctx, func(ctx context.Context, conn *Conn) error {
		if err := conn.QueryRowContext(ctx, query, req.Title, description, string(req.Status)).
			Scan(row.dest()...); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		return nil, d.operationError(ctx, "create", err)
	}
	return d.mapRow(ctx, "create", row)
}

// Update implements store.TaskStore.Update.
// Only non-nil fields of req are written. An empty request writes nothing and
// returns the current row.
func (d *TaskDAO) Update(ctx context.Context, id int64, req domain.UpdateTaskRequest) (*domain.Task, error) {
	if req.IsEmpty() {
		task, err := d.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if task == nil {
			return nil, d.notFound(ctx, "update", id)
		}
		return task, nil
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Status != nil {
		set("status", string(*req.Status))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		d.table, strings.Join(sets, ", "), len(args), taskColumns)

	var (
		row   taskRow
		found bool
	)
	err := d.engine.WithConnection(ctx, func(ctx context.Context, conn *Conn) error {
		var err error
		found, err = scanOptional(conn.QueryRowContext(ctx, query, args...), &row)
		if err != nil || !found {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		return nil, d.operationError(ctx, "update", err, slog.Int64("task_id", id))
	}
	if !found {
		return nil, d.notFound(ctx, "update", id)
	}
	return d.mapRow(ctx, "update", row)
}

// Delete implements store.TaskStore.Delete.
func (d *TaskDAO) Delete(ctx context.Context, id int64) (*domain.DeletedTask, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING %s", d.table, taskColumns)

	var (
		row   taskRow
		found bool
	)
	err := d.engine.WithConnection(ctx, func(ctx context.Context, conn *Conn) error {
		var err error
		found, err = scanOptional(conn.QueryRowContext(ctx, query, id), &row)
		if err != nil || !found {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		return nil, d.operationError(ctx, "delete", err, slog.Int64("task_id", id))
	}
	if !found {
		return nil, d.notFound(ctx, "delete", id)
	}

	task, err := d.mapRow(ctx, "delete", row)
	if err != nil {
		return nil, err
	}
	return &domain.DeletedTask{ID: task.ID}, nil
}

// scanOptional scans a single row, reporting false instead of an error when
// the query matched nothing.
func scanOptional(r *Row, row *taskRow) (bool, error) {
	err := r.Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *TaskDAO) mapRow(ctx context.Context, op string, row taskRow) (*domain.Task, error) {
	task, err := row.toTask()
	if err != nil {
		logger.FromContextOrDefault(ctx, d.logger).Warn("failed to map task row",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(taskEntity, op, store.ErrRowMapping, err)
	}
	return task, nil
}

func (d *TaskDAO) notFound(ctx context.Context, op string, id int64) error {
	logger.FromContextOrDefault(ctx, d.logger).Warn("task not found",
		slog.String("operation", op),
		slog.Int64("task_id", id))
	return store.NewStoreError(taskEntity, op, store.ErrTaskNotFound, nil)
}

func (d *TaskDAO) operationError(ctx context.Context, op string, err error, attrs ...any) error {
	attrs = append(attrs,
		slog.String("operation", op),
		slog.String("error", redact.Error(err)))
	if code := SQLState(err); code != "" {
		attrs = append(attrs, slog.String("sqlstate", code))
	}
	logger.FromContextOrDefault(ctx, d.logger).Error("task query failed", attrs...)
	return store.NewStoreError(taskEntity, op, store.ErrDBOperation, err)
}
