package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/leadflow/internal/domain"
)

// WorkflowRepo — репозиторий для работы с workflows.
//
// Имя workflow — естественный первичный ключ: run и schedule
// ссылаются на workflow по имени.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	specJSON, err := json.Marshal(wf.Spec)
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}

	query := `
		INSERT INTO workflows (name, spec, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.pool.Exec(ctx, query,
		wf.Name,
		specJSON,
		wf.CreatedAt,
		wf.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: workflow %q", ErrAlreadyExists, wf.Name)
	}
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByName возвращает workflow по имени.
func (r *WorkflowRepo) GetByName(ctx context.Context, name string) (*domain.Workflow, error) {
	query := `
		SELECT name, spec, created_at, updated_at
		FROM workflows
		WHERE name = $1
	`
	var wf domain.Workflow
	var specJSON []byte
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&wf.Name,
		&specJSON,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow by name: %w", err)
	}

	if err := json.Unmarshal(specJSON, &wf.Spec); err != nil {
		return nil, fmt.Errorf("unmarshal spec: %w", err)
	}
	return &wf, nil
}

// List возвращает список всех workflows.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT name, spec, created_at, updated_at
		FROM workflows
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		var specJSON []byte
		if err := rows.Scan(
			&wf.Name,
			&specJSON,
			&wf.CreatedAt,
			&wf.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		if err := json.Unmarshal(specJSON, &wf.Spec); err != nil {
			return nil, fmt.Errorf("unmarshal spec: %w", err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// Update обновляет спецификацию workflow.
func (r *WorkflowRepo) Update(ctx context.Context, wf *domain.Workflow) error {
	specJSON, err := json.Marshal(wf.Spec)
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}

	query := `
		UPDATE workflows
		SET spec = $2, updated_at = NOW()
		WHERE name = $1
	`
	result, err := r.pool.Exec(ctx, query, wf.Name, specJSON)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет workflow (каскадно удалит runs и schedules).
func (r *WorkflowRepo) Delete(ctx context.Context, name string) error {
	query := `DELETE FROM workflows WHERE name = $1`
	result, err := r.pool.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением
// уникальности (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
