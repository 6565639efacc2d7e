package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// ErrMetadataNotFound is returned when no compiled metadata exists for a class.
var ErrMetadataNotFound = errors.New("compiled metadata not found")

const classMetadataColumns = `id, manager, class, namespace, table_name, fields, options, source, compiled_at`

// MetadataRepository stores compiled class metadata for one manager.
// It is also a read-only MappingDriver over what has been compiled.
type MetadataRepository struct {
	db      *sql.DB
	manager string
	now     func() time.Time
}

var _ persistence.MappingDriver = (*MetadataRepository)(nil)

func newMetadataRepository(db *sql.DB, manager string) *MetadataRepository {
	return &MetadataRepository{db: db, manager: manager, now: time.Now}
}

func scanClassMetadata(scanner interface{ Scan(...any) error }) (*ClassMetadataModel, error) {
	var model ClassMetadataModel
	err := scanner.Scan(
		&model.ID, &model.Manager, &model.Class, &model.Namespace, &model.TableName,
		&model.Fields, &model.Options, &model.Source, &model.CompiledAt,
	)
	return &model, err
}

// Save inserts or replaces the compiled metadata of md.Class.
func (r *MetadataRepository) Save(ctx context.Context, md *persistence.ClassMetadata) error {
	model, err := toClassMetadataModel(r.manager, md, r.now())
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO class_metadata (manager, class, namespace, table_name, fields, options, source, compiled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (manager, class) DO UPDATE SET
			namespace = excluded.namespace,
			table_name = excluded.table_name,
			fields = excluded.fields,
			options = excluded.options,
			source = excluded.source,
			compiled_at = excluded.compiled_at`,
		model.Manager, model.Class, model.Namespace, model.TableName,
		model.Fields, model.Options, model.Source, model.CompiledAt,
	)
	if err != nil {
		return fmt.Errorf("save metadata %s: %w", md.Class, err)
	}
	return nil
}

// SaveAll replaces every compiled row of the manager with mds in one transaction.
func (r *MetadataRepository) SaveAll(ctx context.Context, mds []*persistence.ClassMetadata) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin compile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_metadata WHERE manager = ?`, r.manager); err != nil {
		return fmt.Errorf("clear compiled metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO class_metadata (manager, class, namespace, table_name, fields, options, source, compiled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare compile: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := r.now()
	for _, md := range mds {
		model, err := toClassMetadataModel(r.manager, md, now)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			model.Manager, model.Class, model.Namespace, model.TableName,
			model.Fields, model.Options, model.Source, model.CompiledAt,
		); err != nil {
			return fmt.Errorf("insert metadata %s: %w", md.Class, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit compile: %w", err)
	}
	return nil
}

// Find returns the compiled metadata of className.
func (r *MetadataRepository) Find(ctx context.Context, className string) (*persistence.ClassMetadata, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+classMetadataColumns+` FROM class_metadata WHERE manager = ? AND class = ?`,
		r.manager, className)
	model, err := scanClassMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, className)
	}
	if err != nil {
		return nil, fmt.Errorf("find metadata %s: %w", className, err)
	}
	return model.toClassMetadata()
}

// ListByNamespace returns compiled classes in namespace, ordered by class.
// An empty namespace lists everything.
func (r *MetadataRepository) ListByNamespace(ctx context.Context, namespace string) ([]*persistence.ClassMetadata, error) {
	query := `SELECT ` + classMetadataColumns + ` FROM class_metadata WHERE manager = ?`
	args := []any{r.manager}
	if namespace != "" {
		query += ` AND (namespace = ? OR namespace LIKE ? ESCAPE '!')`
		args = append(args, namespace, escapeLike(namespace+persistence.NamespaceSeparator)+"%")
	}
	query += ` ORDER BY class`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*persistence.ClassMetadata
	for rows.Next() {
		model, err := scanClassMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		md, err := model.toClassMetadata()
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	return out, rows.Err()
}

// Count returns the number of compiled classes.
func (r *MetadataRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM class_metadata WHERE manager = ?`, r.manager).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count metadata: %w", err)
	}
	return n, nil
}

// Describe implements persistence.MappingDriver.
func (r *MetadataRepository) Describe(ctx context.Context, className string) (*persistence.ClassMetadata, error) {
	return r.Find(ctx, className)
}

// ClassNames implements persistence.MappingDriver.
func (r *MetadataRepository) ClassNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT class FROM class_metadata WHERE manager = ? ORDER BY class`, r.manager)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var class string
		if err := rows.Scan(&class); err != nil {
			return nil, err
		}
		out = append(out, class)
	}
	return out, rows.Err()
}

// IsTransient implements persistence.MappingDriver.
func (r *MetadataRepository) IsTransient(ctx context.Context, className string) bool {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM class_metadata WHERE manager = ? AND class = ?`, r.manager, className).Scan(&one)
	return err != nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '!' {
			out = append(out, '!')
		}
		out = append(out, c)
	}
	return string(out)
}
