package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/victorlunam/spcheck/internal/config"
	"github.com/victorlunam/spcheck/internal/normalizer"
)

const (
	appName        = "spcheck"
	connectTimeout = 30 * time.Second

	// errObjectDoesNotExist is raised by sp_helptext for unknown names.
	errObjectDoesNotExist = 15009
)

var (
	// ErrObjectNotFound means the object does not exist on the server. It is
	// an expected outcome for definitions that were never deployed.
	ErrObjectNotFound = errors.New("object not found")
	// ErrIntrospection wraps every other failure while reading a definition.
	ErrIntrospection = errors.New("error reading object definition")
)

type Database struct {
	Config config.ServerConfig
	DB     *sql.DB
}

// ConnectionString builds a sqlserver:// URL. ServerName may carry a port as
// "host,port" or "host:port" and a named instance as "host\instance".
func ConnectionString(cfg config.ServerConfig) string {
	host := cfg.ServerName
	port := cfg.Port
	instance := ""

	if i := strings.Index(host, `\`); i >= 0 {
		host, instance = host[:i], host[i+1:]
	}
	if i := strings.LastIndexAny(host, ",:"); i >= 0 {
		host, port = host[:i], host[i+1:]
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}

	query := url.Values{}
	query.Add("database", cfg.Database)
	query.Add("app name", appName)
	query.Add("TrustServerCertificate", "true")

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     host,
		Path:     instance,
		RawQuery: query.Encode(),
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	return u.String()
}

func Connect(ctx context.Context, cfg config.ServerConfig) (*Database, error) {
	db, err := sql.Open("sqlserver", ConnectionString(cfg))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to %s/%s: %w", cfg.ServerName, cfg.Database, err)
	}

	// one file at a time; a single connection is all we ever use
	db.SetMaxOpenConns(1)

	return New(db, cfg), nil
}

// New wraps an already opened handle.
func New(db *sql.DB, cfg config.ServerConfig) *Database {
	return &Database{
		Config: cfg,
		DB:     db,
	}
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// ReadProcedure returns the stored definition of name, one element per line
// as reported by sp_helptext, without line terminators.
func (d *Database) ReadProcedure(ctx context.Context, name string) ([]string, error) {
	var id sql.NullInt64
	err := d.DB.QueryRowContext(ctx, "SELECT OBJECT_ID(@name)", sql.Named("name", name)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrIntrospection, name, err)
	}
	if !id.Valid {
		return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}

	rows, err := d.DB.QueryContext(ctx, "EXEC sp_helptext @objname", sql.Named("objname", name))
	if err != nil {
		return nil, classify(name, err)
	}
	defer rows.Close()

	lines := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrIntrospection, name, err)
		}
		lines = append(lines, text)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(name, err)
	}

	return normalizer.StripTerminators(lines), nil
}

// ModifyDate returns the last modification time of name. Schema-qualified
// names are matched on their last segment.
func (d *Database) ModifyDate(ctx context.Context, name string) (time.Time, error) {
	parts := strings.Split(name, ".")
	basename := strings.Trim(parts[len(parts)-1], "[]")

	var modified time.Time
	err := d.DB.QueryRowContext(ctx, "SELECT modify_date FROM sys.objects WHERE name = @name", sql.Named("name", basename)).Scan(&modified)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %s: %w", ErrIntrospection, name, err)
	}

	return modified, nil
}

// Execute runs statement as a single batch and commits it.
func (d *Database) Execute(ctx context.Context, statement string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, statement); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func classify(name string, err error) error {
	var msErr mssql.Error
	if errors.As(err, &msErr) && msErr.Number == errObjectDoesNotExist {
		return fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}
	return fmt.Errorf("%w %s: %w", ErrIntrospection, name, err)
}
