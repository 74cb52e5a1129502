package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/victorlunam/spcheck/internal/comparator"
	"github.com/victorlunam/spcheck/internal/config"
	"github.com/victorlunam/spcheck/internal/database"
	"github.com/victorlunam/spcheck/internal/models"
	"github.com/victorlunam/spcheck/internal/normalizer"
	"github.com/victorlunam/spcheck/internal/reconciler"
	"go.uber.org/zap"
)

const definitionExt = ".sql"

// Session is an open connection to one server.
type Session interface {
	ReadProcedure(ctx context.Context, name string) ([]string, error)
	ModifyDate(ctx context.Context, name string) (time.Time, error)
	reconciler.Executor
	Close() error
}

// Connector opens a Session for a server.
type Connector func(ctx context.Context, server config.ServerConfig) (Session, error)

// ConnectDatabase is the Connector used outside of tests.
func ConnectDatabase(ctx context.Context, server config.ServerConfig) (Session, error) {
	db, err := database.Connect(ctx, server)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Reporter receives progress as the run goes.
type Reporter interface {
	ServerStarted(server config.ServerConfig)
	ServerFailed(server config.ServerConfig, err error)
	FileChecked(result models.FileResult)
	ServerAborted(result models.ServerResult)
	Summary(summary models.RunSummary)
}

type Options struct {
	Mode reconciler.Mode
	// Include restricts the run to these server ids. Empty means all.
	Include []string
}

type Runner struct {
	cfg      *config.Config
	opts     Options
	fs       afero.Fs
	connect  Connector
	reporter Reporter
	logger   *zap.Logger
}

func New(cfg *config.Config, opts Options, fs afero.Fs, connect Connector, reporter Reporter, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		opts:     opts,
		fs:       fs,
		connect:  connect,
		reporter: reporter,
		logger:   logger,
	}
}

// Run checks every selected server in configuration order, one at a time.
func (r *Runner) Run(ctx context.Context) models.RunSummary {
	summary := models.RunSummary{}

	for _, server := range r.Servers() {
		if ctx.Err() != nil {
			break
		}
		summary.Servers = append(summary.Servers, r.runServer(ctx, server))
	}

	if err := ctx.Err(); err != nil {
		r.logger.Warn("Run interrupted", zap.Error(err))
		summary.Interrupted = true
	}

	r.reporter.Summary(summary)
	return summary
}

// Servers returns the enabled servers matching the include list.
func (r *Runner) Servers() []config.ServerConfig {
	include := make(map[string]bool)
	for _, id := range r.opts.Include {
		if id = strings.TrimSpace(id); id != "" {
			include[id] = true
		}
	}

	var servers []config.ServerConfig
	for _, s := range r.cfg.Servers {
		if s.Disabled {
			continue
		}
		if len(include) > 0 && !include[s.ID] {
			continue
		}
		servers = append(servers, s)
	}
	return servers
}

func (r *Runner) runServer(ctx context.Context, server config.ServerConfig) models.ServerResult {
	result := models.ServerResult{ServerID: server.ID, Description: server.Description}
	log := r.logger.With(zap.String("server", server.ID))

	r.reporter.ServerStarted(server)

	log.Debug("Connecting", zap.String("host", server.ServerName), zap.String("database", server.Database))
	session, err := r.connect(ctx, server)
	if err != nil {
		log.Error("Connection failed", zap.Error(err))
		result.Err = err
		r.reporter.ServerFailed(server, err)
		return result
	}
	defer session.Close()

	files, err := r.definitionFiles()
	if err != nil {
		log.Error("Cannot list definition files", zap.String("path", r.cfg.BasePath), zap.Error(err))
		result.Err = err
		r.reporter.ServerFailed(server, err)
		return result
	}

	for _, name := range files {
		if ctx.Err() != nil {
			break
		}

		fr := r.checkFile(ctx, session, server, name, log)
		result.Files = append(result.Files, fr)
		r.reporter.FileChecked(fr)

		if fr.Outcome.IsFailure() {
			result.Failures++
		}
		if r.cfg.MaxFailedFiles > 0 && result.Failures >= r.cfg.MaxFailedFiles {
			result.Aborted = true
			log.Warn("Failure limit reached", zap.Int("failures", result.Failures))
			r.reporter.ServerAborted(result)
			break
		}
	}

	return result
}

// definitionFiles returns the *.sql file names under BasePath, sorted.
func (r *Runner) definitionFiles() ([]string, error) {
	entries, err := afero.ReadDir(r.fs, r.cfg.BasePath)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match("*"+definitionExt, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *Runner) checkFile(ctx context.Context, session Session, server config.ServerConfig, fileName string, log *zap.Logger) models.FileResult {
	objectName := ObjectName(fileName)
	result := models.FileResult{FileName: fileName, ObjectName: objectName}
	log = log.With(zap.String("object", objectName))

	raw, err := afero.ReadFile(r.fs, filepath.Join(r.cfg.BasePath, fileName))
	if err != nil {
		log.Error("Cannot read definition file", zap.Error(err))
		result.Outcome = models.OutcomeError
		result.Err = err
		return result
	}
	local := normalizer.Normalize(string(raw), server.Vars)

	remote, err := session.ReadProcedure(ctx, objectName)
	missing := errors.Is(err, database.ErrObjectNotFound)
	if err != nil && !missing {
		log.Error("Cannot read server definition", zap.Error(err))
		result.Outcome = models.OutcomeError
		result.Err = err
		return result
	}

	if !missing {
		result.Mismatches = comparator.Compare(local, remote, r.cfg.MaxErrorsInFile)
	}

	action := reconciler.Decide(missing, result.Mismatches, r.opts.Mode)
	log.Debug("Compared", zap.Bool("missing", missing), zap.Int("mismatches", len(result.Mismatches)), zap.Stringer("action", action))

	if action == reconciler.ActionReportFailed {
		r.logModifyDate(ctx, session, objectName, log)
	}

	outcome, err := reconciler.New(session, log).Apply(ctx, action, objectName, local)
	result.Outcome = outcome
	if err != nil {
		log.Error("Reconciliation failed", zap.Error(err))
		result.Err = err
	} else if outcome == models.OutcomeCreated || outcome == models.OutcomeUpdated {
		log.Info("Definition written", zap.String("outcome", string(outcome)))
	}

	return result
}

func (r *Runner) logModifyDate(ctx context.Context, session Session, objectName string, log *zap.Logger) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}
	modified, err := session.ModifyDate(ctx, objectName)
	if err != nil {
		log.Debug("Modify date unavailable", zap.Error(err))
		return
	}
	log.Debug("Server definition differs", zap.Time("modify_date", modified))
}

// ObjectName derives the object name from a definition file name:
// "procs/dbo.Foo.sql" becomes "dbo.Foo".
func ObjectName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ErrRunFailed is returned by Check when any file or server failed, or when
// the run was interrupted.
var ErrRunFailed = errors.New("reconciliation finished with failures")

// Check returns ErrRunFailed when the summary has failures.
func Check(summary models.RunSummary) error {
	if !summary.HasFailures() {
		return nil
	}
	if summary.Interrupted {
		return fmt.Errorf("%w: interrupted", ErrRunFailed)
	}
	failures := 0
	for _, s := range summary.Servers {
		failures += s.Failures
		if s.Err != nil {
			failures++
		}
	}
	return fmt.Errorf("%w: %d", ErrRunFailed, failures)
}
