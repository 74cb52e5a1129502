package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/victorlunam/spcheck/internal/models"
	"go.uber.org/zap"
)

type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionReportMissing
	ActionReportFailed
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionReportMissing:
		return "report-missing"
	case ActionReportFailed:
		return "report-failed"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

const (
	KeywordCreate = "create"
	KeywordAlter  = "alter"

	statementSeparator = "\r\n"
)

var ErrNoDefinitionKeyword = errors.New("statement does not start with CREATE or ALTER")

// Mode selects which repairs are allowed.
type Mode struct {
	Create bool
	Update bool
}

// Decide maps a comparison verdict onto an action. remoteMissing means the
// object does not exist on the server; mismatches is ignored in that case.
func Decide(remoteMissing bool, mismatches []models.Mismatch, mode Mode) Action {
	switch {
	case remoteMissing && mode.Create:
		return ActionCreate
	case remoteMissing:
		return ActionReportMissing
	case len(mismatches) == 0:
		return ActionNone
	case mode.Update:
		return ActionUpdate
	default:
		return ActionReportFailed
	}
}

// Executor runs a single statement and commits it.
type Executor interface {
	Execute(ctx context.Context, statement string) error
}

type Reconciler struct {
	exec   Executor
	logger *zap.Logger
}

func New(exec Executor, logger *zap.Logger) *Reconciler {
	return &Reconciler{exec: exec, logger: logger}
}

// Apply performs action for the local definition lines and returns the
// resulting outcome. Only create and update touch the database.
func (r *Reconciler) Apply(ctx context.Context, action Action, objectName string, lines []string) (models.Outcome, error) {
	switch action {
	case ActionNone:
		return models.OutcomeOK, nil
	case ActionReportMissing:
		return models.OutcomeMissing, nil
	case ActionReportFailed:
		return models.OutcomeFailed, nil
	case ActionCreate:
		if err := r.write(ctx, objectName, lines, KeywordAlter, KeywordCreate); err != nil {
			return models.OutcomeError, err
		}
		return models.OutcomeCreated, nil
	case ActionUpdate:
		if err := r.write(ctx, objectName, lines, KeywordCreate, KeywordAlter); err != nil {
			return models.OutcomeError, err
		}
		return models.OutcomeUpdated, nil
	}
	return models.OutcomeError, fmt.Errorf("unknown action %v", action)
}

func (r *Reconciler) write(ctx context.Context, objectName string, lines []string, from, to string) error {
	statement, err := RewriteKeyword(lines, from, to)
	if err != nil {
		return fmt.Errorf("%s: %w", objectName, err)
	}

	r.logger.Debug("Executing statement",
		zap.String("object", objectName),
		zap.String("keyword", to),
		zap.Int("lines", len(lines)),
	)

	if err := r.exec.Execute(ctx, statement); err != nil {
		return fmt.Errorf("error executing %s for %s: %w", strings.ToUpper(to), objectName, err)
	}
	return nil
}

// RewriteKeyword joins lines into one statement and swaps the leading
// definition keyword from `from` to `to`. Only the first token after any
// whitespace and comments is considered; the rest of the text is untouched.
// A statement already starting with `to`, or with CREATE OR ALTER, is
// returned as is.
func RewriteKeyword(lines []string, from, to string) (string, error) {
	text := strings.Join(lines, statementSeparator)

	start := skipTrivia(text)
	end := start
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	token := text[start:end]

	switch {
	case strings.EqualFold(token, to):
		return text, nil
	case strings.EqualFold(token, from):
		if strings.EqualFold(token, KeywordCreate) && startsWithOrAlter(text[end:]) {
			return text, nil
		}
		return text[:start] + matchCase(to, token) + text[end:], nil
	}

	return "", ErrNoDefinitionKeyword
}

// skipTrivia returns the offset of the first byte that is not whitespace or
// part of a comment.
func skipTrivia(text string) int {
	i := 0
	for i < len(text) {
		switch {
		case unicode.IsSpace(rune(text[i])):
			i++
		case strings.HasPrefix(text[i:], "--"):
			nl := strings.IndexByte(text[i:], '\n')
			if nl < 0 {
				return len(text)
			}
			i += nl + 1
		case strings.HasPrefix(text[i:], "/*"):
			i = skipBlockComment(text, i)
		default:
			return i
		}
	}
	return i
}

// T-SQL block comments nest.
func skipBlockComment(text string, i int) int {
	depth := 0
	for i < len(text) {
		switch {
		case strings.HasPrefix(text[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(text[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return i
}

func startsWithOrAlter(rest string) bool {
	fields := strings.Fields(rest)
	return len(fields) >= 2 && strings.EqualFold(fields[0], "or") && strings.EqualFold(fields[1], KeywordAlter)
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// matchCase writes keyword in upper case when the token it replaces was.
func matchCase(keyword, token string) string {
	if token == strings.ToUpper(token) {
		return strings.ToUpper(keyword)
	}
	return keyword
}
