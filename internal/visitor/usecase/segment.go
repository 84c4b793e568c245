package usecase

import (
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/visitor/domain/model"

	"github.com/google/cel-go/cel"
)

const maxCachedSegments = 256

// SegmentEngine compiles CEL expressions that select visitors, e.g.
//
//	visitCount >= 3 && hasContact && country == "DE"
//	"utm_source" in cookies && cookies["utm_source"] == "newsletter"
type SegmentEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// Segment is a compiled expression bound to an evaluation time
type Segment struct {
	expr    string
	program cel.Program
	now     time.Time
}

// NewSegmentEngine declares the variables a segment expression can reference
func NewSegmentEngine() (*SegmentEngine, error) {
	strMap := cel.MapType(cel.StringType, cel.StringType)
	env, err := cel.NewEnv(
		cel.Variable("visitorId", cel.StringType),
		cel.Variable("visitCount", cel.IntType),
		cel.Variable("pageCount", cel.IntType),
		cel.Variable("pages", cel.ListType(cel.StringType)),
		cel.Variable("status", cel.StringType),
		cel.Variable("hasContact", cel.BoolType),
		cel.Variable("email", cel.StringType),
		cel.Variable("country", cel.StringType),
		cel.Variable("deviceType", cel.StringType),
		cel.Variable("browser", cel.StringType),
		cel.Variable("referrer", cel.StringType),
		cel.Variable("daysSinceFirstVisit", cel.IntType),
		cel.Variable("daysSinceLastVisit", cel.IntType),
		cel.Variable("cookies", strMap),
		cel.Variable("localStorage", strMap),
		cel.Variable("sessionStorage", strMap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &SegmentEngine{env: env, programs: map[string]cel.Program{}}, nil
}

// Compile parses and type-checks expr. Invalid expressions are validation errors.
func (e *SegmentEngine) Compile(expr string, now time.Time) (*Segment, error) {
	expr = strings.TrimSpace(expr)

	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return &Segment{expr: expr, program: prg, now: now}, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperrors.NewValidationError("invalid segment expression").
			WithDetail("segment", issues.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperrors.NewValidationError("segment expression must evaluate to a boolean")
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid segment expression").WithCause(err)
	}

	e.mu.Lock()
	if len(e.programs) >= maxCachedSegments {
		e.programs = map[string]cel.Program{}
	}
	e.programs[expr] = prg
	e.mu.Unlock()

	return &Segment{expr: expr, program: prg, now: now}, nil
}

// Match evaluates the segment against one record. Evaluation errors (for
// instance a missing map key) count as no match.
func (s *Segment) Match(r *model.VisitorRecord) bool {
	out, _, err := s.program.Eval(segmentVars(r, s.now))
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

func daysSince(t, now time.Time) int64 {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int64(now.Sub(t) / (24 * time.Hour))
}

func segmentVars(r *model.VisitorRecord, now time.Time) map[string]interface{} {
	pages := make([]string, 0, len(r.PagesVisited))
	for _, p := range r.PagesVisited {
		pages = append(pages, p.Path)
	}
	snap := r.RawStorageData.Normalize()

	vars := map[string]interface{}{
		"visitorId":           r.VisitorID,
		"visitCount":          r.VisitCount,
		"pageCount":           int64(len(r.PagesVisited)),
		"pages":               pages,
		"status":              string(r.Status),
		"hasContact":          r.ContactInfo != nil && (r.ContactInfo.Email != "" || r.ContactInfo.Phone != ""),
		"email":               "",
		"country":             "",
		"deviceType":          "",
		"browser":             "",
		"referrer":            r.Referrer,
		"daysSinceFirstVisit": daysSince(r.FirstVisit, now),
		"daysSinceLastVisit":  daysSince(r.LastVisit, now),
		"cookies":             snap.Cookies,
		"localStorage":        snap.LocalStorage,
		"sessionStorage":      snap.SessionStorage,
	}
	if r.ContactInfo != nil {
		vars["email"] = r.ContactInfo.Email
	}
	if r.Location != nil {
		vars["country"] = r.Location.Country
	}
	if r.Device != nil {
		vars["deviceType"] = r.Device.Type
		vars["browser"] = r.Device.Browser
	}
	return vars
}
