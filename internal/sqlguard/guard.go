// Package sqlguard decides whether a free-text SQL query may be executed
// against the trading database. Only single read-only SELECT statements pass.
//
// The guard is a filter, not a security boundary: query text is expected to
// come from a trusted generator, and accepted queries are still executed in a
// read-only transaction by the store.
package sqlguard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrForbiddenKeyword   = errors.New("query contains forbidden operation")
	ErrNotSelect          = errors.New("only SELECT queries are allowed")
	ErrMultipleStatements = errors.New("multiple SQL statements are not allowed")
)

// ForbiddenKeywords lists operations that reject a query when they appear as
// a whole word anywhere in it, comments included.
var ForbiddenKeywords = []string{
	"DELETE", "INSERT", "UPDATE", "DROP", "TRUNCATE", "ALTER", "CREATE",
	"REPLACE", "MERGE", "UPSERT", "GRANT", "REVOKE", "SET",
}

var (
	forbiddenRe = regexp.MustCompile(`\b(?:` + strings.Join(ForbiddenKeywords, "|") + `)\b`)
	selectRe    = regexp.MustCompile(`^SELECT\b`)
)

// Kind classifies a Verdict.
type Kind int

const (
	Accepted Kind = iota
	RejectedForbiddenKeyword
	RejectedNotSelect
	RejectedMultipleStatements
)

func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case RejectedForbiddenKeyword:
		return "forbidden_keyword"
	case RejectedNotSelect:
		return "not_select"
	case RejectedMultipleStatements:
		return "multiple_statements"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Verdict is the outcome of checking a query. Keyword is set only for
// RejectedForbiddenKeyword.
type Verdict struct {
	Kind    Kind
	Keyword string
}

// OK reports whether the query may be executed.
func (v Verdict) OK() bool { return v.Kind == Accepted }

// Err converts a rejection into an error wrapping the matching sentinel. It
// returns nil for an accepted query.
func (v Verdict) Err() error {
	switch v.Kind {
	case Accepted:
		return nil
	case RejectedForbiddenKeyword:
		return fmt.Errorf("sqlguard: %w %s; only SELECT statements are allowed", ErrForbiddenKeyword, v.Keyword)
	case RejectedNotSelect:
		return fmt.Errorf("sqlguard: %w", ErrNotSelect)
	case RejectedMultipleStatements:
		return fmt.Errorf("sqlguard: %w", ErrMultipleStatements)
	default:
		return fmt.Errorf("sqlguard: unknown verdict %s", v.Kind)
	}
}

// Check applies the policy in order: forbidden keywords over the whole
// upper-cased text, a leading SELECT once comments are removed, and a single
// statement (one trailing semicolon is tolerated). The query text itself is
// never rewritten.
func Check(query string) Verdict {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	if kw := forbiddenRe.FindString(normalized); kw != "" {
		return Verdict{Kind: RejectedForbiddenKeyword, Keyword: kw}
	}

	sc := scan(query)
	if !selectRe.MatchString(strings.ToUpper(strings.TrimSpace(sc.text))) {
		return Verdict{Kind: RejectedNotSelect}
	}
	if sc.statements > 1 {
		return Verdict{Kind: RejectedMultipleStatements}
	}
	return Verdict{Kind: Accepted}
}

// AssertSafe returns Check(query).Err().
func AssertSafe(query string) error {
	return Check(query).Err()
}

// IsRejection reports whether err came from a policy rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrForbiddenKeyword) ||
		errors.Is(err, ErrNotSelect) ||
		errors.Is(err, ErrMultipleStatements)
}
