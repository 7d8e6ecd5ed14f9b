// Package guard decides whether a navigation inside the admin layout may render.
//
// The decision is a small ordered rule table. Rules are evaluated top to bottom and
// the first rule whose predicate matches decides the outcome. A failed check is
// always a redirect, never an error.
package guard

import (
	"strings"

	"github.com/jrsteele09/nutrition-site/session"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// RuleSignupBypass names the rule that lets a just signed up user through once
const RuleSignupBypass = "signup-bypass"

// restrictedPrefixes require the admin role. Any path containing restrictedSegment does too.
var restrictedPrefixes = []string{"/dashboard", "/editor"}

const restrictedSegment = "/edit"

// Decision is the outcome of a guard check.
type Decision struct {
	Allow    bool
	Redirect string // set when Allow is false
	Rule     string // name of the rule that decided
}

func allow(rule string) Decision {
	return Decision{Allow: true, Rule: rule}
}

func redirect(rule, path string) Decision {
	return Decision{Redirect: path, Rule: rule}
}

// Rule pairs a predicate with the decision it produces.
type Rule struct {
	Name     string
	Matches  func(s session.Session, path string) bool
	Decision Decision
}

// Guard evaluates an ordered rule table.
type Guard struct {
	rules []Rule
}

type options struct {
	signupBypass bool
}

// Option configures a Guard.
type Option func(*options)

// WithoutSignupBypass removes the one-time access granted right after signup.
func WithoutSignupBypass() Option {
	return func(o *options) {
		o.signupBypass = false
	}
}

// WithSignupBypass sets whether the post-signup bypass rule is present.
func WithSignupBypass(enabled bool) Option {
	return func(o *options) {
		o.signupBypass = enabled
	}
}

// New builds the guard with the default rule table.
func New(opts ...Option) *Guard {
	o := options{signupBypass: true}
	for _, opt := range opts {
		opt(&o)
	}

	rules := []Rule{{
		Name:     "require-login",
		Matches:  func(s session.Session, _ string) bool { return !s.IsLoggedIn },
		Decision: redirect("require-login", LoginPath),
	}}
	if o.signupBypass {
		rules = append(rules, Rule{
			Name:     RuleSignupBypass,
			Matches:  func(s session.Session, _ string) bool { return s.JustSignedUp },
			Decision: allow(RuleSignupBypass),
		})
	}
	rules = append(rules,
		Rule{
			Name:     "require-admin",
			Matches:  func(s session.Session, path string) bool { return IsRestricted(path) && !s.IsAdmin() },
			Decision: redirect("require-admin", HomePath),
		},
		Rule{
			Name:     "default",
			Matches:  func(session.Session, string) bool { return true },
			Decision: allow("default"),
		},
	)
	return &Guard{rules: rules}
}

// Check returns the decision for navigating to path with session s.
func (g *Guard) Check(s session.Session, path string) Decision {
	for _, rule := range g.rules {
		if rule.Matches(s, path) {
			return rule.Decision
		}
	}
	return allow("default")
}

// Rules returns the names of the rules in evaluation order.
func (g *Guard) Rules() []string {
	names := make([]string, 0, len(g.rules))
	for _, r := range g.rules {
		names = append(names, r.Name)
	}
	return names
}

// IsRestricted reports whether path needs the admin role.
func IsRestricted(path string) bool {
	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return strings.Contains(path, restrictedSegment)
}
