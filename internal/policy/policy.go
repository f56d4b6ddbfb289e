// Package policy reads policy.toml, the list of breaking changes a project
// has accepted for a release.
//
//	version = 1
//
//	[[waiver]]
//	symbol = "com.acme.Client#send(String)"
//	kind = "RemovedMethod"
//	reason = "deprecated since 2.1"
//	expires = 2027-01-01
//
// symbol may use `*` to match any run of characters. kind is optional.
// A waiver applies through its expiry date and stops the day after.
package policy

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"apidiff/internal/breaking"
	"apidiff/internal/errors"
)

// FileName is the default policy file name inside the project directory.
const FileName = "policy.toml"

// Waiver accepts one breaking change or a family of them.
type Waiver struct {
	Symbol  string    `toml:"symbol"`
	Kind    string    `toml:"kind,omitempty"`
	Reason  string    `toml:"reason"`
	Expires time.Time `toml:"expires,omitempty"`
}

// Policy is a decoded policy file. It implements breaking.Waiver.
type Policy struct {
	Version int      `toml:"version"`
	Waivers []Waiver `toml:"waiver"`

	now func() time.Time
}

var _ breaking.Waiver = (*Policy)(nil)

// Load decodes the policy at path. Unknown keys, unknown change kinds and
// waivers without a symbol or reason are CONFIG_INVALID.
func Load(path string) (*Policy, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Missing("policy", path, err)
	}
	var p Policy
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to parse policy", err).WithPath(path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("unknown policy key %q", undecoded[0].String()), nil).WithPath(path)
	}
	if err := p.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, err.Error(), nil).WithPath(path)
	}
	return &p, nil
}

// Validate checks every waiver.
func (p *Policy) Validate() error {
	kinds := breaking.Kinds()
	for i, w := range p.Waivers {
		if strings.TrimSpace(w.Symbol) == "" {
			return fmt.Errorf("waiver %d: symbol is required", i+1)
		}
		if strings.TrimSpace(w.Reason) == "" {
			return fmt.Errorf("waiver %d (%s): reason is required", i+1, w.Symbol)
		}
		if w.Kind != "" && !slices.Contains(kinds, breaking.ChangeKind(w.Kind)) {
			return fmt.Errorf("waiver %d (%s): unknown change kind %q", i+1, w.Symbol, w.Kind)
		}
	}
	return nil
}

// Waive returns the reason of the first live waiver matching c.
func (p *Policy) Waive(c breaking.Change) (string, bool) {
	if p == nil {
		return "", false
	}
	now := time.Now()
	if p.now != nil {
		now = p.now()
	}
	for _, w := range p.Waivers {
		if w.expired(now) {
			continue
		}
		if w.Kind != "" && breaking.ChangeKind(w.Kind) != c.Kind {
			continue
		}
		if Match(w.Symbol, c.Symbol) {
			return w.Reason, true
		}
	}
	return "", false
}

// expired reports whether now is past the waiver's expiry. A date without a
// time of day, as TOML writes `expires = 2027-01-01`, lasts through that
// whole day.
func (w Waiver) expired(now time.Time) bool {
	if w.Expires.IsZero() {
		return false
	}
	end := w.Expires
	if h, m, s := end.Clock(); h == 0 && m == 0 && s == 0 && end.Nanosecond() == 0 {
		end = end.AddDate(0, 0, 1)
		return !now.Before(end)
	}
	return now.After(end)
}

// Match reports whether symbol matches pattern, where `*` matches any
// run of characters and everything else is literal.
func Match(pattern, symbol string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == symbol
	}
	if !strings.HasPrefix(symbol, parts[0]) {
		return false
	}
	rest := symbol[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, mid := range parts[1 : len(parts)-1] {
		i := strings.Index(rest, mid)
		if i < 0 {
			return false
		}
		rest = rest[i+len(mid):]
	}
	return len(rest) >= len(last) && strings.HasSuffix(rest, last)
}
