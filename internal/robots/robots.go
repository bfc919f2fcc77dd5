package robots

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/temoto/robotstxt"
)

// RuleType is the directive of a rule.
type RuleType string

const (
	Allow    RuleType = "allow"
	Disallow RuleType = "disallow"
)

// Rule is one Allow or Disallow directive.
type Rule struct {
	Type RuleType
	Path string
}

// String formats the rule the way it is reported, e.g. "disallow: /private".
func (r Rule) String() string {
	return fmt.Sprintf("%s: %s", r.Type, r.Path)
}

// RuleSet holds the rules that apply to the wildcard agent, in file order,
// plus every Sitemap directive in the file.
type RuleSet struct {
	Rules    []Rule
	Sitemaps []string
}

// Decision is the outcome of matching a path against a RuleSet.
type Decision string

const (
	Allowed     Decision = "allowed"
	Disallowed  Decision = "disallowed"
	Unspecified Decision = "unspecified"
)

// Parse reads robots.txt text line by line. Keys are case-insensitive and
// everything after '#' is ignored. An empty Disallow means "allow all" and
// produces no rule. A trailing '*' on a path is redundant under prefix
// matching and is removed; other '*' and a final '$' are kept for Evaluate.
func Parse(text string) *RuleSet {
	rs := &RuleSet{}

	// applies is true while the current group includes the wildcard agent.
	// Lines before the first User-agent form an implicit group.
	applies := true
	// inAgentBlock is true while reading consecutive User-agent lines.
	inAgentBlock := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if !inAgentBlock {
				applies = false
			}
			inAgentBlock = true
			if value == "*" {
				applies = true
			}
		case "allow", "disallow":
			inAgentBlock = false
			if !applies {
				continue
			}
			path := strings.TrimRight(value, "*")
			if path == "" {
				continue
			}
			rs.Rules = append(rs.Rules, Rule{Type: RuleType(key), Path: path})
		case "sitemap":
			if value != "" {
				rs.Sitemaps = append(rs.Sitemaps, value)
			}
		default:
			inAgentBlock = false
		}
	}

	return rs
}

// Match returns the decision for path under rs.
func Match(path string, rs *RuleSet) Decision {
	d, _ := Evaluate(path, rs)
	return d
}

// Evaluate returns the decision for path and the winning rule, which is nil
// unless the decision is Allowed or Disallowed.
//
// A rule matches when its path is a prefix of path, where '*' stands for any
// run of characters and a final '$' anchors the end. The longest matching
// rule pattern wins; equally long Allow and Disallow matches cancel out.
func Evaluate(path string, rs *RuleSet) (Decision, *Rule) {
	if rs == nil {
		return Unspecified, nil
	}
	if path == "" {
		path = "/"
	}

	var best *Rule
	tie := false
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if !matchRule(r.Path, path) {
			continue
		}
		switch {
		case best == nil || len(r.Path) > len(best.Path):
			best = r
			tie = false
		case len(r.Path) == len(best.Path) && r.Type != best.Type:
			tie = true
		}
	}

	if best == nil || tie {
		return Unspecified, nil
	}
	if best.Type == Allow {
		return Allowed, best
	}
	return Disallowed, best
}

// matchRule reports whether pattern matches path.
func matchRule(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}
	if !strings.Contains(pattern, "*") {
		if anchored {
			return path == pattern
		}
		return strings.HasPrefix(path, pattern)
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	rest := path[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}

	last := parts[len(parts)-1]
	if anchored {
		return strings.HasSuffix(rest, last)
	}
	return strings.Contains(rest, last)
}

// AgentAllowed reports whether agent may fetch path according to body.
func AgentAllowed(body []byte, agent, path string) (bool, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return false, fmt.Errorf("failed to parse robots.txt: %w", err)
	}
	return data.TestAgent(path, agent), nil
}
