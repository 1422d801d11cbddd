// Package media decides which remote image hosts the storefront may render
// and proxies images from them.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"crustline/internal/catalog"

	"gopkg.in/yaml.v3"
)

// Pattern describes one allowed image origin. Empty fields match anything.
// Pathname may end in "/**" to match every path below a prefix.
type Pattern struct {
	Protocol string `yaml:"protocol"`
	Hostname string `yaml:"hostname"`
	Port     string `yaml:"port"`
	Pathname string `yaml:"pathname"`
}

type AllowList struct {
	patterns []Pattern
}

func NewAllowList(patterns ...Pattern) *AllowList {
	return &AllowList{patterns: patterns}
}

// LoadAllowList reads remotePatterns from a YAML file. Without a file the
// list allows the content host's /uploads tree.
//
//	remotePatterns:
//	  - protocol: http
//	    hostname: 127.0.0.1
//	    port: "1337"
//	    pathname: /uploads/**
func LoadAllowList(path, contentBaseURL string) (*AllowList, error) {
	if path == "" {
		return DefaultAllowList(contentBaseURL)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read media allow-list: %w", err)
	}
	var file struct {
		RemotePatterns []Pattern `yaml:"remotePatterns"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse media allow-list %s: %w", path, err)
	}
	for i, p := range file.RemotePatterns {
		if p.Hostname == "" {
			return nil, fmt.Errorf("media allow-list %s: pattern %d has no hostname", path, i)
		}
	}
	return NewAllowList(file.RemotePatterns...), nil
}

// DefaultAllowList allows uploads served by the content API host.
func DefaultAllowList(contentBaseURL string) (*AllowList, error) {
	u, err := url.Parse(catalog.MediaHost(contentBaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse content base url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, errors.New("content base url has no host")
	}
	return NewAllowList(Pattern{
		Protocol: u.Scheme,
		Hostname: u.Hostname(),
		Port:     u.Port(),
		Pathname: "/uploads/**",
	}), nil
}

func (a *AllowList) Patterns() []Pattern {
	return a.patterns
}

// Allows reports whether raw is an absolute http(s) URL matching a pattern.
func (a *AllowList) Allows(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.User != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	for _, p := range a.patterns {
		if p.matches(u) {
			return true
		}
	}
	return false
}

func (p Pattern) matches(u *url.URL) bool {
	if p.Protocol != "" && !strings.EqualFold(strings.TrimSuffix(p.Protocol, ":"), u.Scheme) {
		return false
	}
	if !matchHost(p.Hostname, u.Hostname()) {
		return false
	}
	if p.Port != "" && p.Port != u.Port() {
		return false
	}
	return matchPath(p.Pathname, u.EscapedPath())
}

// matchHost supports a leading "*." or "**." wildcard for subdomains.
func matchHost(pattern, host string) bool {
	pattern = strings.ToLower(pattern)
	host = strings.ToLower(host)
	if suffix, ok := strings.CutPrefix(pattern, "**."); ok {
		return strings.HasSuffix(host, "."+suffix)
	}
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		sub, found := strings.CutSuffix(host, "."+suffix)
		return found && sub != "" && !strings.Contains(sub, ".")
	}
	return pattern == host
}

func matchPath(pattern, path string) bool {
	switch {
	case pattern == "" || pattern == "/**" || pattern == "**":
		return true
	case strings.Contains(path, "/../") || strings.HasSuffix(path, "/.."):
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return strings.HasPrefix(path, prefix+"/")
	}
	return pattern == path
}
