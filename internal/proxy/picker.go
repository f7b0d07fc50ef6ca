// Package proxy selects outbound proxy endpoints for fetchers.
package proxy

import (
	"math/rand"
	"regexp"
	"strings"
)

var listSeparator = regexp.MustCompile(`[\n,]+`)

// Picker chooses one proxy endpoint uniformly at random per call. An empty
// list means no proxying; there is no session affinity between calls.
type Picker struct {
	endpoints []string
}

// NewPicker parses a comma or newline separated proxy list.
func NewPicker(raw string) *Picker {
	var endpoints []string
	for _, part := range listSeparator.Split(strings.TrimSpace(raw), -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			endpoints = append(endpoints, part)
		}
	}
	return &Picker{endpoints: endpoints}
}

// Pick returns a random endpoint, or "" when no proxies are configured.
func (p *Picker) Pick() string {
	if p == nil || len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[rand.Intn(len(p.endpoints))]
}

// Endpoints exposes the parsed list.
func (p *Picker) Endpoints() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.endpoints...)
}
