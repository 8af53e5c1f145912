package crewz

import (
	"net/url"
	"strconv"
	"strings"
)

type param struct {
	key   string
	value string
}

// Params is an ordered query parameter list. The legacy service is sensitive
// to neither order nor case, but keeping insertion order makes requests
// reproducible in logs and tests.
type Params struct {
	pairs []param
}

// NewParams starts a parameter list.
func NewParams() *Params {
	return &Params{}
}

// Set appends key=value, replacing an earlier value for the same key in place.
func (p *Params) Set(key, value string) *Params {
	for i := range p.pairs {
		if p.pairs[i].key == key {
			p.pairs[i].value = value
			return p
		}
	}
	p.pairs = append(p.pairs, param{key: key, value: value})
	return p
}

// SetInt appends a base-10 integer value.
func (p *Params) SetInt(key string, value int64) *Params {
	return p.Set(key, strconv.FormatInt(value, 10))
}

// SetList appends a comma-joined list of integers.
func (p *Params) SetList(key string, values []int64) *Params {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return p.Set(key, strings.Join(parts, ","))
}

// Get returns the value for key, if present.
func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, pair := range p.pairs {
		if pair.key == key {
			return pair.value, true
		}
	}
	return "", false
}

// Len reports the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}

// Encode renders the list as a query string with every value percent-encoded.
func (p *Params) Encode() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for i, pair := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.value))
	}
	return b.String()
}

func (p *Params) merge(other *Params) *Params {
	if other == nil {
		return p
	}
	for _, pair := range other.pairs {
		p.Set(pair.key, pair.value)
	}
	return p
}
