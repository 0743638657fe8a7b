// Package lookup provides the read-only taxonomy behind suggestions and
// derived defaults: categories, accounts, payment methods and criticality
// levels, plus the category->criticality and account->payment method mappings.
package lookup

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Taxonomy is an immutable set of options. It satisfies ports.ConfigLookup.
type Taxonomy struct {
	categories     []string
	accounts       []string
	paymentMethods []string
	criticality    []string
	categoryCrit   map[string]string
	accountMethod  map[string]string
}

type rawTaxonomy struct {
	Criticality    []string      `toml:"criticality"`
	PaymentMethods []string      `toml:"payment_methods"`
	Category       []rawCategory `toml:"category"`
	Account        []rawAccount  `toml:"account"`
}

type rawCategory struct {
	Name        string `toml:"name"`
	Criticality string `toml:"criticality"`
}

type rawAccount struct {
	Name          string `toml:"name"`
	PaymentMethod string `toml:"payment_method"`
}

var defaultTaxonomy = rawTaxonomy{
	Criticality:    []string{"Essential", "Nonessential", "Savings", "Income"},
	PaymentMethods: []string{"Debit Card", "Credit Card", "Bank Transfer", "Cash"},
	Category: []rawCategory{
		{Name: "Groceries", Criticality: "Essential"},
		{Name: "Rent", Criticality: "Essential"},
		{Name: "Utilities", Criticality: "Essential"},
		{Name: "Transport", Criticality: "Essential"},
		{Name: "Health", Criticality: "Essential"},
		{Name: "Dining", Criticality: "Nonessential"},
		{Name: "Entertainment", Criticality: "Nonessential"},
		{Name: "Shopping", Criticality: "Nonessential"},
		{Name: "Travel", Criticality: "Nonessential"},
		{Name: "Investments", Criticality: "Savings"},
		{Name: "Salary", Criticality: "Income"},
	},
	Account: []rawAccount{
		{Name: "Checking", PaymentMethod: "Debit Card"},
		{Name: "Credit Card", PaymentMethod: "Credit Card"},
		{Name: "Savings", PaymentMethod: "Bank Transfer"},
		{Name: "Wallet", PaymentMethod: "Cash"},
	},
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, _ := build(defaultTaxonomy)
	return t
}

// Load reads a taxonomy TOML file. An empty path or a missing file yields
// the built-in taxonomy.
func Load(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	var raw rawTaxonomy
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t, err := build(raw)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a taxonomy from TOML text.
func Parse(data string) (*Taxonomy, error) {
	var raw rawTaxonomy
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	return build(raw)
}

func build(raw rawTaxonomy) (*Taxonomy, error) {
	t := &Taxonomy{
		criticality:   dedupe(raw.Criticality),
		categoryCrit:  map[string]string{},
		accountMethod: map[string]string{},
	}
	if len(t.criticality) == 0 {
		return nil, errors.New("at least one criticality level is required")
	}

	for _, c := range raw.Category {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		t.categories = appendUnique(t.categories, name)
		if crit := strings.TrimSpace(c.Criticality); crit != "" {
			canonical, ok := t.matchCriticality(crit)
			if !ok {
				return nil, fmt.Errorf("category %q: unknown criticality %q", name, crit)
			}
			t.categoryCrit[strings.ToLower(name)] = canonical
		}
	}

	t.paymentMethods = dedupe(raw.PaymentMethods)
	for _, a := range raw.Account {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		t.accounts = appendUnique(t.accounts, name)
		if pm := strings.TrimSpace(a.PaymentMethod); pm != "" {
			t.accountMethod[strings.ToLower(name)] = pm
			t.paymentMethods = appendUnique(t.paymentMethods, pm)
		}
	}
	return t, nil
}

func (t *Taxonomy) Categories() []string     { return clone(t.categories) }
func (t *Taxonomy) Accounts() []string       { return clone(t.accounts) }
func (t *Taxonomy) PaymentMethods() []string { return clone(t.paymentMethods) }

// CriticalityOptions lists the criticality levels; the first is the default.
func (t *Taxonomy) CriticalityOptions() []string { return clone(t.criticality) }

// CategoryToCriticality maps a category to its criticality, case-insensitively.
func (t *Taxonomy) CategoryToCriticality(category string) (string, bool) {
	v, ok := t.categoryCrit[strings.ToLower(strings.TrimSpace(category))]
	return v, ok
}

// AccountToDefaultPaymentMethod maps an account to its usual payment method.
func (t *Taxonomy) AccountToDefaultPaymentMethod(account string) (string, bool) {
	v, ok := t.accountMethod[strings.ToLower(strings.TrimSpace(account))]
	return v, ok
}

func (t *Taxonomy) matchCriticality(v string) (string, bool) {
	for _, c := range t.criticality {
		if strings.EqualFold(c, v) {
			return c, true
		}
	}
	return "", false
}

func dedupe(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = appendUnique(out, v)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list
		}
	}
	return append(list, v)
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
