package ledger

import (
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed default_chart.yaml
var defaultChartYAML []byte

// ChartTemplateNode is one account in a chart template
type ChartTemplateNode struct {
	Code     string              `yaml:"code"`
	Name     string              `yaml:"name"`
	Type     AccountType         `yaml:"type"`
	Header   bool                `yaml:"header"`
	System   bool                `yaml:"system"`
	Children []ChartTemplateNode `yaml:"children"`
}

// ChartTemplate is a reusable chart of accounts definition
type ChartTemplate struct {
	Accounts []ChartTemplateNode `yaml:"accounts"`
}

// ParseChartTemplate decodes a YAML chart template
func ParseChartTemplate(data []byte) (*ChartTemplate, error) {
	var tpl ChartTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse chart template: %w", err)
	}
	if len(tpl.Accounts) == 0 {
		return nil, fmt.Errorf("chart template has no accounts")
	}
	return &tpl, nil
}

// DefaultChartTemplate returns the embedded default chart
func DefaultChartTemplate() *ChartTemplate {
	tpl, err := ParseChartTemplate(defaultChartYAML)
	if err != nil {
		panic(err)
	}
	return tpl
}

// Instantiate builds the accounts of the template for one company, parents before children
func (t *ChartTemplate) Instantiate(tenantID, companyID uuid.UUID) ([]*Account, error) {
	out := make([]*Account, 0, 32)
	seen := make(map[string]bool)
	var walk func(nodes []ChartTemplateNode, parent *Account) error
	walk = func(nodes []ChartTemplateNode, parent *Account) error {
		for _, n := range nodes {
			if seen[n.Code] {
				return fmt.Errorf("chart template repeats account code %s", n.Code)
			}
			seen[n.Code] = true

			var (
				acct *Account
				err  error
			)
			if n.Header {
				acct, err = NewHeaderAccount(tenantID, companyID, n.Code, n.Name, n.Type, parent)
			} else {
				acct, err = NewAccount(tenantID, companyID, n.Code, n.Name, n.Type, parent)
			}
			if err != nil {
				return fmt.Errorf("chart template account %s: %w", n.Code, err)
			}
			acct.IsSystem = n.System || n.Header
			out = append(out, acct)
			if err := walk(n.Children, acct); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.Accounts, nil); err != nil {
		return nil, err
	}
	return out, nil
}
