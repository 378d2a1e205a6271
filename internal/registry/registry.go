// Package registry enumerates the custodied assets and their feed bindings.
//
// The registry is static configuration: which assets exist, at what
// precision, and under which symbol the quote source prices them. Governance
// of the registry (adding or removing assets at runtime) is out of scope.
package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/unitfund/fundd/internal/domain"
)

// Registry is an immutable list of registered assets.
type Registry struct {
	assets []domain.Asset
}

// Parse builds a registry from a comma-separated "CODE:precision:feedsymbol"
// list, e.g. "GOLD:7:gold,BTC:7:bitcoin". An empty spec is a valid registry
// holding only the base currency.
func Parse(spec string) (*Registry, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return &Registry{}, nil
	}

	var assets []domain.Asset
	seen := make(map[string]bool)
	for _, entry := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("parsing asset entry %q: want CODE:precision:feedsymbol", entry)
		}
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if code == "" {
			return nil, fmt.Errorf("parsing asset entry %q: empty code", entry)
		}
		if seen[code] {
			return nil, fmt.Errorf("duplicate asset %s", code)
		}
		precision, err := strconv.ParseInt(parts[1], 10, 32)
		if err != nil || precision < 0 || precision > domain.Precision {
			return nil, fmt.Errorf("parsing asset entry %q: precision must be 0..%d", entry, domain.Precision)
		}
		symbol := strings.TrimSpace(parts[2])
		if symbol == "" {
			return nil, fmt.Errorf("parsing asset entry %q: empty feed symbol", entry)
		}

		seen[code] = true
		assets = append(assets, domain.Asset{Code: code, Precision: int32(precision), FeedSymbol: symbol})
	}

	return &Registry{assets: assets}, nil
}

// Assets returns the registered assets in configuration order.
func (r *Registry) Assets() []domain.Asset {
	return append([]domain.Asset(nil), r.assets...)
}

// Lookup returns the asset registered under code.
func (r *Registry) Lookup(code string) (domain.Asset, bool) {
	return lo.Find(r.assets, func(a domain.Asset) bool { return a.Code == code })
}

// FeedSymbols returns the distinct feed symbols of all registered assets.
func (r *Registry) FeedSymbols() []string {
	return lo.Uniq(lo.Map(r.assets, func(a domain.Asset, _ int) string { return a.FeedSymbol }))
}
