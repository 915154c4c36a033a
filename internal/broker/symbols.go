package broker

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ResolveSymbols maps base names like EURUSD onto the broker's own symbol names
// (EURUSDm, EURUSD.r, ...) by prefix. Brokers without a symbol list get the base names back.
func ResolveSymbols(ctx context.Context, b Broker, base []string) ([]string, error) {
	lister, ok := b.(SymbolLister)
	if !ok {
		return base, nil
	}
	all, err := lister.Symbols(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list symbols")
	}

	out := make([]string, 0, len(base))
	seen := make(map[string]struct{}, len(base))
	for _, name := range base {
		want := strings.ToUpper(name)
		for _, s := range all {
			if !strings.HasPrefix(strings.ToUpper(s), want) {
				continue
			}
			if _, dup := seen[s]; dup {
				break
			}
			seen[s] = struct{}{}
			out = append(out, s)
			break
		}
	}
	return out, nil
}
