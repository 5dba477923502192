package memcache_fx

import (
	"go.uber.org/fx"

	mem "storefront/pkg/memcache"
)

var Module = fx.Provide(provideConfirmStore)

func provideConfirmStore() mem.ConfirmationStore {
	return mem.NewConfirmTokens()
}
