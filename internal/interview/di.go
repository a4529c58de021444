package interview

import (
	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		completer := do.MustInvoke[Completer](i)
		notifier := do.MustInvoke[webhook.Sender](i)
		return NewManager(cfg, completer, notifier), nil
	})
}
