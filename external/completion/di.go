package completion

import (
	"context"
	"time"

	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/interview"
	"github.com/samber/do/v2"
)

const clientInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (interview.Completer, error) {
		c := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), clientInitTimeout)
		defer cancel()
		return NewGeminiCompleter(ctx, c.GeminiAPIKey, c.GeminiModel, time.Duration(c.CompletionTimeoutSec)*time.Second)
	})
}
