package gateway

import (
	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/interview"
	"github.com/foxseedlab/mensetsukin/internal/resume"
	"github.com/foxseedlab/mensetsukin/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		extractor := do.MustInvoke[resume.TextExtractor](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		interviews := do.MustInvoke[*interview.Manager](i)
		return NewHandler(cfg, extractor, stt, interviews), nil
	})
}
