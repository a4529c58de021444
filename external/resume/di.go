package resume

import (
	"github.com/foxseedlab/mensetsukin/internal/resume"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (resume.TextExtractor, error) {
		return NewPDFExtractor(), nil
	})
}
