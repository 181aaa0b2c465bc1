package main

import (
	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/OsbornePro/quickcopy/internal/host"
)

// presentationFor maps the view config onto the host presentation. A config
// without a terminal gets the default wrapper unless view.direct is set.
func presentationFor(v config.ViewConfig) host.Presentation {
	if config.BoolDeref(v.Direct, false) {
		return host.Presentation{}
	}
	if len(v.Terminal) == 0 {
		return host.DefaultPresentation()
	}
	return host.Presentation{
		Terminal:    v.Terminal,
		OnTop:       v.OnTopArgs,
		Undecorated: v.UndecoratedArgs,
		FixedSize:   v.FixedSizeArgs,
		SkipTaskbar: v.SkipTaskbarArgs,
		Exec:        v.ExecArgs,
	}
}
