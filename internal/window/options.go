package window

// Label is the fixed logical identifier of the auxiliary window.
const Label = "quick-copy"

// Options describes how the host should present the auxiliary window.
type Options struct {
	Label       string
	Title       string
	View        string // auxiliary view resource loaded into the window
	Width       int    // logical units
	Height      int    // logical units
	Resizable   bool
	Decorations bool
	AlwaysOnTop bool
	SkipTaskbar bool
}

// DefaultOptions returns the fixed presentation of the quick copy window:
// 320x400, not resizable, chrome-less, always on top and hidden from the
// task switcher.
func DefaultOptions() Options {
	return Options{
		Label:       Label,
		Title:       "Quick Copy",
		View:        "quick-copy",
		Width:       320,
		Height:      400,
		Resizable:   false,
		Decorations: false,
		AlwaysOnTop: true,
		SkipTaskbar: true,
	}
}

// withDefaults fills unset fields from DefaultOptions. A zero Options is the
// default presentation; otherwise the flags are taken as given.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o == (Options{}) {
		return def
	}
	if o.Label == "" {
		o.Label = def.Label
	}
	if o.Title == "" {
		o.Title = def.Title
	}
	if o.View == "" {
		o.View = def.View
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	return o
}
