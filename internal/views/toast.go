package views

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a one-shot message shown at the bottom of the next page.
type Toast struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func Success(text string) *Toast { return &Toast{Kind: ToastSuccess, Text: text} }
func Error(text string) *Toast   { return &Toast{Kind: ToastError, Text: text} }

// IsError is used by the toast partial for styling.
func (t *Toast) IsError() bool { return t != nil && t.Kind == ToastError }
