package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm     ChromeClass = "ff-form"
	ClassHeader   ChromeClass = "ff-header"
	ClassScreen   ChromeClass = "ff-screen"
	ClassGrid     ChromeClass = "ff-grid"
	ClassField    ChromeClass = "ff-field"
	ClassFollowUp ChromeClass = "ff-followups"
	ClassActions  ChromeClass = "ff-actions"
	ClassErrors   ChromeClass = "ff-errors"
	ClassContent  ChromeClass = "ff-content"
)

// classNames exposes the chrome classes to templates.
func classNames() map[string]any {
	return map[string]any{
		"form":     string(ClassForm),
		"header":   string(ClassHeader),
		"screen":   string(ClassScreen),
		"grid":     string(ClassGrid),
		"field":    string(ClassField),
		"followup": string(ClassFollowUp),
		"actions":  string(ClassActions),
		"errors":   string(ClassErrors),
		"content":  string(ClassContent),
	}
}
