package model

import "strings"

// QuestionType tags the input widget a question renders with.
type QuestionType string

const (
	QuestionTypeText     QuestionType = "text"
	QuestionTypeTextArea QuestionType = "textarea"
	QuestionTypeNumber   QuestionType = "number"
	QuestionTypeEmail    QuestionType = "email"
	QuestionTypePhone    QuestionType = "phone"
	QuestionTypeRadio    QuestionType = "radio"
	QuestionTypeCheckbox QuestionType = "checkbox"
	QuestionTypeDate     QuestionType = "date"
	QuestionTypeDocument QuestionType = "document"
	QuestionTypeCombobox QuestionType = "combobox"
)

// QuestionTypes lists the built-in question types in a stable order.
func QuestionTypes() []QuestionType {
	return []QuestionType{
		QuestionTypeText,
		QuestionTypeTextArea,
		QuestionTypeNumber,
		QuestionTypeEmail,
		QuestionTypePhone,
		QuestionTypeRadio,
		QuestionTypeCheckbox,
		QuestionTypeDate,
		QuestionTypeDocument,
		QuestionTypeCombobox,
	}
}

// IsNumeric reports whether min/max apply as numeric bounds.
func (t QuestionType) IsNumeric() bool {
	return t == QuestionTypeNumber
}

// IsFreeText reports whether min/max apply as length bounds.
func (t QuestionType) IsFreeText() bool {
	return t == QuestionTypeText || t == QuestionTypeTextArea
}

// IsMultiValue reports whether answers are stored as a list of strings.
func (t QuestionType) IsMultiValue() bool {
	return t == QuestionTypeCheckbox
}

// Reserved page codes for the screens living outside FormConfig.Pages.
const (
	PagePreview  = "_preview"
	PageReview   = "_review"
	PageComplete = "_complete"
)

// IsPseudoPage reports whether code names one of the reserved screens.
func IsPseudoPage(code string) bool {
	switch code {
	case PagePreview, PageReview, PageComplete:
		return true
	default:
		return false
	}
}

// Question models one input definition. FollowUps recursively hold questions
// revealed beneath this one when ShowFollowupWhen matches the current answer.
type Question struct {
	ID          ID           `json:"id" yaml:"id"`
	Code        string       `json:"code" yaml:"code"`
	Type        QuestionType `json:"type" yaml:"type"`
	Text        string       `json:"text" yaml:"text"`
	Order       int          `json:"order" yaml:"order"`
	Hint        string       `json:"hint,omitempty" yaml:"hint,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool         `json:"required" yaml:"required"`
	Pattern     string       `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min         *Bound       `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *Bound       `json:"max,omitempty" yaml:"max,omitempty"`
	Prefix      string       `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix      string       `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Options     []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Colspan     int          `json:"colspan,omitempty" yaml:"colspan,omitempty"`
	// Widget names the renderer explicitly, overriding type-based resolution.
	Widget string `json:"widget,omitempty" yaml:"widget,omitempty"`

	RequiredError string `json:"requiredError,omitempty" yaml:"requiredError,omitempty"`
	MaxError      string `json:"maxError,omitempty" yaml:"maxError,omitempty"`
	MinError      string `json:"minError,omitempty" yaml:"minError,omitempty"`
	PatternError  string `json:"patternError,omitempty" yaml:"patternError,omitempty"`

	FollowUps        []Question `json:"followup_questions,omitempty" yaml:"followup_questions,omitempty"`
	ShowFollowupWhen *Trigger   `json:"showFollowupWhen,omitempty" yaml:"showFollowupWhen,omitempty"`

	FileTypes   []string `json:"filetype,omitempty" yaml:"filetype,omitempty"`
	MaxFileSize float64  `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`
}

// Label returns the text used in generated messages, falling back to the code.
func (q Question) Label() string {
	if text := strings.TrimSpace(q.Text); text != "" {
		return text
	}
	return q.Code
}

// HasFollowUps reports whether the question can reveal anything at all: both
// a trigger and a non-empty follow-up list are required.
func (q Question) HasFollowUps() bool {
	return len(q.FollowUps) > 0 && q.ShowFollowupWhen != nil && !q.ShowFollowupWhen.IsZero()
}

// Page is one step of the form. Code is the navigation key.
type Page struct {
	ID        ID         `json:"id" yaml:"id"`
	Code      string     `json:"code" yaml:"code"`
	Title     string     `json:"title" yaml:"title"`
	Desc      string     `json:"desc,omitempty" yaml:"desc,omitempty"`
	Order     int        `json:"order" yaml:"order"`
	Columns   int        `json:"columns" yaml:"columns"`
	Questions []Question `json:"questions" yaml:"questions"`
	Footer    string     `json:"footer,omitempty" yaml:"footer,omitempty"`
}

// FindQuestion searches the page's question tree, follow-ups included.
func (p Page) FindQuestion(code string) (Question, bool) {
	stack := make([]Question, 0, len(p.Questions))
	for i := len(p.Questions) - 1; i >= 0; i-- {
		stack = append(stack, p.Questions[i])
	}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if q.Code == code {
			return q, true
		}
		for i := len(q.FollowUps) - 1; i >= 0; i-- {
			stack = append(stack, q.FollowUps[i])
		}
	}
	return Question{}, false
}

// FormConfig is the declarative description of a whole questionnaire.
type FormConfig struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Slug        string `json:"slug" yaml:"slug"`
	FormNotes   string `json:"formNotes,omitempty" yaml:"formNotes,omitempty"`
	Type        string `json:"type" yaml:"type"`
	Tag         string `json:"tag" yaml:"tag"`
	Pages       []Page `json:"pages" yaml:"pages"`

	ShowPreview    bool   `json:"showPreview,omitempty" yaml:"showPreview,omitempty"`
	PreviewContent string `json:"previewContent,omitempty" yaml:"previewContent,omitempty"`

	ShowReview    bool   `json:"showReview,omitempty" yaml:"showReview,omitempty"`
	ReviewContent string `json:"reviewContent,omitempty" yaml:"reviewContent,omitempty"`

	RequireConsent bool   `json:"requireConsent,omitempty" yaml:"requireConsent,omitempty"`
	ConsentContent string `json:"consentContent,omitempty" yaml:"consentContent,omitempty"`
	ConsentSignURL string `json:"consentSignUrl,omitempty" yaml:"consentSignUrl,omitempty"`

	FormSubmittedContent string `json:"formSubmittedContent,omitempty" yaml:"formSubmittedContent,omitempty"`
	FormSubmitBackLink   string `json:"formSubmitBackLink,omitempty" yaml:"formSubmitBackLink,omitempty"`
}

// PageIndex returns the slice position of the page with the given code or -1.
func (c FormConfig) PageIndex(code string) int {
	for i, page := range c.Pages {
		if page.Code == code {
			return i
		}
	}
	return -1
}

// PageByCode looks up a configured page.
func (c FormConfig) PageByCode(code string) (Page, bool) {
	idx := c.PageIndex(code)
	if idx < 0 {
		return Page{}, false
	}
	return c.Pages[idx], true
}

// FirstPage returns the first page in slice order.
func (c FormConfig) FirstPage() (Page, bool) {
	if len(c.Pages) == 0 {
		return Page{}, false
	}
	return c.Pages[0], true
}

// LastPage returns the last page in slice order.
func (c FormConfig) LastPage() (Page, bool) {
	if len(c.Pages) == 0 {
		return Page{}, false
	}
	return c.Pages[len(c.Pages)-1], true
}
