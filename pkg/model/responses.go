package model

// Responses maps page codes to the answers collected on that page, keyed by
// question code. Follow-up answers live in the same page map as their parent.
type Responses map[string]map[string]any

// Get returns the answer stored for a page/question pair.
func (r Responses) Get(pageCode, questionCode string) (any, bool) {
	if r == nil {
		return nil, false
	}
	page, ok := r[pageCode]
	if !ok {
		return nil, false
	}
	value, ok := page[questionCode]
	return value, ok
}

// Set stores an answer, creating the page map on first use.
func (r Responses) Set(pageCode, questionCode string, value any) {
	page, ok := r[pageCode]
	if !ok || page == nil {
		page = make(map[string]any)
		r[pageCode] = page
	}
	page[questionCode] = value
}

// Page returns the answers for one page; nil when none were recorded.
func (r Responses) Page(pageCode string) map[string]any {
	if r == nil {
		return nil
	}
	return r[pageCode]
}

// Clone deep-copies the responses so snapshots handed to callbacks cannot
// alias the live store.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for pageCode, answers := range r {
		page := make(map[string]any, len(answers))
		for code, value := range answers {
			page[code] = deepCopy(value)
		}
		out[pageCode] = page
	}
	return out
}

// ErrorMap maps page codes to per-question error messages.
type ErrorMap map[string]map[string]string

// Get returns the message recorded for a page/question pair.
func (e ErrorMap) Get(pageCode, questionCode string) string {
	if e == nil {
		return ""
	}
	return e[pageCode][questionCode]
}

// Empty reports whether no page holds a message.
func (e ErrorMap) Empty() bool {
	for _, page := range e {
		if len(page) > 0 {
			return false
		}
	}
	return true
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
