package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// applyAnswers records the posted value of every question the page showed.
// The walk reads answers back from the session, so a follow-up revealed by
// the posted parent answer is visible in the same pass. It is only recorded
// when the page actually rendered it; otherwise it keeps what it held before.
func (s *Server) applyAnswers(ctx context.Context, req *http.Request, fs *formSession, page model.Page) error {
	lookup := func(code string) (any, bool) {
		return fs.engine.Value(page.Code, code)
	}
	form := postedForm{req: req, rendered: renderedSet(req)}
	return visibility.Walk(page.Questions, lookup, fs.engine.Resolver(), func(node visibility.Node) error {
		q := node.Question
		value, ok, problem := form.value(q)
		if problem != "" {
			fs.notice(problem)
		}
		if !ok {
			return nil
		}
		return fs.engine.UpdateResponse(ctx, page.Code, q.Code, value)
	})
}

// postedForm reads answers out of one request. rendered lists the questions
// the submitted page carried; it is empty for clients that post without the
// markers, in which case only the keys present are recorded.
type postedForm struct {
	req      *http.Request
	rendered map[string]struct{}
}

func renderedSet(req *http.Request) map[string]struct{} {
	codes := req.PostForm[render.FieldRendered]
	if len(codes) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// value decodes the answer of q. ok is false when the request carries
// nothing to record: the question was not on the submitted page, its key is
// absent, or a document question has no new upload. problem explains a
// rejected upload.
func (f postedForm) value(q model.Question) (value any, ok bool, problem string) {
	if f.rendered != nil {
		if _, shown := f.rendered[q.Code]; !shown {
			return nil, false, ""
		}
	}

	raw, present := f.req.PostForm[q.Code]
	switch q.Type {
	case model.QuestionTypeCheckbox:
		// An unticked group posts no key at all; the marker says it was shown.
		if !present && f.rendered == nil {
			return nil, false, ""
		}
		list := make([]any, 0, len(raw))
		for _, v := range raw {
			list = append(list, v)
		}
		return list, true, ""
	case model.QuestionTypeDocument:
		return postedDocument(f.req, q)
	}

	if !present || len(raw) == 0 {
		return nil, false, ""
	}
	if q.Type.IsNumeric() {
		return parseNumber(raw[0]), true, ""
	}
	return raw[0], true, ""
}

func postedDocument(req *http.Request, q model.Question) (any, bool, string) {
	if req.MultipartForm == nil {
		return nil, false, ""
	}
	files := req.MultipartForm.File[q.Code]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, false, ""
	}
	header := files[0]
	answer, err := model.DocumentAnswer(q, header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		return nil, false, err.Error()
	}
	return answer, true, ""
}

// parseNumber keeps unparsable and non-finite input as text so validation
// reports it instead of storing a NaN the snapshot cannot encode.
func parseNumber(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return trimmed
	}
	return n
}
