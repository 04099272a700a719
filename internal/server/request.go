package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	executor "github.com/hanpama/querytrainer/internal/executor"
)

// ------------------ Request parsing ------------------

type QueryRequest struct {
	Query string `json:"query"`
}

type SubmissionRequest struct {
	Query   string `json:"query"`
	Learner string `json:"learner,omitempty"`
}

type requestError struct {
	status  int
	Message string
}

const errBodyTooLargeMessage = "body too large"

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, Message: msg}
}

// parseRequest reads a query from ?query= on GET or from a JSON body on POST.
// An empty query string is passed on as is; rejecting it is the trainer's job.
func parseRequest(r *http.Request, maxBody int64) (QueryRequest, *requestError) {
	if r.Method == http.MethodGet {
		if !r.URL.Query().Has("query") {
			return QueryRequest{}, badRequest("missing 'query'")
		}
		return QueryRequest{Query: r.URL.Query().Get("query")}, nil
	}
	var req QueryRequest
	if err := decodeBody(r, maxBody, &req); err != nil {
		return QueryRequest{}, err
	}
	return req, nil
}

func parseSubmission(r *http.Request, maxBody int64) (SubmissionRequest, *requestError) {
	var req SubmissionRequest
	if err := decodeBody(r, maxBody, &req); err != nil {
		return SubmissionRequest{}, err
	}
	return req, nil
}

func decodeBody(r *http.Request, maxBody int64, out any) *requestError {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return badRequest("unsupported Content-Type")
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return badRequest("failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return &requestError{status: http.StatusRequestEntityTooLarge, Message: errBodyTooLargeMessage}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return badRequest("invalid JSON")
	}
	return nil
}

// ------------------ Response formatting ------------------

func errorResponse(msg string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: msg}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
