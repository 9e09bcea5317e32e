package http_wrappers

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// maxFormMemory bounds the in-memory part of multipart form parsing
const maxFormMemory = 1 << 20

type stdRequest struct {
	r *http.Request
}

// NewRequestWrapper wraps a net/http request
func NewRequestWrapper(r *http.Request) RequestWrapper {
	return &stdRequest{r: r}
}

func (s *stdRequest) Method() string {
	return s.r.Method
}

func (s *stdRequest) URI() string {
	return s.r.RequestURI
}

func (s *stdRequest) Header(key string) string {
	return s.r.Header.Get(key)
}

func (s *stdRequest) SetHeader(key string, value string) {
	s.r.Header.Set(key, value)
}

func (s *stdRequest) Path() string {
	return s.r.URL.Path
}

func (s *stdRequest) PathValue(name string) string {
	return s.r.PathValue(name)
}

func (s *stdRequest) Query(key string) []string {
	return s.r.URL.Query()[key]
}

// FormValue returns the named field of a form encoded body, the bool reports presence.
func (s *stdRequest) FormValue(key string) (string, bool) {
	if s.r.PostForm == nil {
		mediaType, _, _ := mime.ParseMediaType(s.r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			_ = s.r.ParseMultipartForm(maxFormMemory)
		} else {
			_ = s.r.ParseForm()
		}
	}
	values, ok := s.r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (s *stdRequest) BodyAsBytes() ([]byte, error) {
	if s.r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(s.r.Body)
}

type stdResponse struct {
	w      http.ResponseWriter
	logger *slog.Logger
}

// NewResponseWrapper wraps a net/http response writer, logger may be nil
func NewResponseWrapper(w http.ResponseWriter, logger *slog.Logger) ResponseWrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &stdResponse{w: w, logger: logger}
}

func (s *stdResponse) Error(errorMessage string, code int, requestId string) {
	s.ErrorWithCode("", errorMessage, code, requestId)
}

func (s *stdResponse) ErrorWithCode(messageCode string, errorMessage string, code int, requestId string) {
	s.WriteJSON(api.Error{
		MessageCode: messageCode,
		Message:     errorMessage,
		Trace:       requestId,
	}, code)
}

func (s *stdResponse) SetHeader(key string, value string) {
	s.w.Header().Set(key, value)
}

func (s *stdResponse) DeleteHeader(key string) {
	s.w.Header().Del(key)
}

func (s *stdResponse) SetStatusCode(code int) {
	s.w.WriteHeader(code)
}

func (s *stdResponse) Write(buf []byte) (int, error) {
	return s.w.Write(buf)
}

func (s *stdResponse) WriteJSON(v any, code int) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		code = http.StatusInternalServerError
		body = []byte(`{"message":"failed to marshal response"}`)
	}
	s.w.Header().Set("Content-Type", "application/json")
	s.w.WriteHeader(code)
	if _, err := s.w.Write(body); err != nil && !strings.Contains(err.Error(), "closed") {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *stdResponse) Flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
