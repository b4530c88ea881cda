// Package viewer serves analysis results over HTTP: the report as JSON, the
// chart as SVG, and an endpoint that analyses a posted task set.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/joshharrison/srpa/internal/analysis"
	"github.com/joshharrison/srpa/internal/chart"
	"github.com/joshharrison/srpa/internal/model"
	"github.com/joshharrison/srpa/internal/reporter"
	"github.com/joshharrison/srpa/internal/taskset"
)

// maxBody caps posted task sets.
const maxBody = 4 << 20

// Server holds the most recent analysis and serves it.
type Server struct {
	opts   analysis.Options
	logger *slog.Logger

	mu     sync.RWMutex
	name   string
	result *analysis.TasksResult
}

// New creates a Server that analyses posted task sets with opts.
func New(opts analysis.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{opts: opts, logger: logger}
}

// Load analyses tasks and makes the result current.
func (s *Server) Load(name string, tasks model.Tasks) (*analysis.TasksResult, error) {
	res, err := analysis.Analyze(tasks, s.opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.name = name
	s.result = res
	s.mu.Unlock()

	s.logger.Info("loaded task set", "name", name, "tasks", len(tasks), "schedulable", res.Schedulable())
	return res, nil
}

func (s *Server) current() (string, *analysis.TasksResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name, s.result
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/results", s.handleGetResults)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/chart.svg", s.handleChart)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, res := s.current()
	if res == nil {
		http.Error(w, "no task set loaded", http.StatusNotFound)
		return
	}
	s.writeReport(w, http.StatusOK, name, res)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "posted"
	}

	tasks, err := taskset.Decode(body, taskset.FormatJSON, name)
	if err == nil {
		err = taskset.Validate(tasks)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Load(name, tasks)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analysis.ErrInvalidTaskSet) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.writeReport(w, http.StatusCreated, name, res)
}

func (s *Server) writeReport(w http.ResponseWriter, status int, name string, res *analysis.TasksResult) {
	data, err := reporter.New(name, res).JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, res := s.current()
	if res == nil {
		http.Error(w, "no task set loaded", http.StatusNotFound)
		return
	}
	data, err := chart.SVG(name, res)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(data)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>srpa: {{.Name}}</title></head>
<body style="font-family: monospace">
<h1>{{.Name}}</h1>
{{- if .Loaded}}
<p>{{if .Schedulable}}schedulable{{else}}not schedulable: {{range .Missed}}{{.}} {{end}}{{end}}</p>
<img src="/chart.svg" alt="response times">
<p><a href="/api/results">results.json</a></p>
{{- else}}
<p>No task set loaded. POST one to /api/analyze.</p>
{{- end}}
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	name, res := s.current()
	data := struct {
		Name        string
		Loaded      bool
		Schedulable bool
		Missed      []string
	}{Name: name, Loaded: res != nil}
	if res != nil {
		data.Schedulable = res.Schedulable()
		data.Missed = res.Missed()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexTemplate.Execute(w, data)
}

// Start serves h on the given port in the background until ctx is done.
// Returns the base URL (e.g. "http://localhost:7171") or an error.
func Start(ctx context.Context, port int, h http.Handler) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", fmt.Errorf("listen on port %d: %w", port, err)
	}

	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return fmt.Sprintf("http://localhost:%d", port), nil
}

// PostTaskSet sends tasks to a running viewer for analysis.
func PostTaskSet(ctx context.Context, addr, name string, tasks model.Tasks) error {
	data, err := taskset.Encode(tasks, taskset.FormatJSON)
	if err != nil {
		return fmt.Errorf("encode task set: %w", err)
	}

	endpoint := addr + "/api/analyze?name=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST /api/analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST /api/analyze returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
