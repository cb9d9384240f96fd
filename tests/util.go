package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
)

// SampleFields returns the fields of a certificate issued to an Arabic-named student.
func SampleFields(id string) certificate.Fields {
	return certificate.Fields{
		UserName:      "سارة",
		CourseName:    "أساسيات البرمجة",
		IssueDate:     "2024-01-01",
		CertificateID: id,
		ShareLink:     "https://x/y",
	}
}

// LogEntry is a message recorded by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger recording every entry.
type Logger struct {
	mutex   sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the recorded entries of the given level.
func (l *Logger) Entries(level string) []LogEntry {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var entries []LogEntry
	for _, e := range l.entries {
		if e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

// Upload is a certificate received by UploadServer.
type Upload struct {
	CertificateID string
	Filename      string
	ContentType   string
	Image         []byte
}

// UploadServer fakes the application backend upload endpoint.
type UploadServer struct {
	*httptest.Server
	Path string

	mutex   sync.Mutex
	uploads []Upload
	status  map[string]int // per certificate ID; 200 by default
}

// NewUploadServer starts a fake upload endpoint, closed when t ends.
func NewUploadServer(t *testing.T) *UploadServer {
	srv := &UploadServer{
		Path:   "/api/certificate/upload",
		status: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(srv.Path, srv.handle)
	srv.Server = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// UploadURL is the absolute URL of the upload endpoint.
func (srv *UploadServer) UploadURL() string {
	return srv.URL + srv.Path
}

// FailWith makes uploads of id answer with status.
func (srv *UploadServer) FailWith(id string, status int) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	srv.status[id] = status
}

// Uploads returns the certificates received so far, successful or not.
func (srv *UploadServer) Uploads() []Upload {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	return append([]Upload(nil), srv.uploads...)
}

func (srv *UploadServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	file, header, err := r.FormFile("certificate")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	img, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.FormValue("certificateId")
	srv.mutex.Lock()
	srv.uploads = append(srv.uploads, Upload{
		CertificateID: id,
		Filename:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Image:         img,
	})
	status, ok := srv.status[id]
	srv.mutex.Unlock()

	if ok {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"url":     fmt.Sprintf("https://cdn.example.com/certificates/%s.png", id),
	})
}
