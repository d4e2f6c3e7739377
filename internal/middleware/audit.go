package middleware

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/metrics"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// AccessLogWriter persists audit records.
type AccessLogWriter interface {
	Insert(ctx context.Context, record *models.AccessLogRecord) error
}

type auditStateKey struct{}

// auditState carries values discovered deeper in the chain back to the recorder.
type auditState struct {
	username atomic.Value
}

// SetAuditUser attaches the authenticated username to the request's audit record.
func SetAuditUser(ctx context.Context, username string) {
	if st, ok := ctx.Value(auditStateKey{}).(*auditState); ok {
		st.username.Store(username)
	}
}

// Audit appends exactly one AccessLogRecord per request, whatever the
// outcome: admitted, rejected, failed or panicked. It must be the outermost
// middleware after RequestID.
type Audit struct {
	repo        AccessLogWriter
	trustProxy  bool
	logRequests bool
	timeout     time.Duration
	now         func() time.Time
}

// NewAudit creates the audit recorder.
func NewAudit(repo AccessLogWriter, trustProxy bool) *Audit {
	return &Audit{
		repo:        repo,
		trustProxy:  trustProxy,
		logRequests: true,
		timeout:     constants.AuditWriteTimeout,
		now:         time.Now,
	}
}

// WithRequestLog turns the per-request log line on or off. The access log
// record is written either way.
func (a *Audit) WithRequestLog(enabled bool) *Audit {
	a.logRequests = enabled
	return a
}

// auditRequestID keeps an upstream id only when it is a UUID, so the stored
// value always fits the request_id column.
func auditRequestID(upstream string) string {
	if parsed, err := uuid.Parse(upstream); err == nil {
		return parsed.String()
	}
	return uuid.New().String()
}

// Handler wraps next with the audit recorder.
func (a *Audit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()

		requestID := auditRequestID(chimiddleware.GetReqID(r.Context()))
		w.Header().Set(constants.HeaderXRequestID, requestID)

		ip := ClientIP(r, a.trustProxy)
		state := &auditState{}
		ctx := withClientIP(r.Context(), ip)
		ctx = context.WithValue(ctx, auditStateKey{}, state)

		body := &countingReader{ReadCloser: r.Body}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = body
		}
		rec := &responseRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					a.record(r, rec, body, state, requestID, ip, start)
					panic(p)
				}
				utils.LogPanic(p, debug.Stack())
				if !rec.wroteHeader {
					utils.Error(rec, http.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
				} else {
					rec.status = http.StatusInternalServerError
				}
			}
			a.record(r, rec, body, state, requestID, ip, start)
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

func (a *Audit) record(r *http.Request, rec *responseRecorder, body *countingReader, state *auditState, requestID, ip string, start time.Time) {
	elapsed := a.now().Sub(start)

	requestBytes := body.n.Load()
	if requestBytes == 0 && r.ContentLength > 0 {
		requestBytes = r.ContentLength
	}
	username, _ := state.username.Load().(string)

	record := &models.AccessLogRecord{
		CreatedAt:     start.UTC(),
		RequestID:     requestID,
		Method:        utils.TruncateString(r.Method, constants.MaxMethodLength),
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Status:        rec.Status(),
		DurationMs:    elapsed.Milliseconds(),
		RemoteIP:      ip,
		UserAgent:     utils.TruncateString(r.UserAgent(), constants.MaxUserAgentLength),
		Referer:       utils.TruncateString(r.Referer(), constants.MaxRefererLength),
		Username:      username,
		RequestBytes:  requestBytes,
		ResponseBytes: rec.bytes,
	}

	if a.logRequests {
		utils.LogHTTPRequest(requestID, r.Method, r.URL.Path, ip, r.UserAgent(), record.Status, elapsed)
	}

	// Detached so a client disconnect does not lose the record.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), a.timeout)
	defer cancel()
	if err := a.repo.Insert(ctx, record); err != nil {
		metrics.AuditWriteFailures.Inc()
		log.Error().Err(err).
			Str(constants.RequestIDContextKey, requestID).
			Str("path", r.URL.Path).
			Msg("Failed to write access log record")
	}
}

// responseRecorder captures the status code and body size.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
	hijacked    bool
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Status returns the status that was sent, 101 for hijacked connections and
// 200 when the handler wrote nothing.
func (w *responseRecorder) Status() int {
	switch {
	case w.wroteHeader:
		return w.status
	case w.hijacked:
		return http.StatusSwitchingProtocols
	}
	return http.StatusOK
}

func (w *responseRecorder) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.hijacked = true
	}
	return conn, rw, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// countingReader counts request body bytes as the handler reads them.
type countingReader struct {
	io.ReadCloser
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.ReadCloser == nil {
		return 0, io.EOF
	}
	n, err := c.ReadCloser.Read(p)
	c.n.Add(int64(n))
	return n, err
}
