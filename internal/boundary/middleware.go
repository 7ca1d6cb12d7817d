package boundary

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

type contextKey int

const ownerIDContextKey contextKey = iota

// logWrapper logs every request's method, path, status, and latency.
func logWrapper(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r, ps)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   sw.status,
			"duration": time.Since(start),
		}).Info("request handled")
	}
}

// authWrapper resolves the bearer token in the Authorization header to
// an owner_id via resolver and stores it in the request context for
// handlers to read. Requests with a missing or unresolvable token never
// reach next.
func authWrapper(resolver TokenResolver, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing or invalid authentication token", http.StatusUnauthorized)
			return
		}

		ownerID, err := resolver.Resolve(token)
		if err != nil {
			http.Error(w, "missing or invalid authentication token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDContextKey, ownerID)
		next(w, r.WithContext(ctx), ps)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
