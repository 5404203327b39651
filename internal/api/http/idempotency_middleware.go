package httpapi

import (
	"bytes"
	"io"
	"net/http"

	appIdem "github.com/market-hub/market-hub/internal/application/idempotency"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplay         = "Idempotency-Replay"
)

// maxBodyBytes bounds request bodies buffered for fingerprinting.
const maxBodyBytes = 1 << 20

// recorder buffers the response so a successful outcome can be cached.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rec *recorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *recorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	rec.body.Write(p)
	return rec.ResponseWriter.Write(p)
}

// idempotency deduplicates mutations carrying an Idempotency-Key header. The
// claim happens before the handler runs; replays return the cached response
// with the Idempotency-Replay header set.
func (s *Server) idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := r.Header.Get(headerIdempotencyKey)
		if clientKey == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_BODY", "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		act := actorFromContext(r.Context())
		key, claim, err := s.idemSvc.Claim(r.Context(), act.ID, clientKey, r.Method, r.URL.Path, body)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		if claim.Outcome == appIdem.OutcomeReplayed {
			w.Header().Set(headerReplay, "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(claim.Status)
			_, _ = w.Write(claim.Body)
			return
		}

		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if err := s.idemSvc.Complete(r.Context(), key, rec.status, rec.body.Bytes()); err != nil {
			// The operation already committed; losing the cache entry only
			// costs a duplicate-execution guard, not correctness.
			_ = s.idemSvc.Abandon(r.Context(), key)
		}
	})
}
