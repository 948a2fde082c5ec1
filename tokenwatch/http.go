package tokenwatch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/tokenwatch/kit"
)

// maxBody caps request bodies; a page snapshot can be large.
const maxBody = 16 << 20

// Router returns the HTTP API.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := kit.WithTransport(req.Context(), "http")
			ctx = kit.WithRequestID(ctx, middleware.GetReqID(ctx))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/platforms", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.Platforms())
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		st, err := s.Status()
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	})

	r.Get("/settings", func(w http.ResponseWriter, req *http.Request) {
		cur, err := s.Settings(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	})

	// PUT /settings is a partial update: omitted options keep their value.
	r.Put("/settings", func(w http.ResponseWriter, req *http.Request) {
		cur, err := s.Settings(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := decode(w, req, &cur); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.UpdateSettings(req.Context(), cur); err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	})

	r.Delete("/settings", func(w http.ResponseWriter, req *http.Request) {
		cur, err := s.ResetSettings(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	})

	r.Post("/debug", func(w http.ResponseWriter, req *http.Request) {
		var in PageRequest
		if err := decode(w, req, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		info, err := s.Debug(req.Context(), in)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	r.Post("/estimate", func(w http.ResponseWriter, req *http.Request) {
		var in PageRequest
		if err := decode(w, req, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		out, err := s.EstimatePage(req.Context(), in)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Post("/estimate/text", func(w http.ResponseWriter, req *http.Request) {
		var in TextRequest
		if err := decode(w, req, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		out, err := s.EstimateText(req.Context(), in)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Post("/transcript", func(w http.ResponseWriter, req *http.Request) {
		var in PageRequest
		if err := decode(w, req, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		md, err := s.Transcript(req.Context(), in)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(md))
	})

	return r
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBody)).Decode(v)
}

func statusOf(err error) int {
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
