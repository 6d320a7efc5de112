package http

import (
	"mime"
	"net/http"

	apperrors "github.com/johnnyy06/ComputerBazaar-sub000/pkg/errors"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/httputil"
)

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			httputil.WriteError(w, r, &apperrors.AppError{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "Content-Type must be application/json",
				Status:  http.StatusUnsupportedMediaType,
			}, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
