package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/getmedsage/medsage/internal/auth"
	"github.com/getmedsage/medsage/internal/intervention"
)

// parseAssessmentID parses the assessment ID from the path parameter.
func parseAssessmentID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("assessmentID"))
}

// parsePagination extracts limit and offset from query parameters with defaults.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

// reviewerName resolves the acting reviewer, preferring the request body and
// falling back to the authenticated staff member.
func reviewerName(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return auth.Reviewer(r.Context())
}

// writeReviewError maps errors from the in-memory review managers onto HTTP
// statuses. Unknown IDs are the only expected failure.
func writeReviewError(w http.ResponseWriter, err error) {
	var nf *intervention.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
