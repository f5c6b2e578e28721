package handlers

import (
	"encoding/json"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
)

var (
	validate = validator.New()

	// user entered text is stored as plain text
	textPolicy = bluemonday.StrictPolicy()
)

// decodeRequest reads the json body of r into v and runs the struct validations
func decodeRequest(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode request body")
	}
	if err := validate.Struct(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

// sanitizing passes before markup that keeps reappearing is stored escaped
const maxSanitizePasses = 4

// plainText strips any markup from s, including markup hidden behind html entities.
// Text that is free of tags comes back unescaped.
func plainText(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		clean := html.UnescapeString(textPolicy.Sanitize(s))
		if clean == s {
			return strings.TrimSpace(clean)
		}
		s = clean
	}
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// principal returns the caller put on the context by the auth middleware
func principal(w http.ResponseWriter, r *http.Request) (casework.Principal, bool) {
	p, ok := api.PrincipalFrom(r.Context())
	if !ok {
		config.ErrorStatus("no authenticated user", http.StatusUnauthorized, w, errors.New("missing principal"))
		return casework.Principal{}, false
	}
	return p, true
}

// statusFor maps a casework failure to the response status
func statusFor(err error) int {
	switch casework.KindOf(err) {
	case casework.KindValidation, casework.KindSend:
		return http.StatusBadRequest
	case casework.KindForbidden:
		return http.StatusForbidden
	case casework.KindNotFound:
		return http.StatusNotFound
	case casework.KindConflict:
		return http.StatusConflict
	case casework.KindUpload, casework.KindAnalysis:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeCaseworkError(message string, w http.ResponseWriter, err error) {
	config.ErrorStatus(message, statusFor(err), w, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// getPage returns the 1-based page from the query string
func getPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func getLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 10
	}
	return limit
}
