package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"arena-ledger/internal/ledger"

	"github.com/go-playground/validator/v10"
)

// Maximum accepted request body
const maxBodyBytes = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names in validation errors
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithLedgerError maps ledger error kinds to HTTP statuses.
func respondWithLedgerError(w http.ResponseWriter, err error) {
	code := ledger.Code(err)
	switch code {
	case "duplicate_key":
		respondWithError(w, http.StatusConflict, code, err.Error())
	case "not_found":
		respondWithError(w, http.StatusNotFound, code, err.Error())
	case "name_too_long", "name_too_short", "invalid_argument":
		respondWithError(w, http.StatusBadRequest, code, err.Error())
	case "unauthorized":
		respondWithError(w, http.StatusForbidden, code, err.Error())
	case "battle_completed", "invalid_battle_state":
		respondWithError(w, http.StatusConflict, code, err.Error())
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

// decodeRequest reads a JSON body into dst and runs its validate tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_argument", "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_argument", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
