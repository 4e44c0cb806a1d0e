package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/validation"
)

// HeaderUserID carries the id of the user making an administrative call
const HeaderUserID = "X-User-ID"

// ValidationErrorResponse defines the response structure for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// DecodeAndValidateRequest decodes a JSON request body and validates it by its
// struct tags. If it returns an error the response has already been written
// and the handler should return.
//
//	var req TaskCompletionRequest
//	if err := DecodeAndValidateRequest(r, w, &req, OpTaskCompletion); err != nil {
//	    return
//	}
func DecodeAndValidateRequest(r *http.Request, w http.ResponseWriter, req interface{}, actionName string) error {
	if err := decodeRequest(r, w, req, actionName); err != nil {
		return err
	}

	if err := validation.Get().Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: validation.FormatValidationError(err),
		})
		return err
	}

	return nil
}

// decodeRequest decodes a JSON body without tag validation. Used for
// definitions, which the services default and validate themselves.
func decodeRequest(r *http.Request, w http.ResponseWriter, req interface{}, actionName string) error {
	log := logger.FromContext(r.Context())

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		log.Warn(fmt.Sprintf(LogMsgDecodeFailed, actionName), "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return err
	}

	log.Debug(fmt.Sprintf(LogMsgRequestDecoded, actionName))
	return nil
}

// userIDParam returns the {userID} path parameter, writing a 400 when absent
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, ErrMsgMissingUserID)
		return "", false
	}
	return userID, true
}

// intParam parses a positive integer path parameter, writing a 400 when invalid
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, fmt.Sprintf(ErrMsgInvalidPathParam, name))
		return 0, false
	}
	return n, true
}

// queryBool reads an optional boolean query parameter
func queryBool(r *http.Request, name string, defaultValue bool) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return defaultValue
	}
	return b
}

// operatorID returns the administrative caller, or "admin" when the header is absent
func operatorID(r *http.Request) string {
	if id := r.Header.Get(HeaderUserID); id != "" {
		return id
	}
	return "admin"
}
