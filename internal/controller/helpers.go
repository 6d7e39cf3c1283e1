package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxBodySize = 1 << 20

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

// First match wins.
var errorMappings = []errorMapping{
	{domainErrors.ErrMalformedPayload, http.StatusBadRequest, "malformed_payload"},
	{domainErrors.ErrUnsupportedProvider, http.StatusBadRequest, "unsupported_provider"},
	{domainErrors.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
	{domainErrors.ErrProviderUnavailable, http.StatusServiceUnavailable, "provider_unavailable"},
	{domainErrors.ErrTransport, http.StatusBadGateway, "provider_transport_error"},
	{domainErrors.ErrAuthFailed, http.StatusBadGateway, "provider_auth_error"},
	{domainErrors.ErrConfiguration, http.StatusInternalServerError, "configuration_error"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeResponse relays a successful provider reply with its status code.
func writeResponse(w http.ResponseWriter, provider payment.Provider, resp *payment.Response) {
	if provider != "" {
		w.Header().Set("X-Payment-Provider", string(provider))
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	var apiErr *domainErrors.APIError
	if errors.As(err, &apiErr) {
		resp.Code = "provider_error"
		resp.Error = "payment provider rejected the request"
		resp.Provider = apiErr.Provider
		resp.ProviderStatus = apiErr.Status
		resp.ProviderBody = providerBody(apiErr.Body)
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			if m.status >= http.StatusInternalServerError {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("code", m.code).Msg("request failed")
			}
			if m.err == domainErrors.ErrConfiguration {
				resp.Error = "payment gateway is not configured"
			}
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// decodeFields reads a JSON object body. Numbers are kept as json.Number so
// minor-unit amounts survive untouched. An empty body yields empty fields.
func decodeFields(r *http.Request) (payment.Fields, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, domainErrors.NewValidationError("body", "failed to read body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return payment.Fields{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields payment.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if fields == nil {
		fields = payment.Fields{}
	}
	return fields, nil
}

// validateCurrency checks an optional ISO 4217 code before it reaches a provider.
func validateCurrency(fields payment.Fields) error {
	if !fields.Has("currency") {
		return nil
	}
	if err := validate.Var(fields.String("currency"), "alpha,len=3"); err != nil {
		return domainErrors.NewValidationError("currency", "must be a three letter ISO 4217 code")
	}
	return nil
}
