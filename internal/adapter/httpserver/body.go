package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/djmonitor/internal/platform/errors"
)

const maxBodyBytes = 64 << 10

const msgNoData = "no data received"

// requestFields is a decoded JSON object body. Keys with a null value count as absent.
type requestFields map[string]json.RawMessage

// readFields decodes the request body. An empty body, null or {} is rejected.
func readFields(c echo.Context) (requestFields, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.ValidationErrorf(err, "failed to read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperrors.ValidationError(msgNoData)
	}

	var fields requestFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperrors.ValidationErrorf(err, "request body must be a JSON object: %v", err)
	}
	if len(fields) == 0 {
		return nil, apperrors.ValidationError(msgNoData)
	}
	return fields, nil
}

func (f requestFields) lookup(key string) (json.RawMessage, bool) {
	raw, ok := f[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (f requestFields) optString(key string) (*string, error) {
	raw, ok := f.lookup(key)
	if !ok {
		return nil, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperrors.ValidationError(key+" must be a string").WithField("field", key)
	}
	return &v, nil
}

func (f requestFields) optBool(key string) (*bool, error) {
	raw, ok := f.lookup(key)
	if !ok {
		return nil, nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperrors.ValidationError(key+" must be a boolean").WithField("field", key)
	}
	return &v, nil
}

// text returns a string value, or the literal of a JSON number. Absent keys yield "".
func (f requestFields) text(key string) (string, error) {
	raw, ok := f.lookup(key)
	if !ok {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", apperrors.ValidationError(key+" must be a string or number").WithField("field", key)
}
