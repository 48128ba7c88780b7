package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	createTenantSchema = jsonschema.MustCompileString("create_tenant.json", `{
		"type": "object",
		"properties": {
			"name":  {"type": "string"},
			"email": {"type": "string"},
			"note":  {"type": "string"}
		},
		"additionalProperties": false
	}`)

	// updateTenantSchema shares the create shape; absent fields are cleared.
	updateTenantSchema = createTenantSchema

	upsertPairSchema = jsonschema.MustCompileString("upsert_pair.json", `{
		"type": "object",
		"properties": {
			"value": {"type": "string"}
		},
		"required": ["value"],
		"additionalProperties": false
	}`)
)

type createTenantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Note  string `json:"note"`
}

type upsertPairRequest struct {
	Value string `json:"value"`
}

// badRequestError carries a message safe to return to the client.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeBody validates body against schema and then decodes it into dst.
// An empty body is accepted only when allowEmpty is set, leaving dst as is.
func decodeBody(body io.Reader, schema *jsonschema.Schema, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return badRequest("invalid json body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if allowEmpty {
			return nil
		}
		return badRequest("invalid json body")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return badRequest("invalid json body")
	}
	if err := ensureEOF(decoder); err != nil {
		return badRequest("invalid json body")
	}
	if err := schema.Validate(doc); err != nil {
		return badRequest("%s", schemaMessage(err))
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return badRequest("invalid json body")
	}
	return nil
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "invalid json body"
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation != "" {
		return ve.InstanceLocation + ": " + ve.Message
	}
	return ve.Message
}
