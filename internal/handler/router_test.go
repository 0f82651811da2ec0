package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceplane/designbridge/internal/config"
	"github.com/sourceplane/designbridge/internal/schema"
	"github.com/sourceplane/designbridge/internal/session"
)

const ocaDoc = `{
  "capture_bases": [
    {"type": "spec/capture_base/1.0", "digest": "owner",
     "attributes": {"firstname": "Text", "lastname": "Text", "pets": "Array[refs:pet]"}},
    {"type": "spec/capture_base/1.0", "digest": "pet", "attributes": {"name": "Text", "race": "Text"}}
  ],
  "overlays": [
    {"type": "extend/overlays/data_source/1.0", "capture_base": "owner", "format": "json",
     "attribute_sources": {"firstname": "$.firstname", "lastname": "$.lastname", "pets": "$.pets"}},
    {"type": "extend/overlays/data_source/1.0", "capture_base": "pet", "format": "json",
     "attribute_sources": {"name": "$.pets[*].name", "race": "$.pets[*].race"}},
    {"type": "aries/overlays/branding/1.1", "capture_base": "owner", "language": "en",
     "primary_background_color": "#003366", "primary_field": "{{firstname}} {{lastname}}"},
    {"type": "spec/overlays/meta/1.0", "capture_base": "owner", "language": "en", "name": "Pet Permit"}
  ]
}`

const danglingDoc = `{
  "capture_bases": [{"type": "spec/capture_base/1.0", "digest": "owner", "attributes": {}}],
  "overlays": [
    {"type": "spec/overlays/meta/1.0", "capture_base": "X", "language": "en", "name": "Pet Permit"}
  ]
}`

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []ErrorItem     `json:"errors"`
}

func newTestRouter(t *testing.T, maxBody int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	validator, err := schema.NewValidator()
	require.NoError(t, err)

	cfg := &config.Config{Server: config.ServerConfig{Port: "0", MaxBodyBytes: maxBody}}
	return NewRouter(cfg, validator, session.NewStore())
}

func perform(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func dataOf(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestHealthAndNoRoute(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	w, _ := perform(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, env := perform(t, router, http.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", env.Message)
}

func TestDetect(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	w, env := perform(t, router, http.MethodPost, "/api/v1/detect", ocaDoc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OCA", dataOf(t, env)["format"])

	w, env = perform(t, router, http.MethodPost, "/api/v1/detect", "hello: world\n")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Unknown", dataOf(t, env)["format"])

	w, _ = perform(t, router, http.MethodPost, "/api/v1/detect", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	w, env := perform(t, router, http.MethodPost, "/api/v1/validate", ocaDoc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"valid": true, "error": nil}, dataOf(t, env))

	w, env = perform(t, router, http.MethodPost, "/api/v1/validate", danglingDoc)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, env)
	assert.Equal(t, false, data["valid"])
	assert.Contains(t, data["error"], `references non-existent capture_base "X"`)

	// Check every violation is listed
	w, env = perform(t, router, http.MethodPost, "/api/v1/validate?all=true", danglingDoc)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", env.Message)
	codes := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, "dangling_capture_base")
	assert.Contains(t, codes, "missing_overlay")

	strict := strings.Replace(ocaDoc, `"firstname": "Text"`, `"firstname": "Blob"`, 1)
	w, env = perform(t, router, http.MethodPost, "/api/v1/validate?strict=true", strict)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "schema", env.Errors[0].Code)
}

func TestConvert(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	w, env := perform(t, router, http.MethodPost, "/api/v1/convert", ocaDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, env)
	assert.Equal(t, "ProcivisOne", data["format"])
	document := data["document"].(map[string]any)
	assert.Equal(t, "Pet Permit", document["name"])
	assert.Len(t, document["claims"], 3)

	// Convert the result back
	p1, err := json.Marshal(document)
	require.NoError(t, err)
	w, env = perform(t, router, http.MethodPost, "/api/v1/convert?target=oca", string(p1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "OCA", dataOf(t, env)["format"])

	w, _ = perform(t, router, http.MethodPost, "/api/v1/convert?target=xml", ocaDoc)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, router, http.MethodPost, "/api/v1/convert", `{"foo": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, router, http.MethodPost, "/api/v1/convert?target=oca", `{"foo": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Invalid OCA is refused before conversion
	broken := strings.Replace(danglingDoc, `"overlays": [`, `"overlays": [{"type": "aries/overlays/branding/1.1", "capture_base": "owner"},`, 1)
	w, _ = perform(t, router, http.MethodPost, "/api/v1/convert", broken)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMalformedSpecificationReportsValidatorMessage(t *testing.T) {
	router := newTestRouter(t, 1<<20)
	malformed := strings.Replace(ocaDoc,
		`"attributes": {"name": "Text", "race": "Text"}`, `"attributes": "oops"`, 1)
	require.NotEqual(t, ocaDoc, malformed)
	const message = "capture_bases[1]: attributes must be an object"

	w, env := perform(t, router, http.MethodPost, "/api/v1/validate", malformed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"valid": false, "error": message}, dataOf(t, env))

	w, env = perform(t, router, http.MethodPost, "/api/v1/convert", malformed)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Message, message)

	w, env = perform(t, router, http.MethodPost, "/api/v1/convert?target=oca", malformed)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Message, message)

	w, env = perform(t, router, http.MethodPost, "/api/v1/infer", malformed)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Message, message)
}

func TestInferAndPreview(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	w, env := perform(t, router, http.MethodPost, "/api/v1/infer", ocaDoc)
	require.Equal(t, http.StatusOK, w.Code)
	shape := dataOf(t, env)
	assert.Equal(t, map[string]any{"root": []any{"firstname", "lastname"}}, shape["simple"])
	assert.Equal(t, map[string]any{"pets": map[string]any{"fields": []any{"name", "race"}}}, shape["arrays"])

	body, err := json.Marshal(map[string]any{
		"document": json.RawMessage(ocaDoc),
		"data":     map[string]any{"firstname": "Ada", "lastname": "Lovelace"},
	})
	require.NoError(t, err)
	w, env = perform(t, router, http.MethodPost, "/api/v1/preview", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := dataOf(t, env)
	assert.Equal(t, "Pet Permit", preview["title"])
	assert.Equal(t, "Ada Lovelace", preview["primaryField"])

	w, env = perform(t, router, http.MethodPost, "/api/v1/preview", `{"data": {}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "document", env.Errors[0].Field)
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	w, env := perform(t, router, http.MethodPost, "/api/v1/sessions", ocaDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := dataOf(t, env)
	id := created["id"].(string)
	assert.Equal(t, "OCA", created["format"])
	base := "/api/v1/sessions/" + id

	w, _ = perform(t, router, http.MethodPatch, base+"/data", `{"path": "firstname", "value": "Ada"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = perform(t, router, http.MethodPatch, base+"/data", `{"path": "lastname", "value": "Lovelace"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = perform(t, router, http.MethodGet, base+"/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada Lovelace", dataOf(t, env)["primaryField"])

	// An invalid document is refused and the session keeps the old one
	w, env = perform(t, router, http.MethodPut, base+"/document", danglingDoc)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_specification", env.Errors[0].Code)

	w, env = perform(t, router, http.MethodPost, base+"/format", `{"target": "procivisone"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ProcivisOne", dataOf(t, env)["format"])

	w, env = perform(t, router, http.MethodGet, base+"/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada", dataOf(t, env)["primaryText"])

	w, env = perform(t, router, http.MethodGet, base+"/shape", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, dataOf(t, env)["arrays"], "pets")

	w, env = perform(t, router, http.MethodPut, base+"/data", `{"firstname": "Grace"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"firstname": "Grace"}, dataOf(t, env)["data"])

	w, _ = perform(t, router, http.MethodPost, base+"/format", `{"target": "xml"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, router, http.MethodDelete, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = perform(t, router, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionErrors(t *testing.T) {
	router := newTestRouter(t, 1<<20)

	// Invalid seed documents do not leave a session behind
	w, _ := perform(t, router, http.MethodPost, "/api/v1/sessions", danglingDoc)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = perform(t, router, http.MethodGet, "/health", "")
	assert.Contains(t, w.Body.String(), `"sessions":0`)

	w, env := perform(t, router, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	base := "/api/v1/sessions/" + dataOf(t, env)["id"].(string)

	w, _ = perform(t, router, http.MethodGet, base+"/preview", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, env = perform(t, router, http.MethodPatch, base+"/data", `{"value": "x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "path", env.Errors[0].Field)

	w, _ = perform(t, router, http.MethodPatch, base+"/data", `{"path": "a.b.c", "value": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, router, http.MethodPut, base+"/document", `{"foo": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBodyLimit(t *testing.T) {
	router := newTestRouter(t, 16)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader([]byte(ocaDoc)))
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}
