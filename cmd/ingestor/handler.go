package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"

	"github.com/predatorx7/logshipper/pkg/ingest"
)

// maxFormMemory caps the in-memory part of multipart bodies.
const maxFormMemory = 1 << 20

type Handler struct {
	Ingester *ingest.Ingester
	log      logrus.FieldLogger
}

func NewHandler(in *ingest.Ingester, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Ingester: in,
		log:      log,
	}
}

// HandleLogs accepts fields named after severities and queues one line
// per present field. 200 when all were queued, 206 when some failed, 400 when
// none was present.
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(w, r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.Ingester.Ingest(r.Context(), fields)

	switch res.Outcome() {
	case ingest.OutcomeBadRequest:
		writeText(w, http.StatusBadRequest, ingest.MissingFieldsMessage)
	case ingest.OutcomePartial:
		h.log.WithField("errors", res.Errors).Warn("Some log lines were not queued")
		writeJSON(w, http.StatusPartialContent, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// parseFields merges body fields with the URL query, body values first.
// Bodies may be urlencoded, multipart or a JSON object; JSON values that are
// not strings are skipped.
func parseFields(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/json" {
		err := r.ParseMultipartForm(maxFormMemory)
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		return r.Form, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormMemory))
	if err != nil {
		return nil, err
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	fields := url.Values{}
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if v.Type() == fastjson.TypeString {
			fields.Add(string(key), string(v.GetStringBytes()))
		}
	})
	for k, vs := range r.URL.Query() {
		fields[k] = append(fields[k], vs...)
	}
	return fields, nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
