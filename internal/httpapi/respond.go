package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/deanmartian/livets-stemme/internal/codec"
	"github.com/deanmartian/livets-stemme/internal/logger"
)

const (
	_maxJSONBody      = 1 << 20
	_maxMultipartBody = 50 << 20
	_multipartMemory  = 10 << 20
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = codec.Encode(w, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// log returns the request scoped logger set up by the requestID middleware.
func (a *API) log(r *http.Request) logger.Logger {
	if id := RequestID(r.Context()); id != "" {
		return a.logger.With("request_id", id)
	}
	return a.logger
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, _maxJSONBody)
	defer body.Close()

	if err := codec.Decode(body, v); err != nil {
		return fmt.Errorf("%w: can't decode request body", err)
	}
	return nil
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, _maxMultipartBody)
	if err := r.ParseMultipartForm(_multipartMemory); err != nil {
		return fmt.Errorf("%w: can't parse multipart form", err)
	}
	return nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: can't open %s", err, fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: can't read %s", err, fh.Filename)
	}
	return data, nil
}
