package formflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/goliatone/go-formflow/pkg/schema/openapi"
)

// ImportOpenAPI reads the OpenAPI document at raw (a path or an http(s) URL)
// and imports the form called name. The name is looked up as a component
// schema first and as an operationId second. The schema defaults are returned
// as the initial values.
func ImportOpenAPI(ctx context.Context, raw, name string, options ...openapi.Option) (Document, Values, error) {
	data, err := readLocation(ctx, raw)
	if err != nil {
		return Document{}, nil, err
	}
	imp, err := openapi.Load(ctx, data, options...)
	if err != nil {
		return Document{}, nil, err
	}
	result, err := imp.Schema(name)
	if errors.Is(err, openapi.ErrSchemaNotFound) {
		result, err = imp.Operation(name)
	}
	if err != nil {
		return Document{}, nil, err
	}
	return result.Document, result.Defaults, nil
}

func readLocation(ctx context.Context, raw string) ([]byte, error) {
	src, err := ParseSource(raw)
	if err != nil {
		return nil, err
	}
	if !isURL(src.Location()) {
		data, err := os.ReadFile(src.Location())
		if err != nil {
			return nil, fmt.Errorf("formflow: read %s: %w", src.Location(), err)
		}
		return data, nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("formflow: fetch %s: %w", src.Location(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("formflow: fetch %s: unexpected status %d", src.Location(), resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
