package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const webSearchToolResultType = "web_search_tool_result"

// toolResultTransport normalizes Messages API responses before the SDK decodes
// them. A failed server-side web search reports its error as an object in the
// web_search_tool_result content, which the SDK only accepts as an array.
type toolResultTransport struct {
	next http.RoundTripper
}

func newToolResultTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &toolResultTransport{next: next}
}

func (t *toolResultTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK || resp.Body == nil {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read messages response: %w", err)
	}

	if fixed, changed := wrapToolResultErrors(body); changed {
		body = fixed
		resp.ContentLength = int64(len(body))
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// wrapToolResultErrors rewrites object-valued web search result content into a
// one-element array. Anything it cannot parse is returned untouched.
func wrapToolResultErrors(body []byte) ([]byte, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body, false
	}
	var blocks []map[string]json.RawMessage
	if err := json.Unmarshal(envelope["content"], &blocks); err != nil {
		return body, false
	}

	changed := false
	for _, block := range blocks {
		var blockType string
		if err := json.Unmarshal(block["type"], &blockType); err != nil || blockType != webSearchToolResultType {
			continue
		}
		content := bytes.TrimSpace(block["content"])
		if len(content) == 0 || content[0] != '{' {
			continue
		}
		block["content"] = append(append([]byte{'['}, content...), ']')
		changed = true
	}
	if !changed {
		return body, false
	}

	rewritten, err := json.Marshal(blocks)
	if err != nil {
		return body, false
	}
	envelope["content"] = rewritten
	out, err := json.Marshal(envelope)
	if err != nil {
		return body, false
	}
	return out, true
}
