package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultWeb3FormsURL = "https://api.web3forms.com/submit"

// Web3FormsRelay posts form fields as JSON to a Web3Forms-compatible endpoint.
type Web3FormsRelay struct {
	httpClient *http.Client
	endpoint   string
}

// NewWeb3FormsRelay creates a relay. An empty endpoint uses the public API.
func NewWeb3FormsRelay(endpoint string) *Web3FormsRelay {
	if endpoint == "" {
		endpoint = defaultWeb3FormsURL
	}
	return &Web3FormsRelay{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   endpoint,
	}
}

// SubmitForm sends every field plus access_key. The relay answers with
// {"success": bool, "message": string} on both 2xx and 4xx; a body that
// cannot be decoded counts as a failed response without a message.
func (r *Web3FormsRelay) SubmitForm(ctx context.Context, fields Fields, destinationKey string) (Response, error) {
	body, err := encodePayload(fields, destinationKey)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := r.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("sending request: %w", err)
	}
	// Once the relay has answered, a failed close does not change the verdict.
	defer func() { _ = httpResp.Body.Close() }()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Response{}, nil
	}
	if httpResp.StatusCode >= 300 && resp.Success {
		resp.Success = false
	}
	return resp, nil
}

// encodePayload writes the fields as a JSON object in input order. A name
// that repeats (multi-select inputs) becomes an array of its values.
// access_key is always the destination key; a form field of that name is
// dropped.
func encodePayload(fields Fields, destinationKey string) ([]byte, error) {
	var names []string
	values := make(map[string][]string, len(fields))
	for _, f := range fields {
		if f.Name == "access_key" {
			continue
		}
		if _, seen := values[f.Name]; !seen {
			names = append(names, f.Name)
		}
		values[f.Name] = append(values[f.Name], f.Value)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, name := range names {
		var v any = values[name]
		if vs := values[name]; len(vs) == 1 {
			v = vs[0]
		}
		if err := writeMember(&buf, name, v); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeMember(&buf, "access_key", destinationKey); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, name string, v any) error {
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
