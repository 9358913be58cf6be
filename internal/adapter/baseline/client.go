package baseline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cropsense/crop-analysis/internal/domain"
)

// Client implements domain.BaselineProvider against a baseline archive
// service: an HTTP endpoint serving historical mean grids per field and
// calendar period.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a baseline archive client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaselineFor fetches the historical baseline grid for a field and period.
// A 404 means the archive holds no history yet and yields (nil, nil) so the
// caller can proceed without an anomaly.
func (c *Client) BaselineFor(ctx context.Context, fieldID, period string, rows, cols int) (*mat.Dense, error) {
	u := fmt.Sprintf("%s/baselines/%s/%s", c.baseURL, url.PathEscape(fieldID), url.PathEscape(period))
	params := url.Values{
		"rows": {fmt.Sprint(rows)},
		"cols": {fmt.Sprint(cols)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("baseline request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("baseline archive error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(payload.Grid) != rows {
		return nil, domain.ErrShapeMismatch
	}
	out := mat.NewDense(rows, cols, nil)
	for r, row := range payload.Grid {
		if len(row) != cols {
			return nil, domain.ErrShapeMismatch
		}
		out.SetRow(r, row)
	}
	return out, nil
}

// Baseline archive response types.

type response struct {
	FieldID string      `json:"field_id"`
	Period  string      `json:"period"`
	Grid    [][]float64 `json:"grid"`
}
