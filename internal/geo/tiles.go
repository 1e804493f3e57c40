package geo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/paleofauna/crabstat/internal/dataset"
)

// TileClient fetches slippy-map tiles for the optional site map. It is used
// only by the sitemap command; the statistical pipeline never touches the
// network.
type TileClient struct {
	httpClient     *http.Client
	baseURL        string
	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewTileClient returns a client with the given base URL (e.g. an OSM tile
// server) and timeout.
func NewTileClient(baseURL string, timeout time.Duration) *TileClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TileClient{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		retryAttempts:  3,
		retryBaseDelay: 500 * time.Millisecond,
	}
}

// TileXY converts WGS84 coordinates to slippy-map tile indices at a zoom
// level.
func TileXY(lat, lon float64, zoom int) (x, y int) {
	n := math.Exp2(float64(zoom))
	x = int((lon + 180) / 360 * n)
	latRad := lat * math.Pi / 180
	y = int((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)
	return x, y
}

// TileURL builds the tile URL covering the given site.
func (c *TileClient) TileURL(s dataset.Site, zoom int) string {
	x, y := TileXY(s.Lat, s.Lon, zoom)
	return fmt.Sprintf("%s/%d/%d/%d.png", c.baseURL, zoom, x, y)
}

// FetchTile downloads one tile, retrying transient server errors with
// exponential backoff.
func (c *TileClient) FetchTile(ctx context.Context, s dataset.Site, zoom int) ([]byte, error) {
	url := c.TileURL(s, zoom)
	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "crabstat-sitemap")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return body, nil
			} else if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, fmt.Errorf("fetch tile %s: status %s", url, resp.Status)
			} else {
				lastErr = fmt.Errorf("status %s", resp.Status)
			}
		}
		if attempt < c.retryAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("fetch tile %s: %w", url, lastErr)
}
