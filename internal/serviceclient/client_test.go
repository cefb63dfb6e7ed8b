package serviceclient

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kavex/Third3D-uploader/internal/config"
)

// newTestClient points a Client at an httptest.Server with short
// timeouts suitable for a local loopback connection.
func newTestClient(t *testing.T, srv *httptest.Server, cookies Cookies) *Client {
	t.Helper()
	cfg := &config.Runtime{
		BaseURL:             srv.URL,
		ControlPlaneTimeout: 5 * time.Second,
	}
	return New(cfg, cookies)
}
