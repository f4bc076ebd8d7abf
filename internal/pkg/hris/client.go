package hris

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout = 10 * time.Second
	// Image uploads are larger than typical API calls and get their own,
	// longer budget.
	defaultUploadTimeout = 60 * time.Second
)

// Client is the attendance backend API client. Every request carries the
// configured bearer token via the oauth2 transport; submissions use a
// dedicated HTTP client with a longer timeout than the default API calls.
type Client struct {
	baseURL string
	http    *http.Client
	upload  *http.Client
}

func NewClient(baseURL, accessToken string, timeout, uploadTimeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	api := oauth2.NewClient(context.Background(), source)
	api.Timeout = timeout

	upload := oauth2.NewClient(context.Background(), source)
	upload.Timeout = uploadTimeout

	return &Client{
		baseURL: baseURL,
		http:    api,
		upload:  upload,
	}
}

// classifyTransportError folds transport failures into the pipeline's error
// kinds.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", punch.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", punch.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", punch.ErrNetworkUnreachable, err)
}
