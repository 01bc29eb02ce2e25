package bench

import (
	"time"

	"github.com/surf-cli/surf/pkg/client"
)

const (
	DefaultRequests       = 100
	DefaultConcurrency    = 10
	DefaultConnectTimeout = 5 * time.Second
	DefaultMethod         = "GET"
)

type Options struct {
	Requests    int    `opt:"requests" validate:"min=1"`
	Concurrency int    `opt:"concurrency" validate:"min=1"`
	Method      string `opt:"method" validate:"required"`

	// Rate caps dispatched requests per second across all workers. Zero
	// means unlimited.
	Rate int `opt:"rate" validate:"min=0"`

	Client client.Options
}
