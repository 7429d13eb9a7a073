package common

import (
	"fmt"
	"net/http"
	"time"

	"github.com/levenlabs/go-lflag"
)

// ConfiguredHTTPClient returns the client shared by every API loader. The
// timeout is applied once flags are parsed.
func ConfiguredHTTPClient() *http.Client {
	c := HTTPClient(10 * time.Second)
	timeout := lflag.Duration("http-timeout", 10*time.Second, "Timeout for a single API request")

	lflag.Do(func() {
		if *timeout <= 0 {
			panic(fmt.Sprintf("http-timeout must be positive: %s", *timeout))
		}
		c.Timeout = *timeout
	})

	return c
}
